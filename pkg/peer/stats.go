package peer

import (
	"encoding/json"
	"fmt"
)

// StatsReport — статистика сессии: отображение key -> report,
// восстановленное из сериализованного списка пар engine.
type StatsReport map[string]map[string]any

// decodeStats разбирает формат getStats: JSON-список пар [key, report].
func decodeStats(raw []byte) (StatsReport, error) {
	var pairs [][]json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("ошибка разбора статистики: %w", err)
	}

	report := make(StatsReport, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("пара статистики %d: ожидалось 2 элемента, получено %d", i, len(pair))
		}
		var key string
		if err := json.Unmarshal(pair[0], &key); err != nil {
			return nil, fmt.Errorf("пара статистики %d: ключ: %w", i, err)
		}
		var entry map[string]any
		if err := json.Unmarshal(pair[1], &entry); err != nil {
			return nil, fmt.Errorf("пара статистики %d (%s): report: %w", i, key, err)
		}
		report[key] = entry
	}
	return report, nil
}
