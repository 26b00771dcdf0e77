package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeStats проверяет восстановление mapping из списка пар
func TestDecodeStats(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		expectError bool
		keys        int
	}{
		{
			name: "Пары key-report",
			raw:  `[["a",{"x":1}],["b",{"y":"z"}]]`,
			keys: 2,
		},
		{
			name: "Пустой список",
			raw:  `[]`,
			keys: 0,
		},
		{
			name:        "Не JSON",
			raw:         `{{{`,
			expectError: true,
		},
		{
			name:        "Пара неверной длины",
			raw:         `[["a"]]`,
			expectError: true,
		},
		{
			name:        "Неверный тип ключа",
			raw:         `[[42,{"x":1}]]`,
			expectError: true,
		},
		{
			name:        "Report не объект",
			raw:         `[["a",17]]`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := decodeStats([]byte(tt.raw))
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, report, tt.keys)
		})
	}
}
