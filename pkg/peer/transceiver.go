package peer

import (
	"fmt"
	"sync"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// Transceiver — согласованная пара sender/receiver для одной медиа-линии.
//
// Идентификатор назначается engine и стабилен между слияниями: повторное
// появление того же id в снапшоте обновляет существующий объект на месте,
// а не создаёт новый. Ссылка, полученная вызывающим, остаётся валидной до
// конца жизни сессии, даже если transceiver выпал из видимого порядка.
type Transceiver struct {
	mu sync.RWMutex

	id               string
	mid              string
	direction        string
	currentDirection string
	stopped          bool
	sender           engine.SenderState
	receiver         engine.ReceiverState
}

func newTransceiver(fr engine.TransceiverState) *Transceiver {
	tr := &Transceiver{id: fr.ID}
	tr.apply(fr)
	return tr
}

// apply обновляет поля из фрагмента снапшота. Идентификатор не меняется.
func (t *Transceiver) apply(fr engine.TransceiverState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mid = fr.Mid
	t.direction = fr.Direction
	t.currentDirection = fr.CurrentDirection
	t.stopped = fr.Stopped
	if fr.Sender != nil {
		t.sender = *fr.Sender
	}
	if fr.Receiver != nil {
		t.receiver = *fr.Receiver
	}
}

// ID возвращает идентификатор transceiver, назначенный engine.
func (t *Transceiver) ID() string { return t.id }

// Mid возвращает media line id из последнего применённого снапшота.
func (t *Transceiver) Mid() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mid
}

// Direction возвращает запрошенное направление.
func (t *Transceiver) Direction() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.direction
}

// CurrentDirection возвращает согласованное направление.
func (t *Transceiver) CurrentDirection() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentDirection
}

// Stopped сообщает, остановлен ли transceiver.
func (t *Transceiver) Stopped() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stopped
}

// Sender возвращает копию состояния sender.
func (t *Transceiver) Sender() engine.SenderState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sender
}

// Receiver возвращает копию состояния receiver.
func (t *Transceiver) Receiver() engine.ReceiverState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.receiver
}

func (t *Transceiver) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fmt.Sprintf("Transceiver{id: %s, mid: %s, direction: %s}", t.id, t.mid, t.direction)
}

// transceiverTable — упорядоченная коллекция transceiver-ов сессии.
//
// Хранилище (byID) и видимый порядок (order) разделены: reorder меняет
// только порядок перечисления, объекты из byID никогда не удаляются и не
// пересоздаются — так внешние ссылки на Transceiver не инвалидируются.
// Таблица не синхронизирована сама по себе: все мутации идут под мьютексом
// сессии.
type transceiverTable struct {
	byID  map[string]*Transceiver
	order []string
}

func newTransceiverTable() transceiverTable {
	return transceiverTable{byID: make(map[string]*Transceiver)}
}

// lookup находит transceiver по идентификатору.
func (tb *transceiverTable) lookup(id string) (*Transceiver, bool) {
	tr, ok := tb.byID[id]
	return tr, ok
}

// upsert создаёт transceiver при первом появлении id или обновляет
// существующий объект на месте. Возвращается всегда один и тот же объект
// для одного id. Новый transceiver дописывается в конец видимого порядка.
func (tb *transceiverTable) upsert(fr engine.TransceiverState) *Transceiver {
	if tr, ok := tb.byID[fr.ID]; ok {
		tr.apply(fr)
		return tr
	}
	tr := newTransceiver(fr)
	tb.byID[fr.ID] = tr
	tb.order = append(tb.order, fr.ID)
	return tr
}

// reorder заменяет видимый порядок на последовательность ids, сохраняя
// идентичность объектов. Неизвестные id молча отбрасываются — таблица
// никогда не фабрикует заглушки. Отсутствующие в ids transceiver-ы
// выпадают из порядка, но остаются в хранилище.
func (tb *transceiverTable) reorder(ids []string) {
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := tb.byID[id]; ok {
			next = append(next, id)
		}
	}
	tb.order = next
}

// visible возвращает срез transceiver-ов в видимом порядке (копия среза,
// объекты разделяются намеренно).
func (tb *transceiverTable) visible() []*Transceiver {
	out := make([]*Transceiver, 0, len(tb.order))
	for _, id := range tb.order {
		out = append(out, tb.byID[id])
	}
	return out
}
