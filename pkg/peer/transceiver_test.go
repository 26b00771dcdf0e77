package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// === ТЕСТЫ ТАБЛИЦЫ TRANSCEIVER-ОВ ===

// TestTableUpsertPreservesIdentity проверяет, что повторный upsert одного id
// обновляет существующий объект, а не создаёт второй
func TestTableUpsertPreservesIdentity(t *testing.T) {
	tb := newTransceiverTable()

	first := tb.upsert(engine.TransceiverState{ID: "a", Mid: "0", Direction: "sendrecv"})
	require.NotNil(t, first)
	assert.Equal(t, "a", first.ID())
	assert.Equal(t, "sendrecv", first.Direction())

	second := tb.upsert(engine.TransceiverState{ID: "a", Mid: "0", Direction: "recvonly"})
	assert.Same(t, first, second, "upsert существующего id должен вернуть тот же объект")
	assert.Equal(t, "recvonly", first.Direction(), "поля должны обновиться на месте")
}

// TestTableReorder проверяет перестановку видимого порядка по списку id
func TestTableReorder(t *testing.T) {
	tb := newTransceiverTable()
	tb.upsert(engine.TransceiverState{ID: "a"})
	tb.upsert(engine.TransceiverState{ID: "b"})
	tb.upsert(engine.TransceiverState{ID: "c"})

	tests := []struct {
		name  string
		ids   []string
		want  []string
		total int
	}{
		{
			name:  "Обратный порядок",
			ids:   []string{"c", "b", "a"},
			want:  []string{"c", "b", "a"},
			total: 3,
		},
		{
			name:  "Выпадение из порядка не разрушает объект",
			ids:   []string{"b", "c"},
			want:  []string{"b", "c"},
			total: 3,
		},
		{
			name:  "Неизвестные id отбрасываются без заглушек",
			ids:   []string{"b", "x", "a"},
			want:  []string{"b", "a"},
			total: 3,
		},
		{
			name:  "Пустой порядок скрывает все",
			ids:   nil,
			want:  nil,
			total: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb.reorder(tt.ids)

			var got []string
			for _, tr := range tb.visible() {
				got = append(got, tr.ID())
			}
			assert.Equal(t, tt.want, got)
			assert.Len(t, tb.byID, tt.total, "хранилище никогда не сжимается")
		})
	}
}

// TestTableLookupAfterDrop проверяет, что ссылка остаётся валидной после
// выпадения transceiver из видимого порядка
func TestTableLookupAfterDrop(t *testing.T) {
	tb := newTransceiverTable()
	a := tb.upsert(engine.TransceiverState{ID: "a", Mid: "0"})
	tb.upsert(engine.TransceiverState{ID: "b", Mid: "1"})

	tb.reorder([]string{"b"})

	got, ok := tb.lookup("a")
	require.True(t, ok, "выпавший из порядка transceiver должен оставаться в хранилище")
	assert.Same(t, a, got)
	assert.Equal(t, "0", got.Mid(), "поля не должны мутироваться при reorder")
}

// TestTransceiverApplyPartialSenderReceiver проверяет, что nil sender/receiver
// во фрагменте не затирает прежние значения
func TestTransceiverApplyPartialSenderReceiver(t *testing.T) {
	tb := newTransceiverTable()
	tr := tb.upsert(engine.TransceiverState{
		ID:       "a",
		Sender:   &engine.SenderState{ID: "s1", TrackID: "t1"},
		Receiver: &engine.ReceiverState{ID: "r1"},
	})

	tb.upsert(engine.TransceiverState{ID: "a", Mid: "2"})

	assert.Equal(t, "s1", tr.Sender().ID, "sender сохраняется при частичном фрагменте")
	assert.Equal(t, "r1", tr.Receiver().ID, "receiver сохраняется при частичном фрагменте")
	assert.Equal(t, "2", tr.Mid())
}
