package peer

import (
	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// DataChannel — тонкая обёртка над дескриптором канала данных engine.
// Байтовая передача остаётся на стороне engine, здесь хранится только
// наблюдаемое состояние канала.
type DataChannel struct {
	id         int
	label      string
	ordered    bool
	protocol   string
	negotiated bool
	readyState string
}

func newDataChannel(info engine.DataChannelInfo) *DataChannel {
	readyState := info.ReadyState
	if readyState == "" {
		readyState = "connecting"
	}
	return &DataChannel{
		id:         info.ID,
		label:      info.Label,
		ordered:    info.Ordered,
		protocol:   info.Protocol,
		negotiated: info.Negotiated,
		readyState: readyState,
	}
}

// ID возвращает идентификатор канала.
func (d *DataChannel) ID() int { return d.id }

// Label возвращает метку канала.
func (d *DataChannel) Label() string { return d.label }

// Ordered сообщает, упорядочена ли доставка.
func (d *DataChannel) Ordered() bool { return d.ordered }

// Protocol возвращает согласованный подпротокол.
func (d *DataChannel) Protocol() string { return d.protocol }

// Negotiated сообщает, согласован ли канал приложением.
func (d *DataChannel) Negotiated() bool { return d.negotiated }

// ReadyState возвращает состояние готовности канала.
func (d *DataChannel) ReadyState() string { return d.readyState }
