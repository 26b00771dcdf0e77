package engine

// EventKind — закрытый набор категорий событий engine.
type EventKind int

const (
	EventRenegotiationNeeded EventKind = iota
	EventICEConnectionChanged
	EventConnectionStateChanged
	EventSignalingStateChanged
	EventStreamAdded
	EventTransceiverStartedReceiving
	EventReceiverAdded
	EventStreamRemoved
	EventMuteChanged
	EventICECandidateFound
	EventICEGatheringChanged
	EventDataChannelOpened
)

func (k EventKind) String() string {
	switch k {
	case EventRenegotiationNeeded:
		return "renegotiation-needed"
	case EventICEConnectionChanged:
		return "ice-connection-changed"
	case EventConnectionStateChanged:
		return "connection-state-changed"
	case EventSignalingStateChanged:
		return "signaling-state-changed"
	case EventStreamAdded:
		return "stream-added"
	case EventTransceiverStartedReceiving:
		return "transceiver-started-receiving"
	case EventReceiverAdded:
		return "receiver-added"
	case EventStreamRemoved:
		return "stream-removed"
	case EventMuteChanged:
		return "mute-changed"
	case EventICECandidateFound:
		return "ice-candidate-found"
	case EventICEGatheringChanged:
		return "ice-gathering-changed"
	case EventDataChannelOpened:
		return "data-channel-opened"
	default:
		return "unknown"
	}
}

// EventKinds перечисляет все распознаваемые категории событий.
var EventKinds = []EventKind{
	EventRenegotiationNeeded,
	EventICEConnectionChanged,
	EventConnectionStateChanged,
	EventSignalingStateChanged,
	EventStreamAdded,
	EventTransceiverStartedReceiving,
	EventReceiverAdded,
	EventStreamRemoved,
	EventMuteChanged,
	EventICECandidateFound,
	EventICEGatheringChanged,
	EventDataChannelOpened,
}

// Event — событие engine. Каждое событие несёт идентификатор сессии-владельца;
// события чужих сессий отбрасываются без побочных эффектов.
type Event interface {
	SessionID() uint64
	Kind() EventKind
}

// RenegotiationNeeded — требуется повторное согласование.
type RenegotiationNeeded struct {
	PeerConnectionID uint64
}

func (e RenegotiationNeeded) SessionID() uint64 { return e.PeerConnectionID }
func (e RenegotiationNeeded) Kind() EventKind   { return EventRenegotiationNeeded }

// ICEConnectionChanged — engine сообщает новое значение iceConnectionState.
type ICEConnectionChanged struct {
	PeerConnectionID   uint64
	ICEConnectionState string
}

func (e ICEConnectionChanged) SessionID() uint64 { return e.PeerConnectionID }
func (e ICEConnectionChanged) Kind() EventKind   { return EventICEConnectionChanged }

// ConnectionStateChanged — engine сообщает новое значение connectionState.
type ConnectionStateChanged struct {
	PeerConnectionID uint64
	ConnectionState  string
}

func (e ConnectionStateChanged) SessionID() uint64 { return e.PeerConnectionID }
func (e ConnectionStateChanged) Kind() EventKind   { return EventConnectionStateChanged }

// SignalingStateChanged — engine сообщает новое значение signalingState.
type SignalingStateChanged struct {
	PeerConnectionID uint64
	SignalingState   string
}

func (e SignalingStateChanged) SessionID() uint64 { return e.PeerConnectionID }
func (e SignalingStateChanged) Kind() EventKind   { return EventSignalingStateChanged }

// StreamAdded — удалённая сторона добавила поток.
type StreamAdded struct {
	PeerConnectionID uint64
	Stream           StreamInfo
	SDP              *SessionDescription
}

func (e StreamAdded) SessionID() uint64 { return e.PeerConnectionID }
func (e StreamAdded) Kind() EventKind   { return EventStreamAdded }

// TransceiverStartedReceiving — transceiver начал приём медиа.
// Несёт частичное обновление состояния, не авторитетный порядок.
type TransceiverStartedReceiving struct {
	PeerConnectionID uint64
	Transceiver      TransceiverState
}

func (e TransceiverStartedReceiving) SessionID() uint64 { return e.PeerConnectionID }
func (e TransceiverStartedReceiving) Kind() EventKind   { return EventTransceiverStartedReceiving }

// ReceiverAdded — появился новый receiver с ассоциированными потоками.
type ReceiverAdded struct {
	PeerConnectionID uint64
	Streams          []StreamInfo
	Receiver         *ReceiverState
	TransceiverID    string
}

func (e ReceiverAdded) SessionID() uint64 { return e.PeerConnectionID }
func (e ReceiverAdded) Kind() EventKind   { return EventReceiverAdded }

// StreamRemoved — удалённая сторона убрала поток.
type StreamRemoved struct {
	PeerConnectionID uint64
	StreamTag        string
	SDP              *SessionDescription
}

func (e StreamRemoved) SessionID() uint64 { return e.PeerConnectionID }
func (e StreamRemoved) Kind() EventKind   { return EventStreamRemoved }

// MuteChanged — изменился mute-флаг трека.
type MuteChanged struct {
	PeerConnectionID uint64
	StreamTag        string
	TrackID          string
	Muted            bool
}

func (e MuteChanged) SessionID() uint64 { return e.PeerConnectionID }
func (e MuteChanged) Kind() EventKind   { return EventMuteChanged }

// ICECandidateFound — найден локальный ICE candidate; SDP несёт обновлённое
// local description.
type ICECandidateFound struct {
	PeerConnectionID uint64
	SDP              *SessionDescription
	Candidate        *ICECandidate
}

func (e ICECandidateFound) SessionID() uint64 { return e.PeerConnectionID }
func (e ICECandidateFound) Kind() EventKind   { return EventICECandidateFound }

// ICEGatheringChanged — изменилось состояние сбора ICE candidate.
type ICEGatheringChanged struct {
	PeerConnectionID  uint64
	ICEGatheringState string
	SDP               *SessionDescription
}

func (e ICEGatheringChanged) SessionID() uint64 { return e.PeerConnectionID }
func (e ICEGatheringChanged) Kind() EventKind   { return EventICEGatheringChanged }

// DataChannelOpened — удалённая сторона открыла data channel.
type DataChannelOpened struct {
	PeerConnectionID uint64
	Channel          DataChannelInfo
}

func (e DataChannelOpened) SessionID() uint64 { return e.PeerConnectionID }
func (e DataChannelOpened) Kind() EventKind   { return EventDataChannelOpened }
