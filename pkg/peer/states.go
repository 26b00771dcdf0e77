package peer

// SignalingState — фаза offer/answer согласования. Значение всегда
// зеркалирует авторитетное состояние engine: контроллер не вычисляет
// переходы сам, а только применяет события signaling-state-changed.
type SignalingState int

const (
	SignalingStable SignalingState = iota
	SignalingHaveLocalOffer
	SignalingHaveRemoteOffer
	SignalingHaveLocalPranswer
	SignalingHaveRemotePranswer
	SignalingClosed
)

var signalingStateNames = map[SignalingState]string{
	SignalingStable:             "stable",
	SignalingHaveLocalOffer:     "have-local-offer",
	SignalingHaveRemoteOffer:    "have-remote-offer",
	SignalingHaveLocalPranswer:  "have-local-pranswer",
	SignalingHaveRemotePranswer: "have-remote-pranswer",
	SignalingClosed:             "closed",
}

func (s SignalingState) String() string {
	if name, ok := signalingStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ICEGatheringState — состояние сбора ICE candidate.
type ICEGatheringState int

const (
	ICEGatheringNew ICEGatheringState = iota
	ICEGatheringGathering
	ICEGatheringComplete
)

var iceGatheringStateNames = map[ICEGatheringState]string{
	ICEGatheringNew:       "new",
	ICEGatheringGathering: "gathering",
	ICEGatheringComplete:  "complete",
}

func (s ICEGatheringState) String() string {
	if name, ok := iceGatheringStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ConnectionState — агрегированное состояние соединения.
// ConnectionClosed — терминальное: его достижение запускает необратимый
// teardown подписок на события.
type ConnectionState int

const (
	ConnectionNew ConnectionState = iota
	ConnectionConnecting
	ConnectionConnected
	ConnectionDisconnected
	ConnectionFailed
	ConnectionClosed
)

var connectionStateNames = map[ConnectionState]string{
	ConnectionNew:          "new",
	ConnectionConnecting:   "connecting",
	ConnectionConnected:    "connected",
	ConnectionDisconnected: "disconnected",
	ConnectionFailed:       "failed",
	ConnectionClosed:       "closed",
}

func (s ConnectionState) String() string {
	if name, ok := connectionStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ICEConnectionState — состояние ICE connectivity checks.
// ICEConnectionClosed — терминальное, как и ConnectionClosed.
type ICEConnectionState int

const (
	ICEConnectionNew ICEConnectionState = iota
	ICEConnectionChecking
	ICEConnectionConnected
	ICEConnectionCompleted
	ICEConnectionFailed
	ICEConnectionDisconnected
	ICEConnectionClosed
)

var iceConnectionStateNames = map[ICEConnectionState]string{
	ICEConnectionNew:          "new",
	ICEConnectionChecking:     "checking",
	ICEConnectionConnected:    "connected",
	ICEConnectionCompleted:    "completed",
	ICEConnectionFailed:       "failed",
	ICEConnectionDisconnected: "disconnected",
	ICEConnectionClosed:       "closed",
}

func (s ICEConnectionState) String() string {
	if name, ok := iceConnectionStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Обратные отображения для разбора значений из событий engine.
// Неизвестная строка трактуется как malformed payload: событие
// молча игнорируется.

func signalingStateFromString(v string) (SignalingState, bool) {
	for state, name := range signalingStateNames {
		if name == v {
			return state, true
		}
	}
	return 0, false
}

func iceGatheringStateFromString(v string) (ICEGatheringState, bool) {
	for state, name := range iceGatheringStateNames {
		if name == v {
			return state, true
		}
	}
	return 0, false
}

func connectionStateFromString(v string) (ConnectionState, bool) {
	for state, name := range connectionStateNames {
		if name == v {
			return state, true
		}
	}
	return 0, false
}

func iceConnectionStateFromString(v string) (ICEConnectionState, bool) {
	for state, name := range iceConnectionStateNames {
		if name == v {
			return state, true
		}
	}
	return 0, false
}
