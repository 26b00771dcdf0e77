package engine

import "context"

// SessionDescription — опаковое описание сессии (offer/answer/pranswer).
// Контроллер не парсит SDP, а только хранит и передаёт его.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// ICECandidate — опаковое значение ICE candidate.
type ICECandidate struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid"`
	SDPMLineIndex int    `json:"sdpMLineIndex"`
}

// TrackInfo описывает медиа-трек так, как его видит engine.
type TrackInfo struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Muted   bool   `json:"muted"`
}

// StreamInfo описывает медиа-поток. Tag — идентификатор, назначенный engine,
// по нему контроллер находит поток в своих коллекциях.
type StreamInfo struct {
	Tag    string      `json:"streamReactTag"`
	ID     string      `json:"streamId"`
	Tracks []TrackInfo `json:"tracks"`
}

// SenderState — состояние RTP sender внутри transceiver.
type SenderState struct {
	ID        string   `json:"id"`
	TrackID   string   `json:"trackId"`
	StreamIDs []string `json:"streamIds"`
}

// ReceiverState — состояние RTP receiver внутри transceiver.
type ReceiverState struct {
	ID    string     `json:"id"`
	Track *TrackInfo `json:"track"`
}

// TransceiverState — фрагмент состояния одного transceiver в снапшоте.
// ID назначается engine, стабилен на протяжении всей жизни сессии и
// служит ключом для слияния (upsert) в таблице transceiver-ов.
type TransceiverState struct {
	ID               string         `json:"id"`
	Mid              string         `json:"mid"`
	Direction        string         `json:"direction"`
	CurrentDirection string         `json:"currentDirection"`
	Stopped          bool           `json:"stopped"`
	Sender           *SenderState   `json:"sender"`
	Receiver         *ReceiverState `json:"receiver"`
}

// Snapshot — авторитетный (возможно частичный) срез состояния сессии,
// возвращаемый завершившейся командой. Единственное интересующее
// контроллер поле — упорядоченный список transceiver-ов: и содержимое,
// и порядок последнего применённого снапшота являются истиной.
type Snapshot struct {
	Transceivers []TransceiverState `json:"transceivers"`
}

// ICEServer — один STUN/TURN сервер в конфигурации engine.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Configuration — конфигурация сессии, передаваемая engine при инициализации.
type Configuration struct {
	ICEServers         []ICEServer `json:"iceServers"`
	ICETransportPolicy string      `json:"iceTransportPolicy,omitempty"`
	BundlePolicy       string      `json:"bundlePolicy,omitempty"`
}

// OfferOptions — опции команды create-offer.
type OfferOptions struct {
	ICERestart             bool `json:"iceRestart,omitempty"`
	VoiceActivityDetection bool `json:"voiceActivityDetection,omitempty"`
}

// AnswerOptions — опции команды create-answer.
type AnswerOptions struct {
	VoiceActivityDetection bool `json:"voiceActivityDetection,omitempty"`
}

// TrackSource описывает источник медиа для add-transceiver: либо уже
// существующий трек (TrackID), либо просто вид медиа (Kind).
type TrackSource struct {
	Kind      string `json:"kind,omitempty"`
	TrackID   string `json:"trackId,omitempty"`
	StreamTag string `json:"streamTag,omitempty"`
}

// TransceiverInit — начальные параметры transceiver.
type TransceiverInit struct {
	Direction  string   `json:"direction,omitempty"`
	StreamTags []string `json:"streamIds,omitempty"`
}

// DataChannelOptions — опции создания data channel. Явный идентификатор
// канала задаётся через ID (валидируется контроллером до обращения к engine).
type DataChannelOptions struct {
	Ordered           *bool  `json:"ordered,omitempty"`
	MaxPacketLifeTime *int   `json:"maxPacketLifeTime,omitempty"`
	MaxRetransmits    *int   `json:"maxRetransmits,omitempty"`
	Protocol          string `json:"protocol,omitempty"`
	Negotiated        bool   `json:"negotiated,omitempty"`
	ID                *int   `json:"id,omitempty"`
}

// DataChannelInfo — дескриптор созданного data channel.
type DataChannelInfo struct {
	ID         int    `json:"id"`
	Label      string `json:"label"`
	Ordered    bool   `json:"ordered"`
	Protocol   string `json:"protocol"`
	Negotiated bool   `json:"negotiated"`
	ReadyState string `json:"readyState"`
}

// NegotiationResult — результат create-offer / create-answer:
// описание сессии плюс опциональный снапшот transceiver-ов.
type NegotiationResult struct {
	Description SessionDescription
	State       *Snapshot
}

// DescriptionResult — результат set-local-description / set-remote-description.
// Description может быть nil, если engine не вернул обновлённое описание.
type DescriptionResult struct {
	Description *SessionDescription
	State       *Snapshot
}

// AddTransceiverResult — результат add-transceiver: идентификатор созданного
// transceiver и снапшот, в котором он уже присутствует.
type AddTransceiverResult struct {
	TransceiverID string
	State         *Snapshot
}

// Engine — командная поверхность media engine.
//
// Каждая команда блокирует вызывающего до прихода единственного завершения.
// Контекст ограничивает ожидание, но не отменяет саму команду — выданная
// команда всегда завершится на стороне engine.
// Команды независимы: допускается несколько одновременно
// выполняющихся команд и событий, сериализацию мутаций обеспечивает
// контроллер.
type Engine interface {
	// Initialize регистрирует сессию с указанным идентификатором.
	Initialize(ctx context.Context, sessionID uint64, cfg Configuration) error

	// AddStream / RemoveStream объявляют локальный поток engine.
	AddStream(ctx context.Context, sessionID uint64, streamTag string) error
	RemoveStream(ctx context.Context, sessionID uint64, streamTag string) error

	// AddTransceiver создаёт новый transceiver.
	AddTransceiver(ctx context.Context, sessionID uint64, source TrackSource, init TransceiverInit) (*AddTransceiverResult, error)

	// CreateOffer / CreateAnswer порождают описание сессии.
	CreateOffer(ctx context.Context, sessionID uint64, opts OfferOptions) (*NegotiationResult, error)
	CreateAnswer(ctx context.Context, sessionID uint64, opts AnswerOptions) (*NegotiationResult, error)

	// SetLocalDescription / SetRemoteDescription применяют описание сессии.
	SetLocalDescription(ctx context.Context, sessionID uint64, desc *SessionDescription) (*DescriptionResult, error)
	SetRemoteDescription(ctx context.Context, sessionID uint64, desc *SessionDescription) (*DescriptionResult, error)

	// AddICECandidate добавляет удалённый candidate; возвращает обновлённое
	// remote description.
	AddICECandidate(ctx context.Context, sessionID uint64, cand *ICECandidate) (*SessionDescription, error)

	// GetStats возвращает сериализованную статистику: JSON-список пар
	// [key, report]. Декодирование в mapping — задача вызывающего.
	GetStats(ctx context.Context, sessionID uint64) ([]byte, error)

	// CreateDataChannel создаёт data channel. Возвращённый nil-дескриптор
	// (без ошибки) означает отказ engine создать канал.
	CreateDataChannel(ctx context.Context, sessionID uint64, label string, opts DataChannelOptions) (*DataChannelInfo, error)

	// Close освобождает ресурсы сессии на стороне engine.
	Close(sessionID uint64)

	// Events возвращает шину событий engine.
	Events() *Bus
}
