// Package mockengine содержит in-memory реализацию engine.Engine для
// тестов и демонстраций: команды исполняются синхронно над состоянием в
// памяти, SDP фабрикуется синтаксически валидным, события доставляются
// через обычную шину engine.Bus.
package mockengine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// Engine — in-memory media engine.
type Engine struct {
	bus *engine.Bus

	mu       sync.Mutex
	sessions map[uint64]*sessionState
}

type sessionState struct {
	cfg               engine.Configuration
	transceivers      []engine.TransceiverState
	localDescription  *engine.SessionDescription
	remoteDescription *engine.SessionDescription
	streams           map[string]bool
	sdpVersion        uint64
	nextMid           int
	nextChannelID     int

	// DataChannelUnavailable заставляет CreateDataChannel вернуть пустой
	// дескриптор (сценарий отказа engine).
	dataChannelUnavailable bool
}

var _ engine.Engine = (*Engine)(nil)

// New создаёт пустой mock engine.
func New() *Engine {
	return &Engine{
		bus:      engine.NewBus(),
		sessions: make(map[uint64]*sessionState),
	}
}

// Events возвращает шину событий engine.
func (e *Engine) Events() *engine.Bus { return e.bus }

func (e *Engine) session(id uint64) (*sessionState, error) {
	if sess, ok := e.sessions[id]; ok {
		return sess, nil
	}
	return nil, fmt.Errorf("mockengine: неизвестная сессия %d", id)
}

// Initialize регистрирует сессию. Повторная регистрация того же id — ошибка.
func (e *Engine) Initialize(_ context.Context, sessionID uint64, cfg engine.Configuration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.sessions[sessionID]; exists {
		return fmt.Errorf("mockengine: сессия %d уже зарегистрирована", sessionID)
	}
	e.sessions[sessionID] = &sessionState{
		cfg:     cfg,
		streams: make(map[string]bool),
	}
	return nil
}

func (e *Engine) AddStream(_ context.Context, sessionID uint64, streamTag string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return err
	}
	sess.streams[streamTag] = true
	return nil
}

func (e *Engine) RemoveStream(_ context.Context, sessionID uint64, streamTag string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return err
	}
	delete(sess.streams, streamTag)
	return nil
}

// AddTransceiver создаёт transceiver с uuid-идентификатором и возвращает
// снапшот, в котором он уже присутствует.
func (e *Engine) AddTransceiver(_ context.Context, sessionID uint64, source engine.TrackSource, init engine.TransceiverInit) (*engine.AddTransceiverResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}

	kind := source.Kind
	if kind == "" {
		kind = "audio"
	}
	direction := init.Direction
	if direction == "" {
		direction = "sendrecv"
	}

	tr := engine.TransceiverState{
		ID:        uuid.NewString(),
		Mid:       strconv.Itoa(sess.nextMid),
		Direction: direction,
		Sender: &engine.SenderState{
			ID:        uuid.NewString(),
			TrackID:   source.TrackID,
			StreamIDs: init.StreamTags,
		},
		Receiver: &engine.ReceiverState{
			ID: uuid.NewString(),
			Track: &engine.TrackInfo{
				ID:      uuid.NewString(),
				Kind:    kind,
				Enabled: true,
			},
		},
	}
	sess.nextMid++
	sess.transceivers = append(sess.transceivers, tr)

	return &engine.AddTransceiverResult{
		TransceiverID: tr.ID,
		State:         sess.snapshot(),
	}, nil
}

func (e *Engine) CreateOffer(_ context.Context, sessionID uint64, _ engine.OfferOptions) (*engine.NegotiationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}
	raw, err := sess.fabricateSDP()
	if err != nil {
		return nil, err
	}
	return &engine.NegotiationResult{
		Description: engine.SessionDescription{Type: "offer", SDP: raw},
		State:       sess.snapshot(),
	}, nil
}

func (e *Engine) CreateAnswer(_ context.Context, sessionID uint64, _ engine.AnswerOptions) (*engine.NegotiationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.remoteDescription == nil {
		return nil, fmt.Errorf("mockengine: answer без remote description")
	}
	raw, err := sess.fabricateSDP()
	if err != nil {
		return nil, err
	}
	return &engine.NegotiationResult{
		Description: engine.SessionDescription{Type: "answer", SDP: raw},
		State:       sess.snapshot(),
	}, nil
}

func (e *Engine) SetLocalDescription(_ context.Context, sessionID uint64, desc *engine.SessionDescription) (*engine.DescriptionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, fmt.Errorf("mockengine: nil local description")
	}
	if err := validateSDP(desc.SDP); err != nil {
		return nil, err
	}
	cp := *desc
	sess.localDescription = &cp
	return &engine.DescriptionResult{
		Description: &cp,
		State:       sess.snapshot(),
	}, nil
}

func (e *Engine) SetRemoteDescription(_ context.Context, sessionID uint64, desc *engine.SessionDescription) (*engine.DescriptionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, fmt.Errorf("mockengine: nil remote description")
	}
	if err := validateSDP(desc.SDP); err != nil {
		return nil, err
	}
	cp := *desc
	sess.remoteDescription = &cp
	return &engine.DescriptionResult{
		Description: &cp,
		State:       sess.snapshot(),
	}, nil
}

func (e *Engine) AddICECandidate(_ context.Context, sessionID uint64, cand *engine.ICECandidate) (*engine.SessionDescription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}
	if cand == nil || cand.Candidate == "" {
		return nil, fmt.Errorf("mockengine: пустой candidate")
	}
	if sess.remoteDescription == nil {
		return nil, fmt.Errorf("mockengine: candidate без remote description")
	}
	updated := *sess.remoteDescription
	updated.SDP += "a=" + cand.Candidate + "\r\n"
	sess.remoteDescription = &updated
	cp := updated
	return &cp, nil
}

// GetStats возвращает сериализованный список пар [key, report].
func (e *Engine) GetStats(_ context.Context, sessionID uint64) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}
	pairs := [][]any{
		{"RTCPeerConnection", map[string]any{
			"transceiverCount": len(sess.transceivers),
			"streamCount":      len(sess.streams),
		}},
	}
	for i, tr := range sess.transceivers {
		pairs = append(pairs, []any{
			fmt.Sprintf("RTCRtpTransceiver_%d", i),
			map[string]any{"mid": tr.Mid, "direction": tr.Direction},
		})
	}
	return json.Marshal(pairs)
}

func (e *Engine) CreateDataChannel(_ context.Context, sessionID uint64, label string, opts engine.DataChannelOptions) (*engine.DataChannelInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.dataChannelUnavailable {
		return nil, nil
	}

	id := sess.nextChannelID
	if opts.ID != nil {
		id = *opts.ID
	} else {
		sess.nextChannelID++
	}
	ordered := true
	if opts.Ordered != nil {
		ordered = *opts.Ordered
	}
	return &engine.DataChannelInfo{
		ID:         id,
		Label:      label,
		Ordered:    ordered,
		Protocol:   opts.Protocol,
		Negotiated: opts.Negotiated,
		ReadyState: "connecting",
	}, nil
}

// Close снимает регистрацию сессии; повторный вызов — no-op.
func (e *Engine) Close(sessionID uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, sessionID)
}

// SetDataChannelUnavailable включает сценарий отказа создания каналов.
func (e *Engine) SetDataChannelUnavailable(sessionID uint64, unavailable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sess, ok := e.sessions[sessionID]; ok {
		sess.dataChannelUnavailable = unavailable
	}
}

func (s *sessionState) snapshot() *engine.Snapshot {
	out := make([]engine.TransceiverState, len(s.transceivers))
	copy(out, s.transceivers)
	return &engine.Snapshot{Transceivers: out}
}
