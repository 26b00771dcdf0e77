package peer

import (
	"context"
	"fmt"
	"sync"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// stubEngine — скриптуемый in-memory engine для тестов пакета.
// Фиксирует выданные команды и возвращает заранее заданные результаты.
type stubEngine struct {
	bus *engine.Bus

	mu       sync.Mutex
	calls    []string
	failNext map[string]error

	offerResult          *engine.NegotiationResult
	answerResult         *engine.NegotiationResult
	setLocalResult       *engine.DescriptionResult
	setRemoteResult      *engine.DescriptionResult
	addICEResult         *engine.SessionDescription
	addTransceiverResult *engine.AddTransceiverResult
	statsPayload         []byte
	dataChannelInfo      *engine.DataChannelInfo
	nilDataChannel       bool

	closed []uint64
}

var _ engine.Engine = (*stubEngine)(nil)

func newStubEngine() *stubEngine {
	return &stubEngine{
		bus:      engine.NewBus(),
		failNext: make(map[string]error),
	}
}

func (e *stubEngine) record(call string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	if err, ok := e.failNext[call]; ok {
		delete(e.failNext, call)
		return err
	}
	return nil
}

// callCount возвращает количество вызовов команды.
func (e *stubEngine) callCount(call string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (e *stubEngine) Initialize(_ context.Context, _ uint64, _ engine.Configuration) error {
	return e.record("init")
}

func (e *stubEngine) AddStream(_ context.Context, _ uint64, _ string) error {
	return e.record("addStream")
}

func (e *stubEngine) RemoveStream(_ context.Context, _ uint64, _ string) error {
	return e.record("removeStream")
}

func (e *stubEngine) AddTransceiver(_ context.Context, _ uint64, _ engine.TrackSource, _ engine.TransceiverInit) (*engine.AddTransceiverResult, error) {
	if err := e.record("addTransceiver"); err != nil {
		return nil, err
	}
	if e.addTransceiverResult == nil {
		return nil, fmt.Errorf("stub: addTransceiverResult не задан")
	}
	return e.addTransceiverResult, nil
}

func (e *stubEngine) CreateOffer(_ context.Context, _ uint64, _ engine.OfferOptions) (*engine.NegotiationResult, error) {
	if err := e.record("createOffer"); err != nil {
		return nil, err
	}
	if e.offerResult != nil {
		return e.offerResult, nil
	}
	return &engine.NegotiationResult{
		Description: engine.SessionDescription{Type: "offer", SDP: "v=0\r\n"},
	}, nil
}

func (e *stubEngine) CreateAnswer(_ context.Context, _ uint64, _ engine.AnswerOptions) (*engine.NegotiationResult, error) {
	if err := e.record("createAnswer"); err != nil {
		return nil, err
	}
	if e.answerResult != nil {
		return e.answerResult, nil
	}
	return &engine.NegotiationResult{
		Description: engine.SessionDescription{Type: "answer", SDP: "v=0\r\n"},
	}, nil
}

func (e *stubEngine) SetLocalDescription(_ context.Context, _ uint64, desc *engine.SessionDescription) (*engine.DescriptionResult, error) {
	if err := e.record("setLocalDescription"); err != nil {
		return nil, err
	}
	if e.setLocalResult != nil {
		return e.setLocalResult, nil
	}
	return &engine.DescriptionResult{Description: desc}, nil
}

func (e *stubEngine) SetRemoteDescription(_ context.Context, _ uint64, desc *engine.SessionDescription) (*engine.DescriptionResult, error) {
	if err := e.record("setRemoteDescription"); err != nil {
		return nil, err
	}
	if e.setRemoteResult != nil {
		return e.setRemoteResult, nil
	}
	return &engine.DescriptionResult{Description: desc}, nil
}

func (e *stubEngine) AddICECandidate(_ context.Context, _ uint64, _ *engine.ICECandidate) (*engine.SessionDescription, error) {
	if err := e.record("addICECandidate"); err != nil {
		return nil, err
	}
	return e.addICEResult, nil
}

func (e *stubEngine) GetStats(_ context.Context, _ uint64) ([]byte, error) {
	if err := e.record("getStats"); err != nil {
		return nil, err
	}
	if e.statsPayload != nil {
		return e.statsPayload, nil
	}
	return []byte(`[]`), nil
}

func (e *stubEngine) CreateDataChannel(_ context.Context, _ uint64, label string, opts engine.DataChannelOptions) (*engine.DataChannelInfo, error) {
	if err := e.record("createDataChannel"); err != nil {
		return nil, err
	}
	if e.nilDataChannel {
		return nil, nil
	}
	if e.dataChannelInfo != nil {
		return e.dataChannelInfo, nil
	}
	id := 0
	if opts.ID != nil {
		id = *opts.ID
	}
	return &engine.DataChannelInfo{ID: id, Label: label, Ordered: true}, nil
}

func (e *stubEngine) Close(sessionID uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "close")
	e.closed = append(e.closed, sessionID)
}

func (e *stubEngine) Events() *engine.Bus {
	return e.bus
}

// snapshotOf собирает снапшот из фрагментов с указанными id.
func snapshotOf(ids ...string) *engine.Snapshot {
	snap := &engine.Snapshot{}
	for _, id := range ids {
		snap.Transceivers = append(snap.Transceivers, engine.TransceiverState{ID: id, Mid: id})
	}
	return snap
}

// visibleIDs возвращает id видимых transceiver-ов сессии по порядку.
func visibleIDs(s *Session) []string {
	var ids []string
	for _, tr := range s.Transceivers() {
		ids = append(ids, tr.ID())
	}
	return ids
}
