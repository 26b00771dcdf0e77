package peer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/looplab/fsm"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// idRegistry выдаёт process-wide уникальные идентификаторы сессий.
// Атомарный счётчик гарантирует уникальность при конкурентном создании
// сессий; последовательность значений не является контрактом.
type idRegistry struct {
	next atomic.Uint64
}

func (r *idRegistry) allocate() uint64 {
	return r.next.Add(1) - 1
}

var sessionIDs idRegistry

// Состояния жизненного цикла сессии (собственный lifecycle контроллера,
// в отличие от четырёх зеркалируемых состояний engine).
const (
	lifecycleActive = "active"
	lifecycleClosed = "closed"
)

func newLifecycleFSM() *fsm.FSM {
	return fsm.NewFSM(
		lifecycleActive,
		fsm.Events{
			{Name: "close", Src: []string{lifecycleActive}, Dst: lifecycleClosed},
		}, nil,
	)
}

// Config — конфигурация создаваемой сессии.
type Config struct {
	// Engine — обязательная ссылка на media engine.
	Engine engine.Engine

	// Configuration передаётся engine при инициализации (ICE серверы и т.п.).
	Configuration engine.Configuration

	// Logger для структурированного логирования; по умолчанию slog.Default().
	Logger *slog.Logger
}

// Session — одна согласуемая peer-to-peer сессия.
//
// Все мутации полей сессии идут только через слияние снапшотов команд и
// через маршрутизацию событий engine, под одним мьютексом: команды и
// события могут чередоваться в любом порядке, но никогда не видят
// частично применённое слияние. Внешние вызывающие получают копии
// (срезов, описаний), а не живые внутренние коллекции.
type Session struct {
	id  uint64
	eng engine.Engine
	log *slog.Logger

	mu sync.Mutex

	signalingState     SignalingState
	iceGatheringState  ICEGatheringState
	connectionState    ConnectionState
	iceConnectionState ICEConnectionState

	localDescription  *engine.SessionDescription
	remoteDescription *engine.SessionDescription

	localStreams  []*MediaStream
	remoteStreams []*MediaStream

	table transceiverTable

	lifecycle *fsm.FSM
	subs      []*engine.Subscription

	onSignalingStateChange     func(SignalingState)
	onConnectionStateChange    func(ConnectionState)
	onICEConnectionStateChange func(ICEConnectionState)
	onICEGatheringStateChange  func(ICEGatheringState)
	onICECandidate             func(*engine.ICECandidate)
	onNegotiationNeeded        func()
	onTrack                    func(*Track, []*MediaStream)
	onDataChannel              func(*DataChannel)
	onAddStream                func(*MediaStream)
	onRemoveStream             func(*MediaStream)
}

// NewSession регистрирует новую сессию: выделяет уникальный идентификатор,
// инициализирует engine и подписывается на его события.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Engine == nil {
		return nil, ErrEngineRequired
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Session{
		id:        sessionIDs.allocate(),
		eng:       cfg.Engine,
		table:     newTransceiverTable(),
		lifecycle: newLifecycleFSM(),
	}
	s.log = log.With(slog.String("component", "peer"), slog.Uint64("session_id", s.id))

	if err := cfg.Engine.Initialize(ctx, s.id, cfg.Configuration); err != nil {
		return nil, newCommandError(s.id, "init", err)
	}
	s.subscribe()

	metrics.sessionsTotal.Inc()
	metrics.sessionsActive.Inc()
	s.log.Info("сессия создана")
	return s, nil
}

// ID возвращает уникальный идентификатор сессии.
func (s *Session) ID() uint64 { return s.id }

// SignalingState возвращает текущую фазу offer/answer согласования.
func (s *Session) SignalingState() SignalingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signalingState
}

// ICEGatheringState возвращает состояние сбора ICE candidate.
func (s *Session) ICEGatheringState() ICEGatheringState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iceGatheringState
}

// ConnectionState возвращает агрегированное состояние соединения.
func (s *Session) ConnectionState() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectionState
}

// ICEConnectionState возвращает состояние ICE connectivity checks.
func (s *Session) ICEConnectionState() ICEConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iceConnectionState
}

// LocalDescription возвращает копию локального описания сессии.
func (s *Session) LocalDescription() *engine.SessionDescription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDescription(s.localDescription)
}

// RemoteDescription возвращает копию удалённого описания сессии.
func (s *Session) RemoteDescription() *engine.SessionDescription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDescription(s.remoteDescription)
}

// Transceivers возвращает transceiver-ы в видимом порядке. Срез — копия;
// объекты разделяются, их идентичность стабильна между вызовами.
func (s *Session) Transceivers() []*Transceiver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.visible()
}

// LocalStreams возвращает копию списка локальных потоков.
func (s *Session) LocalStreams() []*MediaStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*MediaStream, len(s.localStreams))
	copy(out, s.localStreams)
	return out
}

// RemoteStreams возвращает копию списка удалённых потоков.
func (s *Session) RemoteStreams() []*MediaStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*MediaStream, len(s.remoteStreams))
	copy(out, s.remoteStreams)
	return out
}

// Closed сообщает, завершён ли жизненный цикл сессии.
func (s *Session) Closed() bool {
	return s.lifecycle.Current() == lifecycleClosed
}

// applyStateLocked сливает снапшот команды в состояние сессии.
//
// Алгоритм: upsert каждого фрагмента в порядке снапшота (создаёт
// невиданные transceiver-ы, освежает известные), затем reorder по
// последовательности id снапшота — видимый порядок сессии всегда
// конгруэнтен авторитетному порядку engine, даже когда сливающиеся
// команды гонялись друг с другом. Слияние идемпотентно и выполняется
// как одна атомарная единица под s.mu.
//
// Отсутствующий или пустой список transceiver-ов означает, что команда
// не затрагивает их состояние — no-op, не очистку.
func (s *Session) applyStateLocked(snap *engine.Snapshot) {
	if snap == nil || len(snap.Transceivers) == 0 {
		return
	}
	ids := make([]string, 0, len(snap.Transceivers))
	for i := range snap.Transceivers {
		s.table.upsert(snap.Transceivers[i])
		ids = append(ids, snap.Transceivers[i].ID)
	}
	s.table.reorder(ids)
	metrics.mergesApplied.Inc()
}

// applyState — вариант applyStateLocked для завершений команд.
func (s *Session) applyState(snap *engine.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyStateLocked(snap)
}

// findRemoteStreamLocked находит удалённый поток по tag.
func (s *Session) findRemoteStreamLocked(tag string) (int, *MediaStream) {
	for i, ms := range s.remoteStreams {
		if ms.Tag() == tag {
			return i, ms
		}
	}
	return -1, nil
}

// Close завершает сессию: освобождает ресурсы engine и снимает подписки.
// Идемпотентна — повторные вызовы ничего не делают.
func (s *Session) Close() {
	if !s.teardown() {
		return
	}
	s.eng.Close(s.id)
}

// teardown переводит lifecycle в closed и снимает все подписки на события.
// Возвращает true только при первом успешном переходе; после teardown ни
// один обработчик событий не выполняется.
func (s *Session) teardown() bool {
	if err := s.lifecycle.Event(context.Background(), "close"); err != nil {
		return false
	}

	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Cancel()
	}

	metrics.sessionsActive.Dec()
	s.log.Info("сессия закрыта")
	return true
}

func copyDescription(d *engine.SessionDescription) *engine.SessionDescription {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func (s *Session) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("Session{id: %d, signaling: %s, connection: %s, transceivers: %d}",
		s.id, s.signalingState, s.connectionState, len(s.table.order))
}

// Колбэки внешних уведомлений. Устанавливаются до начала согласования;
// nil снимает обработчик.

// OnSignalingStateChange устанавливает обработчик signalingstatechange.
func (s *Session) OnSignalingStateChange(h func(SignalingState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSignalingStateChange = h
}

// OnConnectionStateChange устанавливает обработчик connectionstatechange.
func (s *Session) OnConnectionStateChange(h func(ConnectionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnectionStateChange = h
}

// OnICEConnectionStateChange устанавливает обработчик iceconnectionstatechange.
func (s *Session) OnICEConnectionStateChange(h func(ICEConnectionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onICEConnectionStateChange = h
}

// OnICEGatheringStateChange устанавливает обработчик icegatheringstatechange.
func (s *Session) OnICEGatheringStateChange(h func(ICEGatheringState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onICEGatheringStateChange = h
}

// OnICECandidate устанавливает обработчик icecandidate. Nil-candidate
// сигнализирует конец сбора (end-of-candidates).
func (s *Session) OnICECandidate(h func(*engine.ICECandidate)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onICECandidate = h
}

// OnNegotiationNeeded устанавливает обработчик negotiationneeded.
func (s *Session) OnNegotiationNeeded(h func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNegotiationNeeded = h
}

// OnTrack устанавливает обработчик track-уведомлений.
func (s *Session) OnTrack(h func(*Track, []*MediaStream)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTrack = h
}

// OnDataChannel устанавливает обработчик datachannel.
func (s *Session) OnDataChannel(h func(*DataChannel)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDataChannel = h
}

// OnAddStream устанавливает обработчик addstream (legacy API).
func (s *Session) OnAddStream(h func(*MediaStream)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAddStream = h
}

// OnRemoveStream устанавливает обработчик removestream (legacy API).
func (s *Session) OnRemoveStream(h func(*MediaStream)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRemoveStream = h
}
