package mockengine

import "github.com/arzzra/webrtc_peer/pkg/engine"

// Хелперы публикации событий: тест или демо двигает сессию по фазам
// сигналинга и ICE вручную, как это делал бы настоящий media engine.

// currentLocal возвращает копию local description сессии (nil, если нет).
func (e *Engine) currentLocal(sessionID uint64) *engine.SessionDescription {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, ok := e.sessions[sessionID]
	if !ok || sess.localDescription == nil {
		return nil
	}
	cp := *sess.localDescription
	return &cp
}

// SignalSignalingState публикует смену signaling state.
func (e *Engine) SignalSignalingState(sessionID uint64, state string) {
	e.bus.Publish(engine.SignalingStateChanged{
		PeerConnectionID: sessionID,
		SignalingState:   state,
	})
}

// CompleteGathering эмулирует сбор ICE-кандидатов: один host-кандидат,
// затем переход gathering в complete с финальным local description.
func (e *Engine) CompleteGathering(sessionID uint64) {
	local := e.currentLocal(sessionID)
	e.bus.Publish(engine.ICECandidateFound{
		PeerConnectionID: sessionID,
		SDP:              local,
		Candidate: &engine.ICECandidate{
			Candidate: "candidate:1 1 udp 2122260223 127.0.0.1 54400 typ host",
			SDPMid:    "0",
		},
	})
	e.bus.Publish(engine.ICEGatheringChanged{
		PeerConnectionID:  sessionID,
		ICEGatheringState: "complete",
		SDP:               e.currentLocal(sessionID),
	})
}

// EstablishConnection прогоняет сессию через checking в connected по
// обеим осям состояния соединения.
func (e *Engine) EstablishConnection(sessionID uint64) {
	e.bus.Publish(engine.ICEConnectionChanged{
		PeerConnectionID:   sessionID,
		ICEConnectionState: "checking",
	})
	e.bus.Publish(engine.ConnectionStateChanged{
		PeerConnectionID: sessionID,
		ConnectionState:  "connecting",
	})
	e.bus.Publish(engine.ICEConnectionChanged{
		PeerConnectionID:   sessionID,
		ICEConnectionState: "connected",
	})
	e.bus.Publish(engine.ConnectionStateChanged{
		PeerConnectionID: sessionID,
		ConnectionState:  "connected",
	})
}

// DropConnection переводит обе оси в closed; подписчики должны выполнить
// локальный teardown без обратной команды close.
func (e *Engine) DropConnection(sessionID uint64) {
	e.bus.Publish(engine.ICEConnectionChanged{
		PeerConnectionID:   sessionID,
		ICEConnectionState: "closed",
	})
	e.bus.Publish(engine.ConnectionStateChanged{
		PeerConnectionID: sessionID,
		ConnectionState:  "closed",
	})
}
