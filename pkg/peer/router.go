package peer

import (
	"log/slog"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// Маршрутизация событий engine.
//
// По одной подписке на каждую распознаваемую категорию; шина фильтрует
// события по идентификатору сессии, обработчики дополнительно проверяют
// его сами. Внутри одного события порядок эффектов фиксирован: сначала
// обновление состояния, затем внешнее уведомление. Обработчики никогда не
// блокируются и выполняются до конца синхронно относительно механизма
// доставки engine.

func (s *Session) subscribe() {
	bus := s.eng.Events()
	sub := func(kind engine.EventKind, h engine.Handler) {
		s.subs = append(s.subs, bus.Subscribe(kind, s.id, h))
	}

	sub(engine.EventRenegotiationNeeded, s.handleRenegotiationNeeded)
	sub(engine.EventICEConnectionChanged, s.handleICEConnectionChanged)
	sub(engine.EventConnectionStateChanged, s.handleConnectionStateChanged)
	sub(engine.EventSignalingStateChanged, s.handleSignalingStateChanged)
	sub(engine.EventStreamAdded, s.handleStreamAdded)
	sub(engine.EventTransceiverStartedReceiving, s.handleTransceiverStartedReceiving)
	sub(engine.EventReceiverAdded, s.handleReceiverAdded)
	sub(engine.EventStreamRemoved, s.handleStreamRemoved)
	sub(engine.EventMuteChanged, s.handleMuteChanged)
	sub(engine.EventICECandidateFound, s.handleICECandidateFound)
	sub(engine.EventICEGatheringChanged, s.handleICEGatheringChanged)
	sub(engine.EventDataChannelOpened, s.handleDataChannelOpened)
}

// accept отсекает чужие события и события после teardown.
func (s *Session) accept(ev engine.Event) bool {
	if ev.SessionID() != s.id {
		return false
	}
	if s.Closed() {
		metrics.eventsIgnored.Inc()
		return false
	}
	metrics.eventsRouted.WithLabelValues(ev.Kind().String()).Inc()
	return true
}

func (s *Session) handleRenegotiationNeeded(ev engine.Event) {
	if _, ok := ev.(engine.RenegotiationNeeded); !ok || !s.accept(ev) {
		return
	}

	s.mu.Lock()
	cb := s.onNegotiationNeeded
	s.mu.Unlock()

	s.log.Debug("требуется повторное согласование")
	if cb != nil {
		cb()
	}
}

func (s *Session) handleICEConnectionChanged(ev engine.Event) {
	e, ok := ev.(engine.ICEConnectionChanged)
	if !ok || !s.accept(ev) {
		return
	}
	state, ok := iceConnectionStateFromString(e.ICEConnectionState)
	if !ok {
		metrics.eventsIgnored.Inc()
		return
	}

	s.mu.Lock()
	s.iceConnectionState = state
	cb := s.onICEConnectionStateChange
	s.mu.Unlock()

	metrics.stateTransitions.WithLabelValues("ice_connection", state.String()).Inc()
	s.log.Debug("iceConnectionState изменён", slog.String("state", state.String()))
	if cb != nil {
		cb(state)
	}
	if state == ICEConnectionClosed {
		s.teardown()
	}
}

func (s *Session) handleConnectionStateChanged(ev engine.Event) {
	e, ok := ev.(engine.ConnectionStateChanged)
	if !ok || !s.accept(ev) {
		return
	}
	state, ok := connectionStateFromString(e.ConnectionState)
	if !ok {
		metrics.eventsIgnored.Inc()
		return
	}

	s.mu.Lock()
	s.connectionState = state
	cb := s.onConnectionStateChange
	s.mu.Unlock()

	metrics.stateTransitions.WithLabelValues("connection", state.String()).Inc()
	s.log.Debug("connectionState изменён", slog.String("state", state.String()))
	if cb != nil {
		cb(state)
	}
	if state == ConnectionClosed {
		s.teardown()
	}
}

func (s *Session) handleSignalingStateChanged(ev engine.Event) {
	e, ok := ev.(engine.SignalingStateChanged)
	if !ok || !s.accept(ev) {
		return
	}
	state, ok := signalingStateFromString(e.SignalingState)
	if !ok {
		metrics.eventsIgnored.Inc()
		return
	}

	s.mu.Lock()
	s.signalingState = state
	cb := s.onSignalingStateChange
	s.mu.Unlock()

	metrics.stateTransitions.WithLabelValues("signaling", state.String()).Inc()
	s.log.Debug("signalingState изменён", slog.String("state", state.String()))
	if cb != nil {
		cb(state)
	}
}

func (s *Session) handleStreamAdded(ev engine.Event) {
	e, ok := ev.(engine.StreamAdded)
	if !ok || !s.accept(ev) {
		return
	}

	stream := newMediaStreamFromInfo(e.Stream)

	s.mu.Lock()
	s.remoteStreams = append(s.remoteStreams, stream)
	if e.SDP != nil {
		s.remoteDescription = e.SDP
	}
	cb := s.onAddStream
	s.mu.Unlock()

	s.log.Debug("добавлен удалённый поток", slog.String("stream_tag", stream.Tag()))
	if cb != nil {
		cb(stream)
	}
}

func (s *Session) handleTransceiverStartedReceiving(ev engine.Event) {
	e, ok := ev.(engine.TransceiverStartedReceiving)
	if !ok || !s.accept(ev) {
		return
	}
	if e.Transceiver.ID == "" {
		metrics.eventsIgnored.Inc()
		return
	}

	// Частичное обновление: только upsert, без reorder — событие не несёт
	// авторитетного порядка.
	s.mu.Lock()
	s.table.upsert(e.Transceiver)
	s.mu.Unlock()

	s.log.Debug("transceiver начал приём", slog.String("transceiver_id", e.Transceiver.ID))
}

func (s *Session) handleReceiverAdded(ev engine.Event) {
	e, ok := ev.(engine.ReceiverAdded)
	if !ok || !s.accept(ev) {
		return
	}
	// Malformed payload (нет receiver, трека или потоков) — молча игнорируем.
	if e.Receiver == nil || e.Receiver.Track == nil || len(e.Streams) == 0 {
		metrics.eventsIgnored.Inc()
		return
	}

	track := newTrackFromInfo(*e.Receiver.Track)

	s.mu.Lock()
	streams := make([]*MediaStream, 0, len(e.Streams))
	for _, info := range e.Streams {
		// Сохраняем идентичность уже известных потоков по tag.
		if _, existing := s.findRemoteStreamLocked(info.Tag); existing != nil {
			existing.addTrack(track)
			streams = append(streams, existing)
			continue
		}
		stream := newMediaStreamFromInfo(info)
		stream.addTrack(track)
		s.remoteStreams = append(s.remoteStreams, stream)
		streams = append(streams, stream)
	}
	cb := s.onTrack
	s.mu.Unlock()

	s.log.Debug("добавлен receiver", slog.String("track_id", track.ID()))
	if cb != nil {
		cb(track, streams)
	}
}

func (s *Session) handleStreamRemoved(ev engine.Event) {
	e, ok := ev.(engine.StreamRemoved)
	if !ok || !s.accept(ev) {
		return
	}

	s.mu.Lock()
	idx, stream := s.findRemoteStreamLocked(e.StreamTag)
	if stream == nil {
		// Неизвестный поток — no-op.
		s.mu.Unlock()
		return
	}
	s.remoteStreams = append(s.remoteStreams[:idx], s.remoteStreams[idx+1:]...)
	if e.SDP != nil {
		s.remoteDescription = e.SDP
	}
	cb := s.onRemoveStream
	s.mu.Unlock()

	// Треки удалённого потока больше не получат медиа.
	for _, track := range stream.Tracks() {
		if !track.Muted() {
			track.setMuted(true)
		}
	}

	s.log.Debug("удалён удалённый поток", slog.String("stream_tag", e.StreamTag))
	if cb != nil {
		cb(stream)
	}
}

func (s *Session) handleMuteChanged(ev engine.Event) {
	e, ok := ev.(engine.MuteChanged)
	if !ok || !s.accept(ev) {
		return
	}

	s.mu.Lock()
	_, stream := s.findRemoteStreamLocked(e.StreamTag)
	s.mu.Unlock()
	if stream == nil {
		return
	}
	track, found := stream.track(e.TrackID)
	if !found {
		return
	}

	// Уведомление уходит на сам трек, не на сессию.
	track.setMuted(e.Muted)
	s.log.Debug("mute-флаг трека изменён",
		slog.String("track_id", e.TrackID), slog.Bool("muted", e.Muted))
}

func (s *Session) handleICECandidateFound(ev engine.Event) {
	e, ok := ev.(engine.ICECandidateFound)
	if !ok || !s.accept(ev) {
		return
	}

	s.mu.Lock()
	if e.SDP != nil {
		s.localDescription = e.SDP
	}
	cb := s.onICECandidate
	s.mu.Unlock()

	if cb != nil && e.Candidate != nil {
		cb(e.Candidate)
	}
}

func (s *Session) handleICEGatheringChanged(ev engine.Event) {
	e, ok := ev.(engine.ICEGatheringChanged)
	if !ok || !s.accept(ev) {
		return
	}
	state, ok := iceGatheringStateFromString(e.ICEGatheringState)
	if !ok {
		metrics.eventsIgnored.Inc()
		return
	}

	s.mu.Lock()
	s.iceGatheringState = state
	var candidateCB func(*engine.ICECandidate)
	if state == ICEGatheringComplete {
		if e.SDP != nil {
			s.localDescription = e.SDP
		}
		candidateCB = s.onICECandidate
	}
	gatheringCB := s.onICEGatheringStateChange
	s.mu.Unlock()

	metrics.stateTransitions.WithLabelValues("ice_gathering", state.String()).Inc()
	s.log.Debug("iceGatheringState изменён", slog.String("state", state.String()))

	// Завершение сбора: сначала терминальное icecandidate-уведомление с
	// nil-candidate, затем уведомление о смене состояния сбора.
	if candidateCB != nil {
		candidateCB(nil)
	}
	if gatheringCB != nil {
		gatheringCB(state)
	}
}

func (s *Session) handleDataChannelOpened(ev engine.Event) {
	e, ok := ev.(engine.DataChannelOpened)
	if !ok || !s.accept(ev) {
		return
	}

	channel := newDataChannel(e.Channel)

	s.mu.Lock()
	cb := s.onDataChannel
	s.mu.Unlock()

	s.log.Debug("открыт data channel", slog.String("label", channel.Label()))
	if cb != nil {
		cb(channel)
	}
}
