package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// === ТЕСТЫ МАРШРУТИЗАЦИИ СОБЫТИЙ ===

// TestRouterStateMirroring проверяет зеркалирование четырёх состояний engine
func TestRouterStateMirroring(t *testing.T) {
	s, eng := newTestSession(t)

	var notified []string
	s.OnSignalingStateChange(func(st SignalingState) { notified = append(notified, "signaling:"+st.String()) })
	s.OnConnectionStateChange(func(st ConnectionState) { notified = append(notified, "connection:"+st.String()) })
	s.OnICEConnectionStateChange(func(st ICEConnectionState) { notified = append(notified, "ice:"+st.String()) })
	s.OnICEGatheringStateChange(func(st ICEGatheringState) { notified = append(notified, "gathering:"+st.String()) })

	eng.bus.Publish(engine.SignalingStateChanged{PeerConnectionID: s.ID(), SignalingState: "have-local-offer"})
	eng.bus.Publish(engine.ConnectionStateChanged{PeerConnectionID: s.ID(), ConnectionState: "connecting"})
	eng.bus.Publish(engine.ICEConnectionChanged{PeerConnectionID: s.ID(), ICEConnectionState: "checking"})
	eng.bus.Publish(engine.ICEGatheringChanged{PeerConnectionID: s.ID(), ICEGatheringState: "gathering"})

	assert.Equal(t, SignalingHaveLocalOffer, s.SignalingState())
	assert.Equal(t, ConnectionConnecting, s.ConnectionState())
	assert.Equal(t, ICEConnectionChecking, s.ICEConnectionState())
	assert.Equal(t, ICEGatheringGathering, s.ICEGatheringState())
	assert.Equal(t, []string{
		"signaling:have-local-offer",
		"connection:connecting",
		"ice:checking",
		"gathering:gathering",
	}, notified, "уведомление следует за обновлением состояния")
}

// TestRouterForeignSessionNoop проверяет, что события чужой сессии не
// мутируют сессию под тестом
func TestRouterForeignSessionNoop(t *testing.T) {
	s, eng := newTestSession(t)

	fired := false
	s.OnSignalingStateChange(func(SignalingState) { fired = true })

	eng.bus.Publish(engine.SignalingStateChanged{PeerConnectionID: s.ID() + 1000, SignalingState: "closed"})
	eng.bus.Publish(engine.ConnectionStateChanged{PeerConnectionID: s.ID() + 1000, ConnectionState: "closed"})

	assert.Equal(t, SignalingStable, s.SignalingState())
	assert.Equal(t, ConnectionNew, s.ConnectionState())
	assert.False(t, fired)
	assert.False(t, s.Closed())
}

// TestRouterMalformedStateIgnored проверяет политику malformed payload
func TestRouterMalformedStateIgnored(t *testing.T) {
	s, eng := newTestSession(t)

	fired := false
	s.OnSignalingStateChange(func(SignalingState) { fired = true })

	eng.bus.Publish(engine.SignalingStateChanged{PeerConnectionID: s.ID(), SignalingState: "nonsense"})

	assert.Equal(t, SignalingStable, s.SignalingState())
	assert.False(t, fired, "нераспознанное значение состояния — молчаливый no-op")
}

// TestRouterTerminalTeardown: после терминального connectionState ни одно
// последующее событие не мутирует сессию и не порождает уведомлений
func TestRouterTerminalTeardown(t *testing.T) {
	s, eng := newTestSession(t)

	var closedSeen bool
	s.OnConnectionStateChange(func(st ConnectionState) {
		if st == ConnectionClosed {
			closedSeen = true
		}
	})
	signalingFired := false
	s.OnSignalingStateChange(func(SignalingState) { signalingFired = true })

	eng.bus.Publish(engine.ConnectionStateChanged{PeerConnectionID: s.ID(), ConnectionState: "closed"})
	require.True(t, closedSeen, "терминальное уведомление должно уйти до teardown")
	require.True(t, s.Closed())

	// Любое следующее событие той же сессии — тишина
	eng.bus.Publish(engine.SignalingStateChanged{PeerConnectionID: s.ID(), SignalingState: "have-remote-offer"})
	eng.bus.Publish(engine.StreamAdded{PeerConnectionID: s.ID(), Stream: engine.StreamInfo{Tag: "late"}})

	assert.Equal(t, SignalingStable, s.SignalingState())
	assert.False(t, signalingFired)
	assert.Empty(t, s.RemoteStreams())
}

// TestRouterTerminalICEConnection проверяет teardown по iceConnectionState
func TestRouterTerminalICEConnection(t *testing.T) {
	s, eng := newTestSession(t)

	eng.bus.Publish(engine.ICEConnectionChanged{PeerConnectionID: s.ID(), ICEConnectionState: "closed"})
	require.True(t, s.Closed())

	eng.bus.Publish(engine.ConnectionStateChanged{PeerConnectionID: s.ID(), ConnectionState: "connected"})
	assert.Equal(t, ConnectionNew, s.ConnectionState())
}

// TestRouterStreamAddedRemoved проверяет жизненный цикл удалённого потока
func TestRouterStreamAddedRemoved(t *testing.T) {
	s, eng := newTestSession(t)

	var added, removed []*MediaStream
	s.OnAddStream(func(ms *MediaStream) { added = append(added, ms) })
	s.OnRemoveStream(func(ms *MediaStream) { removed = append(removed, ms) })

	sdpAdd := &engine.SessionDescription{Type: "offer", SDP: "v=0\r\nadd"}
	eng.bus.Publish(engine.StreamAdded{
		PeerConnectionID: s.ID(),
		Stream: engine.StreamInfo{
			Tag:    "stream-1",
			ID:     "s1",
			Tracks: []engine.TrackInfo{{ID: "t1", Kind: "audio"}},
		},
		SDP: sdpAdd,
	})

	require.Len(t, added, 1)
	streams := s.RemoteStreams()
	require.Len(t, streams, 1)
	assert.Same(t, added[0], streams[0])
	assert.Equal(t, "stream-1", streams[0].Tag())
	require.NotNil(t, s.RemoteDescription())
	assert.Equal(t, sdpAdd.SDP, s.RemoteDescription().SDP)

	// Удаление неизвестного tag — no-op
	eng.bus.Publish(engine.StreamRemoved{PeerConnectionID: s.ID(), StreamTag: "missing"})
	assert.Len(t, s.RemoteStreams(), 1)
	assert.Empty(t, removed)

	sdpRemove := &engine.SessionDescription{Type: "offer", SDP: "v=0\r\nremove"}
	eng.bus.Publish(engine.StreamRemoved{PeerConnectionID: s.ID(), StreamTag: "stream-1", SDP: sdpRemove})

	require.Len(t, removed, 1)
	assert.Same(t, added[0], removed[0])
	assert.Empty(t, s.RemoteStreams())
	assert.Equal(t, sdpRemove.SDP, s.RemoteDescription().SDP)
}

// TestRouterTransceiverStartedReceiving проверяет частичный upsert без reorder
func TestRouterTransceiverStartedReceiving(t *testing.T) {
	s, eng := newTestSession(t)
	s.applyState(snapshotOf("a", "b"))

	eng.bus.Publish(engine.TransceiverStartedReceiving{
		PeerConnectionID: s.ID(),
		Transceiver:      engine.TransceiverState{ID: "c", Mid: "2", Direction: "recvonly"},
	})

	// Новый transceiver дописан в конец, существующий порядок не тронут
	assert.Equal(t, []string{"a", "b", "c"}, visibleIDs(s))

	// Обновление уже известного id мутирует объект на месте
	before := s.Transceivers()[0]
	eng.bus.Publish(engine.TransceiverStartedReceiving{
		PeerConnectionID: s.ID(),
		Transceiver:      engine.TransceiverState{ID: "a", Mid: "a", Direction: "sendonly"},
	})
	assert.Same(t, before, s.Transceivers()[0])
	assert.Equal(t, "sendonly", before.Direction())
}

// TestRouterReceiverAdded проверяет track-уведомление и регистрацию потоков
func TestRouterReceiverAdded(t *testing.T) {
	s, eng := newTestSession(t)

	var gotTrack *Track
	var gotStreams []*MediaStream
	s.OnTrack(func(tr *Track, streams []*MediaStream) {
		gotTrack = tr
		gotStreams = streams
	})

	// Malformed payload — no-op без уведомления
	eng.bus.Publish(engine.ReceiverAdded{PeerConnectionID: s.ID()})
	eng.bus.Publish(engine.ReceiverAdded{
		PeerConnectionID: s.ID(),
		Streams:          []engine.StreamInfo{{Tag: "x"}},
	})
	assert.Nil(t, gotTrack)
	assert.Empty(t, s.RemoteStreams())

	eng.bus.Publish(engine.ReceiverAdded{
		PeerConnectionID: s.ID(),
		Streams:          []engine.StreamInfo{{Tag: "stream-1", ID: "s1"}},
		Receiver: &engine.ReceiverState{
			ID:    "r1",
			Track: &engine.TrackInfo{ID: "t1", Kind: "video", Enabled: true},
		},
	})

	require.NotNil(t, gotTrack)
	assert.Equal(t, "t1", gotTrack.ID())
	assert.Equal(t, "video", gotTrack.Kind())
	require.Len(t, gotStreams, 1)
	require.Len(t, s.RemoteStreams(), 1)
	assert.Same(t, gotStreams[0], s.RemoteStreams()[0])

	// Повторное событие с тем же tag переиспользует существующий поток
	eng.bus.Publish(engine.ReceiverAdded{
		PeerConnectionID: s.ID(),
		Streams:          []engine.StreamInfo{{Tag: "stream-1"}},
		Receiver: &engine.ReceiverState{
			ID:    "r2",
			Track: &engine.TrackInfo{ID: "t2", Kind: "audio"},
		},
	})
	assert.Len(t, s.RemoteStreams(), 1, "идентичность потока по tag сохраняется")
	assert.Len(t, s.RemoteStreams()[0].Tracks(), 2)
}

// TestRouterMuteChanged проверяет адресацию (stream tag, track id) и
// уведомление на самом треке
func TestRouterMuteChanged(t *testing.T) {
	s, eng := newTestSession(t)

	eng.bus.Publish(engine.StreamAdded{
		PeerConnectionID: s.ID(),
		Stream: engine.StreamInfo{
			Tag:    "stream-1",
			Tracks: []engine.TrackInfo{{ID: "t1", Kind: "audio"}},
		},
	})
	track, ok := s.RemoteStreams()[0].track("t1")
	require.True(t, ok)

	muted, unmuted := 0, 0
	track.OnMute(func() { muted++ })
	track.OnUnmute(func() { unmuted++ })

	eng.bus.Publish(engine.MuteChanged{PeerConnectionID: s.ID(), StreamTag: "stream-1", TrackID: "t1", Muted: true})
	assert.True(t, track.Muted())
	assert.Equal(t, 1, muted)

	eng.bus.Publish(engine.MuteChanged{PeerConnectionID: s.ID(), StreamTag: "stream-1", TrackID: "t1", Muted: false})
	assert.False(t, track.Muted())
	assert.Equal(t, 1, unmuted)

	// Неизвестный поток или трек — no-op
	eng.bus.Publish(engine.MuteChanged{PeerConnectionID: s.ID(), StreamTag: "missing", TrackID: "t1", Muted: true})
	eng.bus.Publish(engine.MuteChanged{PeerConnectionID: s.ID(), StreamTag: "stream-1", TrackID: "missing", Muted: true})
	assert.False(t, track.Muted())
}

// TestRouterICECandidateFlow проверяет кандидатов и порядок уведомлений при
// завершении сбора: nil-candidate прежде icegatheringstatechange
func TestRouterICECandidateFlow(t *testing.T) {
	s, eng := newTestSession(t)

	var order []string
	s.OnICECandidate(func(c *engine.ICECandidate) {
		if c == nil {
			order = append(order, "candidate:nil")
		} else {
			order = append(order, "candidate:"+c.Candidate)
		}
	})
	s.OnICEGatheringStateChange(func(st ICEGatheringState) {
		order = append(order, "gathering:"+st.String())
	})

	sdp1 := &engine.SessionDescription{Type: "offer", SDP: "v=0\r\ncand1"}
	eng.bus.Publish(engine.ICECandidateFound{
		PeerConnectionID: s.ID(),
		SDP:              sdp1,
		Candidate:        &engine.ICECandidate{Candidate: "candidate:1", SDPMid: "0"},
	})

	require.NotNil(t, s.LocalDescription())
	assert.Equal(t, sdp1.SDP, s.LocalDescription().SDP)

	sdpFinal := &engine.SessionDescription{Type: "offer", SDP: "v=0\r\nfinal"}
	eng.bus.Publish(engine.ICEGatheringChanged{
		PeerConnectionID:  s.ID(),
		ICEGatheringState: "complete",
		SDP:               sdpFinal,
	})

	assert.Equal(t, ICEGatheringComplete, s.ICEGatheringState())
	assert.Equal(t, sdpFinal.SDP, s.LocalDescription().SDP)
	assert.Equal(t, []string{
		"candidate:candidate:1",
		"candidate:nil",
		"gathering:complete",
	}, order)
}

// TestRouterDataChannelOpened проверяет уведомление о входящем канале
func TestRouterDataChannelOpened(t *testing.T) {
	s, eng := newTestSession(t)

	var got *DataChannel
	s.OnDataChannel(func(dc *DataChannel) { got = dc })

	eng.bus.Publish(engine.DataChannelOpened{
		PeerConnectionID: s.ID(),
		Channel: engine.DataChannelInfo{
			ID: 4, Label: "chat", Ordered: true, ReadyState: "open",
		},
	})

	require.NotNil(t, got)
	assert.Equal(t, 4, got.ID())
	assert.Equal(t, "chat", got.Label())
	assert.Equal(t, "open", got.ReadyState())
}

// TestRouterRenegotiationNeeded проверяет чистое уведомление без мутаций
func TestRouterRenegotiationNeeded(t *testing.T) {
	s, eng := newTestSession(t)

	fired := 0
	s.OnNegotiationNeeded(func() { fired++ })

	eng.bus.Publish(engine.RenegotiationNeeded{PeerConnectionID: s.ID()})
	assert.Equal(t, 1, fired)
	assert.Equal(t, SignalingStable, s.SignalingState())
}
