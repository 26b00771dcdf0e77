package peer

import (
	"sync"

	"github.com/google/uuid"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// MediaStream — коллекция треков одной стороны сессии. Идентичность задаёт
// tag, назначенный engine; поток принадлежит либо локальной, либо удалённой
// коллекции сессии, но никогда обеим сразу.
type MediaStream struct {
	mu sync.RWMutex

	tag    string
	id     string
	tracks []*Track
}

// NewMediaStream создаёт локальный поток с указанным tag. Пустой tag
// заменяется сгенерированным uuid.
func NewMediaStream(tag string) *MediaStream {
	if tag == "" {
		tag = uuid.NewString()
	}
	return &MediaStream{tag: tag, id: tag}
}

func newMediaStreamFromInfo(info engine.StreamInfo) *MediaStream {
	ms := &MediaStream{tag: info.Tag, id: info.ID}
	if ms.id == "" {
		ms.id = info.Tag
	}
	for _, ti := range info.Tracks {
		ms.tracks = append(ms.tracks, newTrackFromInfo(ti))
	}
	return ms
}

// Tag возвращает engine-идентификатор потока.
func (m *MediaStream) Tag() string { return m.tag }

// ID возвращает идентификатор потока.
func (m *MediaStream) ID() string { return m.id }

// Tracks возвращает копию списка треков.
func (m *MediaStream) Tracks() []*Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Track, len(m.tracks))
	copy(out, m.tracks)
	return out
}

// track находит трек по идентификатору.
func (m *MediaStream) track(id string) (*Track, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tr := range m.tracks {
		if tr.ID() == id {
			return tr, true
		}
	}
	return nil, false
}

// addTrack дописывает трек, если его ещё нет в потоке.
func (m *MediaStream) addTrack(t *Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tracks {
		if existing.ID() == t.ID() {
			return
		}
	}
	m.tracks = append(m.tracks, t)
}
