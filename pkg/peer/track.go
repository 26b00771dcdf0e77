package peer

import (
	"sync"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// Track — один медиа-трек внутри потока. Mute-флаг обновляется асинхронно
// событиями mute-changed, независимо от слияний снапшотов; уведомление об
// изменении доставляется на сам трек, а не на сессию.
type Track struct {
	mu sync.RWMutex

	id      string
	kind    string
	label   string
	enabled bool
	muted   bool

	onMute   func()
	onUnmute func()
}

func newTrackFromInfo(info engine.TrackInfo) *Track {
	return &Track{
		id:      info.ID,
		kind:    info.Kind,
		label:   info.Label,
		enabled: info.Enabled,
		muted:   info.Muted,
	}
}

// ID возвращает идентификатор трека.
func (t *Track) ID() string { return t.id }

// Kind возвращает вид медиа ("audio"/"video").
func (t *Track) Kind() string { return t.kind }

// Label возвращает метку трека.
func (t *Track) Label() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.label
}

// Enabled сообщает, включён ли трек.
func (t *Track) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Muted возвращает текущий mute-флаг.
func (t *Track) Muted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.muted
}

// OnMute устанавливает обработчик перехода трека в muted.
func (t *Track) OnMute(h func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMute = h
}

// OnUnmute устанавливает обработчик перехода трека из muted.
func (t *Track) OnUnmute(h func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUnmute = h
}

// setMuted применяет mute-событие engine и вызывает соответствующий
// обработчик. Вызов обработчика идёт после обновления состояния.
func (t *Track) setMuted(muted bool) {
	t.mu.Lock()
	t.muted = muted
	var h func()
	if muted {
		h = t.onMute
	} else {
		h = t.onUnmute
	}
	t.mu.Unlock()

	if h != nil {
		h()
	}
}
