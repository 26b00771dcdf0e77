package engine

import "sync"

// Handler обрабатывает одно событие. Вызывается синхронно из Publish:
// обработчик обязан отработать до конца без блокировок на внешние ресурсы.
type Handler func(Event)

// Bus — реестр подписок на события engine, ключ — (категория, session id).
//
// Заменяет широковещательный listener-паттерн исходной системы: доставка
// идёт только подписчикам нужной сессии, отписка — через возвращаемую
// Subscription, которую безопасно отменять повторно.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[EventKind]map[uint64]busSubscriber
}

type busSubscriber struct {
	sessionID uint64
	handler   Handler
}

// NewBus создаёт пустую шину событий.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[EventKind]map[uint64]busSubscriber),
	}
}

// Subscribe регистрирует обработчик событий категории kind для сессии
// sessionID. Возвращённая Subscription отписывает обработчик; повторная
// отмена — no-op.
func (b *Bus) Subscribe(kind EventKind, sessionID uint64, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	token := b.next
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[uint64]busSubscriber)
	}
	b.subs[kind][token] = busSubscriber{sessionID: sessionID, handler: h}

	return &Subscription{
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[kind], token)
		},
	}
}

// Publish синхронно доставляет событие подписчикам его категории,
// зарегистрированным на сессию события. Остальные подписчики не вызываются.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, 1)
	for _, sub := range b.subs[ev.Kind()] {
		if sub.sessionID == ev.SessionID() {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscription — capability для отписки. Идемпотентна: после первого Cancel
// обработчик гарантированно не вызывается, повторные Cancel ничего не делают.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel снимает подписку.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}
