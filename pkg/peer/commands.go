package peer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

// Диспетчер команд.
//
// Каждая команда — блокирующий вызов engine с единственным завершением:
// при успехе возвращённый снапшот сливается в состояние сессии до выхода
// из метода, при неуспехе payload engine отдаётся вызывающему без
// изменений и никакого состояния не трогается. Команды независимы и могут
// выполняться одновременно друг с другом и с событиями.

// checkOpen отсекает команды на закрытой сессии.
func (s *Session) checkOpen(command string) error {
	if s.Closed() {
		return newStateError(s.id, command)
	}
	return nil
}

func (s *Session) commandIssued(command string) {
	metrics.commandsTotal.WithLabelValues(command).Inc()
}

func (s *Session) commandFailed(command string, err error) *Error {
	metrics.commandFailures.WithLabelValues(command).Inc()
	s.log.Warn("команда отклонена engine",
		slog.String("command", command), slog.String("error", err.Error()))
	return newCommandError(s.id, command, err)
}

// CreateOffer запрашивает у engine offer. Описание сессии не применяется
// локально — это делает последующий SetLocalDescription.
func (s *Session) CreateOffer(ctx context.Context, opts engine.OfferOptions) (*engine.SessionDescription, error) {
	const command = "create-offer"
	if err := s.checkOpen(command); err != nil {
		return nil, err
	}
	s.commandIssued(command)

	res, err := s.eng.CreateOffer(ctx, s.id, opts)
	if err != nil {
		return nil, s.commandFailed(command, err)
	}
	s.applyState(res.State)

	desc := res.Description
	return &desc, nil
}

// CreateAnswer запрашивает у engine answer на полученный offer.
func (s *Session) CreateAnswer(ctx context.Context, opts engine.AnswerOptions) (*engine.SessionDescription, error) {
	const command = "create-answer"
	if err := s.checkOpen(command); err != nil {
		return nil, err
	}
	s.commandIssued(command)

	res, err := s.eng.CreateAnswer(ctx, s.id, opts)
	if err != nil {
		return nil, s.commandFailed(command, err)
	}
	s.applyState(res.State)

	desc := res.Description
	return &desc, nil
}

// SetLocalDescription применяет локальное описание; возвращённое engine
// описание (уже с учётом его состояния) замещает localDescription целиком.
func (s *Session) SetLocalDescription(ctx context.Context, desc *engine.SessionDescription) (*engine.SessionDescription, error) {
	const command = "set-local-description"
	if err := s.checkOpen(command); err != nil {
		return nil, err
	}
	s.commandIssued(command)

	res, err := s.eng.SetLocalDescription(ctx, s.id, desc)
	if err != nil {
		return nil, s.commandFailed(command, err)
	}

	s.mu.Lock()
	s.applyStateLocked(res.State)
	if res.Description != nil {
		s.localDescription = res.Description
	}
	s.mu.Unlock()

	return copyDescription(res.Description), nil
}

// SetRemoteDescription применяет описание удалённой стороны.
func (s *Session) SetRemoteDescription(ctx context.Context, desc *engine.SessionDescription) (*engine.SessionDescription, error) {
	const command = "set-remote-description"
	if err := s.checkOpen(command); err != nil {
		return nil, err
	}
	s.commandIssued(command)

	res, err := s.eng.SetRemoteDescription(ctx, s.id, desc)
	if err != nil {
		return nil, s.commandFailed(command, err)
	}

	s.mu.Lock()
	s.applyStateLocked(res.State)
	if res.Description != nil {
		s.remoteDescription = res.Description
	}
	s.mu.Unlock()

	return copyDescription(res.Description), nil
}

// AddICECandidate добавляет удалённый ICE candidate. Пустой candidate
// завершается успехом сразу, без обращения к engine: end-of-candidates
// нижележащей стороной пока не поддерживается.
func (s *Session) AddICECandidate(ctx context.Context, cand *engine.ICECandidate) error {
	const command = "add-ice-candidate"
	if cand == nil || cand.Candidate == "" {
		return nil
	}
	if err := s.checkOpen(command); err != nil {
		return err
	}
	s.commandIssued(command)

	desc, err := s.eng.AddICECandidate(ctx, s.id, cand)
	if err != nil {
		return s.commandFailed(command, err)
	}

	s.mu.Lock()
	if desc != nil {
		s.remoteDescription = desc
	}
	s.mu.Unlock()

	return nil
}

// AddTransceiver создаёт новый transceiver и возвращает объект из таблицы
// сессии — тот же, который виден через Transceivers().
func (s *Session) AddTransceiver(ctx context.Context, source engine.TrackSource, init engine.TransceiverInit) (*Transceiver, error) {
	const command = "add-transceiver"
	if err := s.checkOpen(command); err != nil {
		return nil, err
	}
	s.commandIssued(command)

	res, err := s.eng.AddTransceiver(ctx, s.id, source, init)
	if err != nil {
		return nil, s.commandFailed(command, err)
	}

	s.mu.Lock()
	s.applyStateLocked(res.State)
	tr, found := s.table.lookup(res.TransceiverID)
	s.mu.Unlock()

	if !found {
		return nil, &Error{
			Code:      "TRANSCEIVER_MISSING",
			Category:  CategoryCommand,
			Message:   fmt.Sprintf("engine вернул id %q вне снапшота", res.TransceiverID),
			Command:   command,
			SessionID: s.id,
			Cause:     ErrTransceiverNotFound,
		}
	}
	return tr, nil
}

// AddStream объявляет локальный поток. Потоки хранятся как упорядоченное
// множество: повторное добавление того же tag — no-op.
func (s *Session) AddStream(ctx context.Context, stream *MediaStream) error {
	const command = "add-stream"
	if stream == nil {
		return newValidationError(s.id, command, fmt.Errorf("nil stream"))
	}
	if err := s.checkOpen(command); err != nil {
		return err
	}

	s.mu.Lock()
	for _, existing := range s.localStreams {
		if existing.Tag() == stream.Tag() {
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()

	s.commandIssued(command)
	if err := s.eng.AddStream(ctx, s.id, stream.Tag()); err != nil {
		return s.commandFailed(command, err)
	}

	s.mu.Lock()
	s.localStreams = append(s.localStreams, stream)
	s.mu.Unlock()
	return nil
}

// RemoveStream убирает локальный поток; неизвестный tag — no-op.
func (s *Session) RemoveStream(ctx context.Context, stream *MediaStream) error {
	const command = "remove-stream"
	if stream == nil {
		return newValidationError(s.id, command, fmt.Errorf("nil stream"))
	}
	if err := s.checkOpen(command); err != nil {
		return err
	}

	s.mu.Lock()
	idx := -1
	for i, existing := range s.localStreams {
		if existing.Tag() == stream.Tag() {
			idx = i
			break
		}
	}
	s.mu.Unlock()
	if idx < 0 {
		return nil
	}

	s.commandIssued(command)
	if err := s.eng.RemoveStream(ctx, s.id, stream.Tag()); err != nil {
		return s.commandFailed(command, err)
	}

	s.mu.Lock()
	for i, existing := range s.localStreams {
		if existing.Tag() == stream.Tag() {
			s.localStreams = append(s.localStreams[:i], s.localStreams[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// CreateDataChannel создаёт канал данных. Явный идентификатор канала
// валидируется синхронно до обращения к engine; nil-дескриптор от engine —
// немедленная ошибка вызова, не сессии.
func (s *Session) CreateDataChannel(ctx context.Context, label string, opts engine.DataChannelOptions) (*DataChannel, error) {
	const command = "create-data-channel"
	if opts.ID != nil && (*opts.ID < 0 || *opts.ID > 65534) {
		return nil, newValidationError(s.id, command,
			fmt.Errorf("%w: %d", ErrDataChannelID, *opts.ID))
	}
	if err := s.checkOpen(command); err != nil {
		return nil, err
	}
	s.commandIssued(command)

	info, err := s.eng.CreateDataChannel(ctx, s.id, label, opts)
	if err != nil {
		return nil, s.commandFailed(command, err)
	}
	if info == nil {
		metrics.commandFailures.WithLabelValues(command).Inc()
		return nil, &Error{
			Code:      "DATA_CHANNEL_UNAVAILABLE",
			Category:  CategoryCommand,
			Message:   fmt.Sprintf("engine не создал data channel %q", label),
			Command:   command,
			SessionID: s.id,
			Cause:     ErrDataChannelUnavailable,
		}
	}
	return newDataChannel(*info), nil
}

// GetStats возвращает статистику сессии, декодированную из сериализованного
// списка пар [key, report].
func (s *Session) GetStats(ctx context.Context) (StatsReport, error) {
	const command = "get-stats"
	if err := s.checkOpen(command); err != nil {
		return nil, err
	}
	s.commandIssued(command)

	raw, err := s.eng.GetStats(ctx, s.id)
	if err != nil {
		return nil, s.commandFailed(command, err)
	}
	report, err := decodeStats(raw)
	if err != nil {
		return nil, newCommandError(s.id, command, err)
	}
	return report, nil
}
