// Package signaling переносит offer/answer между двумя пирами поверх SIP:
// offer уезжает в теле INVITE (application/sdp), answer возвращается в
// теле 200 OK. Кандидаты доезжают внутри описаний (trickle здесь нет).
package signaling

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"
	"github.com/google/uuid"

	"github.com/arzzra/webrtc_peer/pkg/engine"
)

const contentTypeSDP = "application/sdp"

// Config — параметры SIP-стека сигналинга.
type Config struct {
	// Host и Port — адрес для прослушивания входящих INVITE.
	Host string
	Port int
	// UserAgent попадает в одноимённый заголовок исходящих запросов.
	UserAgent string
	Logger    *slog.Logger
}

// DefaultConfig возвращает конфигурацию для локальной петли.
func DefaultConfig() Config {
	return Config{
		Host:      "127.0.0.1",
		Port:      5060,
		UserAgent: "webrtc-peer/1.0",
	}
}

// AnswerFunc вызывается на входящий offer и обязана вернуть answer.
// Ошибка транслируется отправителю как 500.
type AnswerFunc func(ctx context.Context, offer engine.SessionDescription) (engine.SessionDescription, error)

// Signaler — связка UAC+UAS: умеет и отправлять offer, и отвечать на него.
type Signaler struct {
	cfg    Config
	log    *slog.Logger
	ua     *sipgo.UserAgent
	client *sipgo.Client
	server *sipgo.Server

	mu     sync.RWMutex
	answer AnswerFunc
	closed bool
}

// New создаёт Signaler. До Listen входящие INVITE не обслуживаются.
func New(cfg Config) (*Signaler, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	ua, err := sipgo.NewUA(sipgo.WithUserAgent(cfg.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("создание User Agent: %w", err)
	}

	client, err := sipgo.NewClient(ua, sipgo.WithClientHostname(cfg.Host))
	if err != nil {
		return nil, fmt.Errorf("создание клиента: %w", err)
	}

	server, err := sipgo.NewServer(ua)
	if err != nil {
		return nil, fmt.Errorf("создание сервера: %w", err)
	}

	s := &Signaler{
		cfg:    cfg,
		log:    log.With(slog.String("component", "signaling")),
		ua:     ua,
		client: client,
		server: server,
	}
	s.registerHandlers()
	return s, nil
}

func (s *Signaler) registerHandlers() {
	s.server.OnInvite(s.handleInvite)
	s.server.OnAck(func(req *sip.Request, tx sip.ServerTransaction) {
		// ACK не требует ответа
	})
	s.server.OnBye(func(req *sip.Request, tx sip.ServerTransaction) {
		res := sip.NewResponseFromRequest(req, sip.StatusOK, "OK", nil)
		_ = tx.Respond(res)
	})
}

// OnOffer устанавливает обработчик входящих offer.
func (s *Signaler) OnOffer(fn AnswerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = fn
}

// Listen запускает прослушивание входящих соединений. Блокирует до
// отмены контекста.
func (s *Signaler) Listen(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("signaler закрыт")
	}
	s.mu.RUnlock()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.Info("запуск SIP сервера", slog.String("address", addr))
	return s.server.ListenAndServe(ctx, "udp", addr)
}

// Offer отправляет offer на target (SIP URI) и блокирует до получения
// answer из 200 OK. 2xx подтверждается ACK.
func (s *Signaler) Offer(ctx context.Context, target string, offer engine.SessionDescription) (*engine.SessionDescription, error) {
	var remote sip.Uri
	if err := sip.ParseUri(target, &remote); err != nil {
		return nil, fmt.Errorf("некорректный target %q: %w", target, err)
	}

	req := s.buildInvite(remote, offer)
	res, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("INVITE к %s: %w", target, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("INVITE отклонён: %d %s", res.StatusCode, res.Reason)
	}

	if err := s.sendACK(req, res); err != nil {
		s.log.Warn("не удалось отправить ACK", slog.String("error", err.Error()))
	}

	body := res.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("200 OK без SDP")
	}
	return &engine.SessionDescription{Type: "answer", SDP: string(body)}, nil
}

// Close останавливает стек; повторный вызов — no-op.
func (s *Signaler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.ua.Close()
}

func (s *Signaler) buildInvite(remote sip.Uri, offer engine.SessionDescription) *sip.Request {
	req := sip.NewRequest(sip.INVITE, remote)

	local := sip.Uri{Scheme: "sip", User: "peer", Host: s.cfg.Host, Port: s.cfg.Port}
	req.AppendHeader(&sip.FromHeader{
		Address: local,
		Params:  sip.NewParams().Add("tag", uuid.NewString()[:8]),
	})
	req.AppendHeader(&sip.ToHeader{Address: remote, Params: sip.NewParams()})
	req.AppendHeader(&sip.ContactHeader{Address: local, Params: sip.NewParams()})

	callID := sip.CallIDHeader(uuid.NewString())
	req.AppendHeader(&callID)
	req.AppendHeader(sip.NewHeader("CSeq", "1 INVITE"))
	req.AppendHeader(sip.NewHeader("Max-Forwards", "70"))

	req.SetBody([]byte(offer.SDP))
	req.AppendHeader(sip.NewHeader("Content-Type", contentTypeSDP))
	req.AppendHeader(sip.NewHeader("Content-Length", strconv.Itoa(len(offer.SDP))))
	return req
}

// sendACK подтверждает 2xx: тот же Request-URI и CSeq-номер, метод ACK.
func (s *Signaler) sendACK(invite *sip.Request, res *sip.Response) error {
	ack := sip.NewRequest(sip.ACK, invite.Recipient)
	ack.AppendHeader(invite.CallID())
	ack.AppendHeader(invite.From())
	ack.AppendHeader(res.To())
	ack.AppendHeader(&sip.CSeqHeader{
		SeqNo:      invite.CSeq().SeqNo,
		MethodName: sip.ACK,
	})
	ack.AppendHeader(sip.NewHeader("Max-Forwards", "70"))
	return s.client.WriteRequest(ack, sipgo.ClientRequestAddVia)
}

func (s *Signaler) handleInvite(req *sip.Request, tx sip.ServerTransaction) {
	s.mu.RLock()
	answer := s.answer
	s.mu.RUnlock()

	if answer == nil {
		res := sip.NewResponseFromRequest(req, 503, "Service Unavailable", nil)
		_ = tx.Respond(res)
		return
	}

	ct := req.GetHeader("Content-Type")
	if ct == nil || ct.Value() != contentTypeSDP || len(req.Body()) == 0 {
		res := sip.NewResponseFromRequest(req, 415, "Unsupported Media Type", nil)
		_ = tx.Respond(res)
		return
	}

	offer := engine.SessionDescription{Type: "offer", SDP: string(req.Body())}
	desc, err := answer(context.Background(), offer)
	if err != nil {
		s.log.Error("обработчик offer вернул ошибку", slog.String("error", err.Error()))
		res := sip.NewResponseFromRequest(req, 500, "Server Internal Error", nil)
		_ = tx.Respond(res)
		return
	}

	res := sip.NewResponseFromRequest(req, sip.StatusOK, "OK", []byte(desc.SDP))
	res.AppendHeader(sip.NewHeader("Content-Type", contentTypeSDP))
	res.AppendHeader(sip.NewHeader("Content-Length", strconv.Itoa(len(desc.SDP))))
	if err := tx.Respond(res); err != nil {
		s.log.Error("не удалось отправить 200 OK", slog.String("error", err.Error()))
	}
}
