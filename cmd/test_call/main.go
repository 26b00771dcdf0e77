// Демонстрация полного цикла peer-to-peer сессии: два пира с mock engine
// обмениваются offer/answer через SIP-сигналинг на локальной петле, затем
// engine доводит соединение до connected.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/arzzra/webrtc_peer/pkg/engine"
	"github.com/arzzra/webrtc_peer/pkg/engine/mockengine"
	"github.com/arzzra/webrtc_peer/pkg/peer"
	"github.com/arzzra/webrtc_peer/pkg/signaling"
)

func main() {
	var (
		callerPort = flag.Int("caller-port", 5070, "Порт сигналинга вызывающей стороны")
		calleePort = flag.Int("callee-port", 5071, "Порт сигналинга вызываемой стороны")
		debug      = flag.Bool("debug", false, "Подробное логирование")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *callerPort, *calleePort); err != nil {
		log.Fatalf("Ошибка сценария: %v", err)
	}
	log.Println("Сценарий завершён успешно")
}

func run(logger *slog.Logger, callerPort, calleePort int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// === Вызываемая сторона ===
	calleeEngine := mockengine.New()
	callee, err := peer.NewSession(ctx, peer.Config{Engine: calleeEngine, Logger: logger})
	if err != nil {
		return fmt.Errorf("создание сессии callee: %w", err)
	}
	defer callee.Close()

	callee.OnTrack(func(track *peer.Track, streams []*peer.MediaStream) {
		log.Printf("Callee: входящий трек %s (%s), потоков: %d", track.ID(), track.Kind(), len(streams))
	})
	callee.OnConnectionStateChange(func(state peer.ConnectionState) {
		log.Printf("Callee: connection state -> %s", state)
	})

	calleeSignaler, err := signaling.New(signaling.Config{
		Host: "127.0.0.1", Port: calleePort, Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("создание сигналинга callee: %w", err)
	}
	defer calleeSignaler.Close()

	calleeSignaler.OnOffer(func(ctx context.Context, offer engine.SessionDescription) (engine.SessionDescription, error) {
		log.Println("Callee: получен offer")
		if _, err := callee.SetRemoteDescription(ctx, &offer); err != nil {
			return engine.SessionDescription{}, err
		}
		answer, err := callee.CreateAnswer(ctx, engine.AnswerOptions{})
		if err != nil {
			return engine.SessionDescription{}, err
		}
		if _, err := callee.SetLocalDescription(ctx, answer); err != nil {
			return engine.SessionDescription{}, err
		}
		log.Println("Callee: answer отправлен")
		return *answer, nil
	})

	go func() {
		if err := calleeSignaler.Listen(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Сигналинг callee остановлен: %v", err)
		}
	}()

	// === Вызывающая сторона ===
	callerEngine := mockengine.New()
	caller, err := peer.NewSession(ctx, peer.Config{Engine: callerEngine, Logger: logger})
	if err != nil {
		return fmt.Errorf("создание сессии caller: %w", err)
	}
	defer caller.Close()

	caller.OnICECandidate(func(cand *engine.ICECandidate) {
		if cand == nil {
			log.Println("Caller: сбор кандидатов завершён")
			return
		}
		log.Printf("Caller: кандидат %s", cand.Candidate)
	})
	caller.OnConnectionStateChange(func(state peer.ConnectionState) {
		log.Printf("Caller: connection state -> %s", state)
	})

	callerSignaler, err := signaling.New(signaling.Config{
		Host: "127.0.0.1", Port: callerPort, Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("создание сигналинга caller: %w", err)
	}
	defer callerSignaler.Close()

	time.Sleep(200 * time.Millisecond)

	// === Offer/Answer ===
	if _, err := caller.AddTransceiver(ctx, engine.TrackSource{Kind: "audio"}, engine.TransceiverInit{Direction: "sendrecv"}); err != nil {
		return fmt.Errorf("добавление transceiver: %w", err)
	}

	offer, err := caller.CreateOffer(ctx, engine.OfferOptions{})
	if err != nil {
		return fmt.Errorf("создание offer: %w", err)
	}
	if _, err := caller.SetLocalDescription(ctx, offer); err != nil {
		return fmt.Errorf("применение local description: %w", err)
	}
	callerEngine.CompleteGathering(caller.ID())

	target := fmt.Sprintf("sip:peer@127.0.0.1:%d", calleePort)
	log.Printf("Caller: отправка offer на %s", target)
	answer, err := callerSignaler.Offer(ctx, target, *caller.LocalDescription())
	if err != nil {
		return fmt.Errorf("обмен offer/answer: %w", err)
	}

	if _, err := caller.SetRemoteDescription(ctx, answer); err != nil {
		return fmt.Errorf("применение remote description: %w", err)
	}

	// === Установление соединения ===
	callerEngine.EstablishConnection(caller.ID())
	calleeEngine.EstablishConnection(callee.ID())

	log.Printf("Caller: signaling=%s connection=%s ice=%s gathering=%s",
		caller.SignalingState(), caller.ConnectionState(),
		caller.ICEConnectionState(), caller.ICEGatheringState())
	log.Printf("Callee: connection=%s, transceiver-ов у caller: %d",
		callee.ConnectionState(), len(caller.Transceivers()))

	return nil
}
