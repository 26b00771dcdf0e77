package peer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// peerMetrics — Prometheus-метрики контроллера сессий.
//
// Регистрируются один раз в default registry при загрузке пакета;
// все сессии процесса разделяют один набор метрик.
type peerMetrics struct {
	sessionsTotal    prometheus.Counter
	sessionsActive   prometheus.Gauge
	commandsTotal    *prometheus.CounterVec
	commandFailures  *prometheus.CounterVec
	eventsRouted     *prometheus.CounterVec
	eventsIgnored    prometheus.Counter
	mergesApplied    prometheus.Counter
	stateTransitions *prometheus.CounterVec
}

var metrics = newPeerMetrics("webrtc", "peer")

func newPeerMetrics(namespace, subsystem string) *peerMetrics {
	return &peerMetrics{
		sessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_total",
			Help:      "Общее количество созданных сессий",
		}),
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_active",
			Help:      "Количество активных сессий",
		}),
		commandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_total",
			Help:      "Количество выданных engine команд по типам",
		}, []string{"command"}),
		commandFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "command_failures_total",
			Help:      "Количество команд, отклонённых engine",
		}, []string{"command"}),
		eventsRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_routed_total",
			Help:      "Количество обработанных событий engine по категориям",
		}, []string{"kind"}),
		eventsIgnored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_ignored_total",
			Help:      "Количество отброшенных событий (malformed payload, закрытая сессия)",
		}),
		mergesApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "state_merges_total",
			Help:      "Количество применённых снапшотов состояния",
		}),
		stateTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "state_transitions_total",
			Help:      "Переходы наблюдаемых состояний сессии",
		}, []string{"field", "state"}),
	}
}
