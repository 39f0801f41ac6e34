package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fourinarow"

const (
	KindHuman = "human"
	KindBot   = "bot"

	SinkPersistence = "persistence"
	SinkPublish     = "publish"
)

type Metrics struct {
	MatchesStarted      *prometheus.CounterVec
	MatchesCompleted    *prometheus.CounterVec
	MovesApplied        prometheus.Counter
	ActiveMatches       prometheus.Gauge
	WaitingPlayers      prometheus.Gauge
	DisconnectedPlayers prometheus.Gauge
	SinkFailures        *prometheus.CounterVec
}

// New - registers the server metrics on the given registerer.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		MatchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_started_total",
			Help:      "Matches started, by opponent kind.",
		}, []string{"kind"}),
		MatchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_completed_total",
			Help:      "Matches completed, by outcome.",
		}, []string{"outcome"}),
		MovesApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_applied_total",
			Help:      "Moves accepted by the referee.",
		}),
		ActiveMatches: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_matches",
			Help:      "Matches currently in progress.",
		}),
		WaitingPlayers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waiting_players",
			Help:      "Players waiting in the matchmaking queue.",
		}),
		DisconnectedPlayers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disconnected_players",
			Help:      "Participants inside their reconnect grace period.",
		}),
		SinkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_sink_failures_total",
			Help:      "Best-effort result reporting failures, by sink.",
		}, []string{"sink"}),
	}
}

func OpponentKind(isBot bool) string {
	if isBot {
		return KindBot
	}

	return KindHuman
}
