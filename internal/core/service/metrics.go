package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors of the interaction engine. A nil *Metrics is valid and records nothing.
type Metrics struct {
	commandDispatches *prometheus.CounterVec
	rewardDispatches  *prometheus.CounterVec
	refunds           *prometheus.CounterVec
	emoteMatches      *prometheus.CounterVec
	decorateDuration  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commandDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nomercybot",
			Name:      "command_dispatches_total",
			Help:      "Command dispatches by outcome",
		}, []string{"outcome"}),
		rewardDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nomercybot",
			Name:      "reward_dispatches_total",
			Help:      "Reward dispatches by outcome",
		}, []string{"outcome"}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nomercybot",
			Name:      "reward_refunds_total",
			Help:      "Redemptions refunded, by reason",
		}, []string{"reason"}),
		emoteMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nomercybot",
			Name:      "emote_matches_total",
			Help:      "Words replaced by an emote, by provider",
		}, []string{"provider"}),
		decorateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nomercybot",
			Name:      "decorate_duration_seconds",
			Help:      "Time spent decorating a chat message",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.commandDispatches,
			m.rewardDispatches,
			m.refunds,
			m.emoteMatches,
			m.decorateDuration,
		)
	}

	return m
}

func (m *Metrics) commandDispatched(outcome string) {
	if m == nil {
		return
	}
	m.commandDispatches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) rewardDispatched(outcome string) {
	if m == nil {
		return
	}
	m.rewardDispatches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) refunded(reason string) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(reason).Inc()
}

func (m *Metrics) emoteMatched(provider string) {
	if m == nil {
		return
	}
	m.emoteMatches.WithLabelValues(provider).Inc()
}

func (m *Metrics) decorated(d time.Duration) {
	if m == nil {
		return
	}
	m.decorateDuration.Observe(d.Seconds())
}
