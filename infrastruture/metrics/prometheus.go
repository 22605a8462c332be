// Package metrics counts arcade events with Prometheus.
package metrics

import (
	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "maze_arcade"

// Arcade implements i.Metrics with Prometheus counters.
type Arcade struct {
	attemptsStarted prometheus.Counter
	entriesDenied   prometheus.Counter
	attemptsEnded   *prometheus.CounterVec
	settlements     *prometheus.CounterVec
}

// NewArcade creates the counters and registers them on reg.
func NewArcade(reg prometheus.Registerer) (*Arcade, error) {
	a := &Arcade{
		attemptsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_started_total",
			Help:      "Attempts that cleared entry and started.",
		}),
		entriesDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_denied_total",
			Help:      "Entry requests that were denied or could not be settled.",
		}),
		attemptsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_finished_total",
			Help:      "Finished attempts by terminal phase.",
		}, []string{"phase"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Reward settlements by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{a.attemptsStarted, a.entriesDenied, a.attemptsEnded, a.settlements} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Arcade) AttemptStarted() { a.attemptsStarted.Inc() }

func (a *Arcade) EntryDenied() { a.entriesDenied.Inc() }

func (a *Arcade) AttemptFinished(phase game.Phase) {
	a.attemptsEnded.WithLabelValues(phase.String()).Inc()
}

func (a *Arcade) SettlementFinished(ok bool) {
	result := "failed"
	if ok {
		result = "paid"
	}
	a.settlements.WithLabelValues(result).Inc()
}
