package status

import "github.com/prometheus/client_golang/prometheus"

const namespace = "swarm_fsm"

// Destroy reasons for action records
const (
	ReasonOrphaned = "orphaned"
	ReasonFinished = "finished"
)

// Registry is the central metrics facade
// Systems cache the registry during construction; collectors are safe for use from parallel workers
type Registry struct {
	Ticks            prometheus.Counter
	StageDuration    *prometheus.HistogramVec
	CommandsApplied  prometheus.Counter
	CommandsSkipped  prometheus.Counter
	Entities         prometheus.Gauge
	Transitions      prometheus.Counter
	EventsSent       prometheus.Counter
	EventsDiscarded  prometheus.Counter
	Preparations     *prometheus.CounterVec
	ActionsDestroyed *prometheus.CounterVec
}

// NewRegistry creates all collectors and registers them on reg
// A nil reg yields a working, unregistered registry (tests, embedded use)
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Completed pipeline ticks.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per system including its command playback barrier.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"system"}),
		CommandsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_applied_total",
			Help:      "Deferred structural commands applied at stage barriers.",
		}),
		CommandsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_skipped_total",
			Help:      "Deferred commands dropped because their target handle was stale.",
		}),
		Entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Live records in the world.",
		}),
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "State changes performed by the consume-event stage.",
		}),
		EventsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_sent_total",
			Help:      "Events sent by actions.",
		}),
		EventsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_discarded_total",
			Help:      "Events cleared by the reset-event stage without a matching transition.",
		}),
		Preparations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preparations_total",
			Help:      "States presented to a domain preparation routine.",
		}, []string{"domain"}),
		ActionsDestroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_destroyed_total",
			Help:      "Action records destroyed, by reason.",
		}, []string{"reason"}),
	}

	if reg != nil {
		reg.MustRegister(
			r.Ticks,
			r.StageDuration,
			r.CommandsApplied,
			r.CommandsSkipped,
			r.Entities,
			r.Transitions,
			r.EventsSent,
			r.EventsDiscarded,
			r.Preparations,
			r.ActionsDestroyed,
		)
	}

	return r
}
