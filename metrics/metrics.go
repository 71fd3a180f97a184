package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "created_total",
			Help:      "Count of reservations created.",
		},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "status_transitions_total",
			Help:      "Count of accepted status changes by source and target status.",
		},
		[]string{"from", "to"},
	)

	rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "rejections_total",
			Help:      "Count of rejected reservation requests by error kind.",
		},
		[]string{"kind"},
	)

	tableEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "table_events_total",
			Help:      "Count of tables seated and finished.",
		},
		[]string{"event"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationsCreated, statusTransitions, rejections, tableEvents)
	})
}

func IncReservationCreated() {
	reservationsCreated.Inc()
}

func IncStatusTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

func IncRejection(kind string) {
	rejections.WithLabelValues(kind).Inc()
}

func IncTableSeated() {
	tableEvents.WithLabelValues("seated").Inc()
}

func IncTableFinished() {
	tableEvents.WithLabelValues("finished").Inc()
}
