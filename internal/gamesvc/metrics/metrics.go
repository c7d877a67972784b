package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuzzAdmissions counts buzz attempts that were committed into a queue.
	BuzzAdmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizwire_buzz_admissions_total",
			Help: "Total number of buzz attempts admitted into a buzzer queue",
		},
	)

	// CASConflicts counts optimistic-concurrency conflicts on the game
	// record. Each conflict triggers one internal retry.
	CASConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizwire_game_cas_conflicts_total",
			Help: "Total number of stale-version conflicts on game updates",
		},
	)

	// QuestionsClosed counts lifecycle-closing transitions by cause.
	QuestionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizwire_questions_closed_total",
			Help: "Total number of questions closed",
		},
		[]string{"cause"}, // correct, exhausted, marked_done
	)

	// EventsIn counts inbound events dispatched by the game broker.
	EventsIn = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizwire_events_in_total",
			Help: "Total number of inbound events received",
		},
		[]string{"type"},
	)

	// EventsOut counts outbound events published to the room bus.
	EventsOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizwire_events_out_total",
			Help: "Total number of outbound events published",
		},
		[]string{"type"},
	)
)
