package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	friendshipOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friendship_operations_total",
			Help: "Total number of friendship transitions by outcome",
		},
		[]string{"operation", "outcome"},
	)

	friendshipOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "friendship_operation_duration_seconds",
			Help:    "Duration of friendship transitions in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	partialMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friendship_partial_mutations_total",
			Help: "Friendship transitions that applied only one side",
		},
		[]string{"operation"},
	)

	messagesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_created_total",
			Help: "Total number of persisted messages",
		},
	)

	lastMessageFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_last_message_failures_total",
			Help: "Messages persisted whose conversation pointer could not be updated",
		},
	)

	messagesMarkedReadTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_marked_read_total",
			Help: "Read receipts appended by markRead",
		},
	)

	unreadListingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversation_unread_listing_duration_seconds",
			Help:    "Duration of listing a user's conversations with unread counts",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	repairTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repair_tasks_total",
			Help: "Repair tasks by kind and status",
		},
		[]string{"kind", "status"},
	)

	eventPublishFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_failures_total",
			Help: "Domain events that could not be published",
		},
		[]string{"routing_key"},
	)
)

func RecordFriendshipOperation(operation, outcome string, duration time.Duration) {
	friendshipOperationsTotal.WithLabelValues(operation, outcome).Inc()
	friendshipOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordPartialMutation(operation string) {
	partialMutationsTotal.WithLabelValues(operation).Inc()
}

func RecordMessageCreated() {
	messagesCreatedTotal.Inc()
}

func RecordLastMessageFailure() {
	lastMessageFailuresTotal.Inc()
}

func RecordMarkedRead(n int64) {
	messagesMarkedReadTotal.Add(float64(n))
}

func RecordUnreadListing(duration time.Duration) {
	unreadListingDuration.Observe(duration.Seconds())
}

// RecordRepairTask counts a repair task; status is one of enqueued, applied, retried, dropped.
func RecordRepairTask(kind, status string) {
	repairTasksTotal.WithLabelValues(kind, status).Inc()
}

func RecordPublishFailure(routingKey string) {
	eventPublishFailuresTotal.WithLabelValues(routingKey).Inc()
}
