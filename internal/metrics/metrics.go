package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	GenerationRequests *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	HeuristicFallbacks *prometheus.CounterVec
	EmailsProcessed    prometheus.Counter
	AgentQueries       *prometheus.CounterVec
	DraftOperations    *prometheus.CounterVec
	DraftsSent         prometheus.Counter
	DraftSendFailures  prometheus.Counter
	InboxSyncs         prometheus.Counter
	InboxSyncFailures  prometheus.Counter
	InboxFetched       prometheus.Counter
}

// NewMetrics creates the metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GenerationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "email_agent_generation_requests_total",
			Help: "Total number of generative backend calls by backend and outcome",
		}, []string{"backend", "outcome"}),
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "email_agent_generation_duration_seconds",
			Help:    "Time spent waiting for the generative backend",
			Buckets: prometheus.DefBuckets,
		}),
		HeuristicFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "email_agent_heuristic_generations_total",
			Help: "Total number of outputs produced by the heuristic path, by task kind",
		}, []string{"kind"}),
		EmailsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_agent_emails_processed_total",
			Help: "Total number of process requests that persisted a record",
		}),
		AgentQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "email_agent_agent_queries_total",
			Help: "Total number of agent queries by prompt type",
		}, []string{"prompt_type"}),
		DraftOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "email_agent_draft_operations_total",
			Help: "Total number of successful draft operations by operation",
		}, []string{"operation"}),
		DraftsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_agent_drafts_sent_total",
			Help: "Total number of drafts sent as replies",
		}),
		DraftSendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_agent_draft_send_failures_total",
			Help: "Total number of failed draft sends",
		}),
		InboxSyncs: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_agent_inbox_syncs_total",
			Help: "Total number of inbox sync cycles",
		}),
		InboxSyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_agent_inbox_sync_failures_total",
			Help: "Total number of failed inbox sync cycles",
		}),
		InboxFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_agent_inbox_fetched_emails_total",
			Help: "Total number of new emails added to the inbox by the syncer",
		}),
	}
}
