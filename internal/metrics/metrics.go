package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal tracks producer cycles per producer and chain
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_cycles_total",
			Help: "Total number of producer cycles run",
		},
		[]string{"producer", "chain"},
	)

	// CycleFailuresTotal tracks failed or panicked cycles
	CycleFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_cycle_failures_total",
			Help: "Total number of producer cycles that returned an error or panicked",
		},
		[]string{"producer", "chain"},
	)

	// ConsecutiveFailures tracks failures since the last successful cycle
	ConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notifier_consecutive_failures",
			Help: "Number of consecutive failed cycles",
		},
		[]string{"producer", "chain"},
	)

	// CycleDuration tracks cycle latency
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifier_cycle_duration_seconds",
			Help:    "Producer cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"producer", "chain"},
	)

	// NotificationsSent tracks notifications handed to the sink
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_notifications_sent_total",
			Help: "Total number of notifications handed to the delivery sink",
		},
		[]string{"producer", "chain"},
	)

	// RPCCallsTotal tracks RPC calls per chain and provider
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"chain", "provider", "method"},
	)

	// RPCErrorsTotal tracks RPC errors per chain and provider
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"chain", "provider", "error_type"},
	)

	// RPCLatency tracks RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifier_rpc_latency_seconds",
			Help:    "RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "provider", "method"},
	)

	// ChainLatestBlock tracks the latest block height of the chain
	ChainLatestBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notifier_chain_latest_block",
			Help: "Latest block height of the chain",
		},
		[]string{"chain"},
	)

	// CheckpointBlock tracks the last block committed by the trade producer
	CheckpointBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notifier_checkpoint_block",
			Help: "Last block committed by the chain-event producer",
		},
		[]string{"chain"},
	)

	// BatchesTotal tracks block-range batches scanned
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_batches_total",
			Help: "Total number of block-range batches scanned",
		},
		[]string{"chain"},
	)

	// LogsSkipped tracks malformed logs dropped during decoding
	LogsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_logs_skipped_total",
			Help: "Total number of settlement logs skipped as malformed",
		},
		[]string{"chain"},
	)

	// FeedPending tracks the size of the feed producer's pending buffer
	FeedPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifier_feed_pending",
			Help: "Notifications waiting to be sent by the feed producer",
		},
	)

	// DBConnectionPoolUsage tracks open connections as a percentage of the pool limit
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifier_db_connection_pool_usage_percent",
			Help: "Open database connections as a percentage of the maximum",
		},
	)

	// HealthStatus tracks the overall health reported by the health monitor (1 healthy, 0 not)
	HealthStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notifier_health_status",
			Help: "Health status per chain (1 healthy, 0 degraded or down)",
		},
		[]string{"chain"},
	)

	// BlockLag tracks head minus last committed block per chain
	BlockLag = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notifier_block_lag",
			Help: "Blocks between the chain head and the last committed checkpoint",
		},
		[]string{"chain"},
	)
)
