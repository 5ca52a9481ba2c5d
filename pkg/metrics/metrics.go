// Package metrics provides Prometheus instrumentation for gobridge components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for gobridge components.
type Registry struct {
	// Worker Pool Metrics
	PoolSize       *prometheus.GaugeVec
	PoolActive     *prometheus.GaugeVec
	PoolQueued     *prometheus.GaugeVec
	TasksSubmitted *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec
	TasksFailed    *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec

	// Dispatch Metrics
	OperationCalls *prometheus.CounterVec

	// Resource Adapter Metrics
	ResourceOps        *prometheus.CounterVec
	ResourceOpDuration *prometheus.HistogramVec
}

// DefaultRegistry is the default metrics registry used by gobridge components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		PoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gobridge",
				Subsystem: "pool",
				Name:      "workers",
				Help:      "Number of workers in the pool",
			},
			[]string{"pool"},
		),

		PoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gobridge",
				Subsystem: "pool",
				Name:      "active_workers",
				Help:      "Number of workers currently executing tasks",
			},
			[]string{"pool"},
		),

		PoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gobridge",
				Subsystem: "pool",
				Name:      "queued_tasks",
				Help:      "Number of tasks waiting in the queue",
			},
			[]string{"pool"},
		),

		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gobridge",
				Subsystem: "pool",
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks submitted to the pool",
			},
			[]string{"pool"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gobridge",
				Subsystem: "pool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed without error",
			},
			[]string{"pool"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gobridge",
				Subsystem: "pool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that returned an error or panicked",
			},
			[]string{"pool"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gobridge",
				Subsystem: "pool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing bridged tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool"},
		),

		OperationCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gobridge",
				Subsystem: "dispatch",
				Name:      "operation_calls_total",
				Help:      "Total number of dispatched operation calls by path",
			},
			[]string{"operation", "path"},
		),

		ResourceOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gobridge",
				Subsystem: "resource",
				Name:      "operations_total",
				Help:      "Total number of resource adapter operations",
			},
			[]string{"resource", "op", "status"},
		),

		ResourceOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gobridge",
				Subsystem: "resource",
				Name:      "operation_duration_seconds",
				Help:      "Time spent in resource adapter operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"resource", "op"},
		),
	}
}
