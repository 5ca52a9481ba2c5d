package dispatch

import "time"

// Metric recording helpers. All of them are no-ops when the pool or
// operation was built without a metrics registry.

const (
	pathSync    = "sync"
	pathBridged = "bridged"
	pathNative  = "native"
)

func (p *Pool) recordSubmit() {
	if p.reg == nil {
		return
	}
	p.reg.TasksSubmitted.WithLabelValues(p.config.Name).Inc()
}

func (p *Pool) recordResult(err error, d time.Duration) {
	if p.reg == nil {
		return
	}
	p.reg.TaskDuration.WithLabelValues(p.config.Name).Observe(d.Seconds())
	if err != nil {
		p.reg.TasksFailed.WithLabelValues(p.config.Name).Inc()
	} else {
		p.reg.TasksCompleted.WithLabelValues(p.config.Name).Inc()
	}
}

func (p *Pool) updateGauges() {
	if p.reg == nil {
		return
	}
	p.reg.PoolSize.WithLabelValues(p.config.Name).Set(float64(p.Size()))
	p.reg.PoolActive.WithLabelValues(p.config.Name).Set(float64(p.Active()))
	p.reg.PoolQueued.WithLabelValues(p.config.Name).Set(float64(p.QueueDepth()))
}

func (o *Operation[P, R]) countPath(path string) {
	if o.reg == nil {
		return
	}
	o.reg.OperationCalls.WithLabelValues(o.name, path).Inc()
}
