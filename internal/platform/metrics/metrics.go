package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	payrunsGenerated   uint64
	transfersAttempted uint64
	transfersFailed    uint64
	artifactsRendered  uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) PayrunGenerated() {
	atomic.AddUint64(&c.payrunsGenerated, 1)
}

func (c *Collector) TransferAttempted(failed bool) {
	atomic.AddUint64(&c.transfersAttempted, 1)
	if failed {
		atomic.AddUint64(&c.transfersFailed, 1)
	}
}

func (c *Collector) ArtifactRendered() {
	atomic.AddUint64(&c.artifactsRendered, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":      total,
		"errorsTotal":        atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal":   atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":      avg,
		"payrunsGenerated":   atomic.LoadUint64(&c.payrunsGenerated),
		"transfersAttempted": atomic.LoadUint64(&c.transfersAttempted),
		"transfersFailed":    atomic.LoadUint64(&c.transfersFailed),
		"artifactsRendered":  atomic.LoadUint64(&c.artifactsRendered),
	}
}
