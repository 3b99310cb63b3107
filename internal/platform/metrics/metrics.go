package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	totalDurationMs uint64

	mu         sync.Mutex
	operations map[string]uint64
}

func New() *Collector {
	return &Collector{operations: map[string]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	} else if status >= 400 {
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// Outcome counts one engine operation result, keyed "operation:outcome".
func (c *Collector) Outcome(operation, outcome string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.operations[operation+":"+outcome]++
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	clientErrs := atomic.LoadUint64(&c.clientErrors)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	keys := make([]string, 0, len(c.operations))
	for key := range c.operations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	ops := make(map[string]uint64, len(keys))
	for _, key := range keys {
		ops[key] = c.operations[key]
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       errs,
		"clientErrorsTotal": clientErrs,
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"operations":        ops,
	}
}
