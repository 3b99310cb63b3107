package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(409, 20*time.Millisecond)
	c.Record(500, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap["requestsTotal"] != uint64(3) {
		t.Fatalf("requestsTotal = %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"] != uint64(1) || snap["clientErrorsTotal"] != uint64(1) {
		t.Fatalf("unexpected error counts %v", snap)
	}
	if snap["avgDurationMs"] != float64(20) {
		t.Fatalf("avgDurationMs = %v", snap["avgDurationMs"])
	}
}

func TestOutcomeConcurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Outcome("payments.record", "ok")
		}()
	}
	wg.Wait()
	c.Outcome("payments.record", "conflict")

	ops := c.Snapshot()["operations"].(map[string]uint64)
	if ops["payments.record:ok"] != 50 || ops["payments.record:conflict"] != 1 {
		t.Fatalf("unexpected operations %v", ops)
	}
}

func TestOutcomeNilCollector(t *testing.T) {
	var c *Collector
	c.Outcome("results.generate", "ok")
}
