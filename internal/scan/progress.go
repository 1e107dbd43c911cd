package scan

import (
	"sync/atomic"
	"time"
)

// Progress tracks one scan run. Counters are atomic so workers can bump
// them without coordination and the printer can read them mid-run.
type Progress struct {
	total     int64
	completed int64
	confirmed int64
	transport int64
	start     time.Time
}

func NewProgress(total int) *Progress {
	return &Progress{total: int64(total), start: time.Now()}
}

func (p *Progress) IncrementCompleted() int64 {
	return atomic.AddInt64(&p.completed, 1)
}

func (p *Progress) IncrementConfirmed() {
	atomic.AddInt64(&p.confirmed, 1)
}

func (p *Progress) IncrementTransport() {
	atomic.AddInt64(&p.transport, 1)
}

func (p *Progress) Completed() int64 {
	return atomic.LoadInt64(&p.completed)
}

func (p *Progress) Confirmed() int64 {
	return atomic.LoadInt64(&p.confirmed)
}

func (p *Progress) TransportFailures() int64 {
	return atomic.LoadInt64(&p.transport)
}

func (p *Progress) Total() int64 {
	return p.total
}

// Rate returns completed units per second since the run started.
func (p *Progress) Rate() float64 {
	elapsed := time.Since(p.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.Completed()) / elapsed
}
