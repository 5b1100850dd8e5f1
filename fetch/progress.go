package fetch

import (
	"sync/atomic"

	"github.com/jrsteele09/multipaga/internal/metrics"
)

// Progress counts requests in flight across every fetcher sharing it.
type Progress struct {
	pending atomic.Int64
}

// DefaultProgress is shared by fetchers created without WithProgress.
var DefaultProgress = &Progress{}

func (p *Progress) Pending() int64 {
	return p.pending.Load()
}

func (p *Progress) IsLoading() bool {
	return p.Pending() > 0
}

func (p *Progress) begin() {
	p.pending.Add(1)
	metrics.RequestsInFlight.Inc()
}

func (p *Progress) end() {
	p.pending.Add(-1)
	metrics.RequestsInFlight.Dec()
}
