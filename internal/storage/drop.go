package storage

import (
	"github.com/braddunbar/bradis/internal/storage/value"
	"github.com/braddunbar/bradis/internal/telemetry/metric"
)

// maxDropEffort is the threshold above which a lazily deleted value is
// handed to the background reclaimer instead of being freed inline.
const maxDropEffort = 64

// reclaimer frees large deleted values off the executor goroutine. The key
// is semantically gone the moment a value is enqueued; correctness never
// depends on when the drop completes.
type reclaimer struct {
	ch      chan value.Value
	done    chan struct{}
	metrics *metric.Registry
}

func startReclaimer(metrics *metric.Registry) *reclaimer {
	r := &reclaimer{
		ch:      make(chan value.Value, 1024),
		done:    make(chan struct{}),
		metrics: metrics,
	}
	go r.run()
	return r
}

func (r *reclaimer) run() {
	defer close(r.done)
	for v := range r.ch {
		// Dropping the last reference is all the freeing Go needs; the
		// point is keeping large deallocations off the executor.
		_ = v
		if r.metrics != nil {
			r.metrics.ReclaimedValues.Inc()
		}
	}
}

// drop hands v to the background task when lazy freeing is requested and
// worthwhile.
func (r *reclaimer) drop(v value.Value, lazy bool) {
	if v == nil {
		return
	}
	if lazy && v.DropEffort() > maxDropEffort {
		select {
		case r.ch <- v:
			return
		default:
			// A full queue degrades to an inline drop.
		}
	}
}

// stop closes the queue and waits for the drain.
func (r *reclaimer) stop() {
	close(r.ch)
	<-r.done
}
