package service

import (
	"math"
	"time"

	"go.uber.org/atomic"
)

// estimateNotMeasured is the value readers see before the first batch has
// been merged. Effectively infinite, so "not yet measured" reads as
// "definitely not ready".
const estimateNotMeasured = time.Duration(math.MaxInt64)

// ProgressEstimator publishes a best-effort estimate of the time left to
// finish ingestion. The downloader is the only writer; any goroutine may
// read TimeLeft at any moment and tolerate a batch interval of staleness.
type ProgressEstimator struct {
	timeLeft atomic.Duration
}

func NewProgressEstimator() *ProgressEstimator {
	e := &ProgressEstimator{}
	e.timeLeft.Store(estimateNotMeasured)

	return e
}

// Observe recomputes the estimate from the running average throughput of
// the current run: elapsed / max(1, loadedThisRun) per item, times the
// items still missing.
func (e *ProgressEstimator) Observe(elapsed time.Duration, loadedThisRun, alreadyLoaded, target int) {
	remaining := target - alreadyLoaded - loadedThisRun
	if remaining < 0 {
		remaining = 0
	}

	perItem := elapsed / time.Duration(max(1, loadedThisRun))
	e.timeLeft.Store(perItem * time.Duration(remaining))
}

// Finish forces the estimate to zero. Called when the run ends with
// nothing left to load, including runs where the store was already full
// and the loop body never executed.
func (e *ProgressEstimator) Finish() {
	e.timeLeft.Store(0)
}

func (e *ProgressEstimator) TimeLeft() time.Duration {
	return e.timeLeft.Load()
}
