package engine

import (
	"fmt"
	"sync"
	"time"
)

// evalResult passes an evaluation outcome through the worker channel.
type evalResult struct {
	res *Result
	err error
}

// waitWithTimeout waits for a result from ch, failing once timeout passes.
// The generation counter discards results from evaluations that a newer
// call has superseded; on timeout the worker goroutine may still be
// running, and the counter makes sure its eventual result is dropped.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
	timeout time.Duration,
) (*Result, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.res, res.err

	case <-timer.C:
		return nil, fmt.Errorf("evaluation timed out after %s", timeout)
	}
}
