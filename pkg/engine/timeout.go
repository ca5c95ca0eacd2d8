package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/brushwork/pkg/graph"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when an evaluation runs longer than the
	// engine timeout.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned when a newer evaluation started before
	// this one finished.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

// outcome carries the result of an evaluation goroutine.
type outcome struct {
	graph  *graph.DesignGraph
	errors []EvalError
	err    error
}

// SetTimeout changes the limit for later evaluations. A non-positive d
// restores EvalTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = EvalTimeout
	}
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

// current returns the latest generation and the timeout.
func (e *Engine) current() (uint64, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation, e.timeout
}

// await blocks until the evaluation of generation gen delivers its outcome,
// the engine timeout expires or ctx is done. The goroutine of an abandoned
// evaluation keeps running; its outcome lands in the buffered channel and is
// dropped.
func (e *Engine) await(ctx context.Context, ch <-chan outcome, gen uint64) (*graph.DesignGraph, []EvalError, error) {
	_, timeout := e.current()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if latest, _ := e.current(); gen != latest {
			return nil, nil, ErrSuperseded
		}
		return res.graph, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("engine: evaluation canceled: %w", ctx.Err())
	}
}
