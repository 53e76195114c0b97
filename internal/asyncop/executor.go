package asyncop

import (
	"context"
	"errors"
	"fmt"

	"github.com/zecrocks/zallet-go/internal/log"
)

// run waits for a worker slot, executes op's job and records the outcome.
func (r *Registry) run(op *operation) {
	defer r.wg.Done()
	defer op.cancel()

	if err := r.sem.Acquire(op.ctx, 1); err != nil {
		r.cancelQueued(op)
		return
	}
	defer r.sem.Release(1)

	if !r.start(op) {
		return
	}
	log.AsyncOp.Debug().Str("opid", string(op.snap.ID)).Msg("Operation started")

	result, err := safeRun(op.ctx, op.job)
	switch {
	case err == nil:
		r.transition(op, Success, result, nil)
	case op.ctx.Err() != nil && errors.Is(err, context.Canceled):
		r.transition(op, Cancelled, nil, nil)
	default:
		r.transition(op, Failed, nil, err)
	}

	snap, _ := r.State(op.snap.ID)
	log.AsyncOp.Info().
		Str("opid", string(snap.ID)).
		Str("method", snap.Method).
		Stringer("state", snap.State).
		Dur("duration", snap.ExecutionTime()).
		Msg("Operation finished")
}

// safeRun turns a panicking job into a failed one.
func safeRun(ctx context.Context, job Job) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("operation panicked: %v", p)
		}
	}()
	return job(ctx)
}

// start moves a queued op to Executing. It returns false if the op was
// cancelled in the meantime.
func (r *Registry) start(op *operation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op.snap.State != Pending {
		return false
	}
	if op.ctx.Err() != nil {
		r.setState(op, Cancelled)
		return false
	}
	r.setState(op, Executing)
	return true
}

// cancelQueued records a queued op whose context ended before it got a
// worker slot. Cancel has usually recorded it already.
func (r *Registry) cancelQueued(op *operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op.snap.State == Pending {
		r.setState(op, Cancelled)
	}
}
