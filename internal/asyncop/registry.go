package asyncop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/zecrocks/zallet-go/internal/log"
)

// ErrClosed is returned by Submit after Shutdown.
var ErrClosed = errors.New("async operation registry is shut down")

// DefaultMaxConcurrent is the number of operations executed at once when the
// config does not say otherwise.
const DefaultMaxConcurrent = 4

// Job is the work of one operation. It should return ctx.Err() (or an error
// wrapping it) when it observes cancellation at a checkpoint.
type Job func(ctx context.Context) (any, error)

// Snapshot is a point-in-time copy of an operation's status.
type Snapshot struct {
	ID              ID
	Method          string
	Params          any
	State           State
	CancelRequested bool
	CreatedAt       time.Time
	StartedAt       time.Time // zero until Executing
	FinishedAt      time.Time // zero until terminal
	Result          any       // set on Success
	Err             error     // set on Failed
}

// ExecutionTime is the time spent executing, or zero if the operation never
// started or has not finished.
func (s Snapshot) ExecutionTime() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

type operation struct {
	snap   Snapshot // guarded by Registry.mu
	job    Job
	ctx    context.Context
	cancel context.CancelFunc
}

// Config configures a Registry.
type Config struct {
	MaxConcurrent int // <= 0 means DefaultMaxConcurrent
	Metrics       *Metrics
}

// Registry tracks operations and runs their jobs.
type Registry struct {
	mu     sync.RWMutex
	ops    map[ID]*operation
	order  []ID // submission order
	closed bool

	sem     *semaphore.Weighted
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	metrics *Metrics
	now     func() time.Time
}

// New returns an empty registry.
func New(cfg Config) *Registry {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		ops:     make(map[ID]*operation),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		ctx:     ctx,
		cancel:  cancel,
		metrics: cfg.Metrics,
		now:     time.Now,
	}
}

// Submit records a new Pending operation and schedules job. params is kept
// for status reports.
func (r *Registry) Submit(method string, params any, job Job) (ID, error) {
	if job == nil {
		return "", fmt.Errorf("submit %s: nil job", method)
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrClosed
	}
	ctx, cancel := context.WithCancel(r.ctx)
	op := &operation{
		snap: Snapshot{
			ID:        NewID(),
			Method:    method,
			Params:    params,
			State:     Pending,
			CreatedAt: r.now(),
		},
		job:    job,
		ctx:    ctx,
		cancel: cancel,
	}
	r.ops[op.snap.ID] = op
	r.order = append(r.order, op.snap.ID)
	r.wg.Add(1)
	r.mu.Unlock()

	r.metrics.submit()
	log.AsyncOp.Debug().Str("opid", string(op.snap.ID)).Str("method", method).Msg("Operation queued")

	go r.run(op)
	return op.snap.ID, nil
}

// State returns a snapshot of operation id.
func (r *Registry) State(id ID) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[id]
	if !ok {
		return Snapshot{}, false
	}
	return op.snap, true
}

// List returns operation ids oldest first. A nil filter returns all of them;
// otherwise only operations currently in the named state are returned, and a
// name that is not a state matches nothing.
func (r *Registry) List(filter *string) []ID {
	var (
		want     State
		matching = true
	)
	if filter != nil {
		want, matching = ParseState(*filter)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ID, 0, len(r.order))
	if !matching {
		return out
	}
	for _, id := range r.order {
		if filter == nil || r.ops[id].snap.State == want {
			out = append(out, id)
		}
	}
	return out
}

// Snapshots returns snapshots of the given ids in order, skipping unknown
// ones. With no ids, all operations are returned oldest first.
func (r *Registry) Snapshots(ids ...ID) []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(ids) == 0 {
		ids = r.order
	}
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		if op, ok := r.ops[id]; ok {
			out = append(out, op.snap)
		}
	}
	return out
}

// Cancel cancels a Pending operation outright or asks an Executing one to
// stop. It returns the state after the call and false if id is unknown.
func (r *Registry) Cancel(id ID) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.ops[id]
	if !ok {
		return 0, false
	}
	switch op.snap.State {
	case Pending:
		r.setState(op, Cancelled)
		op.cancel()
		log.AsyncOp.Info().Str("opid", string(id)).Msg("Operation cancelled before start")
	case Executing:
		if !op.snap.CancelRequested {
			op.snap.CancelRequested = true
			op.cancel()
			log.AsyncOp.Info().Str("opid", string(id)).Msg("Operation cancellation requested")
		}
	}
	return op.snap.State, true
}

// Len returns the number of tracked operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Shutdown stops accepting operations, cancels all of them and waits for
// running jobs to return or ctx to end.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for async operations: %w", ctx.Err())
	}
}

// transition moves op to state to. Moves out of a terminal state, or that
// skip a lifecycle step, are refused and logged.
func (r *Registry) transition(op *operation, to State, result any, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	from := op.snap.State
	if !validTransition(from, to) {
		r.metrics.reject()
		log.AsyncOp.Error().
			Str("opid", string(op.snap.ID)).
			Stringer("from", from).
			Stringer("to", to).
			Msg("Refused operation state transition")
		return false
	}
	r.setState(op, to)
	if to == Success {
		op.snap.Result = result
	}
	if to == Failed {
		op.snap.Err = err
	}
	return true
}

// setState must be called with r.mu held.
func (r *Registry) setState(op *operation, to State) {
	from := op.snap.State
	op.snap.State = to
	switch {
	case to == Executing:
		op.snap.StartedAt = r.now()
	case to.IsTerminal():
		op.snap.FinishedAt = r.now()
	}
	r.metrics.move(from, to)
}

func validTransition(from, to State) bool {
	switch from {
	case Pending:
		return to == Executing || to == Cancelled
	case Executing:
		return to.IsTerminal()
	default:
		return false
	}
}
