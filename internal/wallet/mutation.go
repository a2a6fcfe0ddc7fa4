package wallet

import (
	"context"
	"sync"
	"sync/atomic"
)

// Result is delivered once a mutation finishes, after its callbacks ran.
type Result[O any] struct {
	Value O
	Err   error
}

// Mutation runs a write asynchronously. Callbacks run on the mutation's
// goroutine before the result is delivered, so anything they do (cache
// invalidation, notifications) is visible to whoever receives the result.
// Calls are not sequenced against each other.
type Mutation[I, O any] struct {
	fn        func(context.Context, I) (O, error)
	onSuccess func(context.Context, I, O)
	onError   func(context.Context, I, error)

	wg      sync.WaitGroup
	pending atomic.Int32
}

func NewMutation[I, O any](fn func(context.Context, I) (O, error)) *Mutation[I, O] {
	return &Mutation[I, O]{fn: fn}
}

func (m *Mutation[I, O]) OnSuccess(fn func(context.Context, I, O)) *Mutation[I, O] {
	m.onSuccess = fn
	return m
}

func (m *Mutation[I, O]) OnError(fn func(context.Context, I, error)) *Mutation[I, O] {
	m.onError = fn
	return m
}

// Mutate starts the write and returns immediately.
func (m *Mutation[I, O]) Mutate(ctx context.Context, in I) <-chan Result[O] {
	out := make(chan Result[O], 1)
	m.pending.Add(1)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.pending.Add(-1)

		v, err := m.fn(ctx, in)
		if err != nil {
			if m.onError != nil {
				m.onError(ctx, in, err)
			}
		} else if m.onSuccess != nil {
			m.onSuccess(ctx, in, v)
		}
		out <- Result[O]{Value: v, Err: err}
		close(out)
	}()
	return out
}

// Pending reports whether any call is in flight.
func (m *Mutation[I, O]) Pending() bool {
	return m.pending.Load() > 0
}

// Wait blocks until every started call has finished.
func (m *Mutation[I, O]) Wait() {
	m.wg.Wait()
}
