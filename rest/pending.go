package rest

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pending is the eventual outcome of a sent request: a *Response[T] for any
// completed exchange, or a *TransportError.
//
// Waiting never affects the request. A wait that gives up returns
// *TimeoutError while the request keeps running; cancel the context given to
// Send to abort the request itself.
type Pending[T any] struct {
	done chan struct{}
	resp *Response[T]
	err  error
}

func newPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

func (p *Pending[T]) resolve(resp *Response[T], err error) {
	p.resp, p.err = resp, err
	close(p.done)
}

// Done is closed once the outcome is known.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Await blocks until the outcome is known or ctx ends. Any ended ctx yields
// *TimeoutError, whether it timed out or was cancelled; its Err is the
// context's cause, so errors.Is(err, context.Canceled) tells the two apart.
// The request keeps running either way.
func (p *Pending[T]) Await(ctx context.Context) (*Response[T], error) {
	select {
	case <-p.done:
		return p.resp, p.err
	default:
	}

	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, &TimeoutError{Err: context.Cause(ctx)}
	}
}

// AwaitTimeout is Await with a wait limit of d.
func (p *Pending[T]) AwaitTimeout(d time.Duration) (*Response[T], error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	resp, err := p.Await(ctx)
	var te *TimeoutError
	if errors.As(err, &te) {
		te.After = d
	}
	return resp, err
}

// Then calls fn with the outcome on its own goroutine once it is known.
func (p *Pending[T]) Then(fn func(*Response[T], error)) *Pending[T] {
	go func() {
		<-p.done
		fn(p.resp, p.err)
	}()
	return p
}

// State reports StateSent until the outcome is known, then
// StateTransportFailed or the response's DecodeState.
func (p *Pending[T]) State() State {
	select {
	case <-p.done:
	default:
		return StateSent
	}
	if p.err != nil {
		return StateTransportFailed
	}
	return p.resp.DecodeState()
}

// AwaitAll waits for every pending result and returns the responses in
// order. The first failure stops the wait and is returned.
func AwaitAll[T any](ctx context.Context, ps ...*Pending[T]) ([]*Response[T], error) {
	out := make([]*Response[T], len(ps))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range ps {
		g.Go(func() error {
			resp, err := p.Await(gctx)
			if err != nil {
				return err
			}
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
