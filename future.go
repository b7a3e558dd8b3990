package yupdates

import "context"

// Future is the result of a non-blocking call: a value of type T or an
// error, delivered exactly once when the underlying operation
// completes. Futures are created by the AsyncClient's Go methods; the
// zero value is not usable.
//
// A Future is safe to wait on from multiple goroutines. Once resolved
// the result is immutable.
//
//	fut := client.GoPing(ctx)
//	// ... do other work ...
//	resp, err := fut.Wait(ctx)
type Future[T any] struct {
	done   chan struct{}
	result T
	err    error
}

// newFuture runs fn on its own goroutine and returns a Future that
// resolves with fn's result. Suspension happens only at the transport
// I/O boundary inside fn; the spawn itself never blocks the caller.
func newFuture[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.result, f.err = fn()
	}()
	return f
}

// Done returns a channel that is closed when the result is available.
// Useful in select statements alongside other channels.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx ends. When ctx ends
// first, the in-flight operation keeps running (it is bound to the
// context it was started with, not the one passed here) and Wait
// returns ctx's error mapped into the SDK taxonomy.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, classifyTransportErr(ctx.Err(), "WAIT", "")
	}
}

// TryGet returns the result if it is already available. The bool
// reports availability; a false return means the operation is still in
// flight.
func (f *Future[T]) TryGet() (T, error, bool) {
	select {
	case <-f.done:
		return f.result, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
