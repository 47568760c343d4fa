package stream

import (
	"context"
	"errors"
	"io"

	"github.com/samber/mo"
	"github.com/samber/ro"
)

// Observe adapts a Receiver's pull API into an observable of results.
// Each received event is emitted as an Ok; modeled and unmodeled service
// errors are emitted as Err and the stream continues, matching the
// receiver's non-terminal error semantics. The observable completes on
// clean end of stream, context cancellation, or a terminal failure (which
// is emitted as a final Err).
//
// The receiver must not be used directly while the observable is live;
// single-task ownership transfers to the pump goroutine.
func Observe[E Deserializable](ctx context.Context, r *Receiver[E]) ro.Observable[mo.Result[E]] {
	results := make(chan mo.Result[E])

	go func() {
		defer close(results)
		for {
			event, err := r.Receive(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) ||
					errors.Is(err, context.DeadlineExceeded) {
					return
				}
				select {
				case results <- mo.Err[E](err):
				case <-ctx.Done():
					return
				}
				// Terminal failures closed the receiver; the next
				// Receive returns io.EOF and ends the loop.
				continue
			}

			select {
			case results <- mo.Ok(event):
			case <-ctx.Done():
				return
			}
		}
	}()

	return ro.FromChannel(results)
}
