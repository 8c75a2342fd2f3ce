package orchestration

import (
	"context"
	"fmt"
)

type workerRun[T any] func(context.Context) (T, error)

// panicSafeNamedWorker converts a panic inside run into an error.
func panicSafeNamedWorker[T any](name string, run workerRun[T]) workerRun[T] {
	return func(ctx context.Context) (result T, err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s worker panicked: %v", name, recovered)
			}
		}()

		if result, err = run(ctx); err != nil {
			return result, fmt.Errorf("%s worker failed: %w", name, err)
		}

		return result, nil
	}
}
