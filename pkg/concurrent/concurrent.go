package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Each runs action for every item on at most workers goroutines and waits
// for all of them. A non-positive workers value means one goroutine per
// item. The first error cancels ctx for the remaining actions and is
// returned.
func Each[T any](ctx context.Context, items []T, workers int, action func(context.Context, T) error) error {
	group, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		group.SetLimit(workers)
	}
	for _, item := range items {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return action(ctx, item)
		})
	}
	return group.Wait()
}

// EachMute is Each without early cancellation: every action runs and all
// errors are discarded except through collect, which may be nil.
func EachMute[T any](items []T, workers int, action func(T) error, collect func(T, error)) {
	var group errgroup.Group
	if workers > 0 {
		group.SetLimit(workers)
	}
	for _, item := range items {
		group.Go(func() error {
			if err := action(item); err != nil && collect != nil {
				collect(item, err)
			}
			return nil
		})
	}
	_ = group.Wait()
}
