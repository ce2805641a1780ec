package channel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Supervisor runs a set of channels concurrently, one goroutine each, so
// parallel channels never block on one another. A hard failure — Run
// returning a non-nil error other than context cancellation — cancels the
// whole group, so one wedged channel can't leave its siblings running
// forever unsupervised.
type Supervisor struct {
	channels []*Channel
}

// Add registers a channel to be started by Run. Add is not concurrency
// safe; register channels before calling Run.
func (s *Supervisor) Add(c *Channel) {
	s.channels = append(s.channels, c)
}

// Run starts every registered channel and blocks until ctx is cancelled
// or one channel's Run returns a non-context error, at which point every
// other channel is cancelled too.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range s.channels {
		c := c
		g.Go(func() error {
			err := c.Run(gctx)
			if err == context.Canceled || err == context.DeadlineExceeded {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}
