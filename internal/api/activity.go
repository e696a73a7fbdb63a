package api

import (
	"context"

	"github.com/jonathan/jobboard/internal/types"
	"golang.org/x/sync/errgroup"
)

// Activity is what the profile view shows about the current user.
type Activity struct {
	Applications []types.Application `json:"applications"`
	Jobs         []types.Job         `json:"jobs"`
}

// Activity fetches the user's submitted applications and posted jobs concurrently.
func (c *Client) Activity(ctx context.Context) (*Activity, error) {
	var out Activity
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		apps, err := c.MyApplications(gctx)
		if err != nil {
			return err
		}
		out.Applications = apps
		return nil
	})
	g.Go(func() error {
		jobs, err := c.MyJobs(gctx)
		if err != nil {
			return err
		}
		out.Jobs = jobs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
