package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonathan/jobboard/internal/types"
)

// ListJobs returns the active job listings.
func (c *Client) ListJobs(ctx context.Context) ([]types.Job, error) {
	var out []types.Job
	if err := c.call(ctx, http.MethodGet, "jobs/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PublicJobs returns the listings visible without a session.
func (c *Client) PublicJobs(ctx context.Context) ([]types.Job, error) {
	var out []types.Job
	if err := c.call(ctx, http.MethodGet, "jobs/public/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyJobs returns the jobs posted by the current user.
func (c *Client) MyJobs(ctx context.Context) ([]types.Job, error) {
	var out []types.Job
	if err := c.call(ctx, http.MethodGet, "jobs/my-jobs/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetJob returns one job.
func (c *Client) GetJob(ctx context.Context, id int) (*types.Job, error) {
	var out types.Job
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("jobs/%d/", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateJob posts a new job.
func (c *Client) CreateJob(ctx context.Context, in types.JobInput) (*types.Job, error) {
	const path = "jobs/"
	if err := in.Validate(); err != nil {
		return nil, invalid(http.MethodPost, path, err)
	}
	var out types.Job
	if err := c.call(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateJob replaces a job the current user posted.
func (c *Client) UpdateJob(ctx context.Context, id int, in types.JobInput) (*types.Job, error) {
	path := fmt.Sprintf("jobs/%d/", id)
	if err := in.Validate(); err != nil {
		return nil, invalid(http.MethodPut, path, err)
	}
	var out types.Job
	if err := c.call(ctx, http.MethodPut, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteJob removes a job the current user posted.
func (c *Client) DeleteJob(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("jobs/%d/", id), nil, nil, nil)
}

// Apply submits an application to a job, with an optional resume.
func (c *Client) Apply(ctx context.Context, jobID int, message string, resume *Upload) (*types.Application, error) {
	path := fmt.Sprintf("jobs/%d/apply/", jobID)

	req := types.ApplyRequest{Message: message}
	if err := req.Validate(); err != nil {
		return nil, invalid(http.MethodPost, path, err)
	}
	if resume != nil {
		if verr := checkUploads(http.MethodPost, path, "resume", []Upload{*resume}); verr != nil {
			return nil, verr
		}
	}

	f := newForm()
	if err := f.field("message", message); err != nil {
		return nil, encodeFailure(http.MethodPost, path, err)
	}
	if resume != nil {
		if err := f.file("resume", *resume); err != nil {
			return nil, encodeFailure(http.MethodPost, path, err)
		}
	}
	body, contentType, err := f.close()
	if err != nil {
		return nil, encodeFailure(http.MethodPost, path, err)
	}

	resp, err := c.do(ctx, request{method: http.MethodPost, path: path, body: body, contentType: contentType})
	if err != nil {
		return nil, err
	}
	var out types.Application
	if err := decode(http.MethodPost, path, resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func encodeFailure(method, path string, err error) *Error {
	return &Error{Kind: KindValidation, Method: method, Path: path, Message: "failed to encode request", Cause: err}
}
