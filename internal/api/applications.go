package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/jonathan/jobboard/internal/types"
)

// Download is a file fetched from the backend.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
}

// JobApplications returns the applications to jobs the current user posted.
func (c *Client) JobApplications(ctx context.Context) ([]types.Application, error) {
	var out []types.Application
	if err := c.call(ctx, http.MethodGet, "jobs/applications/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyApplications returns the applications the current user submitted.
func (c *Client) MyApplications(ctx context.Context) ([]types.Application, error) {
	var out []types.Application
	if err := c.call(ctx, http.MethodGet, "jobs/my-applications/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateApplicationStatus sets an application to pending, accepted, or rejected.
func (c *Client) UpdateApplicationStatus(ctx context.Context, id int, status string) (*types.Application, error) {
	path := fmt.Sprintf("jobs/applications/%d/status/", id)
	in := types.StatusUpdate{Status: status}
	if err := in.Validate(); err != nil {
		return nil, invalid(http.MethodPut, path, err)
	}
	var out types.Application
	if err := c.call(ctx, http.MethodPut, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadResume fetches the resume attached to an application.
func (c *Client) DownloadResume(ctx context.Context, id int) (*Download, error) {
	path := fmt.Sprintf("jobs/applications/%d/resume/", id)
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("resume_%d", id)
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return &Download{
		Name:        name,
		ContentType: resp.header.Get("Content-Type"),
		Data:        resp.body,
	}, nil
}

// UploadResume attaches or replaces the resume on an application.
func (c *Client) UploadResume(ctx context.Context, id int, resume Upload) (*types.Application, error) {
	path := fmt.Sprintf("jobs/applications/%d/upload-resume/", id)
	if verr := checkUploads(http.MethodPost, path, "resume", []Upload{resume}); verr != nil {
		return nil, verr
	}

	f := newForm()
	if err := f.file("resume", resume); err != nil {
		return nil, encodeFailure(http.MethodPost, path, err)
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

// AnalyzeApplication scores the resume on one application and returns the
// updated application.
func (c *Client) AnalyzeApplication(ctx context.Context, id int) (*types.Application, error) {
	var out types.Application
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("jobs/applications/%d/analyze-resume/", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeJobResumes scores every resume submitted to a job.
func (c *Client) AnalyzeJobResumes(ctx context.Context, jobID int) ([]types.Application, error) {
	var out []types.Application
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("jobs/%d/analyze-resumes/", jobID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAnalysis returns the stored analysis of an application.
func (c *Client) GetAnalysis(ctx context.Context, id int) (*types.Application, error) {
	var out types.Application
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("jobs/applications/%d/analysis/", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
