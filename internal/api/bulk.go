package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jonathan/jobboard/internal/schemas"
	"github.com/jonathan/jobboard/internal/types"
	"go.uber.org/zap"
)

// BulkAnalyze scores many resumes against one job in a single request.
// A response whose counts or file coverage do not match the submission is
// logged and still returned.
func (c *Client) BulkAnalyze(ctx context.Context, jobID int, resumes []Upload) (*types.BatchAnalysisResponse, error) {
	const path = "jobs/bulk-analyze/"

	if jobID <= 0 {
		return nil, &Error{Kind: KindValidation, Method: http.MethodPost, Path: path,
			Message: "please select a job", Fields: map[string][]string{"job_id": {"This field is required."}}}
	}
	if len(resumes) == 0 {
		return nil, &Error{Kind: KindValidation, Method: http.MethodPost, Path: path,
			Message: "please select at least one resume", Fields: map[string][]string{"resumes": {"No files were submitted."}}}
	}
	if verr := checkUploads(http.MethodPost, path, "resumes", resumes); verr != nil {
		return nil, verr
	}

	f := newForm()
	if err := f.field("job_id", strconv.Itoa(jobID)); err != nil {
		return nil, encodeFailure(http.MethodPost, path, err)
	}
	names := make([]string, 0, len(resumes))
	for _, r := range resumes {
		if err := f.file("resumes", r); err != nil {
			return nil, encodeFailure(http.MethodPost, path, err)
		}
		names = append(names, r.Name)
	}
	body, contentType, err := f.close()
	if err != nil {
		return nil, encodeFailure(http.MethodPost, path, err)
	}

	resp, err := c.do(ctx, request{method: http.MethodPost, path: path, body: body, contentType: contentType})
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidateBatchAnalysis(resp.body); err != nil {
		return nil, &Error{Kind: KindServer, Method: http.MethodPost, Path: path, Status: resp.status,
			Message: "unexpected bulk analysis response", Cause: err}
	}

	var out types.BatchAnalysisResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, &Error{Kind: KindServer, Method: http.MethodPost, Path: path, Status: resp.status,
			Message: "unexpected bulk analysis response", Cause: err}
	}

	if err := out.CheckInvariants(names); err != nil {
		c.logger.Warn("bulk analysis response is inconsistent",
			zap.Int("job_id", jobID),
			zap.Error(err))
	}
	return &out, nil
}
