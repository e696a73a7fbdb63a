package api

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batchBody = `{
  "results": [
    {"filename": "a.pdf", "score": 85, "analysis": {"category_scores": {"technical_skills": 90}, "summary": "strong"}, "error": null},
    {"filename": "b.pdf", "score": 62, "analysis": null, "error": null}
  ],
  "errors": [{"filename": "c.doc", "error": "could not extract text"}],
  "success_count": 2,
  "error_count": 1
}`

func TestBulkAnalyze_SendsMultipart(t *testing.T) {
	var jobID string
	var files []string
	var contents []string

	client := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs/bulk-analyze/", r.URL.Path)
		assert.Equal(t, "Token tok", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(10<<20))

		jobID = r.FormValue("job_id")
		for _, fh := range r.MultipartForm.File["resumes"] {
			files = append(files, fh.Filename)
			f, err := fh.Open()
			if !assert.NoError(t, err) {
				continue
			}
			data, _ := io.ReadAll(f)
			_ = f.Close()
			contents = append(contents, string(data))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, batchBody)
	})

	resp, err := client.BulkAnalyze(context.Background(), 42, []Upload{
		{Name: "a.pdf", Data: []byte("A")},
		{Name: "b.pdf", Data: []byte("B")},
		{Name: "c.doc", Data: []byte("C")},
	})
	require.NoError(t, err)

	assert.Equal(t, "42", jobID)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.doc"}, files)
	assert.Equal(t, []string{"A", "B", "C"}, contents)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, 85.0, resp.Results[0].Score)
	require.NotNil(t, resp.Results[0].Analysis)
	assert.Equal(t, "strong", resp.Results[0].Analysis.Summary)
	assert.Nil(t, resp.Results[1].Analysis)
	assert.Equal(t, 1, resp.ErrorCount)
}

func TestBulkAnalyze_InconsistentResponseStillReturned(t *testing.T) {
	client := newTestClient(t, "tok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results": [{"filename": "a.pdf", "score": 70}], "errors": [], "success_count": 3, "error_count": 0}`)
	})

	resp, err := client.BulkAnalyze(context.Background(), 1, []Upload{{Name: "a.pdf", Data: []byte("A")}})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.SuccessCount)
	assert.Error(t, resp.CheckInvariants([]string{"a.pdf"}))
}

func TestBulkAnalyze_SchemaViolation(t *testing.T) {
	client := newTestClient(t, "tok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results": [{"filename": "a.pdf", "score": 140}], "errors": [], "success_count": 1, "error_count": 0}`)
	})

	_, err := client.BulkAnalyze(context.Background(), 1, []Upload{{Name: "a.pdf", Data: []byte("A")}})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindServer))
}

func TestBulkAnalyze_ChecksBeforeNetwork(t *testing.T) {
	client := newTestClient(t, "tok", func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected request")
	})

	tests := []struct {
		name    string
		jobID   int
		uploads []Upload
		field   string
	}{
		{name: "no job", jobID: 0, uploads: []Upload{{Name: "a.pdf", Data: []byte("A")}}, field: "job_id"},
		{name: "no files", jobID: 1, field: "resumes"},
		{name: "bad extension", jobID: 1, uploads: []Upload{{Name: "a.pdf", Data: []byte("A")}, {Name: "notes.txt", Data: []byte("B")}}, field: "resumes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.BulkAnalyze(context.Background(), tt.jobID, tt.uploads)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, KindValidation, apiErr.Kind)
			assert.Contains(t, apiErr.Fields, tt.field)
		})
	}
}
