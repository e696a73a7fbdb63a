package types

import (
	"encoding/json"
	"time"
)

// Application statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Application is a job application as seen by the applicant or the employer.
type Application struct {
	ID                  int             `json:"id"`
	Job                 int             `json:"job"`
	JobTitle            string          `json:"job_title"`
	JobCompany          string          `json:"job_company"`
	ApplicantUsername   string          `json:"applicant_username"`
	ApplicantEmail      string          `json:"applicant_email"`
	Status              string          `json:"status"`
	AppliedAt           time.Time       `json:"applied_at"`
	Message             *string         `json:"message"`
	Resume              *string         `json:"resume"`
	ResumeName          *string         `json:"resume_name"`
	ResumeAnalysisScore float64         `json:"resume_analysis_score"`
	ResumeAnalysisData  json.RawMessage `json:"resume_analysis_data,omitempty"`
	AnalysisCompleted   bool            `json:"analysis_completed"`
	AnalysisDate        *time.Time      `json:"analysis_date"`
}

// HasResume reports whether a resume file is attached.
func (a *Application) HasResume() bool {
	return a.Resume != nil && *a.Resume != ""
}

// Breakdown decodes the stored analysis payload, if any.
// A missing or undecodable payload yields nil.
func (a *Application) Breakdown() *CategoryBreakdown {
	if len(a.ResumeAnalysisData) == 0 || string(a.ResumeAnalysisData) == "null" {
		return nil
	}
	var b CategoryBreakdown
	if err := json.Unmarshal(a.ResumeAnalysisData, &b); err != nil {
		return nil
	}
	if b.CategoryScores == nil && b.Summary == "" {
		return nil
	}
	return &b
}

// StatusUpdate is the body for changing an application's status.
type StatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending accepted rejected"`
}

// Validate checks the StatusUpdate before it is sent.
func (s *StatusUpdate) Validate() error {
	return structs().Struct(s)
}

// ApplyRequest carries an application to a job. ResumePath is optional.
type ApplyRequest struct {
	Message    string `validate:"max=5000"`
	ResumePath string
}

// Validate checks the ApplyRequest before it is sent.
func (r *ApplyRequest) Validate() error {
	return structs().Struct(r)
}

// ApplicationStats counts applications by status.
type ApplicationStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// CountApplications tallies apps by status.
func CountApplications(apps []Application) ApplicationStats {
	stats := ApplicationStats{Total: len(apps)}
	for _, app := range apps {
		switch app.Status {
		case StatusPending:
			stats.Pending++
		case StatusAccepted:
			stats.Accepted++
		case StatusRejected:
			stats.Rejected++
		}
	}
	return stats
}
