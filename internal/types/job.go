package types

import "time"

// JobType values accepted by the backend.
const (
	JobTypeFullTime   = "full-time"
	JobTypePartTime   = "part-time"
	JobTypeContract   = "contract"
	JobTypeInternship = "internship"
)

// JobTypes lists the accepted job types in display order.
var JobTypes = []string{JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship}

// Job is a job posting as returned by the jobs endpoints.
type Job struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	Company          string    `json:"company"`
	Location         string    `json:"location"`
	JobType          string    `json:"job_type"`
	Salary           *string   `json:"salary"`
	Description      string    `json:"description"`
	Requirements     *string   `json:"requirements"`
	MaxApplicants    *int      `json:"max_applicants,omitempty"`
	PostedBy         int       `json:"posted_by"`
	PostedByUsername string    `json:"posted_by_username"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	IsActive         bool      `json:"is_active"`
	PostedAtDisplay  string    `json:"posted_at_display"`
	ApplicationCount *int      `json:"application_count,omitempty"`
}

// JobInput is the body for creating or updating a job posting.
type JobInput struct {
	Title         string `json:"title" validate:"required,max=200"`
	Company       string `json:"company" validate:"required,max=200"`
	Location      string `json:"location" validate:"required,max=200"`
	JobType       string `json:"job_type" validate:"required,oneof=full-time part-time contract internship"`
	Salary        string `json:"salary,omitempty" validate:"max=100"`
	Description   string `json:"description" validate:"required"`
	Requirements  string `json:"requirements,omitempty"`
	MaxApplicants *int   `json:"max_applicants,omitempty" validate:"omitempty,min=1"`
}

// Input returns the editable fields of j, the starting point of an update.
func (j *Job) Input() JobInput {
	in := JobInput{
		Title:         j.Title,
		Company:       j.Company,
		Location:      j.Location,
		JobType:       j.JobType,
		Description:   j.Description,
		MaxApplicants: j.MaxApplicants,
	}
	if j.Salary != nil {
		in.Salary = *j.Salary
	}
	if j.Requirements != nil {
		in.Requirements = *j.Requirements
	}
	return in
}

// Validate checks the JobInput before it is sent.
func (j *JobInput) Validate() error {
	return structs().Struct(j)
}
