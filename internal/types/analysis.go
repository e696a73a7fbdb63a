package types

import (
	"fmt"
	"maps"
	"sort"
)

// Analysis categories reported by the backend scorer.
const (
	CategoryTechnicalSkills = "technical_skills"
	CategoryEducation       = "education"
	CategorySoftSkills      = "soft_skills"
	CategoryExperience      = "experience"
)

// Categories lists the known categories in display order.
var Categories = []string{CategoryTechnicalSkills, CategoryEducation, CategorySoftSkills, CategoryExperience}

// CategoryLabel returns the human label for a category key.
func CategoryLabel(category string) string {
	switch category {
	case CategoryTechnicalSkills:
		return "Hard Skills"
	case CategoryEducation:
		return "Education"
	case CategorySoftSkills:
		return "Soft Skills"
	case CategoryExperience:
		return "Experience"
	default:
		return category
	}
}

// Experience compares the years found on the resume with the job requirement.
type Experience struct {
	ResumeYears      float64 `json:"resume_years"`
	RequiredYears    float64 `json:"required_years"`
	MeetsRequirement bool    `json:"meets_requirement"`
}

// CategoryBreakdown is the per-category detail of one resume analysis.
type CategoryBreakdown struct {
	CategoryScores  map[string]float64  `json:"category_scores"`
	MatchedKeywords map[string][]string `json:"matched_keywords"`
	MissingKeywords map[string][]string `json:"missing_keywords"`
	Experience      *Experience         `json:"experience"`
	Summary         string              `json:"summary"`
}

// AnalysisResult is the outcome for one resume in a bulk batch.
type AnalysisResult struct {
	Filename string             `json:"filename"`
	Score    float64            `json:"score"`
	Analysis *CategoryBreakdown `json:"analysis"`
	Error    *string            `json:"error"`
}

// Clone returns a copy of r that shares no memory with it.
func (r AnalysisResult) Clone() AnalysisResult {
	if r.Error != nil {
		msg := *r.Error
		r.Error = &msg
	}
	if r.Analysis != nil {
		r.Analysis = r.Analysis.Clone()
	}
	return r
}

// Clone returns a deep copy of b.
func (b *CategoryBreakdown) Clone() *CategoryBreakdown {
	c := *b
	c.CategoryScores = maps.Clone(b.CategoryScores)
	c.MatchedKeywords = cloneKeywords(b.MatchedKeywords)
	c.MissingKeywords = cloneKeywords(b.MissingKeywords)
	if b.Experience != nil {
		exp := *b.Experience
		c.Experience = &exp
	}
	return &c
}

func cloneKeywords(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// BatchError names a file the backend could not analyze.
type BatchError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchAnalysisResponse is the result of analyzing many resumes against one job.
type BatchAnalysisResponse struct {
	Results      []AnalysisResult `json:"results"`
	Errors       []BatchError     `json:"errors"`
	SuccessCount int              `json:"success_count"`
	ErrorCount   int              `json:"error_count"`
}

// InvariantError reports a batch response whose counts or file coverage are inconsistent.
type InvariantError struct {
	Problems []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("inconsistent batch analysis response: %v", e.Problems)
}

// CheckInvariants verifies that the counts match the sequences and, when
// submitted is non-empty, that every submitted file appears exactly once
// across results and errors.
func (r *BatchAnalysisResponse) CheckInvariants(submitted []string) error {
	var problems []string

	if r.SuccessCount != len(r.Results) {
		problems = append(problems, fmt.Sprintf("success_count=%d but %d results", r.SuccessCount, len(r.Results)))
	}
	if r.ErrorCount != len(r.Errors) {
		problems = append(problems, fmt.Sprintf("error_count=%d but %d errors", r.ErrorCount, len(r.Errors)))
	}

	if len(submitted) > 0 {
		seen := make(map[string]int, len(submitted))
		for _, res := range r.Results {
			seen[res.Filename]++
		}
		for _, e := range r.Errors {
			seen[e.Filename]++
		}

		expected := make(map[string]int, len(submitted))
		for _, name := range submitted {
			expected[name]++
		}

		names := make([]string, 0, len(expected)+len(seen))
		for name := range expected {
			names = append(names, name)
		}
		for name := range seen {
			if _, ok := expected[name]; !ok {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		for _, name := range names {
			want, got := expected[name], seen[name]
			switch {
			case want == 0:
				problems = append(problems, fmt.Sprintf("%s was not submitted", name))
			case got < want:
				problems = append(problems, fmt.Sprintf("%s is missing from the response", name))
			case got > want:
				problems = append(problems, fmt.Sprintf("%s appears %d times", name, got))
			}
		}
	}

	if len(problems) > 0 {
		return &InvariantError{Problems: problems}
	}
	return nil
}
