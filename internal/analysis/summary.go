package analysis

import (
	"fmt"

	"github.com/jonathan/jobboard/internal/types"
)

// Summary holds the counts shown around a filtered result list.
type Summary struct {
	Shown        int            `json:"shown"`
	Total        int            `json:"total"`
	SuccessCount int            `json:"success_count"`
	ErrorCount   int            `json:"error_count"`
	PresetCounts map[string]int `json:"preset_counts"`
}

// Summarize counts resp for display next to shown results.
func Summarize(resp *types.BatchAnalysisResponse, shown []types.AnalysisResult) Summary {
	s := Summary{Shown: len(shown), PresetCounts: make(map[string]int, len(Presets))}
	for _, p := range Presets {
		s.PresetCounts[p.Name] = 0
	}
	if resp == nil {
		return s
	}

	s.Total = len(resp.Results)
	s.SuccessCount = resp.SuccessCount
	s.ErrorCount = resp.ErrorCount
	for _, r := range resp.Results {
		for _, p := range Presets {
			if p.Contains(r.Score) {
				s.PresetCounts[p.Name]++
			}
		}
	}
	return s
}

// Headline is the "Showing N of M results" line, or the empty-state message.
func (s Summary) Headline() string {
	if s.Shown == 0 {
		return "No results match the current filters."
	}
	return fmt.Sprintf("Showing %d of %d results", s.Shown, s.Total)
}
