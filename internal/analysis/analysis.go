// Package analysis filters and orders bulk resume-analysis results for display.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/jobboard/internal/types"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the display order.
type SortKey string

// Sort orders.
const (
	ScoreDesc SortKey = "score-desc"
	ScoreAsc  SortKey = "score-asc"
	NameAsc   SortKey = "name-asc"
	NameDesc  SortKey = "name-desc"
)

// SortKeys lists the sort orders, default first.
var SortKeys = []SortKey{ScoreDesc, ScoreAsc, NameAsc, NameDesc}

// ParseSortKey validates s as a sort key. Empty means ScoreDesc.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return ScoreDesc, nil
	}
	for _, k := range SortKeys {
		if SortKey(s) == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort %q (want one of %s)", s, joinKeys())
}

func joinKeys() string {
	names := make([]string, len(SortKeys))
	for i, k := range SortKeys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Preset is a named score range.
type Preset struct {
	Name string
	Min  float64
	Max  float64
}

// Custom is the preset label once a bound has been edited by hand.
const Custom = "custom"

// Presets in filter-button order.
var Presets = []Preset{
	{Name: "all", Min: 0, Max: 100},
	{Name: "excellent", Min: 80, Max: 100},
	{Name: "good", Min: 70, Max: 79},
	{Name: "fair", Min: 60, Max: 69},
	{Name: "poor", Min: 0, Max: 59},
}

// LookupPreset returns the preset called name.
func LookupPreset(name string) (Preset, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Contains reports whether score falls inside the preset.
func (p Preset) Contains(score float64) bool {
	return p.Min <= score && score <= p.Max
}

// Selection is the user's current filter and order.
type Selection struct {
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
	Sort     SortKey `json:"sort"`
	Preset   string  `json:"preset"`
}

// NewSelection returns the initial selection: every result, best score first.
func NewSelection() Selection {
	return Selection{MinScore: 0, MaxScore: 100, Sort: ScoreDesc, Preset: "all"}
}

// SetPreset replaces both bounds with the named preset's.
func (s *Selection) SetPreset(name string) error {
	p, ok := LookupPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	s.MinScore, s.MaxScore, s.Preset = p.Min, p.Max, p.Name
	return nil
}

// SetMin edits the lower bound and marks the selection as custom.
func (s *Selection) SetMin(v float64) error {
	if err := checkBound("min", v); err != nil {
		return err
	}
	s.MinScore, s.Preset = v, Custom
	return nil
}

// SetMax edits the upper bound and marks the selection as custom.
func (s *Selection) SetMax(v float64) error {
	if err := checkBound("max", v); err != nil {
		return err
	}
	s.MaxScore, s.Preset = v, Custom
	return nil
}

func checkBound(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s score must be between 0 and 100, got %g", name, v)
	}
	return nil
}

// Keep reports whether a score passes the selection's bounds, inclusive.
// An inverted range keeps nothing.
func (s Selection) Keep(score float64) bool {
	return s.MinScore <= score && score <= s.MaxScore
}

// Apply returns the results of resp to display under sel, in order.
// The returned slice never shares storage with resp.Results.
func Apply(resp *types.BatchAnalysisResponse, sel Selection) []types.AnalysisResult {
	if resp == nil {
		return []types.AnalysisResult{}
	}
	return Filter(resp.Results, sel)
}

// Filter applies sel to results without modifying them. The returned
// results are deep copies.
func Filter(results []types.AnalysisResult, sel Selection) []types.AnalysisResult {
	out := make([]types.AnalysisResult, 0, len(results))
	for _, r := range results {
		if sel.Keep(r.Score) {
			out = append(out, r.Clone())
		}
	}
	Sort(out, sel.Sort)
	return out
}

// Sort orders results in place by key. Ties keep their relative order.
func Sort(results []types.AnalysisResult, key SortKey) {
	switch key {
	case ScoreAsc:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	case NameAsc, NameDesc:
		col := collate.New(language.English)
		desc := key == NameDesc
		sort.SliceStable(results, func(i, j int) bool {
			c := col.CompareString(results[i].Filename, results[j].Filename)
			if desc {
				return c > 0
			}
			return c < 0
		})
	default:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	}
}
