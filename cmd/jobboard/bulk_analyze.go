package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/jobboard/internal/analysis"
	"github.com/jonathan/jobboard/internal/api"
	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/schemas"
	"github.com/jonathan/jobboard/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	bulkJobID  int
	bulkPreset string
	bulkMin    float64
	bulkMax    float64
	bulkSort   string
	bulkSave   string
	bulkFrom   string
)

var bulkAnalyzeCmd = &cobra.Command{
	Use:   "bulk-analyze [files or directories...]",
	Short: "Score many resumes against one job and rank them",
	Long: `Upload resumes for one job in a single request and print the results,
filtered by score range and sorted.

Directories are expanded to the PDF, DOC and DOCX files they contain.
--save exports the raw response to the file you name; nothing else reads it.
--from re-filters such an export without contacting the backend.

Presets: all (0-100), excellent (80-100), good (70-79), fair (60-69), poor (0-59).
--min or --max on top of a preset switch the selection to a custom range.`,
	Example: `  jobboard bulk-analyze --job 3 ./resumes
  jobboard bulk-analyze --job 3 a.pdf b.docx --preset excellent --save run.json
  jobboard bulk-analyze --from run.json --min 65 --sort name-asc`,
	RunE: runBulkAnalyze,
}

func init() {
	bulkAnalyzeCmd.Flags().IntVar(&bulkJobID, "job", 0, "Job to analyze against")
	bulkAnalyzeCmd.Flags().StringVar(&bulkPreset, "preset", "all", "Score preset: all, excellent, good, fair, poor")
	bulkAnalyzeCmd.Flags().Float64Var(&bulkMin, "min", 0, "Minimum score, inclusive")
	bulkAnalyzeCmd.Flags().Float64Var(&bulkMax, "max", 100, "Maximum score, inclusive")
	bulkAnalyzeCmd.Flags().StringVar(&bulkSort, "sort", string(analysis.ScoreDesc), "Order: score-desc, score-asc, name-asc, name-desc")
	bulkAnalyzeCmd.Flags().StringVar(&bulkSave, "save", "", "Export the raw response to this file")
	bulkAnalyzeCmd.Flags().StringVar(&bulkFrom, "from", "", "Read a saved response instead of uploading")

	rootCmd.AddCommand(routed(bulkAnalyzeCmd, guard.BulkAnalysis))
}

// BulkAnalysisResult is the structured bulk-analyze output.
type BulkAnalysisResult struct {
	Selection analysis.Selection     `json:"selection"`
	Summary   analysis.Summary       `json:"summary"`
	Results   []types.AnalysisResult `json:"results"`
	Errors    []types.BatchError     `json:"errors,omitempty"`
}

func runBulkAnalyze(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	sel, err := selectionFromFlags(cmd)
	if err != nil {
		return err
	}

	var resp *types.BatchAnalysisResponse
	if bulkFrom != "" {
		if len(args) > 0 {
			return fmt.Errorf("--from cannot be combined with files")
		}
		resp, err = loadBatch(bulkFrom)
	} else {
		resp, err = uploadBatch(cmd, args)
	}
	if err != nil {
		return err
	}

	if bulkSave != "" {
		if err := saveBatch(bulkSave, resp); err != nil {
			return err
		}
		a.logger.Debug("saved bulk analysis", zap.String("path", bulkSave))
	}

	shown := analysis.Apply(resp, sel)
	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), BulkAnalysisResult{
			Selection: sel,
			Summary:   analysis.Summarize(resp, shown),
			Results:   shown,
			Errors:    resp.Errors,
		})
	}
	printer(cmd.OutOrStdout()).PrintAnalysisResults(resp, sel, shown)
	return nil
}

// selectionFromFlags applies --preset, then any explicit --min/--max, then --sort.
func selectionFromFlags(cmd *cobra.Command) (analysis.Selection, error) {
	sel := analysis.NewSelection()
	if err := sel.SetPreset(bulkPreset); err != nil {
		return sel, err
	}
	if cmd.Flags().Changed("min") {
		if err := sel.SetMin(bulkMin); err != nil {
			return sel, err
		}
	}
	if cmd.Flags().Changed("max") {
		if err := sel.SetMax(bulkMax); err != nil {
			return sel, err
		}
	}
	key, err := analysis.ParseSortKey(bulkSort)
	if err != nil {
		return sel, err
	}
	sel.Sort = key
	return sel, nil
}

func uploadBatch(cmd *cobra.Command, args []string) (*types.BatchAnalysisResponse, error) {
	a := appFrom(cmd)
	if bulkJobID <= 0 {
		return nil, fmt.Errorf("--job is required")
	}
	paths, err := expandResumePaths(args)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no resumes given")
	}

	uploads := make([]api.Upload, 0, len(paths))
	for _, p := range paths {
		u, err := api.ReadResume(p)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}

	a.logger.Info("uploading resumes for analysis", zap.Int("job_id", bulkJobID), zap.Int("files", len(uploads)))
	return a.client.BulkAnalyze(cmd.Context(), bulkJobID, uploads)
}

// expandResumePaths replaces each directory with the resume files directly inside it.
func expandResumePaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !isResumeName(e.Name()) {
				continue
			}
			found = append(found, filepath.Join(arg, e.Name()))
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

func isResumeName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range api.ResumeExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func loadBatch(path string) (*types.BatchAnalysisResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := schemas.ValidateBatchAnalysis(data); err != nil {
		return nil, fmt.Errorf("%s is not a bulk analysis response: %w", path, err)
	}
	var resp types.BatchAnalysisResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &resp, nil
}

func saveBatch(path string, resp *types.BatchAnalysisResponse) error {
	saved := *resp
	if saved.Results == nil {
		saved.Results = []types.AnalysisResult{}
	}
	if saved.Errors == nil {
		saved.Errors = []types.BatchError{}
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
