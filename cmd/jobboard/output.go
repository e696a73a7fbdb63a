package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jonathan/jobboard/internal/observability"
	"github.com/jonathan/jobboard/internal/types"
	"golang.org/x/term"
	"sigs.k8s.io/yaml"
)

func checkOutputFormat(format string) error {
	switch format {
	case "table", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// outputResult writes result in the selected format. table renders through
// the type-specific writers below.
func outputResult(w io.Writer, result any) error {
	switch outputFormat {
	case "json":
		return outputJSON(w, result)
	case "yaml":
		return outputYAML(w, result)
	default:
		return outputTable(w, result)
	}
}

func outputJSON(w io.Writer, result any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(data))
	return err
}

func outputTable(w io.Writer, result any) error {
	switch r := result.(type) {
	case []types.Job:
		return outputJobsTable(w, r)
	case *types.Job:
		printer(w).PrintJob(r)
		return nil
	case []types.Application:
		return outputApplicationsTable(w, r)
	case *types.Application:
		printer(w).PrintApplication(r)
		return nil
	case []types.Notification:
		printer(w).PrintNotifications(r, nil)
		return nil
	case types.Profile:
		return outputProfileTable(w, r)
	default:
		// Fall back to JSON for unknown types
		return outputJSON(w, result)
	}
}

func outputJobsTable(w io.Writer, jobs []types.Job) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No jobs found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOMPANY\tLOCATION\tTYPE\tPOSTED")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.Title, j.Company, j.Location, j.JobType, j.PostedAtDisplay)
	}
	return tw.Flush()
}

func outputApplicationsTable(w io.Writer, apps []types.Application) error {
	if len(apps) == 0 {
		_, err := fmt.Fprintln(w, "No applications found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tJOB\tCOMPANY\tAPPLICANT\tSTATUS\tSCORE")
	for _, a := range apps {
		score := "-"
		if a.AnalysisCompleted {
			score = fmt.Sprintf("%.0f%%", a.ResumeAnalysisScore)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.JobTitle, a.JobCompany, a.ApplicantUsername, a.Status, score)
	}
	stats := types.CountApplications(apps)
	fmt.Fprintf(tw, "\nTOTAL\t%d\tPENDING\t%d\tACCEPTED\t%d\tREJECTED %d\n",
		stats.Total, stats.Pending, stats.Accepted, stats.Rejected)
	return tw.Flush()
}

func outputProfileTable(w io.Writer, p types.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "PHONE\t%s\n", p.Phone)
	fmt.Fprintf(tw, "LOCATION\t%s\n", p.Location)
	fmt.Fprintf(tw, "BIO\t%s\n", p.Bio)
	fmt.Fprintf(tw, "SKILLS\t%s\n", strings.Join(p.Skills, ", "))
	fmt.Fprintf(tw, "EXPERIENCE\t%s\n", p.Experience)
	fmt.Fprintf(tw, "EDUCATION\t%s\n", p.Education)
	return tw.Flush()
}

// printer returns a boxed-view printer, colored only on a terminal.
func printer(w io.Writer) *observability.Printer {
	return observability.NewPrinter(w).WithColor(isTerminal(w))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
