// Package observability renders the client's views as boxed terminal output.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/jobboard/internal/analysis"
	"github.com/jonathan/jobboard/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the terminal views
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// WithColor enables ANSI score colouring.
func (p *Printer) WithColor(enabled bool) *Printer {
	p.color = enabled
	return p
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func (p *Printer) score(score float64) string {
	s := fmt.Sprintf("%.1f%% %s", score, analysis.ScoreLabel(score))
	if !p.color {
		return s
	}
	return analysis.ScoreBand(score).ANSI() + s + "\033[0m"
}

// writeBreakdown appends category scores, keywords, experience, and summary.
func writeBreakdown(sb *strings.Builder, b *types.CategoryBreakdown) {
	if b == nil {
		sb.WriteString("No detailed analysis available.\n")
		return
	}

	if len(b.CategoryScores) > 0 {
		sb.WriteString("Category Breakdown:\n")
		for _, cat := range types.Categories {
			if v, ok := b.CategoryScores[cat]; ok {
				sb.WriteString(fmt.Sprintf("  %-12s %5.1f%%\n", types.CategoryLabel(cat), v))
			}
		}
	}

	for _, cat := range types.Categories {
		matched := b.MatchedKeywords[cat]
		missing := b.MissingKeywords[cat]
		if len(matched) == 0 && len(missing) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s:\n", types.CategoryLabel(cat)))
		if len(matched) > 0 {
			sb.WriteString(fmt.Sprintf("  ✓ %s\n", truncate(strings.Join(matched, ", "), 50)))
		}
		if len(missing) > 0 {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", truncate(strings.Join(missing, ", "), 50)))
		}
	}

	if b.Experience != nil {
		mark := "✗"
		if b.Experience.MeetsRequirement {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("Experience: %s %.0f yrs (required %.0f)\n",
			mark, b.Experience.ResumeYears, b.Experience.RequiredYears))
	}

	if b.Summary != "" {
		sb.WriteString("\n")
		for _, line := range wrap(b.Summary, boxWidth-6) {
			sb.WriteString(line + "\n")
		}
	}
}

// wrap splits text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	var lines []string
	var line string
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// PrintAnalysisResults outputs the filtered bulk analysis results, one box per resume.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintAnalysisResults(resp *types.BatchAnalysisResponse, sel analysis.Selection, shown []types.AnalysisResult) {
	summary := analysis.Summarize(resp, shown)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyzed:  %d   Failed: %d\n", summary.SuccessCount, summary.ErrorCount))
	sb.WriteString(fmt.Sprintf("Filter:    %s [%g-%g]\n", sel.Preset, sel.MinScore, sel.MaxScore))
	sb.WriteString(fmt.Sprintf("Sort:      %s\n", sel.Sort))
	var counts []string
	for _, preset := range analysis.Presets {
		counts = append(counts, fmt.Sprintf("%s %d", preset.Name, summary.PresetCounts[preset.Name]))
	}
	sb.WriteString(strings.Join(counts, " · ") + "\n\n")
	sb.WriteString(summary.Headline())
	p.printBox("BULK RESUME ANALYSIS", sb.String())

	for i, r := range shown {
		var body strings.Builder
		body.WriteString(fmt.Sprintf("Score: %s\n\n", p.score(r.Score)))
		writeBreakdown(&body, r.Analysis)
		p.printBox(fmt.Sprintf("#%d  %s", i+1, r.Filename), strings.TrimSuffix(body.String(), "\n"))
	}

	if resp != nil && len(resp.Errors) > 0 {
		var errs strings.Builder
		for i, e := range resp.Errors {
			errs.WriteString(fmt.Sprintf("⚠ %s\n", e.Filename))
			errs.WriteString(fmt.Sprintf("  %s", truncate(e.Error, boxWidth-8)))
			if i < len(resp.Errors)-1 {
				errs.WriteString("\n")
			}
		}
		p.printBox("FILES NOT ANALYZED", errs.String())
	}
}

// PrintApplication outputs one application with its stored analysis.
func (p *Printer) PrintApplication(app *types.Application) {
	if app == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:       %s @ %s\n", app.JobTitle, app.JobCompany))
	sb.WriteString(fmt.Sprintf("Applicant: %s <%s>\n", app.ApplicantUsername, app.ApplicantEmail))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", app.Status))
	sb.WriteString(fmt.Sprintf("Applied:   %s\n", app.AppliedAt.Format("2006-01-02 15:04")))
	if app.HasResume() {
		name := *app.Resume
		if app.ResumeName != nil && *app.ResumeName != "" {
			name = *app.ResumeName
		}
		sb.WriteString(fmt.Sprintf("Resume:    %s\n", name))
	} else {
		sb.WriteString("Resume:    (none)\n")
	}
	if app.Message != nil && *app.Message != "" {
		sb.WriteString(fmt.Sprintf("Message:   %s\n", truncate(*app.Message, boxWidth-15)))
	}

	if app.AnalysisCompleted {
		sb.WriteString(fmt.Sprintf("\nScore: %s\n\n", p.score(app.ResumeAnalysisScore)))
		writeBreakdown(&sb, app.Breakdown())
	}

	p.printBox(fmt.Sprintf("APPLICATION #%d", app.ID), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJob outputs one job posting.
func (p *Printer) PrintJob(job *types.Job) {
	if job == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", job.Company))
	sb.WriteString(fmt.Sprintf("Location: %s\n", job.Location))
	sb.WriteString(fmt.Sprintf("Type:     %s\n", job.JobType))
	if job.Salary != nil && *job.Salary != "" {
		sb.WriteString(fmt.Sprintf("Salary:   %s\n", *job.Salary))
	}
	sb.WriteString(fmt.Sprintf("Posted:   %s by %s\n", job.PostedAtDisplay, job.PostedByUsername))
	if job.ApplicationCount != nil {
		applicants := fmt.Sprintf("%d", *job.ApplicationCount)
		if job.MaxApplicants != nil {
			applicants += fmt.Sprintf(" / %d", *job.MaxApplicants)
		}
		sb.WriteString(fmt.Sprintf("Applied:  %s\n", applicants))
	}
	sb.WriteString("\n")
	for _, line := range wrap(job.Description, boxWidth-6) {
		sb.WriteString(line + "\n")
	}
	if job.Requirements != nil && *job.Requirements != "" {
		sb.WriteString("\nRequirements:\n")
		for _, line := range wrap(*job.Requirements, boxWidth-8) {
			sb.WriteString("  " + line + "\n")
		}
	}

	p.printBox(fmt.Sprintf("#%d  %s", job.ID, job.Title), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintNotifications outputs the newest notifications and the stats line.
func (p *Printer) PrintNotifications(list []types.Notification, stats *types.NotificationStats) {
	var sb strings.Builder
	if stats != nil {
		sb.WriteString(fmt.Sprintf("Total: %d   Unread: %d   Applications: %d   Updates: %d\n",
			stats.TotalNotifications, stats.UnreadNotifications, stats.NewApplications, stats.StatusUpdates))
	}

	if len(list) == 0 {
		sb.WriteString("\nNo notifications.")
		p.printBox("NOTIFICATIONS", sb.String())
		return
	}

	sb.WriteString("\n")
	count := min(len(list), maxItemsToShow*2)
	for i := 0; i < count; i++ {
		n := list[i]
		mark := " "
		if !n.IsRead {
			mark = "●"
		}
		sb.WriteString(fmt.Sprintf("%s #%d %s (%s)\n", mark, n.ID, n.Title, n.TimeAgo))
		sb.WriteString(fmt.Sprintf("    %s\n", truncate(n.Message, boxWidth-10)))
	}
	if len(list) > count {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(list)-count))
	}

	p.printBox("NOTIFICATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProfile outputs the session identity, the local profile, and activity counts.
func (p *Printer) PrintProfile(sess types.Session, profile types.Profile, apps []types.Application, jobs []types.Job) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Username: %s\n", sess.Username))
	sb.WriteString(fmt.Sprintf("Email:    %s\n", sess.Email))
	sb.WriteString(fmt.Sprintf("Phone:    %s\n", profile.Phone))
	sb.WriteString(fmt.Sprintf("Location: %s\n", profile.Location))
	if len(profile.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills:   %s\n", truncate(strings.Join(profile.Skills, ", "), boxWidth-14)))
	}
	sb.WriteString("\n")
	for _, line := range wrap(profile.Bio, boxWidth-6) {
		sb.WriteString(line + "\n")
	}

	stats := types.CountApplications(apps)
	sb.WriteString(fmt.Sprintf("\nApplications: %d (pending %d, accepted %d, rejected %d)\n",
		stats.Total, stats.Pending, stats.Accepted, stats.Rejected))
	sb.WriteString(fmt.Sprintf("Jobs posted:  %d", len(jobs)))

	p.printBox("PROFILE", sb.String())
}
