package main

import (
	"fmt"
	"strconv"

	"github.com/jonathan/jobboard/internal/api"
	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/types"
	"github.com/spf13/cobra"
)

var (
	jobsScope string

	jobTitle         string
	jobCompany       string
	jobLocation      string
	jobType          string
	jobSalary        string
	jobDescription   string
	jobRequirements  string
	jobMaxApplicants int

	applyMessage string
	applyResume  string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse and manage job postings",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List job postings",
	Long:  `List active job postings. --scope mine lists the postings you created.`,
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one job posting",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Post a new job",
	Args:  cobra.NoArgs,
	RunE:  runJobsCreate,
}

var jobsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a job posting you created",
	Long: `Edit a job posting you created. Only the fields passed as flags change;
the rest keep their current values.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobsUpdate,
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a job posting you created",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsDelete,
}

var jobsApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Apply to a job, optionally attaching a resume",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsApply,
}

func init() {
	jobsListCmd.Flags().StringVar(&jobsScope, "scope", "all", "Which jobs to list: all, mine, public")

	addJobFlags(jobsCreateCmd)
	addJobFlags(jobsUpdateCmd)

	jobsApplyCmd.Flags().StringVarP(&applyMessage, "message", "m", "", "Cover message")
	jobsApplyCmd.Flags().StringVar(&applyResume, "resume", "", "Path to a PDF, DOC, or DOCX resume")

	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsCreateCmd, jobsUpdateCmd, jobsDeleteCmd, jobsApplyCmd)
	rootCmd.AddCommand(routed(jobsCmd, guard.Jobs))
}

func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&jobTitle, "title", "", "Job title (required)")
	cmd.Flags().StringVar(&jobCompany, "company", "", "Company name (required)")
	cmd.Flags().StringVar(&jobLocation, "location", "", "Location (required)")
	cmd.Flags().StringVar(&jobType, "type", types.JobTypeFullTime, "Job type: full-time, part-time, contract, internship")
	cmd.Flags().StringVar(&jobSalary, "salary", "", "Salary range")
	cmd.Flags().StringVar(&jobDescription, "description", "", "Job description (required)")
	cmd.Flags().StringVar(&jobRequirements, "requirements", "", "Requirements")
	cmd.Flags().IntVar(&jobMaxApplicants, "max-applicants", 0, "Maximum number of applicants (0 for unlimited)")
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	var (
		jobs []types.Job
		err  error
	)
	switch jobsScope {
	case "all":
		jobs, err = a.client.ListJobs(cmd.Context())
	case "mine":
		jobs, err = a.client.MyJobs(cmd.Context())
	case "public":
		jobs, err = a.client.PublicJobs(cmd.Context())
	default:
		return fmt.Errorf("unknown scope %q (want all, mine or public)", jobsScope)
	}
	if err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), jobs)
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	job, err := a.client.GetJob(cmd.Context(), id)
	if err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), job)
}

func runJobsCreate(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	in := types.JobInput{
		Title:        jobTitle,
		Company:      jobCompany,
		Location:     jobLocation,
		JobType:      jobType,
		Salary:       jobSalary,
		Description:  jobDescription,
		Requirements: jobRequirements,
	}
	if jobMaxApplicants > 0 {
		n := jobMaxApplicants
		in.MaxApplicants = &n
	}

	job, err := a.client.CreateJob(cmd.Context(), in)
	if err != nil {
		return err
	}
	a.logger.Debug("job created")
	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), job)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created job %d: %s at %s\n", job.ID, job.Title, job.Company)
	return nil
}

func runJobsUpdate(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	changed := 0
	for _, name := range []string{"title", "company", "location", "type", "salary", "description", "requirements", "max-applicants"} {
		if flags.Changed(name) {
			changed++
		}
	}
	if changed == 0 {
		return fmt.Errorf("nothing to change: pass at least one field flag")
	}

	current, err := a.client.GetJob(cmd.Context(), id)
	if err != nil {
		return err
	}
	in := current.Input()
	if flags.Changed("title") {
		in.Title = jobTitle
	}
	if flags.Changed("company") {
		in.Company = jobCompany
	}
	if flags.Changed("location") {
		in.Location = jobLocation
	}
	if flags.Changed("type") {
		in.JobType = jobType
	}
	if flags.Changed("salary") {
		in.Salary = jobSalary
	}
	if flags.Changed("description") {
		in.Description = jobDescription
	}
	if flags.Changed("requirements") {
		in.Requirements = jobRequirements
	}
	if flags.Changed("max-applicants") {
		in.MaxApplicants = nil
		if jobMaxApplicants > 0 {
			n := jobMaxApplicants
			in.MaxApplicants = &n
		}
	}

	job, err := a.client.UpdateJob(cmd.Context(), id, in)
	if err != nil {
		return err
	}
	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), job)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated job %d: %s at %s\n", job.ID, job.Title, job.Company)
	return nil
}

func runJobsDelete(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.client.DeleteJob(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %d\n", id)
	return nil
}

func runJobsApply(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var resume *api.Upload
	if applyResume != "" {
		u, err := api.ReadResume(applyResume)
		if err != nil {
			return err
		}
		resume = &u
	}

	app, err := a.client.Apply(cmd.Context(), id, applyMessage, resume)
	if err != nil {
		return err
	}
	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), app)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied to %s at %s (application %d, %s)\n",
		app.JobTitle, app.JobCompany, app.ID, app.Status)
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
