package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/jobboard/internal/api"
	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/types"
	"github.com/spf13/cobra"
)

var (
	applicationsReceived bool
	downloadOut          string
)

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"apps"},
	Short:   "Manage job applications",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your applications, or those received for your jobs with --received",
	Args:  cobra.NoArgs,
	RunE:  runApplicationsList,
}

var applicationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an application with its stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runApplicationsShow,
}

var applicationsStatusCmd = &cobra.Command{
	Use:       "status <id> <pending|accepted|rejected>",
	Short:     "Change the status of an application to one of your jobs",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{types.StatusPending, types.StatusAccepted, types.StatusRejected},
	RunE:      runApplicationsStatus,
}

var applicationsAnalyzeCmd = &cobra.Command{
	Use:   "analyze <id>",
	Short: "Score the resume attached to an application",
	Args:  cobra.ExactArgs(1),
	RunE:  runApplicationsAnalyze,
}

var applicationsAnalyzeJobCmd = &cobra.Command{
	Use:   "analyze-job <job-id>",
	Short: "Score every resume submitted to a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runApplicationsAnalyzeJob,
}

var applicationsDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download the resume attached to an application",
	Args:  cobra.ExactArgs(1),
	RunE:  runApplicationsDownload,
}

var applicationsUploadCmd = &cobra.Command{
	Use:   "upload <id> <file>",
	Short: "Attach or replace the resume on your application",
	Args:  cobra.ExactArgs(2),
	RunE:  runApplicationsUpload,
}

func init() {
	applicationsListCmd.Flags().BoolVar(&applicationsReceived, "received", false, "List applications received for jobs you posted")
	applicationsDownloadCmd.Flags().StringVarP(&downloadOut, "out", "O", "", "Output path (default: the server's file name in the current directory)")

	applicationsCmd.AddCommand(
		applicationsListCmd,
		applicationsShowCmd,
		applicationsStatusCmd,
		applicationsAnalyzeCmd,
		applicationsAnalyzeJobCmd,
		applicationsDownloadCmd,
		applicationsUploadCmd,
	)
	rootCmd.AddCommand(routed(applicationsCmd, guard.Applications))
}

func runApplicationsList(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	var (
		apps []types.Application
		err  error
	)
	if applicationsReceived {
		apps, err = a.client.JobApplications(cmd.Context())
	} else {
		apps, err = a.client.MyApplications(cmd.Context())
	}
	if err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), apps)
}

func runApplicationsShow(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	app, err := a.client.GetAnalysis(cmd.Context(), id)
	if err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), app)
}

func runApplicationsStatus(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	app, err := a.client.UpdateApplicationStatus(cmd.Context(), id, args[1])
	if err != nil {
		return err
	}
	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), app)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Application %d is now %s\n", app.ID, app.Status)
	return nil
}

func runApplicationsAnalyze(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	app, err := a.client.AnalyzeApplication(cmd.Context(), id)
	if err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), app)
}

func runApplicationsAnalyzeJob(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	apps, err := a.client.AnalyzeJobResumes(cmd.Context(), id)
	if err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), apps)
}

func runApplicationsDownload(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	dl, err := a.client.DownloadResume(cmd.Context(), id)
	if err != nil {
		return err
	}

	path := downloadOut
	if path == "" {
		path = filepath.Base(dl.Name)
	}
	if err := os.WriteFile(path, dl.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", path, len(dl.Data))
	return nil
}

func runApplicationsUpload(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	resume, err := api.ReadResume(args[1])
	if err != nil {
		return err
	}
	app, err := a.client.UploadResume(cmd.Context(), id, resume)
	if err != nil {
		return err
	}
	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), app)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to application %d\n", resume.Name, app.ID)
	return nil
}
