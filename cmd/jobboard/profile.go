package main

import (
	"fmt"
	"strings"

	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	profilePhone      string
	profileLocation   string
	profileBio        string
	profileSkills     []string
	profileExperience string
	profileEducation  string
)

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show the landing view: unread count and latest jobs",
	Args:  cobra.NoArgs,
	RunE:  runHome,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile and activity",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Edit the profile kept on this machine",
	Long: `Update fields of the local profile. Only the flags given are changed.
The profile is stored next to the session and never sent to the backend.`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the placeholder profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileReset,
}

func init() {
	profileSetCmd.Flags().StringVar(&profilePhone, "phone", "", "Phone number")
	profileSetCmd.Flags().StringVar(&profileLocation, "location", "", "Location")
	profileSetCmd.Flags().StringVar(&profileBio, "bio", "", "Professional bio")
	profileSetCmd.Flags().StringSliceVar(&profileSkills, "skills", nil, "Comma-separated skills")
	profileSetCmd.Flags().StringVar(&profileExperience, "experience", "", "Work experience")
	profileSetCmd.Flags().StringVar(&profileEducation, "education", "", "Education background")

	profileCmd.AddCommand(profileSetCmd, profileResetCmd)
	rootCmd.AddCommand(routed(homeCmd, guard.Home))
	rootCmd.AddCommand(routed(profileCmd, guard.Profile))
}

// HomeResult is the home output.
type HomeResult struct {
	Username    string      `json:"username"`
	UnreadCount *int        `json:"unread_count,omitempty"`
	Jobs        []types.Job `json:"jobs"`
}

func runHome(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	sess, _ := a.sessions.Current()
	jobs, err := a.client.ListJobs(cmd.Context())
	if err != nil {
		return err
	}

	result := HomeResult{Username: sess.Username, Jobs: jobs}
	if n, err := a.client.UnreadCount(cmd.Context()); err == nil {
		result.UnreadCount = &n
	} else {
		a.logger.Debug("unread count unavailable", zap.Error(err))
	}

	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Welcome back, %s.\n", result.Username)
	if result.UnreadCount != nil {
		fmt.Fprintf(out, "Unread notifications: %d\n", *result.UnreadCount)
	}
	fmt.Fprintln(out)
	if len(jobs) > maxHomeJobs {
		jobs = jobs[:maxHomeJobs]
	}
	return outputJobsTable(out, jobs)
}

const maxHomeJobs = 10

// ProfileResult is the profile output.
type ProfileResult struct {
	Username     string                 `json:"username"`
	Email        string                 `json:"email"`
	Profile      types.Profile          `json:"profile"`
	Stats        types.ApplicationStats `json:"stats"`
	Applications []types.Application    `json:"applications"`
	Jobs         []types.Job            `json:"jobs"`
}

func runProfile(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	sess, _ := a.sessions.Current()
	activity, err := a.client.Activity(cmd.Context())
	if err != nil {
		return err
	}
	profile := a.sessions.LoadProfile(sess.Username)

	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), ProfileResult{
			Username:     sess.Username,
			Email:        sess.Email,
			Profile:      profile,
			Stats:        types.CountApplications(activity.Applications),
			Applications: activity.Applications,
			Jobs:         activity.Jobs,
		})
	}
	printer(cmd.OutOrStdout()).PrintProfile(sess, profile, activity.Applications, activity.Jobs)
	return nil
}

func runProfileSet(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	sess, _ := a.sessions.Current()
	profile := a.sessions.LoadProfile(sess.Username)

	flags := cmd.Flags()
	changed := 0
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = strings.TrimSpace(v)
			changed++
		}
	}
	set("phone", &profile.Phone, profilePhone)
	set("location", &profile.Location, profileLocation)
	set("bio", &profile.Bio, profileBio)
	set("experience", &profile.Experience, profileExperience)
	set("education", &profile.Education, profileEducation)
	if flags.Changed("skills") {
		profile.Skills = cleanSkills(profileSkills)
		changed++
	}
	if changed == 0 {
		return fmt.Errorf("nothing to change: pass at least one field flag")
	}

	if err := a.sessions.SaveProfile(sess.Username, profile); err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), profile)
}

func runProfileReset(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	sess, _ := a.sessions.Current()
	if err := a.sessions.SaveProfile(sess.Username, types.DefaultProfile()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Profile reset")
	return nil
}

func cleanSkills(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
