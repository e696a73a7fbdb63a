// Package main provides the jobboard command line client and local gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jonathan/jobboard/internal/api"
	"github.com/jonathan/jobboard/internal/config"
	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/logging"
	"github.com/jonathan/jobboard/internal/session"
	"github.com/jonathan/jobboard/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// routeAnnotation names the view a command renders. The guard is consulted
// before any command that carries it.
const routeAnnotation = "route"

var (
	configPath   string
	outputFormat string
	verbose      bool
	apiURL       string
)

// app holds the wired components for the running command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *api.Client
	sessions *session.Store
	guard    *guard.Guard
}

type appKey struct{}

// appFrom returns the components setup attached to the command's context.
func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

var rootCmd = &cobra.Command{
	Use:   "jobboard",
	Short: "Job board client",
	Long: `jobboard is a client for the job board REST API: browse and post jobs,
manage applications and notifications, and rank resumes with bulk analysis.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend REST root (overrides config)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs the root command. A rejected token is reported, not acted on:
// the session stays until the user logs in again or logs out.
func execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if api.IsUnauthorized(err) {
		return fmt.Errorf("session expired: run \"jobboard login\": %w", err)
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if lines := apiErr.FieldMessages(); len(lines) > 0 {
			return fmt.Errorf("%w\n  %s", err, strings.Join(lines, "\n  "))
		}
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := checkOutputFormat(outputFormat); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Verbose)
	if err != nil {
		return err
	}

	store, err := storage.NewFileStore(cfg.StateDir, storage.NewSealer(cfg.SessionKey))
	if err != nil {
		return err
	}

	var sessions *session.Store
	opts := api.DefaultOptions()
	opts.Timeout = time.Duration(cfg.HTTPTimeout)
	opts.Logger = logger.Named("api")
	client, err := api.New(cfg.APIRoot(), api.TokenFunc(func() string { return sessions.Token() }), opts)
	if err != nil {
		return err
	}
	sessions = session.NewStore(store, client, logger.Named("session"))
	state := sessions.Restore()
	logger.Debug("session restored", zap.Stringer("state", state), zap.String("state_dir", store.Dir()))

	a := &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		sessions: sessions,
		guard:    guard.New(sessions, guard.Policy{RedirectAuthenticated: cfg.RedirectAuthenticated}),
	}
	cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))

	return checkRoute(cmd, a)
}

// checkRoute applies the route guard to the command about to run. A
// subcommand inherits the route of its nearest annotated parent.
func checkRoute(cmd *cobra.Command, a *app) error {
	var route string
	for c := cmd; c != nil; c = c.Parent() {
		if r, ok := c.Annotations[routeAnnotation]; ok {
			route = r
			break
		}
	}
	if route == "" {
		return nil
	}
	decision := a.guard.Evaluate(guard.Route(route))
	if decision.Allow {
		return nil
	}
	if decision.Redirect == guard.Login {
		return errors.New(`login required: run "jobboard login"`)
	}
	sess, _ := a.sessions.Current()
	return fmt.Errorf("already logged in as %s: run \"jobboard logout\" first", sess.Username)
}

// routed marks cmd as rendering route.
func routed(cmd *cobra.Command, route guard.Route) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[routeAnnotation] = string(route)
	return cmd
}
