package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local gateway",
	Long: `Start an HTTP server on this machine that exposes the client's views as
guarded routes backed by the job board API, including a server-sent event
stream of the unread notification count.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default: listen_addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	addr := serveAddr
	if addr == "" {
		addr = a.cfg.ListenAddr
	}

	srv := server.New(server.Config{
		ListenAddr:     addr,
		PollInterval:   time.Duration(a.cfg.PollInterval),
		Policy:         guard.Policy{RedirectAuthenticated: a.cfg.RedirectAuthenticated},
		AllowedOrigins: a.cfg.AllowedOrigins,
	}, a.client, a.sessions, a.logger.Named("gateway"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
