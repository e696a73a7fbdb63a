package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonathan/jobboard/internal/api"
	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/poller"
	"github.com/jonathan/jobboard/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	notificationsUnread bool
	watchInterval       time.Duration
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Read and manage notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications with summary counts",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsRead,
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsReadAll,
}

var notificationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a notification",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsDelete,
}

var notificationsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every notification",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsClear,
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the unread count whenever it changes",
	Long: `Poll the unread notification count until interrupted. The count is
fetched immediately and then every --interval (default: poll_interval from config).`,
	Args: cobra.NoArgs,
	RunE: runNotificationsWatch,
}

func init() {
	notificationsListCmd.Flags().BoolVar(&notificationsUnread, "unread", false, "Only list unread notifications")
	notificationsWatchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Refresh interval")

	notificationsCmd.AddCommand(
		notificationsListCmd,
		notificationsReadCmd,
		notificationsReadAllCmd,
		notificationsDeleteCmd,
		notificationsClearCmd,
		notificationsWatchCmd,
	)
	rootCmd.AddCommand(routed(notificationsCmd, guard.Notifications))
}

// NotificationsResult is the notifications list output.
type NotificationsResult struct {
	Stats         *types.NotificationStats `json:"stats"`
	Notifications []types.Notification     `json:"notifications"`
}

func runNotificationsList(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	var result NotificationsResult

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		list, err := a.client.Notifications(ctx, notificationsUnread)
		result.Notifications = list
		return err
	})
	g.Go(func() error {
		stats, err := a.client.NotificationStats(ctx)
		result.Stats = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), result)
	}
	printer(cmd.OutOrStdout()).PrintNotifications(result.Notifications, result.Stats)
	return nil
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.client.MarkRead(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Marked notification %d as read\n", id)
	return nil
}

func runNotificationsReadAll(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	msg, err := a.client.MarkAllRead(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), messageOr(msg, "All notifications marked as read"))
	return nil
}

func runNotificationsDelete(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.client.DeleteNotification(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted notification %d\n", id)
	return nil
}

func runNotificationsClear(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	msg, err := a.client.ClearNotifications(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), messageOr(msg, "All notifications cleared"))
	return nil
}

func runNotificationsWatch(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	interval := watchInterval
	if interval <= 0 {
		interval = time.Duration(a.cfg.PollInterval)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A rejected token ends the watch.
	var (
		mu      sync.Mutex
		authErr error
	)
	fetch := func(ctx context.Context) (int, error) {
		n, err := a.client.UnreadCount(ctx)
		if api.IsUnauthorized(err) {
			mu.Lock()
			authErr = err
			mu.Unlock()
			cancel()
		}
		return n, err
	}

	out := cmd.OutOrStdout()
	last := -1
	p := poller.New(fetch, interval, a.logger.Named("poller"))
	p.OnUpdate(func(n int) {
		if n == last {
			return
		}
		last = n
		fmt.Fprintf(out, "%s  unread: %d\n", time.Now().Format("15:04:05"), n)
	})

	a.logger.Debug("watching unread count", zap.Duration("interval", interval))
	h := p.Start(ctx)
	<-h.Done()

	mu.Lock()
	defer mu.Unlock()
	return authErr
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
