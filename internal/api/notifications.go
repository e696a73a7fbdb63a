package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonathan/jobboard/internal/types"
)

// Notifications lists the current user's notifications, newest first.
func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]types.Notification, error) {
	var query url.Values
	if unreadOnly {
		query = url.Values{"unread_only": {strconv.FormatBool(unreadOnly)}}
	}
	var out []types.Notification
	if err := c.call(ctx, http.MethodGet, "notifications/", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out types.UnreadCount
	if err := c.call(ctx, http.MethodGet, "notifications/count/", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// NotificationStats summarizes the current user's notifications.
func (c *Client) NotificationStats(ctx context.Context) (*types.NotificationStats, error) {
	var out types.NotificationStats
	if err := c.call(ctx, http.MethodGet, "notifications/stats/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead marks one notification as read.
func (c *Client) MarkRead(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodPut, fmt.Sprintf("notifications/%d/read/", id), nil, nil, nil)
}

// MarkAllRead marks every notification as read.
func (c *Client) MarkAllRead(ctx context.Context) (string, error) {
	var out types.MessageResponse
	if err := c.call(ctx, http.MethodPut, "notifications/mark-all-read/", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("notifications/%d/delete/", id), nil, nil, nil)
}

// ClearNotifications removes every notification.
func (c *Client) ClearNotifications(ctx context.Context) (string, error) {
	var out types.MessageResponse
	if err := c.call(ctx, http.MethodDelete, "notifications/clear-all/", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
