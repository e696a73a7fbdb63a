package types

import "time"

// Notification types produced by the backend.
const (
	NotificationNewApplication       = "new_application"
	NotificationApplicationStatus    = "application_status"
	NotificationJobPosted            = "job_posted"
	NotificationApplicationWithdrawn = "application_withdrawn"
)

// Notification is a message addressed to the current user.
type Notification struct {
	ID               int       `json:"id"`
	NotificationType string    `json:"notification_type"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
	TimeAgo          string    `json:"time_ago"`
	SenderUsername   string    `json:"sender_username"`
	JobTitle         string    `json:"job_title"`
	JobCompany       string    `json:"job_company"`
	Job              *int      `json:"job"`
	JobApplication   *int      `json:"job_application"`
}

// NotificationStats summarizes the current user's notifications.
type NotificationStats struct {
	TotalNotifications  int `json:"total_notifications"`
	UnreadNotifications int `json:"unread_notifications"`
	NewApplications     int `json:"new_applications"`
	StatusUpdates       int `json:"status_updates"`
}

// UnreadCount is the body of the notification count endpoint.
type UnreadCount struct {
	UnreadCount int `json:"unread_count"`
}

// MessageResponse is the generic {"message": ...} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
