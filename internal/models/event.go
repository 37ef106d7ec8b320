package models

import "time"

// Event represents an entry in a user's activity feed.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"` // e.g., "task.create", "auth.password_reset"
	Message   string    `json:"message"`
	TaskID    *string   `json:"task_id,omitempty"` // Nullable for account-level events
	CreatedAt time.Time `json:"created_at"`
}
