package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/smarttodo-be/internal/apperr"
	"github.com/isdelr/smarttodo-be/internal/models"
)

// Event types recorded in the activity feed.
const (
	EventAuthRegister      = "auth.register"
	EventAuthPasswordReset = "auth.password_reset"
	EventTaskCreate        = "task.create"
	EventTaskUpdate        = "task.update"
	EventTaskComplete      = "task.complete"
	EventTaskDelete        = "task.delete"
	EventTaskReminder      = "task.reminder"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, userID, eventType, message string, taskID *string) error
	GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// EventService provides business logic for event management.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, userID, eventType, message string, taskID *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      eventType,
		Message:   message,
		TaskID:    taskID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, user_id, type, message, task_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.UserID, event.Type, event.Message, event.TaskID, event.CreatedAt,
	)
	if err != nil {
		return apperr.Dependency("failed to record event", err)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events of one user.
func (s *EventService) GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, type, message, task_id, created_at FROM events WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, apperr.Dependency("failed to load events", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var taskID sql.NullString
		if err := rows.Scan(&event.ID, &event.UserID, &event.Type, &event.Message, &taskID, &event.CreatedAt); err != nil {
			return nil, apperr.Dependency("failed to read event", err)
		}
		if taskID.Valid {
			event.TaskID = &taskID.String
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency("failed to read events", err)
	}
	return events, nil
}

// PruneEvents deletes events created before the cutoff.
func (s *EventService) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, apperr.Dependency("failed to prune events", err)
	}
	return res.RowsAffected()
}
