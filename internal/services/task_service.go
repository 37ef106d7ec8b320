package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/smarttodo-be/internal/apperr"
	"github.com/isdelr/smarttodo-be/internal/models"
	"github.com/isdelr/smarttodo-be/internal/suggestions"
	"github.com/rs/zerolog/log"
)

// Actions pushed to a user's live connections.
const (
	ActionTaskCreated = "task.created"
	ActionTaskUpdated = "task.updated"
	ActionTaskDeleted = "task.deleted"
)

// TaskNotifier pushes task changes to the owner's open connections.
type TaskNotifier interface {
	NotifyUser(userID, action string, payload interface{})
}

// TaskServiceProvider defines the interface for task services. Every method
// taking a userID only ever sees tasks owned by that user.
type TaskServiceProvider interface {
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)
	GetTask(ctx context.Context, userID, taskID string) (models.Task, error)
	CreateTask(ctx context.Context, userID string, input models.NewTask) (models.Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, update models.TaskUpdate) (models.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
	PreviewSuggestions(title, description string) ([]string, error)
	GetTaskStats(ctx context.Context, userID string) (models.TaskStats, error)
	ListDueForReminder(ctx context.Context, dueBefore time.Time) ([]models.DueTask, error)
	MarkReminded(ctx context.Context, taskID string, at time.Time) error
}

// TaskService provides business logic for task management.
type TaskService struct {
	db              *sql.DB
	categoryService CategoryServiceProvider
	eventService    EventServiceProvider
	notifier        TaskNotifier
}

// NewTaskService creates a new TaskService. notifier may be nil.
func NewTaskService(db *sql.DB, categoryService CategoryServiceProvider, eventService EventServiceProvider, notifier TaskNotifier) *TaskService {
	return &TaskService{
		db:              db,
		categoryService: categoryService,
		eventService:    eventService,
		notifier:        notifier,
	}
}

const taskColumns = `
	t.id, t.user_id, t.title, t.description, t.completed, t.category_id, c.name,
	t.priority, t.estimate, t.due_date, t.suggestions_json, t.created_at
	FROM tasks t LEFT JOIN categories c ON c.id = t.category_id`

// ListTasks returns the caller's tasks, most recent first.
func (s *TaskService) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+taskColumns+" WHERE t.user_id = ? ORDER BY t.created_at DESC, t.rowid DESC", userID)
	if err != nil {
		return nil, apperr.Dependency("failed to load tasks", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, apperr.Dependency("failed to read task", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency("failed to read tasks", err)
	}
	return tasks, nil
}

// GetTask looks a task up by id and owner in one query, so a task owned by
// someone else is indistinguishable from a missing one.
func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT"+taskColumns+" WHERE t.id = ? AND t.user_id = ?", taskID, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, apperr.NotFound("Task not found")
		}
		return models.Task{}, apperr.Dependency("failed to load task", err)
	}
	return task, nil
}

// CreateTask validates the input, derives priority, estimate and suggestions,
// and stores the task for userID.
func (s *TaskService) CreateTask(ctx context.Context, userID string, input models.NewTask) (models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Task{}, apperr.Validation("Task title is required")
	}

	var dueDate *time.Time
	if input.DueDate != nil {
		parsed, err := parseDueDate(*input.DueDate)
		if err != nil {
			return models.Task{}, err
		}
		dueDate = parsed
	}

	categoryID, err := s.resolveCategory(ctx, input.CategoryID)
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		CategoryID:  categoryID,
		Priority:    suggestions.Priority(input.Description),
		Estimate:    suggestions.Estimate(input.Description),
		DueDate:     dueDate,
		Suggestions: suggestions.Generate(title, input.Description),
		CreatedAt:   time.Now().UTC(),
	}
	task.PrepareForSave()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks(id, user_id, title, description, completed, category_id, priority, estimate, due_date, suggestions_json, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.UserID, task.Title, task.Description, task.Completed, task.CategoryID,
		task.Priority, task.Estimate, task.DueDate, task.SuggestionsJSON, task.CreatedAt,
	)
	if err != nil {
		return models.Task{}, apperr.Dependency("failed to save task", err)
	}

	created, err := s.GetTask(ctx, userID, task.ID)
	if err != nil {
		return models.Task{}, err
	}

	s.recordEvent(ctx, userID, EventTaskCreate, fmt.Sprintf("Task '%s' created.", created.Title), created.ID)
	s.notify(userID, ActionTaskCreated, created)
	return created, nil
}

// UpdateTask applies the fields present in update. Priority, estimate and
// suggestions are never re-derived. Concurrent updates of the same task are
// not serialized; the last write wins.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, update models.TaskUpdate) (models.Task, error) {
	existing, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	next := existing

	if update.Title.Set && update.Title.Null {
		return models.Task{}, apperr.Validation("Task title is required")
	}
	if update.Title.HasValue() {
		title := strings.TrimSpace(update.Title.Value)
		if title == "" {
			return models.Task{}, apperr.Validation("Task title is required")
		}
		next.Title = title
	}
	if update.Description.Set {
		next.Description = update.Description.Value
	}
	if update.Completed.HasValue() {
		next.Completed = update.Completed.Value
	}
	if update.Priority.HasValue() && strings.TrimSpace(update.Priority.Value) != "" {
		next.Priority = strings.TrimSpace(update.Priority.Value)
	}
	if update.Estimate.HasValue() && strings.TrimSpace(update.Estimate.Value) != "" {
		next.Estimate = strings.TrimSpace(update.Estimate.Value)
	}
	if update.CategoryID.Set {
		var requested *string
		if update.CategoryID.HasValue() {
			requested = &update.CategoryID.Value
		}
		next.CategoryID, err = s.resolveCategory(ctx, requested)
		if err != nil {
			return models.Task{}, err
		}
	}
	dueChanged := false
	if update.DueDate.Set {
		next.DueDate = nil
		if update.DueDate.HasValue() {
			next.DueDate, err = parseDueDate(update.DueDate.Value)
			if err != nil {
				return models.Task{}, err
			}
		}
		dueChanged = !sameTime(existing.DueDate, next.DueDate)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, completed = ?, category_id = ?, priority = ?, estimate = ?, due_date = ?,
		    reminded_at = CASE WHEN ? THEN NULL ELSE reminded_at END
		WHERE id = ? AND user_id = ?`,
		next.Title, next.Description, next.Completed, next.CategoryID, next.Priority, next.Estimate, next.DueDate,
		dueChanged, taskID, userID,
	)
	if err != nil {
		return models.Task{}, apperr.Dependency("failed to update task", err)
	}

	updated, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if !existing.Completed && updated.Completed {
		s.recordEvent(ctx, userID, EventTaskComplete, fmt.Sprintf("Task '%s' completed.", updated.Title), updated.ID)
	} else {
		s.recordEvent(ctx, userID, EventTaskUpdate, fmt.Sprintf("Task '%s' updated.", updated.Title), updated.ID)
	}
	s.notify(userID, ActionTaskUpdated, updated)
	return updated, nil
}

// DeleteTask permanently removes an owned task. Deleting twice reports not found.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	if err != nil {
		return apperr.Dependency("failed to delete task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Dependency("failed to delete task", err)
	}
	if n == 0 {
		return apperr.NotFound("Task not found")
	}

	s.recordEvent(ctx, userID, EventTaskDelete, "Task deleted.", taskID)
	s.notify(userID, ActionTaskDeleted, map[string]string{"id": taskID})
	return nil
}

// PreviewSuggestions runs the suggestion engine without storing anything.
func (s *TaskService) PreviewSuggestions(title, description string) ([]string, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return nil, apperr.Validation("Both title and description are required")
	}
	return suggestions.Generate(title, description), nil
}

// GetTaskStats counts the caller's tasks.
func (s *TaskService) GetTaskStats(ctx context.Context, userID string) (models.TaskStats, error) {
	var stats models.TaskStats
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) FROM tasks WHERE user_id = ?", userID).
		Scan(&stats.Total, &stats.Completed)
	if err != nil {
		return models.TaskStats{}, apperr.Dependency("failed to count tasks", err)
	}
	return stats, nil
}

// ListDueForReminder returns open tasks due before the cutoff that have not been reminded yet.
func (s *TaskService) ListDueForReminder(ctx context.Context, dueBefore time.Time) ([]models.DueTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.title, t.due_date, u.email, u.username
		FROM tasks t JOIN users u ON u.id = t.user_id
		WHERE t.completed = FALSE AND t.reminded_at IS NULL AND t.due_date IS NOT NULL AND t.due_date <= ?
		ORDER BY t.due_date`, dueBefore.UTC())
	if err != nil {
		return nil, apperr.Dependency("failed to load due tasks", err)
	}
	defer rows.Close()

	var due []models.DueTask
	for rows.Next() {
		var d models.DueTask
		var dueDate time.Time
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &dueDate, &d.OwnerEmail, &d.OwnerUsername); err != nil {
			return nil, apperr.Dependency("failed to read due task", err)
		}
		d.DueDate = &dueDate
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency("failed to read due tasks", err)
	}
	return due, nil
}

// MarkReminded records that a reminder for the task was sent.
func (s *TaskService) MarkReminded(ctx context.Context, taskID string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE tasks SET reminded_at = ? WHERE id = ?", at.UTC(), taskID); err != nil {
		return apperr.Dependency("failed to mark task reminded", err)
	}
	return nil
}

// resolveCategory returns nil for a nil or blank id, the id when it names an
// existing category, and a validation error otherwise.
func (s *TaskService) resolveCategory(ctx context.Context, categoryID *string) (*string, error) {
	if categoryID == nil || strings.TrimSpace(*categoryID) == "" {
		return nil, nil
	}
	id := strings.TrimSpace(*categoryID)
	if _, err := s.categoryService.GetCategoryByID(ctx, id); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation("Invalid category ID")
		}
		return nil, err
	}
	return &id, nil
}

func (s *TaskService) recordEvent(ctx context.Context, userID, eventType, message, taskID string) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.CreateEvent(ctx, userID, eventType, message, &taskID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("task_id", taskID).Msg("Failed to record task event")
	}
}

func (s *TaskService) notify(userID, action string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.NotifyUser(userID, action, payload)
	}
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDueDate accepts RFC 3339 timestamps, local date-times and plain dates.
// A blank string means "no due date".
func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, apperr.Validation("Invalid due date format")
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// scanTask is a helper to scan a task from a row or rows object.
func scanTask(scanner interface{ Scan(...interface{}) error }) (models.Task, error) {
	var task models.Task
	var categoryID, categoryName sql.NullString
	var dueDate sql.NullTime

	err := scanner.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.Completed,
		&categoryID, &categoryName, &task.Priority, &task.Estimate, &dueDate,
		&task.SuggestionsJSON, &task.CreatedAt,
	)
	if err != nil {
		return task, err
	}

	if categoryID.Valid {
		task.CategoryID = &categoryID.String
		task.CategoryName = categoryName.String
	}
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}

	task.PrepareForAPI()
	return task, nil
}
