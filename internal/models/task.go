package models

import (
	"encoding/json"
	"time"
)

// UncategorizedName is reported for tasks without a category.
const UncategorizedName = "Uncategorized"

// Task represents a single to-do item owned by one user.
type Task struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Completed    bool       `json:"completed"`
	CategoryID   *string    `json:"category_id"`
	CategoryName string     `json:"category_name"`
	Priority     string     `json:"priority"`
	Estimate     string     `json:"estimate"`
	DueDate      *time.Time `json:"due_date"`
	CreatedAt    time.Time  `json:"created_at"`

	// JSON string field for DB storage
	SuggestionsJSON string `json:"-"`

	// Slice field for API interaction
	Suggestions []string `json:"suggestions"`
}

// PrepareForSave marshals the suggestions into their JSON string for DB storage.
func (t *Task) PrepareForSave() {
	if t.Suggestions == nil {
		t.Suggestions = []string{}
	}
	suggestionsBytes, _ := json.Marshal(t.Suggestions)
	t.SuggestionsJSON = string(suggestionsBytes)
}

// PrepareForAPI unmarshals the stored suggestions and fills the category label.
func (t *Task) PrepareForAPI() {
	if t.SuggestionsJSON != "" {
		json.Unmarshal([]byte(t.SuggestionsJSON), &t.Suggestions)
	}
	if t.Suggestions == nil {
		t.Suggestions = []string{}
	}
	if t.CategoryID == nil || t.CategoryName == "" {
		t.CategoryName = UncategorizedName
	}
}

// NewTask is the caller-supplied input of a create.
type NewTask struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CategoryID  *string `json:"category_id"`
	DueDate     *string `json:"due_date"`
}

// TaskUpdate is a partial update. Absent fields keep their stored value;
// an explicit null clears the nullable ones (category_id, due_date).
// Absent fields are also left out when encoding.
type TaskUpdate struct {
	Title       Optional[string] `json:"title,omitzero"`
	Description Optional[string] `json:"description,omitzero"`
	Completed   Optional[bool]   `json:"completed,omitzero"`
	CategoryID  Optional[string] `json:"category_id,omitzero"`
	Priority    Optional[string] `json:"priority,omitzero"`
	Estimate    Optional[string] `json:"estimate,omitzero"`
	DueDate     Optional[string] `json:"due_date,omitzero"`
}

// TaskStats summarizes progress for one user.
type TaskStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// DueTask is a task joined with its owner's contact details, used for reminders.
type DueTask struct {
	Task
	OwnerEmail    string
	OwnerUsername string
}
