package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/smarttodo-be/internal/models"
	"github.com/isdelr/smarttodo-be/internal/services"
)

// TaskHandler handles HTTP requests for the caller's tasks.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// SuggestionsPayload is the body of a suggestion preview.
type SuggestionsPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SuggestionsResponse wraps a suggestion preview.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// TaskUpdateResponse is returned by a successful update.
type TaskUpdateResponse struct {
	Message string      `json:"message"`
	Task    models.Task `json:"task"`
}

// GetAll lists the caller's tasks, newest first.
func (h *TaskHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// Get returns one of the caller's tasks.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetTask(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Create stores a new task for the caller.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var payload models.NewTask
	if !decodeJSON(w, r, &payload) {
		return
	}

	task, err := h.service.CreateTask(r.Context(), id, payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// Update applies a partial update to one of the caller's tasks.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var payload models.TaskUpdate
	if !decodeJSON(w, r, &payload) {
		return
	}

	task, err := h.service.UpdateTask(r.Context(), id, chi.URLParam(r, "id"), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, TaskUpdateResponse{Message: "Task updated successfully", Task: task})
}

// Delete removes one of the caller's tasks.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

// Suggestions previews the suggestion engine without storing anything.
func (h *TaskHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	var payload SuggestionsPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	suggestions, err := h.service.PreviewSuggestions(payload.Title, payload.Description)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: suggestions})
}

// Stats reports how many of the caller's tasks are done.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetTaskStats(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
