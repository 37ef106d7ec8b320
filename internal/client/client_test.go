package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/isdelr/smarttodo-be/internal/models"
)

func TestLoadSessionMissingFile(t *testing.T) {
	s := LoadSession(filepath.Join(t.TempDir(), "session.yaml"))
	if s.LoggedIn() || s.User != nil {
		t.Fatalf("expected empty session, got %+v", s)
	}
}

func TestLoadSessionCorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "{{{ not yaml"},
		{"wrong shape", "- a\n- b\n"},
		{"token without user", "token: abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if s := LoadSession(path); s.LoggedIn() {
				t.Fatalf("corrupt session should load as logged out, got %+v", s)
			}
		})
	}
}

func TestSessionSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	s := LoadSession(path)

	user := models.UserSummary{ID: "u-1", Username: "ann", Email: "ann@example.com"}
	if err := s.Save("tok", user); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := LoadSession(path)
	if loaded.Token != "tok" || loaded.User == nil || *loaded.User != user {
		t.Fatalf("unexpected loaded session %+v", loaded)
	}

	if err := loaded.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected session file to be removed, got %v", err)
	}
	if LoadSession(path).LoggedIn() {
		t.Fatal("expected logged out after clear")
	}
	if err := loaded.Clear(); err != nil {
		t.Fatalf("clearing twice: %v", err)
	}
}

func TestLoginSavesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(models.AuthResult{
			Token: "fresh",
			User:  models.UserSummary{ID: "u-1", Username: "ann", Email: "ann@example.com"},
		})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "session.yaml")
	c := New(srv.URL, LoadSession(path))
	if _, err := c.Login(context.Background(), "ann@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if reloaded := LoadSession(path); reloaded.Token != "fresh" {
		t.Fatalf("expected persisted token, got %+v", reloaded)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer stale" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid or expired token"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "session.yaml")
	s := LoadSession(path)
	if err := s.Save("stale", models.UserSummary{ID: "u-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	c := New(srv.URL, s)
	_, err := c.ListTasks(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if s.LoggedIn() || LoadSession(path).LoggedIn() {
		t.Fatal("expected session to be cleared after 401")
	}

	if _, err := c.ListTasks(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn without a session, got %v", err)
	}
}

func TestLoginFailureKeepsServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid credentials"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "session.yaml")
	c := New(srv.URL, LoadSession(path))

	_, err := c.Login(context.Background(), "ann@example.com", "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Invalid credentials" {
		t.Fatalf("expected server message verbatim, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("failed login must not write a session")
	}
}

func TestUpdateTaskSendsOnlyPresentFields(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tasks/t-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Task updated successfully",
			"task":    models.Task{ID: "t-1", Completed: true},
		})
	}))
	defer srv.Close()

	s := LoadSession(filepath.Join(t.TempDir(), "session.yaml"))
	s.Token = "tok"
	c := New(srv.URL, s)

	task, err := c.UpdateTask(context.Background(), "t-1", models.TaskUpdate{Completed: models.Some(true)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !task.Completed || len(got) != 1 || got["completed"] != true {
		t.Fatalf("unexpected exchange: task %+v body %v", task, got)
	}
}
