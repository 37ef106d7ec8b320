package services

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/smarttodo-be/internal/apperr"
	"github.com/isdelr/smarttodo-be/internal/models"
	"github.com/isdelr/smarttodo-be/internal/suggestions"
)

func strPtr(s string) *string { return &s }

func TestEndToEndRegisterLoginCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, "u1", "e1@x.com", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := env.auth.Login(ctx, "e1@x.com", "pw")
	if err != nil || res.Token == "" {
		t.Fatalf("login: %q %v", res.Token, err)
	}
	claims, err := env.auth.VerifyToken("Bearer " + res.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	task, err := env.tasks.CreateTask(ctx, claims.UserID, models.NewTask{Title: "Test", Description: "", CategoryID: nil})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Priority != "Low" || task.Estimate != "30 mins" {
		t.Fatalf("unexpected derived fields %q %q", task.Priority, task.Estimate)
	}
	if !reflect.DeepEqual(task.Suggestions, []string{"Start with a clear first step"}) {
		t.Fatalf("unexpected suggestions %v", task.Suggestions)
	}
	if task.CategoryName != models.UncategorizedName || task.ID == "" || task.Completed {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestCreateTaskDerivedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	long, err := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "Chores", Description: strings.Repeat("x", 120)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if long.Priority != suggestions.PriorityMedium || long.Estimate != suggestions.EstimateLong {
		t.Fatalf("120 chars: got %q %q", long.Priority, long.Estimate)
	}

	urgent, err := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "Bug", Description: "urgent fix"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if urgent.Priority != suggestions.PriorityHigh || urgent.Estimate != suggestions.EstimateShort {
		t.Fatalf("urgent fix: got %q %q", urgent.Priority, urgent.Estimate)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	tests := []struct {
		name  string
		input models.NewTask
	}{
		{"empty title", models.NewTask{Title: ""}},
		{"whitespace title", models.NewTask{Title: "  \t"}},
		{"bad due date", models.NewTask{Title: "x", DueDate: strPtr("next tuesday")}},
		{"unknown category", models.NewTask{Title: "x", CategoryID: strPtr("missing")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.tasks.CreateTask(ctx, userID, tt.input); !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if n := countRows(t, env.db, "SELECT COUNT(*) FROM tasks"); n != 0 {
		t.Fatalf("expected no tasks stored, got %d", n)
	}
}

func TestCreateTaskWithCategoryAndDueDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	cat, err := env.categories.CreateCategory(ctx, "Work")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	task, err := env.tasks.CreateTask(ctx, userID, models.NewTask{
		Title:      "Ship",
		CategoryID: &cat.ID,
		DueDate:    strPtr("2030-01-02T15:04:05+02:00"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.CategoryName != "Work" || task.CategoryID == nil || *task.CategoryID != cat.ID {
		t.Fatalf("unexpected category on task %+v", task)
	}
	want := time.Date(2030, 1, 2, 13, 4, 5, 0, time.UTC)
	if task.DueDate == nil || !task.DueDate.Equal(want) {
		t.Fatalf("expected due %v, got %v", want, task.DueDate)
	}

	dateOnly, err := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "Plain", DueDate: strPtr("2030-05-06")})
	if err != nil {
		t.Fatalf("create date-only: %v", err)
	}
	if dateOnly.DueDate == nil || dateOnly.DueDate.Format("2006-01-02") != "2030-05-06" {
		t.Fatalf("unexpected date-only due %v", dateOnly.DueDate)
	}
}

func TestListTasksRoundTripAndOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	first, err := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "Learn Rust", Description: "read the book"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "Backend project", Description: "api work"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tasks, err := env.tasks.ListTasks(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", tasks)
	}
	if !reflect.DeepEqual(tasks[1].Suggestions, first.Suggestions) || !reflect.DeepEqual(tasks[0].Suggestions, second.Suggestions) {
		t.Fatal("suggestions changed between create and list")
	}
}

func TestTasksAreOwnershipScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", "a@x.com")
	bob := env.register(t, "bob", "b@x.com")

	task, err := env.tasks.CreateTask(ctx, alice, models.NewTask{Title: "Secret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bobs, err := env.tasks.ListTasks(ctx, bob)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bobs) != 0 {
		t.Fatalf("bob sees %d of alice's tasks", len(bobs))
	}

	update := models.TaskUpdate{Title: models.Some("Hijacked")}
	if _, err := env.tasks.UpdateTask(ctx, bob, task.ID, update); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on foreign update, got %v", err)
	}
	if err := env.tasks.DeleteTask(ctx, bob, task.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on foreign delete, got %v", err)
	}

	still, err := env.tasks.GetTask(ctx, alice, task.ID)
	if err != nil || still.Title != "Secret" {
		t.Fatalf("alice's task was modified: %+v %v", still, err)
	}
}

func TestDeleteTaskTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	task, err := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "Once"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.tasks.DeleteTask(ctx, userID, task.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := env.tasks.DeleteTask(ctx, userID, task.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestUpdateTaskPartialFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	cat, err := env.categories.CreateCategory(ctx, "Home")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	task, err := env.tasks.CreateTask(ctx, userID, models.NewTask{
		Title:       "Learn Go",
		Description: "study the tour",
		CategoryID:  &cat.ID,
		DueDate:     strPtr("2030-01-01"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := env.tasks.UpdateTask(ctx, userID, task.ID, models.TaskUpdate{Completed: models.Some(true)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed || updated.Title != task.Title || updated.Description != task.Description {
		t.Fatalf("absent fields changed: %+v", updated)
	}
	if updated.CategoryID == nil || *updated.CategoryID != cat.ID || updated.DueDate == nil {
		t.Fatalf("absent nullable fields were cleared: %+v", updated)
	}
	if updated.Priority != task.Priority || !reflect.DeepEqual(updated.Suggestions, task.Suggestions) {
		t.Fatal("derived fields were recomputed")
	}

	updated, err = env.tasks.UpdateTask(ctx, userID, task.ID, models.TaskUpdate{
		Description: models.Some("urgent complex rewrite of everything"),
		Priority:    models.Some(suggestions.PriorityLow),
		CategoryID:  models.Null[string](),
		DueDate:     models.Null[string](),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Priority != suggestions.PriorityLow {
		t.Fatalf("expected override priority, got %q", updated.Priority)
	}
	if updated.CategoryID != nil || updated.CategoryName != models.UncategorizedName || updated.DueDate != nil {
		t.Fatalf("explicit nulls did not clear: %+v", updated)
	}
}

func TestUpdateTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	task, err := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "Keep"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name   string
		update models.TaskUpdate
	}{
		{"blank title", models.TaskUpdate{Title: models.Some(" ")}},
		{"null title", models.TaskUpdate{Title: models.Null[string]()}},
		{"unknown category", models.TaskUpdate{CategoryID: models.Some("missing")}},
		{"bad due date", models.TaskUpdate{DueDate: models.Some("someday")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.tasks.UpdateTask(ctx, userID, task.ID, tt.update); !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, err := env.tasks.UpdateTask(ctx, userID, "no-such-task", models.TaskUpdate{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	unchanged, err := env.tasks.GetTask(ctx, userID, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if unchanged.Title != "Keep" {
		t.Fatalf("rejected updates changed the title to %q", unchanged.Title)
	}
}

func TestPreviewSuggestions(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.tasks.PreviewSuggestions("Learn Rust", "read the book")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected the 3 learning suggestions, got %v", got)
	}
	if n := countRows(t, env.db, "SELECT COUNT(*) FROM tasks"); n != 0 {
		t.Fatalf("preview persisted %d tasks", n)
	}

	for _, args := range [][2]string{{"", "x"}, {"x", ""}} {
		if _, err := env.tasks.PreviewSuggestions(args[0], args[1]); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %q, got %v", args, err)
		}
	}
}

func TestTaskStatsAndEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	a, _ := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "a"})
	if _, err := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.tasks.UpdateTask(ctx, userID, a.ID, models.TaskUpdate{Completed: models.Some(true)}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	stats, err := env.tasks.GetTaskStats(ctx, userID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Completed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	events, err := env.events.GetRecentEvents(ctx, userID, 10)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 4 || events[0].Type != EventTaskComplete || events[3].Type != EventAuthRegister {
		t.Fatalf("unexpected events %+v", events)
	}

	if len(env.notifier.sent) != 3 || env.notifier.sent[2].action != ActionTaskUpdated {
		t.Fatalf("unexpected notifications %+v", env.notifier.sent)
	}
}

func TestDueReminderSelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	soon := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)
	later := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	due, _ := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "soon", DueDate: &soon})
	env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "later", DueDate: &later})
	env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "never"})
	done, _ := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "done", DueDate: &soon})
	env.tasks.UpdateTask(ctx, userID, done.ID, models.TaskUpdate{Completed: models.Some(true)})

	cutoff := time.Now().Add(24 * time.Hour)
	list, err := env.tasks.ListDueForReminder(ctx, cutoff)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(list) != 1 || list[0].ID != due.ID || list[0].OwnerEmail != "e1@x.com" {
		t.Fatalf("unexpected due list %+v", list)
	}

	if err := env.tasks.MarkReminded(ctx, due.ID, time.Now()); err != nil {
		t.Fatalf("mark: %v", err)
	}
	list, err = env.tasks.ListDueForReminder(ctx, cutoff)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("reminded task listed again: %+v", list)
	}

	moved := time.Now().Add(3 * time.Hour).UTC().Format(time.RFC3339)
	if _, err := env.tasks.UpdateTask(ctx, userID, due.ID, models.TaskUpdate{DueDate: models.Some(moved)}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	list, _ = env.tasks.ListDueForReminder(ctx, cutoff)
	if len(list) != 1 {
		t.Fatalf("rescheduled task should be reminded again, got %+v", list)
	}
}
