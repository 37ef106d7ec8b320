package services

import (
	"context"
	"testing"

	"github.com/isdelr/smarttodo-be/internal/apperr"
	"github.com/isdelr/smarttodo-be/internal/models"
)

func TestCategoryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.categories.CreateCategory(ctx, "  "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	work, err := env.categories.CreateCategory(ctx, " Work ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if work.Name != "Work" {
		t.Fatalf("expected trimmed name, got %q", work.Name)
	}
	if _, err := env.categories.CreateCategory(ctx, "errands"); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := env.categories.GetAllCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Name != "errands" || all[1].Name != "Work" {
		t.Fatalf("expected case-insensitive name order, got %+v", all)
	}

	got, err := env.categories.GetCategoryByID(ctx, work.ID)
	if err != nil || got.Name != "Work" {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := env.categories.GetCategoryByID(ctx, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteCategoryUncategorizesTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "u1", "e1@x.com")

	cat, err := env.categories.CreateCategory(ctx, "Work")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	task, err := env.tasks.CreateTask(ctx, userID, models.NewTask{Title: "Report", CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := env.categories.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.categories.DeleteCategory(ctx, cat.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	after, err := env.tasks.GetTask(ctx, userID, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if after.CategoryID != nil || after.CategoryName != models.UncategorizedName {
		t.Fatalf("expected task to be uncategorized, got %+v", after)
	}
}
