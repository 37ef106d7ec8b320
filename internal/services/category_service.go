package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/smarttodo-be/internal/apperr"
	"github.com/isdelr/smarttodo-be/internal/models"
)

// CategoryServiceProvider defines the interface for category services.
type CategoryServiceProvider interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id string) (models.Category, error)
	CreateCategory(ctx context.Context, name string) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CategoryService provides business logic for category management.
// Categories are shared by all users.
type CategoryService struct {
	db *sql.DB
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{db: db}
}

// GetAllCategories retrieves all categories ordered by name.
func (s *CategoryService) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at FROM categories ORDER BY name COLLATE NOCASE, created_at")
	if err != nil {
		return nil, apperr.Dependency("failed to load categories", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, apperr.Dependency("failed to read category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency("failed to read categories", err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a single category by its ID.
func (s *CategoryService) GetCategoryByID(ctx context.Context, id string) (models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, "SELECT id, name, created_at FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Category{}, apperr.NotFound("Category not found")
		}
		return models.Category{}, apperr.Dependency("failed to load category", err)
	}
	return c, nil
}

// CreateCategory adds a new category.
func (s *CategoryService) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, apperr.Validation("Category name is required")
	}

	c := models.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO categories(id, name, created_at) VALUES(?, ?, ?)", c.ID, c.Name, c.CreatedAt)
	if err != nil {
		return models.Category{}, apperr.Dependency("failed to create category", err)
	}
	return c, nil
}

// DeleteCategory removes a category. Tasks pointing at it become uncategorized
// in the same transaction.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Dependency("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE tasks SET category_id = NULL WHERE category_id = ?", id); err != nil {
		return apperr.Dependency("failed to detach tasks from category", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return apperr.Dependency("failed to delete category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Dependency("failed to delete category", err)
	}
	if n == 0 {
		return apperr.NotFound("Category not found")
	}

	if err := tx.Commit(); err != nil {
		return apperr.Dependency("failed to commit category delete", err)
	}
	return nil
}
