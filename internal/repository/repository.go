// Package repository implements task and category persistence. Two
// implementations satisfy the same contracts: local repositories that
// rewrite a whole serialized collection in a storage.KeyValueStore, and Redis
// repositories that address one remote document per entity.
package repository

import (
	"context"
	"errors"
	"fmt"

	"todo-list/internal/model"
)

// TaskStore is the task persistence contract.
type TaskStore interface {
	Create(ctx context.Context, req model.CreateTaskRequest) (string, error)
	GetAll(ctx context.Context) ([]model.Task, error)
	GetByID(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, id string, upd model.UpdateTaskRequest) error
	Delete(ctx context.Context, id string) error

	ListByCategory(ctx context.Context, categoryID string) ([]model.Task, error)
	ListByStatus(ctx context.Context, completed bool) ([]model.Task, error)
	Search(ctx context.Context, term string) ([]model.Task, error)
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// CategoryStore is the category persistence contract.
type CategoryStore interface {
	Create(ctx context.Context, req model.CreateCategoryRequest) (string, error)
	GetAll(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id string) (*model.Category, error)
	Update(ctx context.Context, id string, upd model.UpdateCategoryRequest) error
	Delete(ctx context.Context, id string) error

	FindByName(ctx context.Context, name string) (*model.Category, error)
	// NameExists reports whether another category (not excludeID) already
	// uses name, compared case-insensitively.
	NameExists(ctx context.Context, name, excludeID string) (bool, error)
	ListByColor(ctx context.Context, color string) ([]model.Category, error)
	Stats(ctx context.Context) (model.CategoryStats, error)
}

var (
	_ TaskStore     = (*TaskRepository)(nil)
	_ TaskStore     = (*RedisTaskRepository)(nil)
	_ CategoryStore = (*CategoryRepository)(nil)
	_ CategoryStore = (*RedisCategoryRepository)(nil)
)

// ErrNotFound matches every NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// NotFoundError is returned when an update or delete addresses a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RemoteError wraps a failure of the remote document store.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
