package repository

import (
	"context"
	"strings"

	"todo-list/internal/model"
	"todo-list/internal/storage"
)

// TasksKey is the storage key holding the serialized task collection.
const TasksKey = "todo_tasks"

// TaskRepository handles CRUD for tasks kept in a local key-value store.
type TaskRepository struct {
	tasks *Collection[model.Task, model.CreateTaskRequest, model.UpdateTaskRequest]
}

func NewTaskRepository(store storage.KeyValueStore) *TaskRepository {
	return &TaskRepository{
		tasks: NewCollection(store, TasksKey, "task", model.NewTask, model.MergeTask),
	}
}

func (r *TaskRepository) Create(ctx context.Context, req model.CreateTaskRequest) (string, error) {
	return r.tasks.Create(ctx, req)
}

func (r *TaskRepository) GetAll(ctx context.Context) ([]model.Task, error) {
	return r.tasks.All(ctx)
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*model.Task, error) {
	return r.tasks.Get(ctx, id)
}

func (r *TaskRepository) Update(ctx context.Context, id string, upd model.UpdateTaskRequest) error {
	return r.tasks.Update(ctx, id, upd)
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.tasks.Delete(ctx, id)
}

func (r *TaskRepository) ListByCategory(ctx context.Context, categoryID string) ([]model.Task, error) {
	return r.tasks.Filter(ctx, func(t model.Task) bool { return t.CategoryID == categoryID })
}

func (r *TaskRepository) ListByStatus(ctx context.Context, completed bool) ([]model.Task, error) {
	return r.tasks.Filter(ctx, func(t model.Task) bool { return t.Completed == completed })
}

// Search matches term case-insensitively against title and description.
func (r *TaskRepository) Search(ctx context.Context, term string) ([]model.Task, error) {
	needle := strings.ToLower(term)
	return r.tasks.Filter(ctx, func(t model.Task) bool { return taskMatches(t, needle) })
}

func (r *TaskRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	tasks, err := r.ListByCategory(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// taskMatches expects needle to be lower-cased already.
func taskMatches(t model.Task, needle string) bool {
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		(t.Description != "" && strings.Contains(strings.ToLower(t.Description), needle))
}
