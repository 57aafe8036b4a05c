package service

import (
	"context"
	"strings"

	"todo-list/internal/model"
	"todo-list/internal/repository"
)

// TaskService wraps task-related business logic.
type TaskService struct {
	tasks repository.TaskStore
}

func NewTaskService(tasks repository.TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

// CreateTask trims the input and stores a new, not yet completed task.
func (s *TaskService) CreateTask(ctx context.Context, input model.CreateTaskRequest) (string, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return "", invalid("title", "task title is required")
	}
	id, err := s.tasks.Create(ctx, model.CreateTaskRequest{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CategoryID:  strings.TrimSpace(input.CategoryID),
	})
	logFailure("task", "create", err)
	return id, err
}

func (s *TaskService) GetTasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.tasks.GetAll(ctx)
	logFailure("task", "list", err)
	return tasks, err
}

func (s *TaskService) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	if err := requireID("id", taskID, "task"); err != nil {
		return nil, err
	}
	return s.tasks.GetByID(ctx, taskID)
}

func (s *TaskService) GetTasksByCategory(ctx context.Context, categoryID string) ([]model.Task, error) {
	if err := requireID("categoryId", categoryID, "category"); err != nil {
		return nil, err
	}
	return s.tasks.ListByCategory(ctx, categoryID)
}

func (s *TaskService) GetTasksByStatus(ctx context.Context, completed bool) ([]model.Task, error) {
	return s.tasks.ListByStatus(ctx, completed)
}

// UpdateTask applies the fields present in updates after trimming them.
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, updates model.UpdateTaskRequest) error {
	if err := requireID("id", taskID, "task"); err != nil {
		return err
	}

	var clean model.UpdateTaskRequest
	if updates.Title != nil {
		title := strings.TrimSpace(*updates.Title)
		if title == "" {
			return invalid("title", "task title cannot be empty")
		}
		clean.Title = &title
	}
	if updates.Description != nil {
		desc := strings.TrimSpace(*updates.Description)
		clean.Description = &desc
	}
	if updates.CategoryID != nil {
		cid := strings.TrimSpace(*updates.CategoryID)
		clean.CategoryID = &cid
	}
	clean.Completed = updates.Completed

	err := s.tasks.Update(ctx, taskID, clean)
	logFailure("task", "update", err)
	return err
}

func (s *TaskService) ToggleTaskCompletion(ctx context.Context, taskID string, completed bool) error {
	if err := requireID("id", taskID, "task"); err != nil {
		return err
	}
	err := s.tasks.Update(ctx, taskID, model.UpdateTaskRequest{Completed: &completed})
	logFailure("task", "toggle", err)
	return err
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	if err := requireID("id", taskID, "task"); err != nil {
		return err
	}
	err := s.tasks.Delete(ctx, taskID)
	logFailure("task", "delete", err)
	return err
}

// SearchTasks returns every task when term is blank.
func (s *TaskService) SearchTasks(ctx context.Context, term string) ([]model.Task, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.GetTasks(ctx)
	}
	return s.tasks.Search(ctx, term)
}

func (s *TaskService) GetTasksCountByCategory(ctx context.Context, categoryID string) (int, error) {
	if err := requireID("categoryId", categoryID, "category"); err != nil {
		return 0, err
	}
	return s.tasks.CountByCategory(ctx, categoryID)
}
