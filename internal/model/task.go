package model

import "time"

// Task represents a single to-do item.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CategoryID  string    `json:"categoryId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Key returns the task identifier.
func (t Task) Key() string { return t.ID }

// LastUpdated reports when the task was last modified.
func (t Task) LastUpdated() time.Time { return t.UpdatedAt }

// CreateTaskRequest carries the fields accepted when creating a task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"categoryId,omitempty"`
}

// UpdateTaskRequest is a partial update. Nil fields are left untouched.
// A non-nil empty Description or CategoryID clears the field.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
}

// IsEmpty reports whether the update carries no fields.
func (u UpdateTaskRequest) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil && u.CategoryID == nil
}

// NewTask builds a task from a create request.
func NewTask(id string, req CreateTaskRequest, now time.Time) Task {
	return Task{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MergeTask copies the fields present in upd over task and stamps UpdatedAt.
func MergeTask(task Task, upd UpdateTaskRequest, now time.Time) Task {
	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Completed != nil {
		task.Completed = *upd.Completed
	}
	if upd.CategoryID != nil {
		task.CategoryID = *upd.CategoryID
	}
	task.UpdatedAt = now
	return task
}
