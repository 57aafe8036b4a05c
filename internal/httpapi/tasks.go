package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"todo-list/internal/model"
	"todo-list/internal/repository"
	"todo-list/internal/service"
)

type createdResponse struct {
	ID string `json:"id"`
}

type completionRequest struct {
	Completed bool `json:"completed"`
}

// listTasks honours at most one filter: category, completed or q, in that
// order of precedence.
func (a *api) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		tasks []model.Task
		err   error
	)
	switch {
	case q.Has("category"):
		tasks, err = a.tasks.GetTasksByCategory(r.Context(), q.Get("category"))
	case q.Has("completed"):
		completed, perr := strconv.ParseBool(q.Get("completed"))
		if perr != nil {
			writeError(w, r, &service.ValidationError{Field: "completed", Message: "completed must be true or false"})
			return
		}
		tasks, err = a.tasks.GetTasksByStatus(r.Context(), completed)
	case q.Has("q"):
		tasks, err = a.tasks.SearchTasks(r.Context(), q.Get("q"))
	default:
		tasks, err = a.tasks.GetTasks(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (a *api) createTask(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := a.tasks.CreateTask(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (a *api) getTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, err := a.tasks.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if task == nil {
		writeError(w, r, &repository.NotFoundError{Entity: "task", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *api) updateTask(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.tasks.UpdateTask(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) setCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.tasks.ToggleTaskCompletion(r.Context(), chi.URLParam(r, "id"), req.Completed); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := a.tasks.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
