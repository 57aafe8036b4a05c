package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"todo-list/internal/model"
	"todo-list/internal/repository"
)

func (a *api) listCategories(w http.ResponseWriter, r *http.Request) {
	var (
		categories []model.Category
		err        error
	)
	if color := r.URL.Query().Get("color"); color != "" {
		categories, err = a.categories.GetCategoriesByColor(r.Context(), color)
	} else {
		categories, err = a.categories.GetCategories(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *api) createCategory(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCategoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := a.categories.CreateCategory(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (a *api) getCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category, err := a.categories.GetCategoryByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if category == nil {
		writeError(w, r, &repository.NotFoundError{Entity: "category", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (a *api) categoryByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	category, err := a.categories.GetCategoryByName(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if category == nil {
		writeError(w, r, &repository.NotFoundError{Entity: "category", ID: name})
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (a *api) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCategoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.categories.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.categories.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) categoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.categories.GetCategoryStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *api) categoryExists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exists, err := a.categories.CategoryNameExists(r.Context(), q.Get("name"), q.Get("excludeId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (a *api) countCategoryTasks(w http.ResponseWriter, r *http.Request) {
	n, err := a.tasks.GetTasksCountByCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}
