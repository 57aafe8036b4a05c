// Package httpapi exposes the task, category, theme and flag services as a
// JSON API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"todo-list/internal/featureflag"
	"todo-list/internal/middleware"
	"todo-list/internal/service"
	"todo-list/internal/theme"
)

// FlagView is the read side of the feature flag service.
type FlagView interface {
	Flags() featureflag.Flags
	State() featureflag.State
	IsConfigInitialized() bool
}

type Options struct {
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Flags      FlagView
	Theme      *theme.Coordinator
	Document   *theme.MemoryDocument

	Limiter        *rate.Limiter
	Logger         log.FieldLogger
	RequestTimeout time.Duration
}

type api struct {
	tasks      *service.TaskService
	categories *service.CategoryService
	flags      FlagView
	theme      *theme.Coordinator
	doc        *theme.MemoryDocument
}

// NewRouter wires the routes and the middleware stack.
func NewRouter(opts Options) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	a := &api{
		tasks:      opts.Tasks,
		categories: opts.Categories,
		flags:      opts.Flags,
		theme:      opts.Theme,
		doc:        opts.Document,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Tracing)
	r.Use(middleware.Metrics)
	r.Use(chimw.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", a.health)
	r.Handle("/metrics", middleware.MetricsHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.Limiter))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", a.listTasks)
			r.Post("/", a.createTask)
			r.Get("/{id}", a.getTask)
			r.Patch("/{id}", a.updateTask)
			r.Delete("/{id}", a.deleteTask)
			r.Post("/{id}/completion", a.setCompletion)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", a.listCategories)
			r.Post("/", a.createCategory)
			r.Get("/stats", a.categoryStats)
			r.Get("/exists", a.categoryExists)
			r.Get("/by-name/{name}", a.categoryByName)
			r.Get("/{id}", a.getCategory)
			r.Patch("/{id}", a.updateCategory)
			r.Delete("/{id}", a.deleteCategory)
			r.Get("/{id}/tasks/count", a.countCategoryTasks)
		})

		r.Get("/flags", a.getFlags)
		r.Route("/theme", func(r chi.Router) {
			r.Get("/", a.getTheme)
			r.Post("/toggle", a.toggleTheme)
			r.Post("/reset", a.resetTheme)
			r.Post("/refresh", a.refreshTheme)
			r.Post("/colors", a.applyColors)
		})
	})

	return r
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"flagsInitialized":  a.flags.IsConfigInitialized(),
		"featureFlagsState": a.flags.State().String(),
	})
}
