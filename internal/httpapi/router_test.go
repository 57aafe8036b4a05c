package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/time/rate"

	"todo-list/internal/featureflag"
	"todo-list/internal/model"
	"todo-list/internal/repository"
	"todo-list/internal/service"
	"todo-list/internal/storage"
	"todo-list/internal/theme"
)

type fixture struct {
	router http.Handler
	store  *storage.MemoryStore
	flags  *featureflag.Service
}

func newFixture(t *testing.T, tasks repository.TaskStore, categories repository.CategoryStore, limiter *rate.Limiter) fixture {
	t.Helper()
	flags := featureflag.NewService(featureflag.UnsupportedSource{}, featureflag.Settings{FetchTimeout: 0})
	flags.Initialize(context.Background())

	doc := theme.NewMemoryDocument()
	coord := theme.NewCoordinator(doc, theme.StaticPreference("light"), flags.DarkMode(), flags)
	t.Cleanup(coord.Close)

	logger, _ := logtest.NewNullLogger()
	return fixture{
		router: NewRouter(Options{
			Tasks:      service.NewTaskService(tasks),
			Categories: service.NewCategoryService(categories),
			Flags:      flags,
			Theme:      coord,
			Document:   doc,
			Limiter:    limiter,
			Logger:     logger,
		}),
		flags: flags,
	}
}

func newLocalFixture(t *testing.T) fixture {
	store := storage.NewMemoryStore()
	f := newFixture(t, repository.NewTaskRepository(store), repository.NewCategoryRepository(store), nil)
	f.store = store
	return f
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	body := decodeBody[errResponse](t, rec)
	if body.Error != code || body.Notification == "" {
		t.Fatalf("unexpected error body %+v", body)
	}
	return body
}

func TestTaskLifecycle(t *testing.T) {
	f := newLocalFixture(t)

	rec := f.do(t, http.MethodPost, "/tasks", `{"title":"  buy milk ","categoryId":"c1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	id := decodeBody[createdResponse](t, rec).ID

	task := decodeBody[model.Task](t, f.do(t, http.MethodGet, "/tasks/"+id, ""))
	if task.Title != "buy milk" || task.Completed || task.CategoryID != "c1" {
		t.Fatalf("unexpected task %+v", task)
	}

	if rec := f.do(t, http.MethodPatch, "/tasks/"+id, `{"description":"2 liters"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodPost, "/tasks/"+id+"/completion", `{"completed":true}`); rec.Code != http.StatusNoContent {
		t.Fatalf("completion: %d %s", rec.Code, rec.Body.String())
	}
	task = decodeBody[model.Task](t, f.do(t, http.MethodGet, "/tasks/"+id, ""))
	if task.Description != "2 liters" || !task.Completed || task.Title != "buy milk" {
		t.Fatalf("unexpected task after update %+v", task)
	}

	done := decodeBody[[]model.Task](t, f.do(t, http.MethodGet, "/tasks?completed=true", ""))
	if len(done) != 1 {
		t.Fatalf("expected one completed task, got %d", len(done))
	}
	byCat := decodeBody[[]model.Task](t, f.do(t, http.MethodGet, "/tasks?category=c1", ""))
	if len(byCat) != 1 {
		t.Fatalf("expected one task in c1, got %d", len(byCat))
	}
	found := decodeBody[[]model.Task](t, f.do(t, http.MethodGet, "/tasks?q=MILK", ""))
	if len(found) != 1 {
		t.Fatalf("expected one search hit, got %d", len(found))
	}
	count := decodeBody[map[string]int](t, f.do(t, http.MethodGet, "/categories/c1/tasks/count", ""))
	if count["count"] != 1 {
		t.Fatalf("unexpected count %v", count)
	}

	if rec := f.do(t, http.MethodDelete, "/tasks/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	expectError(t, f.do(t, http.MethodGet, "/tasks/"+id, ""), http.StatusNotFound, "not_found")
	expectError(t, f.do(t, http.MethodDelete, "/tasks/"+id, ""), http.StatusNotFound, "not_found")
}

func TestTaskValidationErrors(t *testing.T) {
	f := newLocalFixture(t)

	body := expectError(t, f.do(t, http.MethodPost, "/tasks", `{"title":"   "}`), http.StatusUnprocessableEntity, "validation_error")
	if body.Field != "title" {
		t.Fatalf("expected title field, got %+v", body)
	}
	expectError(t, f.do(t, http.MethodPost, "/tasks", `{"title":`), http.StatusBadRequest, "invalid_json")
	expectError(t, f.do(t, http.MethodPost, "/tasks", `{"title":"x","priority":1}`), http.StatusBadRequest, "invalid_json")
	expectError(t, f.do(t, http.MethodGet, "/tasks?completed=maybe", ""), http.StatusUnprocessableEntity, "validation_error")
	expectError(t, f.do(t, http.MethodPatch, "/tasks/nope", `{"title":"x"}`), http.StatusNotFound, "not_found")
}

func TestCategoryEndpoints(t *testing.T) {
	f := newLocalFixture(t)

	rec := f.do(t, http.MethodPost, "/categories", `{"name":"Work","color":"#FFAA00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	id := decodeBody[createdResponse](t, rec).ID
	f.do(t, http.MethodPost, "/categories", `{"name":"home","color":"#fff"}`)

	expectError(t, f.do(t, http.MethodPost, "/categories", `{"name":"work","color":"#000"}`), http.StatusUnprocessableEntity, "validation_error")
	expectError(t, f.do(t, http.MethodPost, "/categories", `{"name":"gym","color":"red"}`), http.StatusUnprocessableEntity, "validation_error")

	cat := decodeBody[model.Category](t, f.do(t, http.MethodGet, "/categories/"+id, ""))
	if cat.Color != "#ffaa00" {
		t.Fatalf("expected lower-cased color, got %q", cat.Color)
	}
	list := decodeBody[[]model.Category](t, f.do(t, http.MethodGet, "/categories", ""))
	if len(list) != 2 || list[0].Name != "home" {
		t.Fatalf("unexpected list %+v", list)
	}
	byColor := decodeBody[[]model.Category](t, f.do(t, http.MethodGet, "/categories?color=%23FFF", ""))
	if len(byColor) != 1 || byColor[0].Name != "home" {
		t.Fatalf("unexpected color filter result %+v", byColor)
	}
	byName := decodeBody[model.Category](t, f.do(t, http.MethodGet, "/categories/by-name/WORK", ""))
	if byName.ID != id {
		t.Fatalf("unexpected lookup %+v", byName)
	}
	exists := decodeBody[map[string]bool](t, f.do(t, http.MethodGet, "/categories/exists?name=work&excludeId="+id, ""))
	if exists["exists"] {
		t.Fatalf("a category must not collide with itself")
	}
	stats := decodeBody[model.CategoryStats](t, f.do(t, http.MethodGet, "/categories/stats", ""))
	if stats.Total != 2 || stats.Colors["#fff"] != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if rec := f.do(t, http.MethodPatch, "/categories/"+id, `{"name":"Office"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodDelete, "/categories/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	expectError(t, f.do(t, http.MethodGet, "/categories/"+id, ""), http.StatusNotFound, "not_found")
}

func TestStorageErrorIsReported(t *testing.T) {
	f := newLocalFixture(t)
	f.store.SetRaw(repository.TasksKey, "{not json")

	expectError(t, f.do(t, http.MethodGet, "/tasks", ""), http.StatusInternalServerError, "storage_error")
	// Still usable for other collections.
	if rec := f.do(t, http.MethodGet, "/categories", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected categories to load, got %d", rec.Code)
	}
}

func TestRemoteErrors(t *testing.T) {
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	f := newFixture(t, repository.NewRedisTaskRepository(rdb, "t"), repository.NewRedisCategoryRepository(rdb, "t"), nil)

	if rec := f.do(t, http.MethodPost, "/tasks", `{"title":"remote"}`); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	m.SetError("LOADING server is loading")
	rec := f.do(t, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("reads should degrade to an empty list, got %d %s", rec.Code, rec.Body.String())
	}
	expectError(t, f.do(t, http.MethodPost, "/tasks", `{"title":"again"}`), http.StatusBadGateway, "remote_error")
}

func TestThemeAndFlags(t *testing.T) {
	f := newLocalFixture(t)

	got := decodeBody[themeResponse](t, f.do(t, http.MethodGet, "/theme", ""))
	if !got.DarkMode || len(got.Classes) != 1 || got.Classes[0] != theme.DarkClass {
		t.Fatalf("expected default dark theme, got %+v", got)
	}

	got = decodeBody[themeResponse](t, f.do(t, http.MethodPost, "/theme/toggle", ""))
	if got.DarkMode || got.Classes[0] != theme.LightClass {
		t.Fatalf("toggle should switch to light, got %+v", got)
	}
	got = decodeBody[themeResponse](t, f.do(t, http.MethodPost, "/theme/toggle", ""))
	if !got.DarkMode {
		t.Fatalf("second toggle should switch back to dark")
	}
	got = decodeBody[themeResponse](t, f.do(t, http.MethodPost, "/theme/reset", ""))
	if got.DarkMode {
		t.Fatalf("reset should follow the light system preference")
	}

	got = decodeBody[themeResponse](t, f.do(t, http.MethodPost, "/theme/colors", `{"primary":"#3880ff"}`))
	if got.Properties["--primary"] != "#3880ff" {
		t.Fatalf("unexpected properties %v", got.Properties)
	}
	expectError(t, f.do(t, http.MethodPost, "/theme/colors", `{"":"#000"}`), http.StatusUnprocessableEntity, "validation_error")

	refreshed := decodeBody[refreshResponse](t, f.do(t, http.MethodPost, "/theme/refresh", ""))
	if refreshed.Refreshed {
		t.Fatalf("refresh cannot succeed without a remote source")
	}

	flags := decodeBody[flagsResponse](t, f.do(t, http.MethodGet, "/flags", ""))
	if flags.State != featureflag.ReadyWithDefaults.String() || !flags.Initialized || flags.Flags != featureflag.Defaults {
		t.Fatalf("unexpected flags %+v", flags)
	}
}

func TestRateLimitSkipsHealth(t *testing.T) {
	store := storage.NewMemoryStore()
	f := newFixture(t, repository.NewTaskRepository(store), repository.NewCategoryRepository(store), rate.NewLimiter(rate.Every(1<<62), 1))

	if rec := f.do(t, http.MethodGet, "/tasks", ""); rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/tasks", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	for i := 0; i < 3; i++ {
		if rec := f.do(t, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
			t.Fatalf("health must not be rate limited, got %d", rec.Code)
		}
	}
}

type recordingRefresher struct {
	ctx context.Context
}

func (r *recordingRefresher) Refresh(ctx context.Context) bool {
	r.ctx = ctx
	return true
}

func TestThemeRefreshOutlivesRequestTimeout(t *testing.T) {
	flags := featureflag.NewService(featureflag.UnsupportedSource{}, featureflag.Settings{})
	flags.Initialize(context.Background())
	refresher := &recordingRefresher{}
	doc := theme.NewMemoryDocument()
	coord := theme.NewCoordinator(doc, theme.StaticPreference("light"), flags.DarkMode(), refresher)
	t.Cleanup(coord.Close)

	store := storage.NewMemoryStore()
	logger, _ := logtest.NewNullLogger()
	f := fixture{router: NewRouter(Options{
		Tasks:          service.NewTaskService(repository.NewTaskRepository(store)),
		Categories:     service.NewCategoryService(repository.NewCategoryRepository(store)),
		Flags:          flags,
		Theme:          coord,
		Document:       doc,
		Logger:         logger,
		RequestTimeout: 50 * time.Millisecond,
	})}

	refreshed := decodeBody[refreshResponse](t, f.do(t, http.MethodPost, "/theme/refresh", ""))
	if !refreshed.Refreshed {
		t.Fatalf("expected the refresher result to be reported")
	}
	if refresher.ctx == nil {
		t.Fatalf("refresher was not called")
	}
	if _, ok := refresher.ctx.Deadline(); ok {
		t.Fatalf("refresh must not inherit the request deadline")
	}
	if refresher.ctx.Err() != nil {
		t.Fatalf("refresh context canceled: %v", refresher.ctx.Err())
	}
}
