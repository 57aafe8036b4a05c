package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"todo-list/internal/model"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return m, rc
}

// steppingClock advances by one second on every call.
func steppingClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func TestRedisTaskRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	m, rc := newRedis(t)
	repo := NewRedisTaskRepository(rc, "test")
	repo.now = steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	id, err := repo.Create(ctx, model.CreateTaskRequest{Title: "plan trip"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "1" {
		t.Fatalf("expected server generated id 1, got %q", id)
	}
	// Absent optional fields are not written.
	if m.HGet("test:tasks:doc:1", "description") != "" || m.HGet("test:tasks:doc:1", "categoryId") != "" {
		t.Fatalf("optional fields should be omitted")
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("get: %+v err=%v", got, err)
	}
	if got.Title != "plan trip" || got.Completed {
		t.Fatalf("unexpected task: %+v", got)
	}
	created := got.CreatedAt

	if err := repo.Update(ctx, id, model.UpdateTaskRequest{Description: strPtr("book hotel"), Completed: boolPtr(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetByID(ctx, id)
	if got.Title != "plan trip" || got.Description != "book hotel" || !got.Completed {
		t.Fatalf("partial update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.After(created) {
		t.Fatalf("bad timestamps: %+v", got)
	}

	if err := repo.Update(ctx, id, model.UpdateTaskRequest{Description: strPtr("")}); err != nil {
		t.Fatalf("clear description: %v", err)
	}
	if m.HGet("test:tasks:doc:1", "description") != "" {
		t.Fatalf("expected description field to be removed")
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := repo.GetByID(ctx, id); got != nil {
		t.Fatalf("deleted task still readable")
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, "42", model.UpdateTaskRequest{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestRedisTaskRepositoryOrderingAndIndexes(t *testing.T) {
	ctx := context.Background()
	_, rc := newRedis(t)
	repo := NewRedisTaskRepository(rc, "test")
	repo.now = steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	first, _ := repo.Create(ctx, model.CreateTaskRequest{Title: "first", CategoryID: "A"})
	second, _ := repo.Create(ctx, model.CreateTaskRequest{Title: "second", CategoryID: "B"})
	third, _ := repo.Create(ctx, model.CreateTaskRequest{Title: "third", CategoryID: "A"})

	all, _ := repo.GetAll(ctx)
	if len(all) != 3 || all[0].ID != third || all[1].ID != second || all[2].ID != first {
		t.Fatalf("expected newest first, got %+v", all)
	}

	byA, _ := repo.ListByCategory(ctx, "A")
	if len(byA) != 2 || byA[0].ID != third || byA[1].ID != first {
		t.Fatalf("unexpected category A listing: %+v", byA)
	}
	if n, _ := repo.CountByCategory(ctx, "A"); n != 2 {
		t.Fatalf("expected 2 in A, got %d", n)
	}

	// Move second into A and complete it.
	if err := repo.Update(ctx, second, model.UpdateTaskRequest{CategoryID: strPtr("A"), Completed: boolPtr(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if n, _ := repo.CountByCategory(ctx, "B"); n != 0 {
		t.Fatalf("expected B to be empty, got %d", n)
	}
	done, _ := repo.ListByStatus(ctx, true)
	if len(done) != 1 || done[0].ID != second {
		t.Fatalf("unexpected completed listing: %+v", done)
	}
	open, _ := repo.ListByStatus(ctx, false)
	if len(open) != 2 {
		t.Fatalf("expected 2 open tasks, got %d", len(open))
	}

	found, _ := repo.Search(ctx, "THI")
	if len(found) != 1 || found[0].ID != third {
		t.Fatalf("unexpected search result: %+v", found)
	}
}

func TestRedisReadErrorsYieldEmptyResults(t *testing.T) {
	ctx := context.Background()
	m, rc := newRedis(t)
	tasks := NewRedisTaskRepository(rc, "test")
	cats := NewRedisCategoryRepository(rc, "test")
	if _, err := tasks.Create(ctx, model.CreateTaskRequest{Title: "x"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	m.SetError("connection lost")
	defer m.SetError("")

	all, err := tasks.GetAll(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("expected empty result without error, got %v err=%v", all, err)
	}
	if got, err := tasks.GetByID(ctx, "1"); err != nil || got != nil {
		t.Fatalf("expected nil task without error, got %+v err=%v", got, err)
	}
	if list, err := cats.GetAll(ctx); err != nil || len(list) != 0 {
		t.Fatalf("expected empty categories, got %v err=%v", list, err)
	}

	_, err = tasks.Create(ctx, model.CreateTaskRequest{Title: "y"})
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError on write, got %v", err)
	}
	if err := cats.Update(ctx, "1", model.UpdateCategoryRequest{Name: strPtr("x")}); !errors.As(err, &re) {
		t.Fatalf("expected RemoteError on category update, got %v", err)
	}
}

func TestRedisCategoryRepository(t *testing.T) {
	ctx := context.Background()
	_, rc := newRedis(t)
	repo := NewRedisCategoryRepository(rc, "test")

	work, _ := repo.Create(ctx, model.CreateCategoryRequest{Name: "work", Color: "#ff0000"})
	home, _ := repo.Create(ctx, model.CreateCategoryRequest{Name: "home", Color: "#00ff00"})
	_, _ = repo.Create(ctx, model.CreateCategoryRequest{Name: "gym", Color: "#ff0000"})

	all, _ := repo.GetAll(ctx)
	if len(all) != 3 || all[0].Name != "gym" || all[1].Name != "home" || all[2].Name != "work" {
		t.Fatalf("expected name order, got %+v", all)
	}

	if err := repo.Update(ctx, home, model.UpdateCategoryRequest{Name: strPtr("chores")}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	all, _ = repo.GetAll(ctx)
	if len(all) != 3 || all[0].Name != "chores" || all[0].Color != "#00ff00" {
		t.Fatalf("rename not reflected in order: %+v", all)
	}

	if found, _ := repo.FindByName(ctx, "WORK"); found == nil || found.ID != work {
		t.Fatalf("find by name failed: %+v", found)
	}
	if exists, _ := repo.NameExists(ctx, "Work", work); exists {
		t.Fatalf("excluded id must not count")
	}
	if exists, _ := repo.NameExists(ctx, "Work", ""); !exists {
		t.Fatalf("expected name to exist")
	}
	if red, _ := repo.ListByColor(ctx, "#ff0000"); len(red) != 2 {
		t.Fatalf("expected 2 red categories, got %d", len(red))
	}
	if stats, _ := repo.Stats(ctx); stats.Total != 3 || stats.Colors["#ff0000"] != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := repo.Delete(ctx, work); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, work); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	all, _ = repo.GetAll(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 categories after delete, got %d", len(all))
	}
}
