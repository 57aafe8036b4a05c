package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-list/internal/model"
)

// RedisTaskRepository stores each task as its own Redis hash. Listing order
// comes from a sorted set scored by creation time, newest first; category and
// status filters read dedicated sorted sets instead of scanning documents.
//
// Read failures are logged and yield empty results. Write failures are
// returned as *RemoteError.
type RedisTaskRepository struct {
	docs redisDocs
	now  func() time.Time
}

func NewRedisTaskRepository(rdb redis.UniversalClient, prefix string) *RedisTaskRepository {
	return &RedisTaskRepository{
		docs: redisDocs{rdb: rdb, prefix: prefix, collection: "tasks"},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *RedisTaskRepository) createdIndex() string { return r.docs.key("by-created") }

func (r *RedisTaskRepository) statusIndex(completed bool) string {
	return r.docs.key("by-status", strconv.FormatBool(completed))
}

func (r *RedisTaskRepository) categoryIndex(categoryID string) string {
	return r.docs.key("by-category", categoryID)
}

func (r *RedisTaskRepository) Create(ctx context.Context, req model.CreateTaskRequest) (string, error) {
	id, err := r.docs.nextID(ctx)
	if err != nil {
		return "", &RemoteError{Op: "create task", Err: err}
	}
	task := model.NewTask(id, req, r.now())

	fields := map[string]any{
		"title":     task.Title,
		"completed": "0",
		"createdAt": formatTime(task.CreatedAt),
		"updatedAt": formatTime(task.UpdatedAt),
	}
	if task.Description != "" {
		fields["description"] = task.Description
	}
	if task.CategoryID != "" {
		fields["categoryId"] = task.CategoryID
	}

	member := redis.Z{Score: score(task.CreatedAt), Member: id}
	_, err = r.docs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.docs.docKey(id), fields)
		pipe.ZAdd(ctx, r.createdIndex(), member)
		pipe.ZAdd(ctx, r.statusIndex(false), member)
		if task.CategoryID != "" {
			pipe.ZAdd(ctx, r.categoryIndex(task.CategoryID), member)
		}
		return nil
	})
	if err != nil {
		return "", &RemoteError{Op: "create task", Err: err}
	}
	return id, nil
}

func (r *RedisTaskRepository) GetAll(ctx context.Context) ([]model.Task, error) {
	return r.listIndex(ctx, "get all tasks", r.createdIndex()), nil
}

func (r *RedisTaskRepository) GetByID(ctx context.Context, id string) (*model.Task, error) {
	doc, err := r.docs.rdb.HGetAll(ctx, r.docs.docKey(id)).Result()
	if err != nil {
		r.docs.readFailed("get task", err)
		return nil, nil
	}
	if len(doc) == 0 {
		return nil, nil
	}
	task, err := decodeTask(id, doc)
	if err != nil {
		r.docs.readFailed("get task", err)
		return nil, nil
	}
	return &task, nil
}

// Update writes only the fields present in upd. An empty Description or
// CategoryID removes the field from the document.
func (r *RedisTaskRepository) Update(ctx context.Context, id string, upd model.UpdateTaskRequest) error {
	cur, ok, err := r.docs.fields(ctx, id, "updatedAt", "completed", "categoryId")
	if err != nil {
		return &RemoteError{Op: "update task", Err: err}
	}
	if !ok {
		return &NotFoundError{Entity: "task", ID: id}
	}
	created, err := parseTime(cur["createdAt"])
	if err != nil {
		return &RemoteError{Op: "update task", Err: fmt.Errorf("decode createdAt: %w", err)}
	}
	member := redis.Z{Score: score(created), Member: id}

	set := map[string]any{
		"updatedAt": formatTime(stampAfter(r.now(), cur["updatedAt"])),
	}
	var del []string
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		if *upd.Description == "" {
			del = append(del, "description")
		} else {
			set["description"] = *upd.Description
		}
	}
	if upd.Completed != nil {
		set["completed"] = encodeBool(*upd.Completed)
	}
	if upd.CategoryID != nil {
		if *upd.CategoryID == "" {
			del = append(del, "categoryId")
		} else {
			set["categoryId"] = *upd.CategoryID
		}
	}

	wasCompleted := cur["completed"] == "1"
	oldCategory := cur["categoryId"]

	_, err = r.docs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.docs.docKey(id), set)
		if len(del) > 0 {
			pipe.HDel(ctx, r.docs.docKey(id), del...)
		}
		if upd.Completed != nil && *upd.Completed != wasCompleted {
			pipe.ZRem(ctx, r.statusIndex(wasCompleted), id)
			pipe.ZAdd(ctx, r.statusIndex(*upd.Completed), member)
		}
		if upd.CategoryID != nil && *upd.CategoryID != oldCategory {
			if oldCategory != "" {
				pipe.ZRem(ctx, r.categoryIndex(oldCategory), id)
			}
			if *upd.CategoryID != "" {
				pipe.ZAdd(ctx, r.categoryIndex(*upd.CategoryID), member)
			}
		}
		return nil
	})
	if err != nil {
		return &RemoteError{Op: "update task", Err: err}
	}
	return nil
}

func (r *RedisTaskRepository) Delete(ctx context.Context, id string) error {
	cur, ok, err := r.docs.fields(ctx, id, "completed", "categoryId")
	if err != nil {
		return &RemoteError{Op: "delete task", Err: err}
	}
	if !ok {
		return &NotFoundError{Entity: "task", ID: id}
	}
	_, err = r.docs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.docs.docKey(id))
		pipe.ZRem(ctx, r.createdIndex(), id)
		pipe.ZRem(ctx, r.statusIndex(cur["completed"] == "1"), id)
		if cid := cur["categoryId"]; cid != "" {
			pipe.ZRem(ctx, r.categoryIndex(cid), id)
		}
		return nil
	})
	if err != nil {
		return &RemoteError{Op: "delete task", Err: err}
	}
	return nil
}

func (r *RedisTaskRepository) ListByCategory(ctx context.Context, categoryID string) ([]model.Task, error) {
	return r.listIndex(ctx, "list tasks by category", r.categoryIndex(categoryID)), nil
}

func (r *RedisTaskRepository) ListByStatus(ctx context.Context, completed bool) ([]model.Task, error) {
	return r.listIndex(ctx, "list tasks by status", r.statusIndex(completed)), nil
}

// Search has no server-side substring support and filters the full listing.
func (r *RedisTaskRepository) Search(ctx context.Context, term string) ([]model.Task, error) {
	needle := strings.ToLower(term)
	all := r.listIndex(ctx, "search tasks", r.createdIndex())
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if taskMatches(t, needle) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *RedisTaskRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	n, err := r.docs.rdb.ZCard(ctx, r.categoryIndex(categoryID)).Result()
	if err != nil {
		r.docs.readFailed("count tasks by category", err)
		return 0, nil
	}
	return int(n), nil
}

// listIndex loads the documents referenced by a creation-time index, newest first.
func (r *RedisTaskRepository) listIndex(ctx context.Context, op, index string) []model.Task {
	ids, err := r.docs.rdb.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		r.docs.readFailed(op, err)
		return []model.Task{}
	}
	found, docs, err := r.docs.load(ctx, ids)
	if err != nil {
		r.docs.readFailed(op, err)
		return []model.Task{}
	}
	tasks := make([]model.Task, 0, len(docs))
	for i, doc := range docs {
		task, err := decodeTask(found[i], doc)
		if err != nil {
			r.docs.readFailed(op, err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func decodeTask(id string, doc map[string]string) (model.Task, error) {
	created, err := parseTime(doc["createdAt"])
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s createdAt: %w", id, err)
	}
	updated, err := parseTime(doc["updatedAt"])
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s updatedAt: %w", id, err)
	}
	return model.Task{
		ID:          id,
		Title:       doc["title"],
		Description: doc["description"],
		Completed:   doc["completed"] == "1",
		CategoryID:  doc["categoryId"],
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
