package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-list/internal/model"
)

// nameSep separates the name from the id inside a by-name index member.
const nameSep = "\x00"

// RedisCategoryRepository stores each category as its own Redis hash and
// keeps a lexicographic index so listings come back ordered by name.
type RedisCategoryRepository struct {
	docs redisDocs
	now  func() time.Time
}

func NewRedisCategoryRepository(rdb redis.UniversalClient, prefix string) *RedisCategoryRepository {
	return &RedisCategoryRepository{
		docs: redisDocs{rdb: rdb, prefix: prefix, collection: "categories"},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *RedisCategoryRepository) nameIndex() string { return r.docs.key("by-name") }

func nameMember(name, id string) string { return name + nameSep + id }

func (r *RedisCategoryRepository) Create(ctx context.Context, req model.CreateCategoryRequest) (string, error) {
	id, err := r.docs.nextID(ctx)
	if err != nil {
		return "", &RemoteError{Op: "create category", Err: err}
	}
	cat := model.NewCategory(id, req, r.now())
	_, err = r.docs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.docs.docKey(id), map[string]any{
			"name":      cat.Name,
			"color":     cat.Color,
			"createdAt": formatTime(cat.CreatedAt),
			"updatedAt": formatTime(cat.UpdatedAt),
		})
		pipe.ZAdd(ctx, r.nameIndex(), redis.Z{Score: 0, Member: nameMember(cat.Name, id)})
		return nil
	})
	if err != nil {
		return "", &RemoteError{Op: "create category", Err: err}
	}
	return id, nil
}

// GetAll returns categories ordered by name ascending.
func (r *RedisCategoryRepository) GetAll(ctx context.Context) ([]model.Category, error) {
	return r.list(ctx, "get all categories"), nil
}

func (r *RedisCategoryRepository) GetByID(ctx context.Context, id string) (*model.Category, error) {
	doc, err := r.docs.rdb.HGetAll(ctx, r.docs.docKey(id)).Result()
	if err != nil {
		r.docs.readFailed("get category", err)
		return nil, nil
	}
	if len(doc) == 0 {
		return nil, nil
	}
	cat, err := decodeCategory(id, doc)
	if err != nil {
		r.docs.readFailed("get category", err)
		return nil, nil
	}
	return &cat, nil
}

func (r *RedisCategoryRepository) Update(ctx context.Context, id string, upd model.UpdateCategoryRequest) error {
	cur, ok, err := r.docs.fields(ctx, id, "updatedAt", "name")
	if err != nil {
		return &RemoteError{Op: "update category", Err: err}
	}
	if !ok {
		return &NotFoundError{Entity: "category", ID: id}
	}
	set := map[string]any{
		"updatedAt": formatTime(stampAfter(r.now(), cur["updatedAt"])),
	}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Color != nil {
		set["color"] = *upd.Color
	}
	_, err = r.docs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.docs.docKey(id), set)
		if upd.Name != nil && *upd.Name != cur["name"] {
			pipe.ZRem(ctx, r.nameIndex(), nameMember(cur["name"], id))
			pipe.ZAdd(ctx, r.nameIndex(), redis.Z{Score: 0, Member: nameMember(*upd.Name, id)})
		}
		return nil
	})
	if err != nil {
		return &RemoteError{Op: "update category", Err: err}
	}
	return nil
}

// Delete leaves tasks that reference the category untouched.
func (r *RedisCategoryRepository) Delete(ctx context.Context, id string) error {
	cur, ok, err := r.docs.fields(ctx, id, "name")
	if err != nil {
		return &RemoteError{Op: "delete category", Err: err}
	}
	if !ok {
		return &NotFoundError{Entity: "category", ID: id}
	}
	_, err = r.docs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.docs.docKey(id))
		pipe.ZRem(ctx, r.nameIndex(), nameMember(cur["name"], id))
		return nil
	})
	if err != nil {
		return &RemoteError{Op: "delete category", Err: err}
	}
	return nil
}

func (r *RedisCategoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	for _, c := range r.list(ctx, "find category by name") {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *RedisCategoryRepository) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	for _, c := range r.list(ctx, "check category name") {
		if strings.EqualFold(c.Name, name) && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *RedisCategoryRepository) ListByColor(ctx context.Context, color string) ([]model.Category, error) {
	all := r.list(ctx, "list categories by color")
	out := make([]model.Category, 0, len(all))
	for _, c := range all {
		if c.Color == color {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *RedisCategoryRepository) Stats(ctx context.Context) (model.CategoryStats, error) {
	return model.StatsOf(r.list(ctx, "category stats")), nil
}

func (r *RedisCategoryRepository) list(ctx context.Context, op string) []model.Category {
	members, err := r.docs.rdb.ZRange(ctx, r.nameIndex(), 0, -1).Result()
	if err != nil {
		r.docs.readFailed(op, err)
		return []model.Category{}
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if i := strings.LastIndex(m, nameSep); i >= 0 {
			ids = append(ids, m[i+len(nameSep):])
		}
	}
	found, docs, err := r.docs.load(ctx, ids)
	if err != nil {
		r.docs.readFailed(op, err)
		return []model.Category{}
	}
	categories := make([]model.Category, 0, len(docs))
	for i, doc := range docs {
		cat, err := decodeCategory(found[i], doc)
		if err != nil {
			r.docs.readFailed(op, err)
			continue
		}
		categories = append(categories, cat)
	}
	return categories
}

func decodeCategory(id string, doc map[string]string) (model.Category, error) {
	created, err := parseTime(doc["createdAt"])
	if err != nil {
		return model.Category{}, fmt.Errorf("category %s createdAt: %w", id, err)
	}
	updated, err := parseTime(doc["updatedAt"])
	if err != nil {
		return model.Category{}, fmt.Errorf("category %s updatedAt: %w", id, err)
	}
	return model.Category{
		ID:        id,
		Name:      doc["name"],
		Color:     doc["color"],
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}
