package repository

import (
	"context"
	"sort"
	"strings"

	"todo-list/internal/model"
	"todo-list/internal/storage"
)

// CategoriesKey is the storage key holding the serialized category collection.
const CategoriesKey = "todo_categories"

// CategoryRepository manages task categories in a local key-value store.
type CategoryRepository struct {
	categories *Collection[model.Category, model.CreateCategoryRequest, model.UpdateCategoryRequest]
}

func NewCategoryRepository(store storage.KeyValueStore) *CategoryRepository {
	return &CategoryRepository{
		categories: NewCollection(store, CategoriesKey, "category", model.NewCategory, model.MergeCategory),
	}
}

func (r *CategoryRepository) Create(ctx context.Context, req model.CreateCategoryRequest) (string, error) {
	return r.categories.Create(ctx, req)
}

// GetAll returns categories sorted by name, case-insensitively.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]model.Category, error) {
	categories, err := r.categories.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*model.Category, error) {
	return r.categories.Get(ctx, id)
}

func (r *CategoryRepository) Update(ctx context.Context, id string, upd model.UpdateCategoryRequest) error {
	return r.categories.Update(ctx, id, upd)
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return r.categories.Delete(ctx, id)
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	matches, err := r.categories.Filter(ctx, func(c model.Category) bool { return strings.EqualFold(c.Name, name) })
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return &matches[0], nil
}

func (r *CategoryRepository) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	matches, err := r.categories.Filter(ctx, func(c model.Category) bool {
		return strings.EqualFold(c.Name, name) && c.ID != excludeID
	})
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

func (r *CategoryRepository) ListByColor(ctx context.Context, color string) ([]model.Category, error) {
	return r.categories.Filter(ctx, func(c model.Category) bool { return c.Color == color })
}

func (r *CategoryRepository) Stats(ctx context.Context) (model.CategoryStats, error) {
	categories, err := r.categories.All(ctx)
	if err != nil {
		return model.CategoryStats{}, err
	}
	return model.StatsOf(categories), nil
}
