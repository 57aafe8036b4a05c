package service

import (
	"context"
	"strings"

	"todo-list/internal/model"
	"todo-list/internal/repository"
)

// CategoryService validates category input and enforces name uniqueness.
//
// Uniqueness is a read-then-write check; two concurrent creators can both
// pass it.
type CategoryService struct {
	categories repository.CategoryStore
}

func NewCategoryService(categories repository.CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) CreateCategory(ctx context.Context, input model.CreateCategoryRequest) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", invalid("name", "category name is required")
	}
	color, err := normalizeColor(input.Color)
	if err != nil {
		return "", err
	}
	if err := s.ensureUnique(ctx, name, ""); err != nil {
		return "", err
	}

	id, err := s.categories.Create(ctx, model.CreateCategoryRequest{Name: name, Color: color})
	logFailure("category", "create", err)
	return id, err
}

func (s *CategoryService) GetCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categories.GetAll(ctx)
	logFailure("category", "list", err)
	return categories, err
}

func (s *CategoryService) GetCategoryByID(ctx context.Context, categoryID string) (*model.Category, error) {
	if err := requireID("id", categoryID, "category"); err != nil {
		return nil, err
	}
	return s.categories.GetByID(ctx, categoryID)
}

func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID string, updates model.UpdateCategoryRequest) error {
	if err := requireID("id", categoryID, "category"); err != nil {
		return err
	}

	var clean model.UpdateCategoryRequest
	if updates.Name != nil {
		name := strings.TrimSpace(*updates.Name)
		if name == "" {
			return invalid("name", "category name cannot be empty")
		}
		if err := s.ensureUnique(ctx, name, categoryID); err != nil {
			return err
		}
		clean.Name = &name
	}
	if updates.Color != nil {
		if strings.TrimSpace(*updates.Color) == "" {
			return invalid("color", "category color cannot be empty")
		}
		color, err := normalizeColor(*updates.Color)
		if err != nil {
			return err
		}
		clean.Color = &color
	}

	err := s.categories.Update(ctx, categoryID, clean)
	logFailure("category", "update", err)
	return err
}

// DeleteCategory does not touch tasks that reference the category.
func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID string) error {
	if err := requireID("id", categoryID, "category"); err != nil {
		return err
	}
	err := s.categories.Delete(ctx, categoryID)
	logFailure("category", "delete", err)
	return err
}

func (s *CategoryService) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "category name is required")
	}
	return s.categories.FindByName(ctx, name)
}

// CategoryNameExists reports false for a blank name.
func (s *CategoryService) CategoryNameExists(ctx context.Context, name, excludeID string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	return s.categories.NameExists(ctx, name, excludeID)
}

func (s *CategoryService) GetCategoriesByColor(ctx context.Context, color string) ([]model.Category, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return nil, invalid("color", "color is required")
	}
	return s.categories.ListByColor(ctx, strings.ToLower(color))
}

func (s *CategoryService) GetCategoryStats(ctx context.Context) (model.CategoryStats, error) {
	return s.categories.Stats(ctx)
}

func (s *CategoryService) ensureUnique(ctx context.Context, name, excludeID string) error {
	exists, err := s.categories.NameExists(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return invalid("name", "a category named \""+name+"\" already exists")
	}
	return nil
}
