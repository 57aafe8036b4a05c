package model

import "time"

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key returns the category identifier.
func (c Category) Key() string { return c.ID }

// LastUpdated reports when the category was last modified.
func (c Category) LastUpdated() time.Time { return c.UpdatedAt }

type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UpdateCategoryRequest is a partial update. Nil fields are left untouched.
type UpdateCategoryRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

func (u UpdateCategoryRequest) IsEmpty() bool {
	return u.Name == nil && u.Color == nil
}

// CategoryStats counts categories overall and per color.
type CategoryStats struct {
	Total  int            `json:"total"`
	Colors map[string]int `json:"colors"`
}

// NewCategory builds a category from a create request.
func NewCategory(id string, req CreateCategoryRequest, now time.Time) Category {
	return Category{
		ID:        id,
		Name:      req.Name,
		Color:     req.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MergeCategory copies the fields present in upd over cat and stamps UpdatedAt.
func MergeCategory(cat Category, upd UpdateCategoryRequest, now time.Time) Category {
	if upd.Name != nil {
		cat.Name = *upd.Name
	}
	if upd.Color != nil {
		cat.Color = *upd.Color
	}
	cat.UpdatedAt = now
	return cat
}

// StatsOf aggregates the given categories by color.
func StatsOf(categories []Category) CategoryStats {
	stats := CategoryStats{Total: len(categories), Colors: make(map[string]int)}
	for _, c := range categories {
		stats.Colors[c.Color]++
	}
	return stats
}
