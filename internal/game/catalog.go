package game

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// MaskedSubject replaces the subject for the hidden-role player.
const MaskedSubject = "???"

type Category struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Subject string `json:"subject"`
}

// Catalog is the read-only source of categories.
type Catalog interface {
	PickRandom(ctx context.Context) (Category, error)
	ByID(ctx context.Context, id string) (Category, error)
}

// StaticCatalog serves a fixed list of categories from memory.
type StaticCatalog struct {
	categories []Category
}

func NewStaticCatalog(categories ...Category) *StaticCatalog {
	return &StaticCatalog{categories: categories}
}

func (c *StaticCatalog) PickRandom(ctx context.Context) (Category, error) {
	if len(c.categories) == 0 {
		return Category{}, fmt.Errorf("%w: no categories loaded", ErrNotFound)
	}
	return c.categories[rand.IntN(len(c.categories))], nil
}

func (c *StaticCatalog) ByID(ctx context.Context, id string) (Category, error) {
	for _, category := range c.categories {
		if category.ID == id {
			return category, nil
		}
	}
	return Category{}, fmt.Errorf("%w: category %s", ErrNotFound, id)
}
