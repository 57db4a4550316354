package db

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"fake-artist/internal/game"

	"gorm.io/gorm"
)

// Catalog serves categories from the categories table. It implements
// game.Catalog.
type Catalog struct {
	conn *gorm.DB
	pick func(n int) int
}

func NewCatalog(conn *gorm.DB) *Catalog {
	return &Catalog{conn: conn, pick: rand.IntN}
}

func (c *Catalog) PickRandom(ctx context.Context) (game.Category, error) {
	tx := c.conn.WithContext(ctx)
	var count int64
	if err := tx.Model(&Category{}).Count(&count).Error; err != nil {
		return game.Category{}, storeError(err)
	}
	if count == 0 {
		return game.Category{}, fmt.Errorf("%w: no categories loaded", game.ErrNotFound)
	}
	var row Category
	if err := tx.Order("id").Offset(c.pick(int(count))).Limit(1).Take(&row).Error; err != nil {
		return game.Category{}, storeError(err)
	}
	return categoryFromRow(row), nil
}

func (c *Catalog) ByID(ctx context.Context, id string) (game.Category, error) {
	key, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return game.Category{}, fmt.Errorf("%w: category %q", game.ErrNotFound, id)
	}
	var row Category
	err = c.conn.WithContext(ctx).First(&row, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.Category{}, fmt.Errorf("%w: category %s", game.ErrNotFound, id)
	}
	if err != nil {
		return game.Category{}, storeError(err)
	}
	return categoryFromRow(row), nil
}

func categoryFromRow(row Category) game.Category {
	return game.Category{
		ID:      strconv.FormatUint(uint64(row.ID), 10),
		Topic:   row.Topic,
		Subject: row.Subject,
	}
}
