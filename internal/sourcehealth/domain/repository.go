package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, source *DataSource) error
	FindByName(ctx context.Context, db *gorm.DB, sourceName string) (*DataSource, error)
	List(ctx context.Context, db *gorm.DB) ([]DataSource, error)
}
