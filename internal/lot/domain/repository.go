package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lot *Lot) error
	BatchInsert(ctx context.Context, db *gorm.DB, lots []*Lot) error
	DeleteAll(ctx context.Context, db *gorm.DB) error
	List(ctx context.Context, db *gorm.DB) ([]Lot, error)
	FindByCode(ctx context.Context, db *gorm.DB, lotCode string) ([]Lot, error)
	FindByKey(ctx context.Context, db *gorm.DB, lotCode, productionDate string) (*Lot, error)
}
