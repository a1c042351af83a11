package repository

import (
	"context"

	"github.com/steelworks/opshub/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is the single CRUD capability contract shared by all persisted
// entity types.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	BatchCreate(ctx context.Context, resources []*T) error
	Update(ctx context.Context, resourceID int64, resource any) error
	Delete(ctx context.Context, resourceID int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context, query *T) (int64, error)
}
