package option

import "gorm.io/gorm"

// QueryOption narrows or orders a repository query.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type optionFunc func(db *gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

func WithLimit(limit int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithOrder(order string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if order == "" {
			return db
		}
		return db.Order(order)
	})
}

func WithWhere(query string, args ...any) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}
