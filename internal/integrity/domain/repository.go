package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows a flag listing. Zero values match everything.
type ListFilter struct {
	LotCode  string
	FlagType string
	Severity Severity
	Resolved *bool
	Limit    int
}

// SeverityCount is one row of the unresolved-flag summary.
type SeverityCount struct {
	Severity Severity `json:"severity"`
	Count    int64    `json:"count"`
}

type Repository interface {
	// InsertCycle stores newly detected flags, skipping any that
	// duplicate an unresolved flag with the same lot code and type.
	// It returns the number of flags actually inserted.
	InsertCycle(ctx context.Context, db *gorm.DB, flags []*Flag) (int, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Flag, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Flag, error)
	Resolve(ctx context.Context, db *gorm.DB, id snowflake.ID, resolvedAt time.Time) (bool, error)
	CountUnresolvedBySeverity(ctx context.Context, db *gorm.DB) ([]SeverityCount, error)
}
