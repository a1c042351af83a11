package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	List(ctx context.Context, filter ListFilter) ([]Flag, error)
	Resolve(ctx context.Context, id string) (*Flag, error)
	Summary(ctx context.Context) (*SummaryResponse, error)
}

// SummaryResponse reports unresolved flags grouped by severity.
type SummaryResponse struct {
	Total       int64           `json:"total"`
	BySeverity  []SeverityCount `json:"by_severity"`
	GeneratedAt time.Time       `json:"generated_at"`
}

var (
	ErrInvalidID       = errors.New("invalid_flag_id")
	ErrNotFound        = errors.New("flag_not_found")
	ErrAlreadyResolved = errors.New("flag_already_resolved")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
