package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SourceStatus reflects the outcome of the most recent refresh attempt.
type SourceStatus string

const (
	StatusHealthy SourceStatus = "healthy"
	StatusError   SourceStatus = "error"
	StatusStale   SourceStatus = "stale"
)

// DataSource tracks refresh health for one upstream system.
type DataSource struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	SourceName    string       `json:"source_name" gorm:"type:text;not null;uniqueIndex"`
	DisplayName   string       `json:"display_name" gorm:"type:text;not null"`
	LastRefreshAt *time.Time   `json:"last_refresh_at,omitempty"`
	LastSuccessAt *time.Time   `json:"last_success_at,omitempty"`
	RecordCount   int          `json:"record_count" gorm:"not null;default:0"`
	Status        SourceStatus `json:"status" gorm:"type:text;not null"`
	ErrorMessage  string       `json:"error_message" gorm:"type:text"`
}

// TableName sets the database table name.
func (DataSource) TableName() string { return "data_sources" }
