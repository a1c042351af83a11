package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the lifecycle stage derived for a lot.
type Status string

const (
	StatusInProduction      Status = "InProduction"
	StatusPendingInspection Status = "PendingInspection"
	StatusFailedQuality     Status = "FailedQuality"
	StatusPassedQuality     Status = "PassedQuality"
	StatusInShipment        Status = "InShipment"
	StatusShipped           Status = "Shipped"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInProduction, StatusPendingInspection, StatusFailedQuality,
		StatusPassedQuality, StatusInShipment, StatusShipped:
		return true
	}
	return false
}

// Lot is one production batch identified by (lot_code, production_date)
// after normalization. Lifecycle markers are set during reconciliation;
// the source rows themselves live in the per-source record tables.
type Lot struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	LotCode           string       `json:"lot_code" gorm:"type:text;not null;index:uq_lots_code_date,priority:1"`
	ProductionDate    string       `json:"production_date" gorm:"type:text;not null;index:uq_lots_code_date,priority:2"`
	Status            Status       `json:"status" gorm:"type:text;not null"`
	PendingInspection bool         `json:"is_pending_inspection" gorm:"column:is_pending_inspection;not null;default:false"`
	DateConflict      bool         `json:"has_date_conflict" gorm:"column:has_date_conflict;not null;default:false"`
	HasIntegrityIssue bool         `json:"has_data_integrity_issue" gorm:"column:has_data_integrity_issue;not null;default:false"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Lot) TableName() string { return "lots" }
