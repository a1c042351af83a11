package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Severity ranks how much an integrity flag should worry an operator.
type Severity string

const (
	SeverityWarning  Severity = "Warning"
	SeverityError    Severity = "Error"
	SeverityCritical Severity = "Critical"
)

// Level returns the numeric rank of the severity. Higher is worse.
func (s Severity) Level() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

func (s Severity) Valid() bool {
	return s.Level() > 0
}

// Flag types emitted by the reconciliation cycle. The set is open;
// these are the types the engine itself produces.
const (
	FlagDuplicateRecord    = "Duplicate Record"
	FlagOrphanedRecord     = "Orphaned Record"
	FlagPendingInspection  = "Pending Inspection"
	FlagMissingQuality     = "Missing Quality"
	FlagDateConflict       = "Date Conflict"
	FlagInvalidFieldValue  = "Invalid Field Value"
)

// Flag records one data integrity finding against a lot. LotID is nil
// when the finding refers to a record that never joined a lot; the
// (lot_code, production_date) pair still identifies which batch the
// finding is about, since lot codes alone recur across dates.
type Flag struct {
	ID             snowflake.ID  `json:"id" gorm:"primaryKey"`
	LotID          *snowflake.ID `json:"lot_id,omitempty" gorm:"column:lot_id"`
	LotCode        string        `json:"lot_code" gorm:"type:text;not null;index"`
	ProductionDate string        `json:"production_date" gorm:"type:text;not null;default:''"`
	FlagType       string        `json:"flag_type" gorm:"type:text;not null"`
	Severity       Severity      `json:"severity" gorm:"type:text;not null"`
	Description    string        `json:"description" gorm:"type:text"`
	DetectedAt     time.Time     `json:"detected_at" gorm:"not null"`
	IsResolved     bool          `json:"is_resolved" gorm:"not null;default:false"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
}

// TableName sets the database table name.
func (Flag) TableName() string { return "data_integrity_flags" }
