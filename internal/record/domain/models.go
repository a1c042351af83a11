package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProductionRecord is one production log entry joined to its lot.
type ProductionRecord struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	LotID            snowflake.ID `json:"lot_id" gorm:"column:lot_id;not null;index"`
	LotCode          string       `json:"lot_code" gorm:"type:text;not null"`
	ProductionDate   string       `json:"production_date" gorm:"type:text;not null"`
	ProductionLineID string       `json:"production_line_id" gorm:"type:text"`
	Shift            string       `json:"shift" gorm:"type:text"`
	UnitsPlanned     int          `json:"units_planned" gorm:"not null;default:0"`
	UnitsActual      int          `json:"units_actual" gorm:"not null;default:0"`
	DowntimeMinutes  int          `json:"downtime_minutes" gorm:"not null;default:0"`
	SourceUpdatedAt  string       `json:"source_updated_timestamp" gorm:"column:source_updated_timestamp;type:text"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null"`
}

// TableName sets the database table name.
func (ProductionRecord) TableName() string { return "production_records" }

// QualityRecord is one inspection entry joined to its lot.
type QualityRecord struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	LotID           snowflake.ID `json:"lot_id" gorm:"column:lot_id;not null;index"`
	LotCode         string       `json:"lot_code" gorm:"type:text;not null"`
	ProductionDate  string       `json:"production_date" gorm:"type:text;not null"`
	InspectionDate  string       `json:"inspection_date" gorm:"type:text"`
	IsPass          bool         `json:"is_pass" gorm:"column:is_pass;not null;default:false"`
	InspectorID     string       `json:"inspector_id" gorm:"type:text"`
	DefectType      string       `json:"defect_type" gorm:"type:text"`
	DefectCount     int          `json:"defect_count" gorm:"not null;default:0"`
	SourceUpdatedAt string       `json:"source_updated_timestamp" gorm:"column:source_updated_timestamp;type:text"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null"`
}

// TableName sets the database table name.
func (QualityRecord) TableName() string { return "quality_records" }

// ShippingRecord is one shipment entry joined to its lot.
type ShippingRecord struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	LotID            snowflake.ID `json:"lot_id" gorm:"column:lot_id;not null;index"`
	LotCode          string       `json:"lot_code" gorm:"type:text;not null"`
	ProductionDate   string       `json:"production_date" gorm:"type:text;not null"`
	ShipDate         string       `json:"ship_date" gorm:"type:text"`
	DestinationState string       `json:"destination_state" gorm:"type:text"`
	Carrier          string       `json:"carrier" gorm:"type:text"`
	QtyShipped       int          `json:"qty_shipped" gorm:"not null;default:0"`
	ShipmentStatus   string       `json:"shipment_status" gorm:"type:text"`
	SourceUpdatedAt  string       `json:"source_updated_timestamp" gorm:"column:source_updated_timestamp;type:text"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null"`
}

// TableName sets the database table name.
func (ShippingRecord) TableName() string { return "shipping_records" }
