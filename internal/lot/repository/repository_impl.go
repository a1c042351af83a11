package repository

import (
	"context"

	lotdomain "github.com/steelworks/opshub/internal/lot/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() lotdomain.Repository {
	return &repo{}
}

const lotColumns = `id, lot_code, production_date, status, is_pending_inspection, has_date_conflict, has_data_integrity_issue, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, lot *lotdomain.Lot) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO lots (`+lotColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lot.ID,
		lot.LotCode,
		lot.ProductionDate,
		lot.Status,
		lot.PendingInspection,
		lot.DateConflict,
		lot.HasIntegrityIssue,
		lot.CreatedAt,
		lot.UpdatedAt,
	).Error
}

func (r *repo) BatchInsert(ctx context.Context, db *gorm.DB, lots []*lotdomain.Lot) error {
	for _, lot := range lots {
		if err := r.Insert(ctx, db, lot); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec(`DELETE FROM lots`).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]lotdomain.Lot, error) {
	var lots []lotdomain.Lot
	err := db.WithContext(ctx).Raw(
		`SELECT ` + lotColumns + ` FROM lots ORDER BY production_date ASC, lot_code ASC`,
	).Scan(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, lotCode string) ([]lotdomain.Lot, error) {
	var lots []lotdomain.Lot
	err := db.WithContext(ctx).Raw(
		`SELECT `+lotColumns+` FROM lots WHERE lot_code = ? ORDER BY production_date DESC`,
		lotCode,
	).Scan(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, lotCode, productionDate string) (*lotdomain.Lot, error) {
	var lot lotdomain.Lot
	err := db.WithContext(ctx).Raw(
		`SELECT `+lotColumns+` FROM lots WHERE lot_code = ? AND production_date = ?`,
		lotCode,
		productionDate,
	).Scan(&lot).Error
	if err != nil {
		return nil, err
	}
	if lot.ID == 0 {
		return nil, nil
	}
	return &lot, nil
}
