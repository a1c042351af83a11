package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() integritydomain.Repository {
	return &repo{}
}

const flagColumns = `id, lot_id, lot_code, production_date, flag_type, severity, description, detected_at, is_resolved, resolved_at`

func (r *repo) InsertCycle(ctx context.Context, db *gorm.DB, flags []*integritydomain.Flag) (int, error) {
	inserted := 0
	for _, flag := range flags {
		// Dedupe on the full batch identity; lot codes alone recur
		// across production dates.
		var count int64
		err := db.WithContext(ctx).Raw(
			`SELECT COUNT(1) FROM data_integrity_flags
			 WHERE lot_code = ? AND production_date = ? AND flag_type = ? AND is_resolved = ?`,
			flag.LotCode,
			flag.ProductionDate,
			flag.FlagType,
			false,
		).Scan(&count).Error
		if err != nil {
			return inserted, err
		}
		if count > 0 {
			continue
		}

		err = db.WithContext(ctx).Exec(
			`INSERT INTO data_integrity_flags (`+flagColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			flag.ID,
			flag.LotID,
			flag.LotCode,
			flag.ProductionDate,
			flag.FlagType,
			flag.Severity,
			flag.Description,
			flag.DetectedAt,
			flag.IsResolved,
			flag.ResolvedAt,
		).Error
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter integritydomain.ListFilter) ([]integritydomain.Flag, error) {
	query := strings.Builder{}
	query.WriteString(
		`SELECT ` + flagColumns + ` FROM data_integrity_flags WHERE 1 = 1`)
	args := make([]any, 0, 4)

	if filter.LotCode != "" {
		query.WriteString(" AND lot_code = ?")
		args = append(args, filter.LotCode)
	}
	if filter.FlagType != "" {
		query.WriteString(" AND flag_type = ?")
		args = append(args, filter.FlagType)
	}
	if filter.Severity != "" {
		query.WriteString(" AND severity = ?")
		args = append(args, filter.Severity)
	}
	if filter.Resolved != nil {
		query.WriteString(" AND is_resolved = ?")
		args = append(args, *filter.Resolved)
	}

	query.WriteString(" ORDER BY detected_at DESC, id DESC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	var flags []integritydomain.Flag
	err := db.WithContext(ctx).Raw(query.String(), args...).Scan(&flags).Error
	if err != nil {
		return nil, err
	}
	return flags, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*integritydomain.Flag, error) {
	var flag integritydomain.Flag
	err := db.WithContext(ctx).Raw(
		`SELECT `+flagColumns+` FROM data_integrity_flags WHERE id = ?`,
		id,
	).Scan(&flag).Error
	if err != nil {
		return nil, err
	}
	if flag.ID == 0 {
		return nil, nil
	}
	return &flag, nil
}

func (r *repo) Resolve(ctx context.Context, db *gorm.DB, id snowflake.ID, resolvedAt time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE data_integrity_flags
		 SET is_resolved = ?, resolved_at = ?
		 WHERE id = ? AND is_resolved = ?`,
		true,
		resolvedAt,
		id,
		false,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) CountUnresolvedBySeverity(ctx context.Context, db *gorm.DB) ([]integritydomain.SeverityCount, error) {
	var counts []integritydomain.SeverityCount
	err := db.WithContext(ctx).Raw(
		`SELECT severity, COUNT(1) AS count
		 FROM data_integrity_flags
		 WHERE is_resolved = ?
		 GROUP BY severity`,
		false,
	).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
