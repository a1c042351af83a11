package repository

import (
	"context"

	sourcedomain "github.com/steelworks/opshub/internal/sourcehealth/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() sourcedomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, source *sourcedomain.DataSource) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE data_sources
		 SET display_name = ?, last_refresh_at = ?, last_success_at = ?, record_count = ?, status = ?, error_message = ?
		 WHERE source_name = ?`,
		source.DisplayName,
		source.LastRefreshAt,
		source.LastSuccessAt,
		source.RecordCount,
		source.Status,
		source.ErrorMessage,
		source.SourceName,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	return db.WithContext(ctx).Exec(
		`INSERT INTO data_sources (id, source_name, display_name, last_refresh_at, last_success_at, record_count, status, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		source.ID,
		source.SourceName,
		source.DisplayName,
		source.LastRefreshAt,
		source.LastSuccessAt,
		source.RecordCount,
		source.Status,
		source.ErrorMessage,
	).Error
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, sourceName string) (*sourcedomain.DataSource, error) {
	var source sourcedomain.DataSource
	err := db.WithContext(ctx).Raw(
		`SELECT id, source_name, display_name, last_refresh_at, last_success_at, record_count, status, error_message
		 FROM data_sources WHERE source_name = ?`,
		sourceName,
	).Scan(&source).Error
	if err != nil {
		return nil, err
	}
	if source.ID == 0 {
		return nil, nil
	}
	return &source, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]sourcedomain.DataSource, error) {
	var sources []sourcedomain.DataSource
	err := db.WithContext(ctx).Raw(
		`SELECT id, source_name, display_name, last_refresh_at, last_success_at, record_count, status, error_message
		 FROM data_sources ORDER BY source_name ASC`,
	).Scan(&sources).Error
	if err != nil {
		return nil, err
	}
	return sources, nil
}
