package db

import (
	"context"
	"fmt"
	"time"

	"github.com/steelworks/opshub/internal/config"
	obslogger "github.com/steelworks/opshub/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"gorm.io/gorm"
	prometheusplugin "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open builds the shared gorm handle with pooling, query logging and
// telemetry plugins attached.
func Open(lc fx.Lifecycle, cfg config.Config) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: obslogger.NewQueryLogger(obslogger.DefaultQueryLogConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.DBName))); err != nil {
		return nil, fmt.Errorf("register otelgorm plugin: %w", err)
	}
	if err := conn.Use(prometheusplugin.New(prometheusplugin.Config{
		DBName:          cfg.DBName,
		RefreshInterval: 15,
	})); err != nil {
		return nil, fmt.Errorf("register prometheus plugin: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sqlDB.Close()
		},
	})

	return conn, nil
}
