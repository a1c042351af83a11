package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// QueryLogConfig tunes how database statements are logged.
type QueryLogConfig struct {
	Level              gormlogger.LogLevel
	SlowQueryThreshold time.Duration
	SkipNotFound       bool
}

// DefaultQueryLogConfig logs errors and slow statements only, which
// keeps a refresh cycle's per-row inserts out of the log.
func DefaultQueryLogConfig() QueryLogConfig {
	return QueryLogConfig{
		Level:              gormlogger.Warn,
		SlowQueryThreshold: 250 * time.Millisecond,
	}
}

// QueryLogger adapts zap to gorm's logger interface. Statement text is
// logged; bound parameters are not.
type QueryLogger struct {
	cfg QueryLogConfig
}

func NewQueryLogger(cfg QueryLogConfig) *QueryLogger {
	return &QueryLogger{cfg: cfg}
}

func (l *QueryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.cfg.Level = level
	return &next
}

func (l *QueryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *QueryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *QueryLogger) message(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, data []interface{}) {
	if l.cfg.Level < min {
		return
	}
	fields := []zap.Field{zap.String("component", "db")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("details", data))
	}
	if entry := FromContext(ctx).Check(level, msg); entry != nil {
		entry.Write(fields...)
	}
}

// Trace logs a finished statement. Errors always log, statements past
// the slow threshold log as warnings, and everything else only appears
// when the level is raised to Info.
func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.cfg.Level >= gormlogger.Error && !(l.cfg.SkipNotFound && errors.Is(err, gormlogger.ErrRecordNotFound)):
		l.statement(ctx, fc, elapsed, err, zapcore.ErrorLevel)
	case l.cfg.SlowQueryThreshold > 0 && elapsed > l.cfg.SlowQueryThreshold && l.cfg.Level >= gormlogger.Warn:
		l.statement(ctx, fc, elapsed, nil, zapcore.WarnLevel)
	case l.cfg.Level >= gormlogger.Info:
		l.statement(ctx, fc, elapsed, nil, zapcore.DebugLevel)
	}
}

// ParamsFilter strips bound values so lot codes and descriptions never
// reach the log.
func (l *QueryLogger) ParamsFilter(ctx context.Context, sql string, params ...interface{}) (string, []interface{}) {
	_ = ctx
	_ = params
	return sql, nil
}

func (l *QueryLogger) statement(ctx context.Context, fc func() (string, int64), elapsed time.Duration, err error, level zapcore.Level) {
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("component", "db"),
		zap.String("sql", strings.TrimSpace(sql)),
		zap.String("verb", sqlVerb(sql)),
		zap.Duration("elapsed", elapsed),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if entry := FromContext(ctx).Check(level, "db.query"); entry != nil {
		entry.Write(fields...)
	}
}

func sqlVerb(sql string) string {
	for _, token := range strings.Fields(strings.ToUpper(sql)) {
		switch strings.Trim(token, "();") {
		case "SELECT", "INSERT", "UPDATE", "DELETE":
			return strings.Trim(token, "();")
		}
	}
	return "OTHER"
}

var _ gormlogger.Interface = (*QueryLogger)(nil)
