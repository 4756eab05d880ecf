package telemetry

import (
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	dbSystemKey    = "db.system"
	dbTableKey     = "db.table"
	dbOperationKey = "db.operation"
	dbStatementKey = "db.statement"

	spanKey      = "otel:span"
	startTimeKey = "otel:startTime"

	maxStatementLength = 500
)

// GORMTracingPlugin returns a GORM plugin that opens one span per statement
func GORMTracingPlugin() gorm.Plugin {
	return &tracingPlugin{}
}

type tracingPlugin struct{}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	system := db.Dialector.Name()
	before := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) { startSpan(tx, system, operation) }
	}

	cb := db.Callback()
	for _, err := range []error{
		cb.Query().Before("gorm:query").Register("telemetry:before_query", before("SELECT")),
		cb.Create().Before("gorm:create").Register("telemetry:before_create", before("INSERT")),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", before("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before("DELETE")),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before("RAW")),

		cb.Query().After("gorm:query").Register("telemetry:after_query", endSpan),
		cb.Create().After("gorm:create").Register("telemetry:after_create", endSpan),
		cb.Update().After("gorm:update").Register("telemetry:after_update", endSpan),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", endSpan),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", endSpan),
	} {
		if err != nil {
			return fmt.Errorf("failed to register tracing callback: %w", err)
		}
	}
	return nil
}

func startSpan(db *gorm.DB, system, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	table := db.Statement.Table
	if table == "" {
		table = "unknown"
	}

	_, span := otel.Tracer("gorm").Start(ctx, "db."+strings.ToLower(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(dbSystemKey, system),
			attribute.String(dbTableKey, table),
			attribute.String(dbOperationKey, operation),
		),
	)

	db.InstanceSet(spanKey, span)
	db.InstanceSet(startTimeKey, time.Now())
}

func endSpan(db *gorm.DB) {
	raw, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if raw, ok := db.InstanceGet(startTimeKey); ok {
		if start, ok := raw.(time.Time); ok {
			span.SetAttributes(attribute.Int64("db.duration_ms", time.Since(start).Milliseconds()))
		}
	}

	if sql := db.Statement.SQL.String(); sql != "" {
		if len(sql) > maxStatementLength {
			sql = sql[:maxStatementLength] + "... (truncated)"
		}
		span.SetAttributes(attribute.String(dbStatementKey, sql))
	}
	if db.RowsAffected > 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}

	// Not-found is a normal outcome for lookups.
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}
