package database

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/readrate/pkg/database"

// QueryTracer opens a client span per database operation and logs operations
// slower than its threshold. A zero threshold or nil logger disables slow
// query logging. The zero value and a nil *QueryTracer only produce spans.
type QueryTracer struct {
	threshold time.Duration
	logger    *slog.Logger
}

// NewQueryTracer returns a tracer that warns about operations taking at least
// threshold.
func NewQueryTracer(threshold time.Duration, logger *slog.Logger) *QueryTracer {
	return &QueryTracer{threshold: threshold, logger: logger}
}

// TraceQuery starts a span for operation. Call the returned function with the
// operation's error when it completes:
//
//	ctx, end := tracer.TraceQuery(ctx, "AddReview", "INSERT INTO reviews ...")
//	defer func() { end(err) }()
func (t *QueryTracer) TraceQuery(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		t.logIfSlow(ctx, operation, statement, time.Since(start), err)
	}
}

func (t *QueryTracer) logIfSlow(ctx context.Context, operation, statement string, elapsed time.Duration, err error) {
	if t == nil || t.threshold <= 0 || t.logger == nil || elapsed < t.threshold {
		return
	}
	attrs := []any{
		slog.String("operation", operation),
		slog.String("statement", statement),
		slog.Duration("duration", elapsed),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	t.logger.WarnContext(ctx, "slow query detected", attrs...)
}
