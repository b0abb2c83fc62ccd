package service

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/utafrali/readrate/pkg/errors"
	"github.com/utafrali/readrate/pkg/tracing"
)

var tracer = tracing.Tracer("internal/service")

var ledgerOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Review ledger and account operations by outcome",
	},
	[]string{"operation", "result"},
)

// startOp opens a span for a mutating operation. The returned function
// records the outcome on the span and in ledger_operations_total.
func startOp(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = errorCode(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		ledgerOperationsTotal.WithLabelValues(op, result).Inc()
		span.End()
	}
}

func errorCode(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}
