package inventory

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/pkg/logger"
)

const tracerName = "github.com/jhoicas/pos-inventario/internal/application/inventory"

// Runner ejecuta operaciones que mutan stock dentro de una transacción, con reintento
// optimista: si la escritura detecta una versión distinta, la operación completa se vuelve
// a ejecutar desde la lectura, como máximo maxRetries veces.
type Runner struct {
	tx         TxRunner
	maxRetries int
	metrics    Metrics
	log        *logger.Logger
	tracer     trace.Tracer
}

// NewRunner construye el ejecutor. metrics y log pueden ser nil.
func NewRunner(tx TxRunner, maxRetries int, metrics Metrics, log *logger.Logger) *Runner {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		tx:         tx,
		maxRetries: maxRetries,
		metrics:    metrics,
		log:        log.Named("stock-runner"),
		tracer:     otel.Tracer(tracerName),
	}
}

// Run ejecuta fn en una transacción. fn debe ser re-ejecutable: en cada intento vuelve a leer
// el estado y recalcular; nada de lo que haga antes del commit es visible si falla.
func (r *Runner) Run(ctx context.Context, op string, fn func(repos Repositories) error) error {
	ctx, span := r.tracer.Start(ctx, "stock."+op)
	defer span.End()

	start := time.Now()
	var err error
	attempt := 0
	for {
		err = r.tx.Run(ctx, fn)
		if !errors.Is(err, domain.ErrConcurrentModification) || attempt >= r.maxRetries {
			break
		}
		attempt++
		r.metrics.ObserveConflict(op)
		r.log.Warn().Str("op", op).Int("intento", attempt).Msg("conflicto de versión, reintentando")
	}
	if errors.Is(err, domain.ErrConcurrentModification) {
		r.metrics.ObserveConflict(op)
	}

	outcome := Outcome(err)
	r.metrics.ObserveOperation(op, outcome, time.Since(start))
	span.SetAttributes(
		attribute.String("stock.op", op),
		attribute.String("stock.outcome", outcome),
		attribute.Int("stock.retries", attempt),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if outcome == "storage" || outcome == "error" {
			r.log.Error().Err(err).Str("op", op).Msg("operación de stock abortada")
		}
	}
	return err
}

// Outcome clasifica un error para métricas y trazas.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInsufficientVolume):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "storage"
	case errors.Is(err, domain.ErrOrderNotEditable),
		errors.Is(err, domain.ErrContainerAlreadyOpen),
		errors.Is(err, domain.ErrNoContainerAvailable),
		errors.Is(err, domain.ErrDecantNotConfigured):
		return "rejected"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound):
		return "invalid"
	default:
		return "error"
	}
}
