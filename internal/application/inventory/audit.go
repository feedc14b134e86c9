package inventory

import (
	"context"

	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
	"github.com/jhoicas/pos-inventario/pkg/logger"
)

// AuditTrail registra los movimientos de stock después del commit.
// Es de mejor esfuerzo: un fallo se registra en el log con nivel error y no revierte el stock.
type AuditTrail struct {
	repo repository.InventoryMovementRepository
	log  *logger.Logger
}

// NewAuditTrail construye la auditoría sobre un repositorio fuera de transacción.
func NewAuditTrail(repo repository.InventoryMovementRepository, log *logger.Logger) *AuditTrail {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditTrail{repo: repo, log: log.Named("audit")}
}

// Append persiste los movimientos; devuelve cuántos se guardaron.
func (a *AuditTrail) Append(ctx context.Context, movements []*entity.InventoryMovement) int {
	saved := 0
	for _, m := range movements {
		if err := a.repo.Create(ctx, m); err != nil {
			a.log.Error().Err(err).
				Str("product_id", m.ProductID).
				Str("type", m.Type).
				Int("previous_stock", m.PreviousStock).
				Int("new_stock", m.NewStock).
				Str("actor", m.CreatedBy).
				Msg("auditoría de stock perdida tras commit")
			continue
		}
		saved++
	}
	return saved
}

// ListByProduct devuelve la auditoría de un producto, más reciente primero.
func (a *AuditTrail) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	return a.repo.ListByProduct(ctx, productID, limit, offset)
}
