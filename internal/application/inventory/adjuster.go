package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/inventory"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

// MovementMeta describe el origen de un ajuste para la auditoría.
type MovementMeta struct {
	Type      string
	Reference string
	Actor     string
}

// AdjustResult es el resultado de aplicar un lote de ajustes.
type AdjustResult struct {
	Changes   []inventory.Change
	Movements []*entity.InventoryMovement
}

// StockAdjuster aplica un lote de ajustes de stock dentro de una transacción ya abierta:
// valida todo contra el estado leído y solo entonces escribe cada producto con control de versión.
type StockAdjuster struct {
	now func() time.Time
}

// NewStockAdjuster construye el ajustador.
func NewStockAdjuster() *StockAdjuster {
	return &StockAdjuster{now: time.Now}
}

// LoadProducts lee los productos indicados; falla con ErrNotFound si falta alguno.
func LoadProducts(ctx context.Context, repo repository.ProductRepository, ids []string) (map[string]*entity.Product, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Strings(unique)
	products, err := repo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("cargar productos: %w", err)
	}
	for _, id := range unique {
		if products[id] == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
	}
	return products, nil
}

// Apply planifica adjs sobre products (ya leídos en esta transacción) y persiste los cambios.
// Ante cualquier fallo de validación no escribe nada. products queda con el estado nuevo.
func (a *StockAdjuster) Apply(
	ctx context.Context,
	repo repository.ProductRepository,
	products map[string]*entity.Product,
	adjs []inventory.Adjustment,
	meta MovementMeta,
) (*AdjustResult, error) {
	records := make(map[string]inventory.StockRecord, len(products))
	for id, p := range products {
		records[id] = inventory.RecordOf(p)
	}
	changes, err := inventory.PlanBatch(records, adjs)
	if err != nil {
		return nil, err
	}

	now := a.now()
	result := &AdjustResult{Changes: changes}
	for _, ch := range changes {
		p := products[ch.ProductID]
		ch.After.ApplyTo(p)
		p.UpdatedAt = now
		if err := repo.UpdateStock(ctx, p, p.Version); err != nil {
			return nil, fmt.Errorf("actualizar stock de %s: %w", ch.ProductID, err)
		}
		result.Movements = append(result.Movements, &entity.InventoryMovement{
			ID:             uuid.New().String(),
			ProductID:      ch.ProductID,
			Type:           meta.Type,
			PreviousStock:  ch.Before.StockQuantity,
			Quantity:       ch.UnitsDelta(),
			NewStock:       ch.After.StockQuantity,
			PreviousVolume: ch.Before.OpenedVolumeLeft,
			NewVolume:      ch.After.OpenedVolumeLeft,
			UnitCost:       p.Cost,
			SupplierID:     p.SupplierID,
			Reference:      meta.Reference,
			CreatedBy:      meta.Actor,
			CreatedAt:      now,
		})
	}
	return result, nil
}
