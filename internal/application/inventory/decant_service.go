package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/inventory"
)

// DecantService expone la apertura manual de envases. La asignación de decants en ventas
// pasa por StockAdjuster dentro de la transacción de la orden.
type DecantService struct {
	runner *Runner
	audit  *AuditTrail
}

// NewDecantService construye el servicio.
func NewDecantService(runner *Runner, audit *AuditTrail) *DecantService {
	return &DecantService{runner: runner, audit: audit}
}

// OpenContainer abre un envase cerrado. Rechaza si ya hay uno abierto con volumen
// (ErrContainerAlreadyOpen) o si no quedan unidades enteras (ErrNoContainerAvailable).
// La escritura se condiciona a la versión leída, así dos aperturas simultáneas no pueden
// dejar dos envases abiertos.
func (s *DecantService) OpenContainer(ctx context.Context, productID, actor string) (*dto.OpenContainerResponse, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.OpenContainerResponse
	var movement *entity.InventoryMovement
	err := s.runner.Run(ctx, "open_container", func(repos Repositories) error {
		p, err := repos.Products.GetByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("obtener producto: %w", err)
		}
		if p == nil {
			return domain.ErrNotFound
		}
		before := inventory.RecordOf(p)
		after := before
		volume, err := inventory.OpenContainer(&after)
		if err != nil {
			return err
		}
		after.ApplyTo(p)
		if err := repos.Products.UpdateStock(ctx, p, p.Version); err != nil {
			return fmt.Errorf("actualizar stock: %w", err)
		}
		now := time.Now()
		movement = &entity.InventoryMovement{
			ID:             uuid.New().String(),
			ProductID:      p.ID,
			Type:           entity.MovementTypeOpenContainer,
			PreviousStock:  before.StockQuantity,
			Quantity:       -1,
			NewStock:       after.StockQuantity,
			PreviousVolume: before.OpenedVolumeLeft,
			NewVolume:      after.OpenedVolumeLeft,
			UnitCost:       p.Cost,
			CreatedBy:      actor,
			CreatedAt:      now,
		}
		out = &dto.OpenContainerResponse{ProductID: p.ID, OpenedVolume: volume, StockQuantity: p.StockQuantity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Append(ctx, []*entity.InventoryMovement{movement})
	return out, nil
}
