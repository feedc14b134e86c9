package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/inventory"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

// QueryUseCase consultas de solo lectura: disponibilidad y auditoría. No abre transacciones.
type QueryUseCase struct {
	products repository.ProductRepository
	audit    *AuditTrail
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(products repository.ProductRepository, audit *AuditTrail) *QueryUseCase {
	return &QueryUseCase{products: products, audit: audit}
}

// Availability calcula la disponibilidad sobre la instantánea actual del producto.
func (uc *QueryUseCase) Availability(ctx context.Context, productID string) (*dto.AvailabilityResponse, error) {
	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("obtener producto: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	a := inventory.AvailabilityOf(p)
	return &dto.AvailabilityResponse{
		ProductID:        a.ProductID,
		StockQuantity:    a.StockQuantity,
		OpenedVolumeLeft: a.OpenedVolumeLeft,
		AvailableVolume:  a.AvailableVolume,
		DecantEnabled:    a.DecantEnabled,
		DecantsAvailable: a.DecantsAvailable,
	}, nil
}

// Movements lista la auditoría de stock de un producto.
func (uc *QueryUseCase) Movements(ctx context.Context, productID string, page dto.PageRequest) ([]dto.MovementResponse, error) {
	page.DefaultPage()
	list, err := uc.audit.ListByProduct(ctx, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out, nil
}

func toMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Type:           m.Type,
		PreviousStock:  m.PreviousStock,
		Quantity:       m.Quantity,
		NewStock:       m.NewStock,
		PreviousVolume: m.PreviousVolume,
		NewVolume:      m.NewVolume,
		UnitCost:       m.UnitCost,
		SupplierID:     m.SupplierID,
		Reference:      m.Reference,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}
