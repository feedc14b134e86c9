package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/inventory"
)

// RestockUseCase suma unidades enteras a un producto y deja rastro de auditoría.
type RestockUseCase struct {
	runner   *Runner
	adjuster *StockAdjuster
	audit    *AuditTrail
}

// NewRestockUseCase construye el caso de uso.
func NewRestockUseCase(runner *Runner, adjuster *StockAdjuster, audit *AuditTrail) *RestockUseCase {
	return &RestockUseCase{runner: runner, adjuster: adjuster, audit: audit}
}

// RestockInput entrada de una reposición.
type RestockInput struct {
	ProductID  string
	Quantity   int
	UnitCost   *decimal.Decimal
	SupplierID *string
	Actor      string
}

// Apply incrementa el stock sin límite superior y, si llega costo, recalcula el promedio ponderado.
// La auditoría se escribe después del commit.
func (uc *RestockUseCase) Apply(ctx context.Context, in RestockInput) (*dto.RestockResponse, error) {
	if in.ProductID == "" || in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad a reponer debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}

	var out *dto.RestockResponse
	var movements []*entity.InventoryMovement
	err := uc.runner.Run(ctx, "restock", func(repos Repositories) error {
		products, err := LoadProducts(ctx, repos.Products, []string{in.ProductID})
		if err != nil {
			return err
		}
		p := products[in.ProductID]
		previousStock, previousCost := p.StockQuantity, p.Cost

		cost, supplier := p.Cost, p.SupplierID
		if in.UnitCost != nil {
			cost = inventory.WeightedAverageCost(previousStock, previousCost, in.Quantity, *in.UnitCost)
		}
		if in.SupplierID != nil {
			supplier = *in.SupplierID
		}
		if !cost.Equal(p.Cost) || supplier != p.SupplierID {
			if err := repos.Products.UpdateCostAndSupplier(ctx, p.ID, cost, supplier); err != nil {
				return fmt.Errorf("actualizar costo: %w", err)
			}
			p.Cost, p.SupplierID = cost, supplier
		}

		res, err := uc.adjuster.Apply(ctx, repos.Products, products,
			[]inventory.Adjustment{{ProductID: p.ID, Units: in.Quantity}},
			MovementMeta{Type: entity.MovementTypeRestock, Actor: in.Actor})
		if err != nil {
			return err
		}
		for _, m := range res.Movements {
			if in.UnitCost != nil {
				m.UnitCost = *in.UnitCost
			}
		}
		movements = res.Movements
		out = &dto.RestockResponse{
			ProductID:     p.ID,
			PreviousStock: previousStock,
			NewStock:      p.StockQuantity,
			Cost:          p.Cost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Append(ctx, movements)
	return out, nil
}
