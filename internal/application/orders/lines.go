package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/inventory"
)

// validateLines rechaza entradas mal formadas antes de tocar el almacenamiento.
func validateLines(lines []dto.OrderLineRequest) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: la orden necesita al menos una línea", domain.ErrInvalidInput)
	}
	for i, l := range lines {
		if l.ProductID == "" {
			return fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidInput, i+1)
		}
		if !entity.LineKind(l.Kind).Valid() {
			return fmt.Errorf("%w: línea %d con tipo %q", domain.ErrInvalidInput, i+1, l.Kind)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: línea %d con cantidad no positiva", domain.ErrInvalidInput, i+1)
		}
		if l.Discount.IsNegative() {
			return fmt.Errorf("%w: línea %d con descuento negativo", domain.ErrInvalidInput, i+1)
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: línea %d con precio negativo", domain.ErrInvalidInput, i+1)
		}
	}
	return nil
}

func productIDs(lines []dto.OrderLineRequest, existing []entity.OrderItem) []string {
	ids := make([]string, 0, len(lines)+len(existing))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	for _, it := range existing {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// buildItems convierte las líneas pedidas en OrderItem con precio y volumen de decant fijados.
func buildItems(lines []dto.OrderLineRequest, products map[string]*entity.Product) ([]entity.OrderItem, error) {
	items := make([]entity.OrderItem, 0, len(lines))
	for i, l := range lines {
		p := products[l.ProductID]
		item := entity.OrderItem{
			ProductID: l.ProductID,
			Kind:      entity.LineKind(l.Kind),
			Quantity:  l.Quantity,
			Discount:  l.Discount,
		}
		switch item.Kind {
		case entity.LineKindDecant:
			if _, err := inventory.DecantVolume(p.Decant, l.Quantity); err != nil {
				return nil, fmt.Errorf("línea %d (%s): %w", i+1, p.ID, err)
			}
			item.DecantVolume = p.Decant.Volume
			item.UnitPrice = p.Decant.Price
		default:
			item.UnitPrice = p.Price
		}
		if l.UnitPrice != nil {
			item.UnitPrice = *l.UnitPrice
		}
		gross := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if item.Discount.GreaterThan(gross) {
			return nil, fmt.Errorf("%w: línea %d con descuento mayor que su valor", domain.ErrInvalidInput, i+1)
		}
		items = append(items, item)
	}
	return items, nil
}

// restoredQuantities resume lo que devuelve al inventario una lista de líneas.
func restoredQuantities(items []entity.OrderItem) (map[string]int, map[string]decimal.Decimal) {
	units := make(map[string]int)
	volume := make(map[string]decimal.Decimal)
	for _, it := range items {
		if it.Kind == entity.LineKindDecant {
			volume[it.ProductID] = volume[it.ProductID].Add(it.Volume())
			continue
		}
		units[it.ProductID] += it.Quantity
	}
	return units, volume
}
