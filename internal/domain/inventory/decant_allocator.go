package inventory

import (
	"fmt"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DecantVolume devuelve el volumen de q decants según la política del producto.
// Falla con ErrDecantNotConfigured si el producto no vende decants o el volumen no es positivo.
func DecantVolume(policy entity.DecantPolicy, q int) (decimal.Decimal, error) {
	if !policy.Configured() {
		return decimal.Zero, domain.ErrDecantNotConfigured
	}
	if q < 0 {
		return decimal.Zero, fmt.Errorf("%w: cantidad de decants negativa", domain.ErrInvalidInput)
	}
	return policy.Volume.Mul(decimal.NewFromInt(int64(q))), nil
}

// AllocateRequests asigna los volúmenes solicitados contra el registro, en orden: cada uno
// drena el envase abierto y abre envases cerrados de uno en uno, dejando como máximo uno abierto.
// Devuelve los envases abiertos por cada solicitud. Si el total no alcanza devuelve
// *domain.InsufficientVolumeError con el requerido total y no modifica rec.
func AllocateRequests(rec *StockRecord, requests []decimal.Decimal) ([]int, error) {
	opened := make([]int, len(requests))
	if len(requests) == 0 {
		return opened, nil
	}
	required := decimal.Zero
	for _, v := range requests {
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: volumen negativo", domain.ErrInvalidInput)
		}
		required = required.Add(v)
	}
	if !rec.CanFulfillVolume(required) {
		return nil, &domain.InsufficientVolumeError{ProductID: rec.ProductID, Required: required, Available: rec.AvailableVolume()}
	}
	work := *rec
	for i, v := range requests {
		n, err := work.DrawVolume(v)
		if err != nil {
			return nil, err
		}
		opened[i] = n
	}
	*rec = work
	return opened, nil
}

// OpenContainer es la acción manual de abrir un envase. Devuelve el volumen abierto.
func OpenContainer(rec *StockRecord) (decimal.Decimal, error) {
	if err := rec.OpenOneContainer(); err != nil {
		return decimal.Zero, err
	}
	return rec.OpenedVolumeLeft, nil
}
