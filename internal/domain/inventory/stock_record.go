package inventory

import (
	"fmt"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockRecord es el estado de cantidades de un producto: unidades enteras cerradas
// más el volumen restante del único envase abierto.
type StockRecord struct {
	ProductID        string
	StockQuantity    int
	ContainerVolume  decimal.Decimal
	OpenedVolumeLeft decimal.Decimal
}

// RecordOf toma una instantánea del stock de un producto.
func RecordOf(p *entity.Product) StockRecord {
	return StockRecord{
		ProductID:        p.ID,
		StockQuantity:    p.StockQuantity,
		ContainerVolume:  p.ContainerVolume,
		OpenedVolumeLeft: p.Decant.OpenedVolumeLeft,
	}
}

// ApplyTo copia los campos de stock al producto.
func (r StockRecord) ApplyTo(p *entity.Product) {
	p.StockQuantity = r.StockQuantity
	p.Decant.OpenedVolumeLeft = r.OpenedVolumeLeft
}

// AvailableVolume = StockQuantity*ContainerVolume + OpenedVolumeLeft.
func (r StockRecord) AvailableVolume() decimal.Decimal {
	return r.ContainerVolume.Mul(decimal.NewFromInt(int64(r.StockQuantity))).Add(r.OpenedVolumeLeft)
}

// CanFulfillVolume indica si hay volumen suficiente para v ml.
func (r StockRecord) CanFulfillVolume(v decimal.Decimal) bool {
	return r.AvailableVolume().GreaterThanOrEqual(v)
}

// Validate comprueba los invariantes del registro.
func (r StockRecord) Validate() error {
	if r.StockQuantity < 0 {
		return fmt.Errorf("%w: stock negativo en %s", domain.ErrInvalidInput, r.ProductID)
	}
	if r.OpenedVolumeLeft.IsNegative() {
		return fmt.Errorf("%w: volumen abierto negativo en %s", domain.ErrInvalidInput, r.ProductID)
	}
	if r.OpenedVolumeLeft.GreaterThan(r.ContainerVolume) {
		return fmt.Errorf("%w: volumen abierto mayor que el envase en %s", domain.ErrInvalidInput, r.ProductID)
	}
	return nil
}

// DecrementWhole descuenta n unidades enteras.
func (r *StockRecord) DecrementWhole(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}
	if n > r.StockQuantity {
		return &domain.InsufficientStockError{ProductID: r.ProductID, Requested: n, Available: r.StockQuantity}
	}
	r.StockQuantity -= n
	return nil
}

// IncrementWhole suma n unidades enteras sin límite superior.
func (r *StockRecord) IncrementWhole(n int) {
	if n > 0 {
		r.StockQuantity += n
	}
}

// OpenOneContainer abre un envase cerrado: stock -1 y pool = ContainerVolume.
func (r *StockRecord) OpenOneContainer() error {
	if !r.ContainerVolume.IsPositive() {
		return domain.ErrDecantNotConfigured
	}
	if r.OpenedVolumeLeft.IsPositive() {
		return domain.ErrContainerAlreadyOpen
	}
	if r.StockQuantity <= 0 {
		return domain.ErrNoContainerAvailable
	}
	r.StockQuantity--
	r.OpenedVolumeLeft = r.ContainerVolume
	return nil
}

// DrawVolume retira v ml: primero del envase abierto y luego abriendo envases de uno en uno.
// Devuelve cuántos envases abrió. Si no alcanza, el registro queda intacto.
func (r *StockRecord) DrawVolume(v decimal.Decimal) (int, error) {
	if v.IsNegative() {
		return 0, fmt.Errorf("%w: volumen negativo", domain.ErrInvalidInput)
	}
	if v.IsZero() {
		return 0, nil
	}
	available := r.AvailableVolume()
	if available.LessThan(v) {
		return 0, &domain.InsufficientVolumeError{ProductID: r.ProductID, Required: v, Available: available}
	}
	remaining := v
	opened := 0
	for {
		take := decimal.Min(r.OpenedVolumeLeft, remaining)
		r.OpenedVolumeLeft = r.OpenedVolumeLeft.Sub(take)
		remaining = remaining.Sub(take)
		if !remaining.IsPositive() {
			return opened, nil
		}
		if err := r.OpenOneContainer(); err != nil {
			return opened, err
		}
		opened++
	}
}

// RestoreVolume devuelve v ml retirados por DrawVolume, que en su momento abrió `opened` envases.
// Sin mutaciones intermedias deja el registro exactamente como estaba antes del retiro;
// con mutaciones intermedias conserva el volumen total y reacomoda el pool dentro de [0, ContainerVolume].
func (r *StockRecord) RestoreVolume(v decimal.Decimal, opened int) {
	if !v.IsPositive() {
		return
	}
	cv := r.ContainerVolume
	if !cv.IsPositive() {
		r.OpenedVolumeLeft = r.OpenedVolumeLeft.Add(v)
		return
	}
	r.StockQuantity += opened
	r.OpenedVolumeLeft = r.OpenedVolumeLeft.Add(v).Sub(cv.Mul(decimal.NewFromInt(int64(opened))))
	for r.OpenedVolumeLeft.IsNegative() && r.StockQuantity > 0 {
		r.StockQuantity--
		r.OpenedVolumeLeft = r.OpenedVolumeLeft.Add(cv)
	}
	for r.OpenedVolumeLeft.GreaterThan(cv) {
		r.StockQuantity++
		r.OpenedVolumeLeft = r.OpenedVolumeLeft.Sub(cv)
	}
}
