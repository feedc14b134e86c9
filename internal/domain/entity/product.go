package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DecantPolicy configura la venta fraccionada (decants) de un producto y guarda
// el volumen restante del único envase abierto.
type DecantPolicy struct {
	Enabled          bool
	Volume           decimal.Decimal // ml por decant
	Price            decimal.Decimal // precio de venta de un decant
	OpenedVolumeLeft decimal.Decimal // ml restantes del envase abierto (0 = ninguno abierto)
}

// Configured indica si el producto admite ventas por decant.
func (p DecantPolicy) Configured() bool {
	return p.Enabled && p.Volume.IsPositive()
}

// Product representa un producto del catálogo.
// StockQuantity, Decant.OpenedVolumeLeft y Version solo se modifican a través de una
// transacción de ajuste de stock; Update de catálogo no los toca.
type Product struct {
	ID              string
	SKU             string
	Name            string
	Description     string
	Unit            string          // etiqueta de unidad: "und", "frasco", ...
	Price           decimal.Decimal // precio de venta por unidad entera
	Cost            decimal.Decimal // costo promedio ponderado
	SupplierID      string
	StockQuantity   int
	ContainerVolume decimal.Decimal // ml por unidad entera (cero = no aplica)
	Decant          DecantPolicy
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UnitCostForVolume prorratea el costo de una unidad entera a un volumen en ml.
func (p *Product) UnitCostForVolume(volume decimal.Decimal) decimal.Decimal {
	if !p.ContainerVolume.IsPositive() {
		return decimal.Zero
	}
	return p.Cost.Mul(volume).Div(p.ContainerVolume).Round(2)
}
