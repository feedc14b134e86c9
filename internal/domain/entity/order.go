package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineKind distingue una línea de unidad entera de una línea de decant.
// Se fija al crear la línea y viaja sin cambios entre Order y Sale.
type LineKind string

const (
	LineKindWholeUnit LineKind = "WHOLE_UNIT"
	LineKindDecant    LineKind = "DECANT"
)

// Valid indica si el tipo de línea es conocido.
func (k LineKind) Valid() bool {
	return k == LineKindWholeUnit || k == LineKindDecant
}

// Estados de una orden.
const (
	OrderStatusDraft     = "DRAFT"
	OrderStatusActive    = "ACTIVE"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// OrderItem es una línea de la orden.
// DecantVolume guarda los ml por decant vigentes al crear la línea y OpenedContainers
// cuántos envases abrió su asignación; ambos solo aplican a LineKindDecant.
type OrderItem struct {
	ProductID        string
	Kind             LineKind
	Quantity         int
	UnitPrice        decimal.Decimal
	Discount         decimal.Decimal // descuento absoluto de la línea
	TotalPrice       decimal.Decimal
	DecantVolume     decimal.Decimal
	OpenedContainers int
}

// Volume devuelve los ml que la línea consume (cero para unidades enteras).
func (i OrderItem) Volume() decimal.Decimal {
	if i.Kind != LineKindDecant {
		return decimal.Zero
	}
	return i.DecantVolume.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order representa una orden de venta. SaleID enlaza la venta espejo, si existe.
type Order struct {
	ID            string
	CustomerID    string
	SaleID        *string
	Status        string
	Items         []OrderItem
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Editable indica si la orden admite edición o eliminación.
func (o *Order) Editable() bool {
	return o.Status == OrderStatusDraft || o.Status == OrderStatusActive
}

// RecalculateTotals recalcula el total de cada línea y los totales de la orden.
func (o *Order) RecalculateTotals() {
	o.Subtotal = decimal.Zero
	o.DiscountTotal = decimal.Zero
	for i := range o.Items {
		gross := o.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(o.Items[i].Quantity)))
		o.Items[i].TotalPrice = gross.Sub(o.Items[i].Discount)
		o.Subtotal = o.Subtotal.Add(gross)
		o.DiscountTotal = o.DiscountTotal.Add(o.Items[i].Discount)
	}
	o.Total = o.Subtotal.Sub(o.DiscountTotal)
}
