package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusCancelled = "CANCELLED"
)

// Métodos de pago aceptados en el POS.
const (
	PaymentCash     = "CASH"
	PaymentCard     = "CARD"
	PaymentTransfer = "TRANSFER"
)

// SaleItem es el espejo financiero de una OrderItem con el costo unitario para márgenes.
type SaleItem struct {
	OrderItem
	UnitCost decimal.Decimal
}

// Sale es el espejo financiero de una orden; se mantiene sincronizada con ella.
type Sale struct {
	ID            string
	OrderID       string
	CustomerID    string
	Status        string
	Items         []SaleItem
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal
	CostTotal     decimal.Decimal
	PaymentMethod string
	AmountPaid    decimal.Decimal
	Change        decimal.Decimal
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MirrorOrder copia líneas y totales de la orden. products aporta el costo por ProductID,
// y se prorratea por volumen en las líneas de decant.
func (s *Sale) MirrorOrder(o *Order, products map[string]*Product) {
	s.OrderID = o.ID
	s.CustomerID = o.CustomerID
	s.Subtotal = o.Subtotal
	s.DiscountTotal = o.DiscountTotal
	s.Total = o.Total
	s.CostTotal = decimal.Zero
	s.Items = make([]SaleItem, 0, len(o.Items))
	for _, it := range o.Items {
		cost := decimal.Zero
		if p, ok := products[it.ProductID]; ok {
			cost = p.Cost
			if it.Kind == LineKindDecant {
				cost = p.UnitCostForVolume(it.DecantVolume)
			}
		}
		s.Items = append(s.Items, SaleItem{OrderItem: it, UnitCost: cost})
		s.CostTotal = s.CostTotal.Add(cost.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	s.Change = decimal.Zero
	if s.AmountPaid.GreaterThan(s.Total) {
		s.Change = s.AmountPaid.Sub(s.Total)
	}
}
