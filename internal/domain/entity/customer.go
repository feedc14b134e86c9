package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer representa un cliente del punto de venta.
// TotalPurchases, TotalOrders y LastPurchaseDate son agregados que se mantienen
// en la misma transacción que crea, edita o elimina sus órdenes.
type Customer struct {
	ID               string
	Name             string
	TaxID            string // NIT o Cédula
	Email            string
	Phone            string
	TotalPurchases   decimal.Decimal
	TotalOrders      int
	LastPurchaseDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
