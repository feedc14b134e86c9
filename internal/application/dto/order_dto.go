package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLineRequest línea de una venta u orden. Kind decide si es unidad entera o decant.
// UnitPrice vacío toma el precio de catálogo correspondiente al tipo de línea.
type OrderLineRequest struct {
	ProductID string           `json:"product_id" validate:"required,max=100"`
	Kind      string           `json:"kind" validate:"required,oneof=WHOLE_UNIT DECANT"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Discount  decimal.Decimal  `json:"discount"`
}

// PaymentRequest datos de pago del POS.
type PaymentRequest struct {
	Method     string          `json:"method" validate:"required,oneof=CASH CARD TRANSFER"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// CreateSaleRequest body para POST /api/sales. Sin Payment se registra solo la orden (entrada manual).
type CreateSaleRequest struct {
	CustomerID string             `json:"customer_id,omitempty" validate:"omitempty,max=100"`
	Status     string             `json:"status,omitempty" validate:"omitempty,oneof=DRAFT ACTIVE COMPLETED"`
	Items      []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
	Payment    *PaymentRequest    `json:"payment,omitempty"`
}

// CreateSaleResponse identificadores creados.
type CreateSaleResponse struct {
	SaleID  string          `json:"sale_id,omitempty"`
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
	Change  decimal.Decimal `json:"change"`
}

// UpdateOrderRequest body para PUT /api/orders/:id.
type UpdateOrderRequest struct {
	Items []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderLineResponse línea de orden o venta.
type OrderLineResponse struct {
	ProductID    string           `json:"product_id"`
	Kind         string           `json:"kind"`
	Quantity     int              `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	Discount     decimal.Decimal  `json:"discount"`
	TotalPrice   decimal.Decimal  `json:"total_price"`
	DecantVolume *decimal.Decimal `json:"decant_volume,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
}

// OrderResponse salida de una orden.
type OrderResponse struct {
	ID            string              `json:"id"`
	CustomerID    string              `json:"customer_id,omitempty"`
	SaleID        *string             `json:"sale_id,omitempty"`
	Status        string              `json:"status"`
	Items         []OrderLineResponse `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DiscountTotal decimal.Decimal     `json:"discount_total"`
	Total         decimal.Decimal     `json:"total"`
	CreatedBy     string              `json:"created_by"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// OrderListResponse lista paginada de órdenes.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID            string              `json:"id"`
	OrderID       string              `json:"order_id"`
	CustomerID    string              `json:"customer_id,omitempty"`
	Status        string              `json:"status"`
	Items         []OrderLineResponse `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DiscountTotal decimal.Decimal     `json:"discount_total"`
	Total         decimal.Decimal     `json:"total"`
	CostTotal     decimal.Decimal     `json:"cost_total"`
	PaymentMethod string              `json:"payment_method"`
	AmountPaid    decimal.Decimal     `json:"amount_paid"`
	Change        decimal.Decimal     `json:"change"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// DeleteOrderResponse stock devuelto al eliminar o cancelar una orden.
type DeleteOrderResponse struct {
	OrderID        string                     `json:"order_id"`
	RestoredUnits  map[string]int             `json:"restored_quantities"`
	RestoredVolume map[string]decimal.Decimal `json:"restored_volume,omitempty"`
}
