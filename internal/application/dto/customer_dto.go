package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCustomerRequest entrada para crear un cliente.
type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	TaxID string `json:"tax_id" validate:"required,min=3,max=30"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=30"`
}

// CustomerResponse salida de un cliente con sus agregados de compra.
type CustomerResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	TaxID            string          `json:"tax_id"`
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	TotalOrders      int             `json:"total_orders"`
	LastPurchaseDate *time.Time      `json:"last_purchase_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CustomerListResponse lista paginada de clientes.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
