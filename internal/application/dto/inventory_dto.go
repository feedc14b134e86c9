package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RestockRequest body para POST /api/products/:id/restock.
type RestockRequest struct {
	Quantity   int              `json:"quantity" validate:"required,gt=0"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	SupplierID *string          `json:"supplier_id,omitempty" validate:"omitempty,max=100"`
}

// RestockResponse resultado de una reposición.
type RestockResponse struct {
	ProductID     string          `json:"product_id"`
	PreviousStock int             `json:"previous_stock"`
	NewStock      int             `json:"new_stock"`
	Cost          decimal.Decimal `json:"cost"`
}

// OpenContainerResponse resultado de abrir un envase.
type OpenContainerResponse struct {
	ProductID     string          `json:"product_id"`
	OpenedVolume  decimal.Decimal `json:"opened_volume"`
	StockQuantity int             `json:"stock_quantity"`
}

// AvailabilityResponse disponibilidad de un producto.
type AvailabilityResponse struct {
	ProductID        string          `json:"product_id"`
	StockQuantity    int             `json:"stock_quantity"`
	OpenedVolumeLeft decimal.Decimal `json:"opened_container_volume_left"`
	AvailableVolume  decimal.Decimal `json:"available_volume"`
	DecantEnabled    bool            `json:"decant_enabled"`
	DecantsAvailable int             `json:"decants_available"`
}

// MovementResponse entrada de auditoría de stock.
type MovementResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	Type           string          `json:"type"`
	PreviousStock  int             `json:"previous_stock"`
	Quantity       int             `json:"quantity"`
	NewStock       int             `json:"new_stock"`
	PreviousVolume decimal.Decimal `json:"previous_volume"`
	NewVolume      decimal.Decimal `json:"new_volume"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	SupplierID     string          `json:"supplier_id,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}
