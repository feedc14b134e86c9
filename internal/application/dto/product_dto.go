package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DecantPolicyRequest configuración de venta por decants.
type DecantPolicyRequest struct {
	Enabled bool            `json:"enabled"`
	Volume  decimal.Decimal `json:"volume"` // ml por decant
	Price   decimal.Decimal `json:"price"`
}

// CreateProductRequest entrada para crear un producto. InitialStock es el stock de alta.
type CreateProductRequest struct {
	SKU             string               `json:"sku" validate:"required,min=1,max=100"`
	Name            string               `json:"name" validate:"required,min=1,max=200"`
	Description     string               `json:"description" validate:"max=2000"`
	Unit            string               `json:"unit" validate:"required,max=30"`
	Price           decimal.Decimal      `json:"price"`
	Cost            decimal.Decimal      `json:"cost"`
	SupplierID      string               `json:"supplier_id" validate:"max=100"`
	InitialStock    int                  `json:"initial_stock" validate:"min=0"`
	ContainerVolume decimal.Decimal      `json:"container_volume"`
	Decant          *DecantPolicyRequest `json:"decant,omitempty"`
}

// UpdateProductRequest entrada para actualizar datos de catálogo (sin costo ni stock).
type UpdateProductRequest struct {
	Name            *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Description     *string              `json:"description" validate:"omitempty,max=2000"`
	Unit            *string              `json:"unit" validate:"omitempty,max=30"`
	Price           *decimal.Decimal     `json:"price"`
	ContainerVolume *decimal.Decimal     `json:"container_volume"`
	Decant          *DecantPolicyRequest `json:"decant,omitempty"`
}

// DecantPolicyResponse configuración de decants y volumen del envase abierto.
type DecantPolicyResponse struct {
	Enabled          bool            `json:"enabled"`
	Volume           decimal.Decimal `json:"volume"`
	Price            decimal.Decimal `json:"price"`
	OpenedVolumeLeft decimal.Decimal `json:"opened_container_volume_left"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string               `json:"id"`
	SKU             string               `json:"sku"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Unit            string               `json:"unit"`
	Price           decimal.Decimal      `json:"price"`
	Cost            decimal.Decimal      `json:"cost"`
	SupplierID      string               `json:"supplier_id,omitempty"`
	StockQuantity   int                  `json:"stock_quantity"`
	ContainerVolume decimal.Decimal      `json:"container_volume"`
	Decant          DecantPolicyResponse `json:"decant"`
	Version         int64                `json:"version"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
