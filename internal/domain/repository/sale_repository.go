package repository

import (
	"context"

	"github.com/jhoicas/pos-inventario/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale (espejo financiero de Order).
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// Update reemplaza cabecera y líneas.
	Update(ctx context.Context, sale *entity.Sale) error
	Delete(ctx context.Context, id string) error
}
