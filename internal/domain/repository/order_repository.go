package repository

import (
	"context"

	"github.com/jhoicas/pos-inventario/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order y sus líneas.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetForUpdate lee la orden bloqueándola hasta el fin de la transacción; usar dentro de Run.
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Order, error)
	// Update reemplaza cabecera y líneas.
	Update(ctx context.Context, order *entity.Order) error
	Delete(ctx context.Context, id string) error
}
