package repository

import (
	"context"

	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los métodos de lectura devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// Update persiste solo datos de catálogo; nunca stock ni versión.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateStock escribe StockQuantity y Decant.OpenedVolumeLeft si la versión persistida
	// sigue siendo expectedVersion; si no, devuelve domain.ErrConcurrentModification.
	// En éxito deja product.Version = expectedVersion+1.
	UpdateStock(ctx context.Context, product *entity.Product, expectedVersion int64) error
	UpdateCostAndSupplier(ctx context.Context, productID string, cost decimal.Decimal, supplierID string) error
}
