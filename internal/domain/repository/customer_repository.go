package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	// ApplyPurchase suma amount y orders a los agregados; lastPurchase nil conserva la fecha actual.
	ApplyPurchase(ctx context.Context, customerID string, amount decimal.Decimal, orders int, lastPurchase *time.Time) error
}
