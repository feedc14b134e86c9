package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

// Repositories agrupa los repositorios atados a una misma transacción.
type Repositories struct {
	Products  repository.ProductRepository
	Orders    repository.OrderRepository
	Sales     repository.SaleRepository
	Customers repository.CustomerRepository
}

// TxRunner ejecuta una función dentro de una transacción del almacenamiento, pasando repositorios
// atados a esa transacción. Commit si fn devuelve nil; Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}

// Metrics registra el resultado de las operaciones que mutan stock.
type Metrics interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
	ObserveConflict(op string)
}

// NopMetrics descarta las observaciones.
type NopMetrics struct{}

func (NopMetrics) ObserveOperation(string, string, time.Duration) {}
func (NopMetrics) ObserveConflict(string)                         {}
