package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
	"github.com/jhoicas/pos-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/pos-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-inventario/pkg/config"
	"github.com/jhoicas/pos-inventario/pkg/logger"
)

// storage agrupa el TxRunner y los repositorios de lectura del driver elegido.
type storage struct {
	tx        inventory.TxRunner
	products  repository.ProductRepository
	orders    repository.OrderRepository
	sales     repository.SaleRepository
	customers repository.CustomerRepository
	movements repository.InventoryMovementRepository
	users     repository.UserRepository
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			tx:        s,
			products:  s.Products(),
			orders:    s.Orders(),
			sales:     s.Sales(),
			customers: s.Customers(),
			movements: s.Movements(),
			users:     s.Users(),
			close:     func() {},
		}, nil
	}

	if cfg.Migrations.AutoRun {
		mg, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log)
		if err != nil {
			return nil, err
		}
		err = mg.Up()
		_ = mg.Close()
		if err != nil {
			return nil, err
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	return &storage{
		tx:        postgres.NewTxRunner(pool),
		products:  postgres.NewProductRepository(pool),
		orders:    postgres.NewOrderRepository(pool),
		sales:     postgres.NewSaleRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		movements: postgres.NewInventoryMovementRepository(pool),
		users:     postgres.NewUserRepository(pool),
		close:     pool.Close,
	}, nil
}
