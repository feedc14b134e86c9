package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
)

func seed(t *testing.T, s *Store, id string, stock int) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id,
		StockQuantity: stock, ContainerVolume: decimal.NewFromInt(100),
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.Products().Create(context.Background(), p))
	return p
}

// ─────────────────────────────────────────────────────────────────────────────
// Aislamiento: nada es visible antes del commit
// ─────────────────────────────────────────────────────────────────────────────

func TestStore_EscriturasInvisiblesHastaCommit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "p1", 5)

	err := s.Run(ctx, func(repos inventory.Repositories) error {
		p, err := repos.Products.GetByID(ctx, "p1")
		require.NoError(t, err)
		p.StockQuantity = 2
		require.NoError(t, repos.Products.UpdateStock(ctx, p, p.Version))

		outside, err := s.Products().GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 5, outside.StockQuantity, "fuera de la transacción aún se ve el valor confirmado")

		inside, err := repos.Products.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 2, inside.StockQuantity, "dentro de la transacción se ve la escritura")
		return nil
	})
	require.NoError(t, err)

	got, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.StockQuantity)
	assert.Equal(t, int64(2), got.Version)
}

func TestStore_RollbackSiFnFalla(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "p1", 5)
	boom := errors.New("boom")

	err := s.Run(ctx, func(repos inventory.Repositories) error {
		p, _ := repos.Products.GetByID(ctx, "p1")
		p.StockQuantity = 0
		require.NoError(t, repos.Products.UpdateStock(ctx, p, p.Version))
		require.NoError(t, repos.Orders.Create(ctx, &entity.Order{ID: "o1", Status: entity.OrderStatusDraft}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := s.Products().GetByID(ctx, "p1")
	assert.Equal(t, 5, got.StockQuantity)
	o, _ := s.Orders().GetByID(ctx, "o1")
	assert.Nil(t, o)
}

// ─────────────────────────────────────────────────────────────────────────────
// Control optimista
// ─────────────────────────────────────────────────────────────────────────────

func TestStore_ConflictoDeVersionEnCommit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "p1", 5)

	// Otro escritor confirma entre la lectura y el commit de esta transacción.
	s.SetBeforeCommit(func() {
		s.SetBeforeCommit(nil)
		p, _ := s.Products().GetByID(ctx, "p1")
		p.StockQuantity = 4
		require.NoError(t, s.Products().UpdateStock(ctx, p, p.Version))
	})

	err := s.Run(ctx, func(repos inventory.Repositories) error {
		p, _ := repos.Products.GetByID(ctx, "p1")
		p.StockQuantity = 3
		return repos.Products.UpdateStock(ctx, p, p.Version)
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	got, _ := s.Products().GetByID(ctx, "p1")
	assert.Equal(t, 4, got.StockQuantity, "gana el escritor que confirmó primero")
}

func TestStore_UpdateStockConVersionVieja(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seed(t, s, "p1", 5)

	p.StockQuantity = 4
	require.NoError(t, s.Products().UpdateStock(ctx, p, 1))
	assert.Equal(t, int64(2), p.Version)

	p.StockQuantity = 3
	assert.ErrorIs(t, s.Products().UpdateStock(ctx, p, 1), domain.ErrConcurrentModification)
}

func TestStore_ConflictoEnOrdenEditadaEnParalelo(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Orders().Create(ctx, &entity.Order{ID: "o1", Status: entity.OrderStatusActive}))

	s.SetBeforeCommit(func() {
		s.SetBeforeCommit(nil)
		require.NoError(t, s.Orders().Delete(ctx, "o1"))
	})
	err := s.Run(ctx, func(repos inventory.Repositories) error {
		o, _ := repos.Orders.GetByID(ctx, "o1")
		o.Status = entity.OrderStatusCompleted
		return repos.Orders.Update(ctx, o)
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	o, _ := s.Orders().GetByID(ctx, "o1")
	assert.Nil(t, o, "el borrado confirmado no se pisa")
}

// ─────────────────────────────────────────────────────────────────────────────
// Catálogo y clientes
// ─────────────────────────────────────────────────────────────────────────────

func TestStore_UpdateDeCatalogoNoTocaStock(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "p1", 5)

	stale := &entity.Product{ID: "p1", SKU: "SKU-p1", Name: "Renombrado", StockQuantity: 99, Version: 7}
	require.NoError(t, s.Products().Update(ctx, stale))

	got, _ := s.Products().GetByID(ctx, "p1")
	assert.Equal(t, "Renombrado", got.Name)
	assert.Equal(t, 5, got.StockQuantity)
	assert.Equal(t, int64(1), got.Version)
}

func TestStore_UpdateDeCatalogoRevalidaEnvaseAbiertoEnCommit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "p1", 5)

	// Otro escritor abre un envase de 100 ml entre la lectura y el commit.
	s.SetBeforeCommit(func() {
		s.SetBeforeCommit(nil)
		p, _ := s.Products().GetByID(ctx, "p1")
		p.StockQuantity = 4
		p.Decant.OpenedVolumeLeft = decimal.NewFromInt(80)
		require.NoError(t, s.Products().UpdateStock(ctx, p, p.Version))
	})

	err := s.Run(ctx, func(repos inventory.Repositories) error {
		p, err := repos.Products.GetByID(ctx, "p1")
		require.NoError(t, err)
		p.ContainerVolume = decimal.NewFromInt(50)
		return repos.Products.Update(ctx, p)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, _ := s.Products().GetByID(ctx, "p1")
	assert.True(t, decimal.NewFromInt(100).Equal(got.ContainerVolume), "el envase confirmado no cambia")
	assert.True(t, decimal.NewFromInt(80).Equal(got.Decant.OpenedVolumeLeft))
	assert.Equal(t, 4, got.StockQuantity)
}

func TestStore_SKUDuplicado(t *testing.T) {
	s := NewStore()
	seed(t, s, "p1", 1)
	err := s.Products().Create(context.Background(), &entity.Product{ID: "p2", SKU: "SKU-p1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStore_ApplyPurchaseAcumula(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Customers().Create(ctx, &entity.Customer{ID: "c1", Name: "Ana", TaxID: "1"}))
	when := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Customers().ApplyPurchase(ctx, "c1", decimal.NewFromInt(100), 1, &when))
	require.NoError(t, s.Customers().ApplyPurchase(ctx, "c1", decimal.NewFromInt(50), 1, nil))
	require.NoError(t, s.Customers().ApplyPurchase(ctx, "c1", decimal.NewFromInt(-100), -1, nil))

	c, _ := s.Customers().GetByID(ctx, "c1")
	assert.True(t, c.TotalPurchases.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, c.TotalOrders)
	require.NotNil(t, c.LastPurchaseDate)
	assert.True(t, c.LastPurchaseDate.Equal(when))

	assert.ErrorIs(t, s.Customers().ApplyPurchase(ctx, "nadie", decimal.NewFromInt(1), 1, nil), domain.ErrNotFound)
}

func TestStore_MovimientosMasRecientePrimero(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Movements().Create(ctx, &entity.InventoryMovement{
			ID: string(rune('a' + i)), ProductID: "p1", NewStock: i, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	list, err := s.Movements().ListByProduct(ctx, "p1", 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].NewStock)
	assert.Equal(t, 1, list[1].NewStock)
}
