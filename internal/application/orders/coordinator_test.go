package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	appinventory "github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/application/orders"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/pos-inventario/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type harness struct {
	store *memory.Store
	coord *orders.Coordinator
	query *orders.QueryUseCase
}

func newHarness(t *testing.T, maxRetries int) *harness {
	t.Helper()
	s := memory.NewStore()
	runner := appinventory.NewRunner(s, maxRetries, nil, logger.Nop())
	audit := appinventory.NewAuditTrail(s.Movements(), nil)
	h := &harness{
		store: s,
		coord: orders.NewCoordinator(runner, appinventory.NewStockAdjuster(), audit, nil),
		query: orders.NewQueryUseCase(s.Orders(), s.Sales()),
	}

	ctx := context.Background()
	now := time.Now()
	// p1: perfume de 100 ml con 2 frascos cerrados y 5 ml en el abierto (205 ml disponibles).
	require.NoError(t, s.Products().Create(ctx, &entity.Product{
		ID: "p1", SKU: "PERF-1", Name: "Perfume 100ml", Unit: "frasco",
		Price: decimal.NewFromInt(250000), Cost: decimal.NewFromInt(100000),
		StockQuantity: 2, ContainerVolume: decimal.NewFromInt(100),
		Decant: entity.DecantPolicy{
			Enabled: true, Volume: decimal.NewFromInt(10), Price: decimal.NewFromInt(30000),
			OpenedVolumeLeft: decimal.NewFromInt(5),
		},
		CreatedAt: now, UpdatedAt: now,
	}))
	// p2: producto por unidad entera.
	require.NoError(t, s.Products().Create(ctx, &entity.Product{
		ID: "p2", SKU: "CREMA-1", Name: "Crema", Unit: "und",
		Price: decimal.NewFromInt(10000), Cost: decimal.NewFromInt(6000),
		StockQuantity: 5, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.Customers().Create(ctx, &entity.Customer{
		ID: "c1", Name: "Ana", TaxID: "1020304050", CreatedAt: now, UpdatedAt: now,
	}))
	return h
}

func (h *harness) product(t *testing.T, id string) *entity.Product {
	t.Helper()
	p, err := h.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (h *harness) customer(t *testing.T, id string) *entity.Customer {
	t.Helper()
	c, err := h.store.Customers().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func (h *harness) assertStock(t *testing.T, id string, stock int, opened int64) {
	t.Helper()
	p := h.product(t, id)
	assert.Equal(t, stock, p.StockQuantity, "stock de %s", id)
	assert.True(t, decimal.NewFromInt(opened).Equal(p.Decant.OpenedVolumeLeft),
		"volumen abierto de %s: %s", id, p.Decant.OpenedVolumeLeft)
}

// addHalfDecantProduct registra p3: envase de 100 ml con decants de 50 ml, sin envase abierto.
func (h *harness) addHalfDecantProduct(t *testing.T, stock int) {
	t.Helper()
	now := time.Now()
	require.NoError(t, h.store.Products().Create(context.Background(), &entity.Product{
		ID: "p3", SKU: "PERF-3", Name: "Perfume 100ml (medios)", Unit: "frasco",
		Price: decimal.NewFromInt(200000), Cost: decimal.NewFromInt(80000),
		StockQuantity: stock, ContainerVolume: decimal.NewFromInt(100),
		Decant:    entity.DecantPolicy{Enabled: true, Volume: decimal.NewFromInt(50), Price: decimal.NewFromInt(110000)},
		CreatedAt: now, UpdatedAt: now,
	}))
}

func whole(id string, q int) dto.OrderLineRequest {
	return dto.OrderLineRequest{ProductID: id, Kind: string(entity.LineKindWholeUnit), Quantity: q}
}

func decant(id string, q int) dto.OrderLineRequest {
	return dto.OrderLineRequest{ProductID: id, Kind: string(entity.LineKindDecant), Quantity: q}
}

func cash(amount int64) *dto.PaymentRequest {
	return &dto.PaymentRequest{Method: entity.PaymentCash, AmountPaid: decimal.NewFromInt(amount)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Crear
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_VentaPOSConDecantYUnidades(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{
		CustomerID: "c1",
		Items:      []dto.OrderLineRequest{whole("p2", 2), decant("p1", 1)},
		Payment:    cash(60000),
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.SaleID)
	assert.True(t, decimal.NewFromInt(50000).Equal(out.Total), "total %s", out.Total)
	assert.True(t, decimal.NewFromInt(10000).Equal(out.Change), "cambio %s", out.Change)

	// El decant drena los 5 ml del envase abierto y abre uno nuevo para los otros 5.
	h.assertStock(t, "p1", 1, 95)
	h.assertStock(t, "p2", 3, 0)

	order, err := h.query.GetOrder(ctx, out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusActive, order.Status)
	require.NotNil(t, order.SaleID)
	assert.Equal(t, out.SaleID, *order.SaleID)
	assert.Equal(t, "u1", order.CreatedBy)

	sale, err := h.query.GetSale(ctx, out.SaleID)
	require.NoError(t, err)
	assert.Equal(t, out.OrderID, sale.OrderID)
	assert.Equal(t, entity.SaleStatusCompleted, sale.Status)
	require.Len(t, sale.Items, 2)
	require.NotNil(t, sale.Items[1].UnitCost)
	assert.True(t, decimal.NewFromInt(10000).Equal(*sale.Items[1].UnitCost), "costo prorrateado del decant")
	assert.True(t, decimal.NewFromInt(22000).Equal(sale.CostTotal), "costo total %s", sale.CostTotal)

	c := h.customer(t, "c1")
	assert.Equal(t, 1, c.TotalOrders)
	assert.True(t, decimal.NewFromInt(50000).Equal(c.TotalPurchases))
	assert.NotNil(t, c.LastPurchaseDate)

	movements, err := h.store.Movements().ListByProduct(ctx, "p1", 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementTypeSale, movements[0].Type)
	assert.Equal(t, out.OrderID, movements[0].Reference)
}

func TestCreate_EscenarioDeDecants(t *testing.T) {
	t.Run("12 decants consumen 120 de 205 ml", func(t *testing.T) {
		h := newHarness(t, 1)
		_, err := h.coord.Create(context.Background(), "u1", dto.CreateSaleRequest{
			Items: []dto.OrderLineRequest{decant("p1", 12)},
		})
		require.NoError(t, err)
		h.assertStock(t, "p1", 0, 85)
	})

	t.Run("21 decants exceden el volumen disponible", func(t *testing.T) {
		h := newHarness(t, 1)
		_, err := h.coord.Create(context.Background(), "u1", dto.CreateSaleRequest{
			Items: []dto.OrderLineRequest{decant("p1", 21)},
		})
		require.ErrorIs(t, err, domain.ErrInsufficientVolume)
		var volErr *domain.InsufficientVolumeError
		require.True(t, errors.As(err, &volErr))
		assert.True(t, decimal.NewFromInt(210).Equal(volErr.Required))
		assert.True(t, decimal.NewFromInt(205).Equal(volErr.Available))
		h.assertStock(t, "p1", 2, 5)
	})
}

func TestCreate_LineaSinStockFallaAtomicamente(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	_, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{
		CustomerID: "c1",
		Items:      []dto.OrderLineRequest{decant("p1", 3), whole("p2", 6)},
		Payment:    cash(1000000),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "p2", stockErr.ProductID)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)

	h.assertStock(t, "p1", 2, 5)
	h.assertStock(t, "p2", 5, 0)
	assert.Zero(t, h.customer(t, "c1").TotalOrders)

	list, err := h.query.ListOrders(ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestCreate_Validaciones(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	cases := []struct {
		name string
		in   dto.CreateSaleRequest
		want error
	}{
		{"sin líneas", dto.CreateSaleRequest{}, domain.ErrInvalidInput},
		{"tipo desconocido", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{{ProductID: "p2", Kind: "BOX", Quantity: 1}}}, domain.ErrInvalidInput},
		{"cantidad cero", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{whole("p2", 0)}}, domain.ErrInvalidInput},
		{"pago insuficiente", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{whole("p2", 1)}, Payment: cash(500)}, domain.ErrInvalidInput},
		{"producto inexistente", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{whole("nope", 1)}}, domain.ErrNotFound},
		{"cliente inexistente", dto.CreateSaleRequest{CustomerID: "c9", Items: []dto.OrderLineRequest{whole("p2", 1)}}, domain.ErrNotFound},
		{"decant sin configurar", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{decant("p2", 1)}}, domain.ErrDecantNotConfigured},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.coord.Create(ctx, "u1", tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	h.assertStock(t, "p2", 5, 0)
}

func TestCreate_SinPagoRegistraSoloLaOrden(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{whole("p2", 1)}})
	require.NoError(t, err)
	assert.Empty(t, out.SaleID)

	order, err := h.query.GetOrder(ctx, out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDraft, order.Status)
	assert.Nil(t, order.SaleID)
	h.assertStock(t, "p2", 4, 0)
}

// ──────────────────────────────────────────────────────────────────────────────
// Eliminar y cancelar
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_CrearYEliminarRestauraElEstadoExacto(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{
		CustomerID: "c1",
		Items:      []dto.OrderLineRequest{decant("p1", 1), whole("p2", 3)},
		Payment:    cash(60000),
	})
	require.NoError(t, err)
	h.assertStock(t, "p1", 1, 95)

	del, err := h.coord.Delete(ctx, "u1", out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 3, del.RestoredUnits["p2"])
	assert.True(t, decimal.NewFromInt(10).Equal(del.RestoredVolume["p1"]))

	h.assertStock(t, "p1", 2, 5)
	h.assertStock(t, "p2", 5, 0)

	c := h.customer(t, "c1")
	assert.Zero(t, c.TotalOrders)
	assert.True(t, c.TotalPurchases.IsZero())

	_, err = h.query.GetOrder(ctx, out.OrderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.query.GetSale(ctx, out.SaleID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	movements, err := h.store.Movements().ListByProduct(ctx, "p2", 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, entity.MovementTypeOrderDelete, movements[0].Type)
	assert.Equal(t, 3, movements[0].Quantity)
}

func TestDelete_VariasLineasDecantRestauranElEnvaseCerrado(t *testing.T) {
	h := newHarness(t, 1)
	h.addHalfDecantProduct(t, 2)
	ctx := context.Background()

	// Dos líneas de un decant de 50 ml: la primera abre un envase y la segunda lo agota.
	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{
		Items: []dto.OrderLineRequest{decant("p3", 1), decant("p3", 1)},
	})
	require.NoError(t, err)
	h.assertStock(t, "p3", 1, 0)

	del, err := h.coord.Delete(ctx, "u1", out.OrderID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(del.RestoredVolume["p3"]))
	h.assertStock(t, "p3", 2, 0)
}

func TestUpdate_VariasLineasDecantLiberaSoloLaDiferencia(t *testing.T) {
	h := newHarness(t, 1)
	h.addHalfDecantProduct(t, 2)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{
		Items: []dto.OrderLineRequest{decant("p3", 1), decant("p3", 1)},
	})
	require.NoError(t, err)
	h.assertStock(t, "p3", 1, 0)

	_, err = h.coord.Update(ctx, "u1", out.OrderID, dto.UpdateOrderRequest{
		Items: []dto.OrderLineRequest{decant("p3", 1)},
	})
	require.NoError(t, err)
	h.assertStock(t, "p3", 1, 50)

	_, err = h.coord.Delete(ctx, "u1", out.OrderID)
	require.NoError(t, err)
	h.assertStock(t, "p3", 2, 0)
}

func TestUpdate_VentaEnlazadaInexistenteAborta(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{
		Items: []dto.OrderLineRequest{whole("p2", 1)}, Payment: cash(10000),
	})
	require.NoError(t, err)
	require.NoError(t, h.store.Sales().Delete(ctx, out.SaleID))

	_, err = h.coord.Update(ctx, "u1", out.OrderID, dto.UpdateOrderRequest{
		Items: []dto.OrderLineRequest{whole("p2", 3)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	h.assertStock(t, "p2", 4, 0)

	_, err = h.coord.Cancel(ctx, "u1", out.OrderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	h.assertStock(t, "p2", 4, 0)

	order, err := h.query.GetOrder(ctx, out.OrderID)
	require.NoError(t, err)
	assert.NotEqual(t, entity.OrderStatusCancelled, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)
}

func TestCancel_DevuelveStockYBloqueaEdiciones(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{
		Items: []dto.OrderLineRequest{whole("p2", 2)}, Payment: cash(20000),
	})
	require.NoError(t, err)

	_, err = h.coord.Cancel(ctx, "u1", out.OrderID)
	require.NoError(t, err)
	h.assertStock(t, "p2", 5, 0)

	order, err := h.query.GetOrder(ctx, out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, order.Status)
	sale, err := h.query.GetSale(ctx, out.SaleID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCancelled, sale.Status)

	_, err = h.coord.Update(ctx, "u1", out.OrderID, dto.UpdateOrderRequest{Items: []dto.OrderLineRequest{whole("p2", 1)}})
	assert.ErrorIs(t, err, domain.ErrOrderNotEditable)
	_, err = h.coord.Delete(ctx, "u1", out.OrderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotEditable)
	h.assertStock(t, "p2", 5, 0)
}

func TestComplete_CierraLaOrdenSinTocarStock(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{whole("p2", 2)}})
	require.NoError(t, err)

	order, err := h.coord.Complete(ctx, out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, order.Status)
	h.assertStock(t, "p2", 3, 0)

	_, err = h.coord.Delete(ctx, "u1", out.OrderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotEditable)

	_, err = h.coord.Complete(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Editar
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_AjustaSoloElDeltaNeto(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{
		CustomerID: "c1", Items: []dto.OrderLineRequest{whole("p2", 2)}, Payment: cash(20000),
	})
	require.NoError(t, err)
	h.assertStock(t, "p2", 3, 0)

	order, err := h.coord.Update(ctx, "u2", out.OrderID, dto.UpdateOrderRequest{
		Items: []dto.OrderLineRequest{whole("p2", 4), decant("p1", 2)},
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100000).Equal(order.Total), "total %s", order.Total)
	h.assertStock(t, "p2", 1, 0)
	h.assertStock(t, "p1", 1, 85)

	sale, err := h.query.GetSale(ctx, out.SaleID)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(sale.Total), "la venta espejo sigue a la orden")
	assert.Len(t, sale.Items, 2)

	c := h.customer(t, "c1")
	assert.Equal(t, 1, c.TotalOrders, "editar no cuenta una orden nueva")
	assert.True(t, decimal.NewFromInt(100000).Equal(c.TotalPurchases))

	movements, err := h.store.Movements().ListByProduct(ctx, "p2", 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, entity.MovementTypeOrderEdit, movements[0].Type)
	assert.Equal(t, -2, movements[0].Quantity)

	// Reducir a la mitad devuelve solo la diferencia.
	_, err = h.coord.Update(ctx, "u2", out.OrderID, dto.UpdateOrderRequest{
		Items: []dto.OrderLineRequest{whole("p2", 2)},
	})
	require.NoError(t, err)
	h.assertStock(t, "p2", 3, 0)
	h.assertStock(t, "p1", 2, 5)
}

func TestUpdate_ExcesoDeDemandaNoModificaNada(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{whole("p2", 2)}})
	require.NoError(t, err)

	_, err = h.coord.Update(ctx, "u1", out.OrderID, dto.UpdateOrderRequest{
		Items: []dto.OrderLineRequest{whole("p2", 8)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	h.assertStock(t, "p2", 3, 0)

	order, err := h.query.GetOrder(ctx, out.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_EdicionesConcurrentesNuncaDejanStockNegativo(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t, 5)
	ctx := context.Background()

	first, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{whole("p2", 1)}})
	require.NoError(t, err)
	second, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{whole("p2", 1)}})
	require.NoError(t, err)
	h.assertStock(t, "p2", 3, 0)

	// Cada edición pide 3 unidades más; solo queda stock para una.
	ids := []string{first.OrderID, second.OrderID}
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = h.coord.Update(ctx, "u1", id, dto.UpdateOrderRequest{
				Items: []dto.OrderLineRequest{whole("p2", 4)},
			})
		}(i, id)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 1, ok, "exactamente una edición gana")
	h.assertStock(t, "p2", 0, 0)
}

func TestUpdate_EdicionesConcurrentesDeLaMismaOrden(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t, 5)
	h.addHalfDecantProduct(t, 5)
	ctx := context.Background()

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{Items: []dto.OrderLineRequest{whole("p2", 1)}})
	require.NoError(t, err)

	// Las ediciones no comparten producto nuevo: solo la revisión de la orden las ordena.
	edits := [][]dto.OrderLineRequest{
		{whole("p2", 1), whole("p1", 1)},
		{whole("p2", 1), whole("p3", 1)},
	}
	errs := make([]error, len(edits))
	var wg sync.WaitGroup
	for i, items := range edits {
		wg.Add(1)
		go func(i int, items []dto.OrderLineRequest) {
			defer wg.Done()
			_, errs[i] = h.coord.Update(ctx, "u1", out.OrderID, dto.UpdateOrderRequest{Items: items})
		}(i, items)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	order, err := h.query.GetOrder(ctx, out.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	h.assertStock(t, "p2", 4, 0)
	if order.Items[1].ProductID == "p1" {
		h.assertStock(t, "p1", 1, 5)
		h.assertStock(t, "p3", 5, 0)
	} else {
		h.assertStock(t, "p1", 2, 5)
		h.assertStock(t, "p3", 4, 0)
	}
}

func TestCreate_ConflictoReintentadoAplicaUnaSolaVez(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	h.store.SetBeforeCommit(func() {
		h.store.SetBeforeCommit(nil)
		p, err := h.store.Products().GetByID(ctx, "p2")
		require.NoError(t, err)
		p.StockQuantity = 4
		require.NoError(t, h.store.Products().UpdateStock(ctx, p, p.Version))
	})

	out, err := h.coord.Create(ctx, "u1", dto.CreateSaleRequest{
		CustomerID: "c1", Items: []dto.OrderLineRequest{whole("p2", 2)},
	})
	require.NoError(t, err)
	h.assertStock(t, "p2", 2, 0)

	list, err := h.query.ListOrders(ctx, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, out.OrderID, list.Items[0].ID)
	assert.Equal(t, 1, h.customer(t, "c1").TotalOrders, "el intento descartado no suma agregados")
}
