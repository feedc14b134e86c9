package inventory_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	appinventory "github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/pos-inventario/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// recordingMetrics guarda las observaciones del Runner.
type recordingMetrics struct {
	mu        sync.Mutex
	outcomes  map[string][]string
	conflicts map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{outcomes: map[string][]string{}, conflicts: map[string]int{}}
}

func (m *recordingMetrics) ObserveOperation(op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[op] = append(m.outcomes[op], outcome)
}

func (m *recordingMetrics) ObserveConflict(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[op]++
}

// failingMovements simula un almacén de auditoría caído.
type failingMovements struct{}

func (failingMovements) Create(context.Context, *entity.InventoryMovement) error {
	return fmt.Errorf("%w: conexión rechazada", domain.ErrStorageUnavailable)
}

func (failingMovements) ListByProduct(context.Context, string, int, int) ([]*entity.InventoryMovement, error) {
	return nil, nil
}

func seedProduct(t *testing.T, s *memory.Store, p *entity.Product) *entity.Product {
	t.Helper()
	if p.SKU == "" {
		p.SKU = "SKU-" + p.ID
	}
	if p.Name == "" {
		p.Name = "Producto " + p.ID
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	require.NoError(t, s.Products().Create(context.Background(), p))
	return p
}

func perfume(id string, stock int, opened int64) *entity.Product {
	return &entity.Product{
		ID:              id,
		Unit:            "frasco",
		Price:           decimal.NewFromInt(250000),
		Cost:            decimal.NewFromInt(100000),
		StockQuantity:   stock,
		ContainerVolume: decimal.NewFromInt(100),
		Decant: entity.DecantPolicy{
			Enabled:          true,
			Volume:           decimal.NewFromInt(10),
			Price:            decimal.NewFromInt(30000),
			OpenedVolumeLeft: decimal.NewFromInt(opened),
		},
	}
}

func product(t *testing.T, s *memory.Store, id string) *entity.Product {
	t.Helper()
	p, err := s.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

// bumpOnce simula otro escritor que confirma un cambio de stock justo antes del commit.
func bumpOnce(t *testing.T, s *memory.Store, id string, stock int) {
	t.Helper()
	s.SetBeforeCommit(func() {
		s.SetBeforeCommit(nil)
		ctx := context.Background()
		p, err := s.Products().GetByID(ctx, id)
		require.NoError(t, err)
		p.StockQuantity = stock
		require.NoError(t, s.Products().UpdateStock(ctx, p, p.Version))
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Runner: reintento optimista
// ──────────────────────────────────────────────────────────────────────────────

func TestRunner_ReintentaTrasConflictoDeVersion(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, &entity.Product{ID: "p1", StockQuantity: 10})
	metrics := newRecordingMetrics()
	runner := appinventory.NewRunner(s, 1, metrics, logger.Nop())
	uc := appinventory.NewRestockUseCase(runner, appinventory.NewStockAdjuster(), appinventory.NewAuditTrail(s.Movements(), nil))

	bumpOnce(t, s, "p1", 8)
	out, err := uc.Apply(context.Background(), appinventory.RestockInput{ProductID: "p1", Quantity: 5, Actor: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 8, out.PreviousStock, "el reintento relee el stock confirmado por el otro escritor")
	assert.Equal(t, 13, out.NewStock)
	assert.Equal(t, 13, product(t, s, "p1").StockQuantity)
	assert.Equal(t, 1, metrics.conflicts["restock"])
	assert.Equal(t, []string{"ok"}, metrics.outcomes["restock"])
}

func TestRunner_SinReintentosDevuelveConflicto(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, &entity.Product{ID: "p1", StockQuantity: 10})
	metrics := newRecordingMetrics()
	runner := appinventory.NewRunner(s, 0, metrics, nil)
	uc := appinventory.NewRestockUseCase(runner, appinventory.NewStockAdjuster(), appinventory.NewAuditTrail(s.Movements(), nil))

	bumpOnce(t, s, "p1", 7)
	_, err := uc.Apply(context.Background(), appinventory.RestockInput{ProductID: "p1", Quantity: 5})
	require.ErrorIs(t, err, domain.ErrConcurrentModification)

	assert.Equal(t, 7, product(t, s, "p1").StockQuantity, "no se aplica nada del intento fallido")
	assert.Equal(t, []string{"conflict"}, metrics.outcomes["restock"])

	movements, err := s.Movements().ListByProduct(context.Background(), "p1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestRunner_ContextoCanceladoEsAlmacenamientoNoDisponible(t *testing.T) {
	s := memory.NewStore()
	runner := appinventory.NewRunner(s, 3, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := runner.Run(ctx, "restock", func(appinventory.Repositories) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Zero(t, calls)
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&domain.InsufficientStockError{ProductID: "p1", Requested: 3, Available: 1}, "insufficient_stock"},
		{fmt.Errorf("x: %w", domain.ErrInsufficientVolume), "insufficient_stock"},
		{domain.ErrConcurrentModification, "conflict"},
		{fmt.Errorf("pool: %w", domain.ErrStorageUnavailable), "storage"},
		{domain.ErrOrderNotEditable, "rejected"},
		{domain.ErrContainerAlreadyOpen, "rejected"},
		{domain.ErrNotFound, "invalid"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, appinventory.Outcome(tc.err), "%v", tc.err)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Reposición
// ──────────────────────────────────────────────────────────────────────────────

func TestRestock_CostoPromedioPonderadoYAuditoria(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, &entity.Product{ID: "p1", StockQuantity: 10, Cost: decimal.NewFromInt(20)})
	runner := appinventory.NewRunner(s, 1, nil, nil)
	uc := appinventory.NewRestockUseCase(runner, appinventory.NewStockAdjuster(), appinventory.NewAuditTrail(s.Movements(), nil))

	cost := decimal.NewFromInt(30)
	supplier := "prov-1"
	out, err := uc.Apply(context.Background(), appinventory.RestockInput{
		ProductID: "p1", Quantity: 10, UnitCost: &cost, SupplierID: &supplier, Actor: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, out.PreviousStock)
	assert.Equal(t, 20, out.NewStock)
	assert.True(t, decimal.NewFromInt(25).Equal(out.Cost), "got %s", out.Cost)

	p := product(t, s, "p1")
	assert.Equal(t, 20, p.StockQuantity)
	assert.True(t, decimal.NewFromInt(25).Equal(p.Cost))
	assert.Equal(t, "prov-1", p.SupplierID)

	movements, err := s.Movements().ListByProduct(context.Background(), "p1", 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	m := movements[0]
	assert.Equal(t, entity.MovementTypeRestock, m.Type)
	assert.Equal(t, 10, m.PreviousStock)
	assert.Equal(t, 10, m.Quantity)
	assert.Equal(t, 20, m.NewStock)
	assert.True(t, cost.Equal(m.UnitCost))
	assert.Equal(t, "u1", m.CreatedBy)
}

func TestRestock_SinCostoConservaElPromedio(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, &entity.Product{ID: "p1", StockQuantity: 0, Cost: decimal.NewFromInt(20)})
	uc := appinventory.NewRestockUseCase(appinventory.NewRunner(s, 1, nil, nil),
		appinventory.NewStockAdjuster(), appinventory.NewAuditTrail(s.Movements(), nil))

	out, err := uc.Apply(context.Background(), appinventory.RestockInput{ProductID: "p1", Quantity: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1000, out.NewStock, "la reposición no tiene límite superior")
	assert.True(t, decimal.NewFromInt(20).Equal(out.Cost))
}

func TestRestock_EntradaInvalida(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, &entity.Product{ID: "p1", StockQuantity: 3})
	uc := appinventory.NewRestockUseCase(appinventory.NewRunner(s, 1, nil, nil),
		appinventory.NewStockAdjuster(), appinventory.NewAuditTrail(s.Movements(), nil))
	ctx := context.Background()

	_, err := uc.Apply(ctx, appinventory.RestockInput{ProductID: "p1", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	negative := decimal.NewFromInt(-1)
	_, err = uc.Apply(ctx, appinventory.RestockInput{ProductID: "p1", Quantity: 1, UnitCost: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Apply(ctx, appinventory.RestockInput{ProductID: "nope", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 3, product(t, s, "p1").StockQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Auditoría de mejor esfuerzo
// ──────────────────────────────────────────────────────────────────────────────

func TestAuditTrail_FalloNoRevierteElStock(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, &entity.Product{ID: "p1", StockQuantity: 3})
	var buf bytes.Buffer
	audit := appinventory.NewAuditTrail(failingMovements{}, logger.FromWriter(&buf))
	uc := appinventory.NewRestockUseCase(appinventory.NewRunner(s, 1, nil, nil), appinventory.NewStockAdjuster(), audit)

	out, err := uc.Apply(context.Background(), appinventory.RestockInput{ProductID: "p1", Quantity: 2, Actor: "u9"})
	require.NoError(t, err, "el stock ya confirmado no depende de la auditoría")
	assert.Equal(t, 5, out.NewStock)
	assert.Equal(t, 5, product(t, s, "p1").StockQuantity)

	logged := buf.String()
	assert.Contains(t, logged, `"level":"error"`)
	assert.Contains(t, logged, `"product_id":"p1"`)
	assert.Contains(t, logged, `"actor":"u9"`)
}

// ──────────────────────────────────────────────────────────────────────────────
// Apertura manual de envases
// ──────────────────────────────────────────────────────────────────────────────

func TestOpenContainer_AbreUnEnvaseYAudita(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, perfume("p1", 2, 0))
	svc := appinventory.NewDecantService(appinventory.NewRunner(s, 1, nil, nil), appinventory.NewAuditTrail(s.Movements(), nil))
	ctx := context.Background()

	out, err := svc.OpenContainer(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, out.StockQuantity)
	assert.True(t, decimal.NewFromInt(100).Equal(out.OpenedVolume))

	p := product(t, s, "p1")
	assert.Equal(t, 1, p.StockQuantity)
	assert.True(t, decimal.NewFromInt(100).Equal(p.Decant.OpenedVolumeLeft))

	movements, err := s.Movements().ListByProduct(ctx, "p1", 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementTypeOpenContainer, movements[0].Type)
	assert.Equal(t, -1, movements[0].Quantity)

	_, err = svc.OpenContainer(ctx, "p1", "u1")
	assert.ErrorIs(t, err, domain.ErrContainerAlreadyOpen)
	assert.Equal(t, 1, product(t, s, "p1").StockQuantity)
}

func TestOpenContainer_SinUnidadesCerradas(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, perfume("p1", 0, 0))
	svc := appinventory.NewDecantService(appinventory.NewRunner(s, 1, nil, nil), appinventory.NewAuditTrail(s.Movements(), nil))

	_, err := svc.OpenContainer(context.Background(), "p1", "u1")
	assert.ErrorIs(t, err, domain.ErrNoContainerAvailable)
}

func TestOpenContainer_DosAperturasSimultaneasDejanUnSoloEnvase(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, perfume("p1", 5, 0))
	svc := appinventory.NewDecantService(appinventory.NewRunner(s, 3, nil, nil), appinventory.NewAuditTrail(s.Movements(), nil))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.OpenContainer(context.Background(), "p1", "u1")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrContainerAlreadyOpen)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 4, product(t, s, "p1").StockQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestQuery_Disponibilidad(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, perfume("p1", 2, 5))
	q := appinventory.NewQueryUseCase(s.Products(), appinventory.NewAuditTrail(s.Movements(), nil))

	a, err := q.Availability(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, a.StockQuantity)
	assert.True(t, decimal.NewFromInt(205).Equal(a.AvailableVolume))
	assert.True(t, a.DecantEnabled)
	assert.Equal(t, 20, a.DecantsAvailable)

	_, err = q.Availability(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_MovimientosPaginados(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, &entity.Product{ID: "p1", StockQuantity: 0})
	audit := appinventory.NewAuditTrail(s.Movements(), nil)
	uc := appinventory.NewRestockUseCase(appinventory.NewRunner(s, 1, nil, nil), appinventory.NewStockAdjuster(), audit)
	for i := 0; i < 3; i++ {
		_, err := uc.Apply(context.Background(), appinventory.RestockInput{ProductID: "p1", Quantity: 1})
		require.NoError(t, err)
	}

	q := appinventory.NewQueryUseCase(s.Products(), audit)
	list, err := q.Movements(context.Background(), "p1", dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := q.Movements(context.Background(), "p1", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
