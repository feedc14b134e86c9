package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	appinventory "github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/application/usecase"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/infrastructure/memory"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func perfumeRequest(sku string) dto.CreateProductRequest {
	return dto.CreateProductRequest{
		SKU:             sku,
		Name:            "Perfume 100ml",
		Unit:            "frasco",
		Price:           dec(250000),
		Cost:            dec(100000),
		InitialStock:    3,
		ContainerVolume: dec(100),
		Decant:          &dto.DecantPolicyRequest{Enabled: true, Volume: dec(10), Price: dec(30000)},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Productos
// ──────────────────────────────────────────────────────────────────────────────

func TestProductUseCase_CreaConStockInicialYAuditoria(t *testing.T) {
	s := memory.NewStore()
	uc := usecase.NewProductUseCase(s.Products(), appinventory.NewAuditTrail(s.Movements(), nil))
	ctx := context.Background()

	out, err := uc.Create(ctx, "u1", perfumeRequest("PERF-1"))
	require.NoError(t, err)
	assert.Equal(t, 3, out.StockQuantity)
	assert.True(t, out.Decant.Enabled)
	assert.True(t, out.Decant.OpenedVolumeLeft.IsZero())
	assert.Equal(t, int64(1), out.Version)

	movements, err := s.Movements().ListByProduct(ctx, out.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementTypeRestock, movements[0].Type)
	assert.Equal(t, 3, movements[0].NewStock)

	_, err = uc.Create(ctx, "u1", perfumeRequest("PERF-1"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUseCase_PoliticaDeDecantsInvalida(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.NewStore().Products(), nil)
	ctx := context.Background()

	sinEnvase := perfumeRequest("A")
	sinEnvase.ContainerVolume = decimal.Zero
	_, err := uc.Create(ctx, "u1", sinEnvase)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	decantEnorme := perfumeRequest("B")
	decantEnorme.Decant.Volume = dec(150)
	_, err = uc.Create(ctx, "u1", decantEnorme)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	precioNegativo := perfumeRequest("C")
	precioNegativo.Price = dec(-1)
	_, err = uc.Create(ctx, "u1", precioNegativo)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductUseCase_UpdateNoTocaStockNiVolumenAbierto(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	uc := usecase.NewProductUseCase(s.Products(), nil)
	created, err := uc.Create(ctx, "u1", perfumeRequest("PERF-1"))
	require.NoError(t, err)

	// Abrir un envase deja 100 ml en el pool.
	svc := appinventory.NewDecantService(appinventory.NewRunner(s, 1, nil, nil), appinventory.NewAuditTrail(s.Movements(), nil))
	_, err = svc.OpenContainer(ctx, created.ID, "u1")
	require.NoError(t, err)

	name := "Perfume Edición Limitada"
	price := dec(270000)
	out, err := uc.Update(ctx, created.ID, dto.UpdateProductRequest{
		Name:   &name,
		Price:  &price,
		Decant: &dto.DecantPolicyRequest{Enabled: true, Volume: dec(5), Price: dec(18000)},
	})
	require.NoError(t, err)
	assert.Equal(t, name, out.Name)
	assert.Equal(t, 2, out.StockQuantity)
	assert.True(t, dec(100).Equal(out.Decant.OpenedVolumeLeft))
	assert.True(t, dec(5).Equal(out.Decant.Volume))

	stored, err := uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.StockQuantity)
	assert.True(t, dec(100).Equal(stored.Decant.OpenedVolumeLeft))

	smaller := dec(50)
	_, err = uc.Update(ctx, created.ID, dto.UpdateProductRequest{ContainerVolume: &smaller})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no puede quedar menos envase que lo abierto")

	_, err = uc.Update(ctx, "nope", dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_ListPaginado(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.NewStore().Products(), nil)
	ctx := context.Background()
	for _, sku := range []string{"A", "B", "C"} {
		_, err := uc.Create(ctx, "u1", perfumeRequest(sku))
		require.NoError(t, err)
	}

	page, err := uc.List(ctx, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page.Limit)

	rest, err := uc.List(ctx, dto.PageRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Clientes
// ──────────────────────────────────────────────────────────────────────────────

func TestCustomerUseCase_CrearObtenerListar(t *testing.T) {
	uc := usecase.NewCustomerUseCase(memory.NewStore().Customers())
	ctx := context.Background()

	ana, err := uc.Create(ctx, dto.CreateCustomerRequest{Name: "Ana", TaxID: "1020304050", Email: "ANA@Mail.com"})
	require.NoError(t, err)
	assert.Equal(t, "ana@mail.com", ana.Email)
	assert.Zero(t, ana.TotalOrders)

	_, err = uc.Create(ctx, dto.CreateCustomerRequest{Name: "Otra Ana", TaxID: "1020304050"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.CreateCustomerRequest{Name: "Bruno", TaxID: "900123456"})
	require.NoError(t, err)

	got, err := uc.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	_, err = uc.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uc.List(ctx, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Ana", list.Items[0].Name)
	assert.Equal(t, "Bruno", list.Items[1].Name)
}
