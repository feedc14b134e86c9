package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/inventory"
)

func whole(productID string, q int) entity.OrderItem {
	return entity.OrderItem{ProductID: productID, Kind: entity.LineKindWholeUnit, Quantity: q}
}

func decant(productID string, q int, ml string) entity.OrderItem {
	return entity.OrderItem{ProductID: productID, Kind: entity.LineKindDecant, Quantity: q, DecantVolume: dec(ml)}
}

func TestNetAdjustments_MismoProductoSoloDiferencia(t *testing.T) {
	adjs := inventory.NetAdjustments(
		[]entity.OrderItem{whole("a", 5), whole("b", 1)},
		[]entity.OrderItem{whole("a", 3), whole("c", 2)},
	)

	require.Len(t, adjs, 3)
	assert.Equal(t, "a", adjs[0].ProductID)
	assert.Equal(t, 2, adjs[0].Units, "5 → 3 devuelve 2")
	assert.Equal(t, "b", adjs[1].ProductID)
	assert.Equal(t, 1, adjs[1].Units)
	assert.Equal(t, "c", adjs[2].ProductID)
	assert.Equal(t, -2, adjs[2].Units)
}

func TestNetAdjustments_SinCambiosNoGeneraAjustes(t *testing.T) {
	items := []entity.OrderItem{whole("a", 2), whole("b", 4)}
	assert.Empty(t, inventory.NetAdjustments(items, items))
}

func TestPlan_ReducirCantidadNoFallaConStockCero(t *testing.T) {
	// El producto ya no tiene stock: reducir de 3 a 1 debe devolver 2 sin validar -3 primero.
	records := map[string]inventory.StockRecord{"a": {ProductID: "a", StockQuantity: 0}}
	adjs := inventory.NetAdjustments([]entity.OrderItem{whole("a", 3)}, []entity.OrderItem{whole("a", 1)})

	changes, err := inventory.PlanBatch(records, adjs)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 2, changes[0].After.StockQuantity)
	assert.Equal(t, 2, changes[0].UnitsDelta())
}

func TestPlanBatch_TodoONada(t *testing.T) {
	records := map[string]inventory.StockRecord{
		"a": {ProductID: "a", StockQuantity: 10},
		"b": {ProductID: "b", StockQuantity: 1},
	}
	adjs := inventory.NetAdjustments(nil, []entity.OrderItem{whole("a", 2), whole("b", 3)})

	changes, err := inventory.PlanBatch(records, adjs)
	require.Error(t, err)
	assert.Nil(t, changes)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "b", stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
}

func TestPlanBatch_ProductoInexistente(t *testing.T) {
	_, err := inventory.PlanBatch(map[string]inventory.StockRecord{}, []inventory.Adjustment{{ProductID: "x", Units: -1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlanBatch_DecantsVariasLineasReportaTotal(t *testing.T) {
	rec, _ := perfume()
	records := map[string]inventory.StockRecord{rec.ProductID: rec}
	items := []entity.OrderItem{decant(rec.ProductID, 10, "10"), decant(rec.ProductID, 11, "10")}

	_, err := inventory.PlanBatch(records, inventory.NetAdjustments(nil, items))

	var volErr *domain.InsufficientVolumeError
	require.True(t, errors.As(err, &volErr))
	assertDec(t, "210", volErr.Required, "requerido total del producto")
	assertDec(t, "205", volErr.Available, "disponible")
}

func TestAssignOpened_PorLinea(t *testing.T) {
	rec, _ := perfume()
	records := map[string]inventory.StockRecord{rec.ProductID: rec}
	items := []entity.OrderItem{decant(rec.ProductID, 1, "10"), whole("otro", 0), decant(rec.ProductID, 10, "10")}
	records["otro"] = inventory.StockRecord{ProductID: "otro", StockQuantity: 1}

	changes, err := inventory.PlanBatch(records, inventory.NetAdjustments(nil, items))
	require.NoError(t, err)
	inventory.AssignOpened(items, changes)

	assert.Equal(t, 1, items[0].OpenedContainers, "la primera línea abre el envase")
	assert.Equal(t, 1, items[2].OpenedContainers, "la segunda línea agota el pool y abre otro")
	assert.Zero(t, items[1].OpenedContainers)
}

func TestPlan_EdicionDecantRestauraAntesDeAsignar(t *testing.T) {
	rec, policy := perfume()
	old := decant(rec.ProductID, 20, "10")
	_, opened, err := asignar(&rec, policy, 20) // 200 de 205 ml
	require.NoError(t, err)
	old.OpenedContainers = opened

	// Editar 20 → 19 debe ser posible aunque solo queden 5 ml.
	changes, err := inventory.PlanBatch(
		map[string]inventory.StockRecord{rec.ProductID: rec},
		inventory.NetAdjustments([]entity.OrderItem{old}, []entity.OrderItem{decant(rec.ProductID, 19, "10")}),
	)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	diff := changes[0].After.AvailableVolume().Sub(changes[0].Before.AvailableVolume())
	assert.True(t, diff.Equal(decimal.NewFromInt(10)), "la edición libera exactamente un decant, obtenido %s", diff)
}

func TestPlan_VariasLineasDecantCrearYEliminarRestauraExacto(t *testing.T) {
	// Envase de 100 ml y decant de 50 ml: dos líneas de un decant consumen un envase entero.
	start := inventory.StockRecord{ProductID: "p", StockQuantity: 2, ContainerVolume: dec("100")}
	items := []entity.OrderItem{decant("p", 1, "50"), decant("p", 1, "50")}

	created, err := inventory.PlanBatch(map[string]inventory.StockRecord{"p": start}, inventory.NetAdjustments(nil, items))
	require.NoError(t, err)
	inventory.AssignOpened(items, created)
	assert.Equal(t, 1, items[0].OpenedContainers, "la primera línea abre el envase")
	assert.Zero(t, items[1].OpenedContainers, "la segunda consume el resto del pool")
	assert.Equal(t, 1, created[0].After.StockQuantity)
	assert.True(t, created[0].After.OpenedVolumeLeft.IsZero())

	deleted, err := inventory.PlanBatch(map[string]inventory.StockRecord{"p": created[0].After}, inventory.NetAdjustments(items, nil))
	require.NoError(t, err)
	got := deleted[0].After
	assert.Equal(t, 2, got.StockQuantity, "el envase abierto vuelve a estar cerrado")
	assert.True(t, got.OpenedVolumeLeft.IsZero(), "pool restaurado, obtenido %s", got.OpenedVolumeLeft)

	_, err = inventory.OpenContainer(&got)
	assert.NoError(t, err, "abrir un envase debe ser posible tras restaurar")
}

func TestPlan_VariasLineasDecantEdicionSoloDiferencia(t *testing.T) {
	start := inventory.StockRecord{ProductID: "p", StockQuantity: 3, ContainerVolume: dec("100"), OpenedVolumeLeft: dec("20")}
	items := []entity.OrderItem{decant("p", 1, "30"), decant("p", 2, "30"), decant("p", 1, "30")}

	created, err := inventory.PlanBatch(map[string]inventory.StockRecord{"p": start}, inventory.NetAdjustments(nil, items))
	require.NoError(t, err)
	inventory.AssignOpened(items, created)
	assertDec(t, "120", created[0].Before.AvailableVolume().Sub(created[0].After.AvailableVolume()), "cuatro decants de 30 ml")

	next := []entity.OrderItem{decant("p", 1, "30"), decant("p", 1, "30")}
	edited, err := inventory.PlanBatch(map[string]inventory.StockRecord{"p": created[0].After}, inventory.NetAdjustments(items, next))
	require.NoError(t, err)
	diff := edited[0].After.AvailableVolume().Sub(edited[0].Before.AvailableVolume())
	assertDec(t, "60", diff, "pasar de 4 a 2 decants libera 60 ml")
	require.NoError(t, edited[0].After.Validate())

	inventory.AssignOpened(next, edited)
	deleted, err := inventory.PlanBatch(map[string]inventory.StockRecord{"p": edited[0].After}, inventory.NetAdjustments(next, nil))
	require.NoError(t, err)
	assertDec(t, start.AvailableVolume().String(), deleted[0].After.AvailableVolume(), "eliminar devuelve todo el volumen")
}

func TestWeightedAverageCost(t *testing.T) {
	got := inventory.WeightedAverageCost(10, dec("100"), 10, dec("200"))
	assertDec(t, "150", got, "promedio ponderado")
	assert.True(t, inventory.WeightedAverageCost(0, dec("0"), 0, dec("10")).IsZero())
}

func TestAvailabilityOf(t *testing.T) {
	p := &entity.Product{
		ID:              "p",
		StockQuantity:   2,
		ContainerVolume: dec("100"),
		Decant:          entity.DecantPolicy{Enabled: true, Volume: dec("10"), OpenedVolumeLeft: dec("5")},
	}
	a := inventory.AvailabilityOf(p)
	assertDec(t, "205", a.AvailableVolume, "volumen")
	assert.Equal(t, 20, a.DecantsAvailable)
	assert.True(t, a.DecantEnabled)
}
