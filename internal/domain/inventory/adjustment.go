package inventory

import (
	"fmt"
	"sort"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// VolumeRelease devuelve al inventario el volumen de una línea de decant ya asignada.
type VolumeRelease struct {
	Volume           decimal.Decimal
	OpenedContainers int
}

// Adjustment es la intención de ajuste de stock sobre un producto.
// Units es el delta neto de unidades enteras; Releases y Requests son volúmenes de decant
// devueltos y solicitados (uno por línea, en el orden de las líneas).
type Adjustment struct {
	ProductID string
	Units     int
	Releases  []VolumeRelease
	Requests  []decimal.Decimal
}

// IsZero indica que el ajuste no cambia nada.
func (a Adjustment) IsZero() bool {
	return a.Units == 0 && len(a.Releases) == 0 && len(a.Requests) == 0
}

// Change es el resultado planificado de un ajuste: estado anterior, estado nuevo y
// envases abiertos por cada Request.
type Change struct {
	ProductID string
	Before    StockRecord
	After     StockRecord
	Opened    []int
}

// UnitsDelta es la variación de unidades enteras cerradas.
func (c Change) UnitsDelta() int {
	return c.After.StockQuantity - c.Before.StockQuantity
}

// Plan calcula el nuevo estado del registro sin efectos secundarios.
// Primero aplica lo que devuelve stock y luego lo que consume, de modo que una línea
// reducida nunca produce un stock insuficiente espurio. Las devoluciones de volumen se
// deshacen de la más reciente a la más antigua: cada una revierte exactamente su asignación.
func Plan(rec StockRecord, adj Adjustment) (Change, error) {
	after := rec
	after.IncrementWhole(adj.Units)
	for i := len(adj.Releases) - 1; i >= 0; i-- {
		after.RestoreVolume(adj.Releases[i].Volume, adj.Releases[i].OpenedContainers)
	}
	if adj.Units < 0 {
		if err := after.DecrementWhole(-adj.Units); err != nil {
			return Change{}, err
		}
	}
	opened, err := AllocateRequests(&after, adj.Requests)
	if err != nil {
		return Change{}, err
	}
	if err := after.Validate(); err != nil {
		return Change{}, err
	}
	return Change{ProductID: rec.ProductID, Before: rec, After: after, Opened: opened}, nil
}

// PlanBatch valida y planifica todos los ajustes contra los registros dados.
// Si cualquiera falla devuelve ese error y ningún cambio.
func PlanBatch(records map[string]StockRecord, adjs []Adjustment) ([]Change, error) {
	merged := Merge(adjs)
	changes := make([]Change, 0, len(merged))
	for _, adj := range merged {
		rec, ok := records[adj.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, adj.ProductID)
		}
		ch, err := Plan(rec, adj)
		if err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	return changes, nil
}

// Merge combina ajustes del mismo producto, descarta los vacíos y ordena por ProductID.
func Merge(adjs []Adjustment) []Adjustment {
	byID := make(map[string]*Adjustment, len(adjs))
	ids := make([]string, 0, len(adjs))
	for _, a := range adjs {
		acc, ok := byID[a.ProductID]
		if !ok {
			acc = &Adjustment{ProductID: a.ProductID}
			byID[a.ProductID] = acc
			ids = append(ids, a.ProductID)
		}
		acc.Units += a.Units
		acc.Releases = append(acc.Releases, a.Releases...)
		acc.Requests = append(acc.Requests, a.Requests...)
	}
	sort.Strings(ids)
	out := make([]Adjustment, 0, len(ids))
	for _, id := range ids {
		if !byID[id].IsZero() {
			out = append(out, *byID[id])
		}
	}
	return out
}

// NetAdjustments reconcilia las líneas anteriores y nuevas de una orden en un ajuste por producto:
// +cantidad por cada línea anterior y -cantidad por cada línea nueva, netos en un único delta.
func NetAdjustments(previous, next []entity.OrderItem) []Adjustment {
	adjs := make([]Adjustment, 0, len(previous)+len(next))
	for _, it := range previous {
		if it.Kind == entity.LineKindDecant {
			adjs = append(adjs, Adjustment{
				ProductID: it.ProductID,
				Releases:  []VolumeRelease{{Volume: it.Volume(), OpenedContainers: it.OpenedContainers}},
			})
			continue
		}
		adjs = append(adjs, Adjustment{ProductID: it.ProductID, Units: it.Quantity})
	}
	for _, it := range next {
		if it.Kind == entity.LineKindDecant {
			adjs = append(adjs, Adjustment{ProductID: it.ProductID, Requests: []decimal.Decimal{it.Volume()}})
			continue
		}
		adjs = append(adjs, Adjustment{ProductID: it.ProductID, Units: -it.Quantity})
	}
	return Merge(adjs)
}

// AssignOpened copia a cada línea de decant los envases que abrió su asignación.
// items debe ser la misma lista usada como `next` en NetAdjustments.
func AssignOpened(items []entity.OrderItem, changes []Change) {
	byID := make(map[string][]int, len(changes))
	for _, ch := range changes {
		byID[ch.ProductID] = ch.Opened
	}
	cursor := make(map[string]int)
	for i := range items {
		if items[i].Kind != entity.LineKindDecant {
			continue
		}
		opened := byID[items[i].ProductID]
		idx := cursor[items[i].ProductID]
		if idx < len(opened) {
			items[i].OpenedContainers = opened[idx]
		}
		cursor[items[i].ProductID] = idx + 1
	}
}
