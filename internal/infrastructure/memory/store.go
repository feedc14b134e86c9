// Package memory implementa el almacenamiento en memoria (STORE_DRIVER=memory).
//
// Cada transacción trabaja sobre copias: las lecturas se cachean y las escrituras quedan
// diferidas hasta el commit. Al confirmar se valida, bajo el lock del store, que ningún
// producto escrito haya cambiado de versión y que ninguna orden o venta escrita haya cambiado
// de revisión desde que se leyó; si no, el commit falla con domain.ErrConcurrentModification
// y no se aplica nada.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store es el almacenamiento compartido. Es seguro para uso concurrente.
type Store struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	orders    *table[entity.Order]
	sales     *table[entity.Sale]
	customers map[string]*entity.Customer
	movements []*entity.InventoryMovement
	users     map[string]*entity.User

	beforeCommit func()
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]*entity.Product),
		orders:    newTable[entity.Order](),
		sales:     newTable[entity.Sale](),
		customers: make(map[string]*entity.Customer),
		users:     make(map[string]*entity.User),
	}
}

// SetBeforeCommit registra fn para que se ejecute justo antes de validar el commit de cada
// transacción explícita (Run). Permite simular un escritor concurrente en tests.
func (s *Store) SetBeforeCommit(fn func()) {
	s.mu.Lock()
	s.beforeCommit = fn
	s.mu.Unlock()
}

// Run ejecuta fn en una transacción; commit si devuelve nil.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	t := newTxn(s, false)
	if err := fn(t.repositories()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return t.commit()
}

// Products devuelve el repositorio de productos fuera de transacción (autocommit).
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

// Orders devuelve el repositorio de órdenes fuera de transacción.
func (s *Store) Orders() repository.OrderRepository { return &orderRepo{s: s} }

// Sales devuelve el repositorio de ventas fuera de transacción.
func (s *Store) Sales() repository.SaleRepository { return &saleRepo{s: s} }

// Customers devuelve el repositorio de clientes fuera de transacción.
func (s *Store) Customers() repository.CustomerRepository { return &customerRepo{s: s} }

// Movements devuelve el repositorio de auditoría de stock.
func (s *Store) Movements() repository.InventoryMovementRepository { return &movementRepo{s: s} }

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// ── tabla con revisión por fila ───────────────────────────────────────────────

type table[T any] struct {
	rows map[string]*T
	rev  map[string]int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T), rev: make(map[string]int64)}
}

// staged es la vista de una transacción sobre una tabla.
type staged[T any] struct {
	mu    *sync.RWMutex
	src   *table[T]
	clone func(*T) *T
	view  map[string]*T // nil = no existe (o borrado en esta transacción)
	base  map[string]int64
	dirty map[string]bool
}

func newStaged[T any](mu *sync.RWMutex, src *table[T], clone func(*T) *T) *staged[T] {
	return &staged[T]{
		mu: mu, src: src, clone: clone,
		view:  make(map[string]*T),
		base:  make(map[string]int64),
		dirty: make(map[string]bool),
	}
}

func (st *staged[T]) get(id string) *T {
	if v, ok := st.view[id]; ok {
		return v
	}
	st.mu.RLock()
	row, rev := st.src.rows[id], st.src.rev[id]
	st.mu.RUnlock()
	var v *T
	if row != nil {
		v = st.clone(row)
	}
	st.view[id] = v
	st.base[id] = rev
	return v
}

func (st *staged[T]) put(id string, v *T) {
	st.get(id)
	st.view[id] = st.clone(v)
	st.dirty[id] = true
}

func (st *staged[T]) del(id string) {
	st.get(id)
	st.view[id] = nil
	st.dirty[id] = true
}

// ids devuelve los ids confirmados más los creados en la transacción.
func (st *staged[T]) ids() []string {
	st.mu.RLock()
	out := make([]string, 0, len(st.src.rows)+len(st.dirty))
	for id := range st.src.rows {
		out = append(out, id)
	}
	st.mu.RUnlock()
	for id := range st.dirty {
		out = append(out, id)
	}
	return out
}

// conflict se llama con el lock de escritura tomado.
func (st *staged[T]) conflict() bool {
	for id := range st.dirty {
		if st.src.rev[id] != st.base[id] {
			return true
		}
	}
	return false
}

func (st *staged[T]) apply() {
	for id := range st.dirty {
		if v := st.view[id]; v != nil {
			st.src.rows[id] = st.clone(v)
		} else {
			delete(st.src.rows, id)
		}
		st.src.rev[id]++
	}
}

// ── transacción ───────────────────────────────────────────────────────────────

type purchase struct {
	customerID   string
	amount       decimal.Decimal
	orders       int
	lastPurchase *time.Time
}

type txn struct {
	s    *Store
	auto bool

	products    map[string]*entity.Product
	productBase map[string]int64
	newProducts map[string]bool
	stockWrites map[string]bool
	metaWrites  map[string]bool
	costWrites  map[string]bool

	orders *staged[entity.Order]
	sales  *staged[entity.Sale]

	customers      map[string]*entity.Customer
	newCustomers   map[string]bool
	customerWrites map[string]bool
	purchases      []purchase
}

func newTxn(s *Store, auto bool) *txn {
	return &txn{
		s:              s,
		auto:           auto,
		products:       make(map[string]*entity.Product),
		productBase:    make(map[string]int64),
		newProducts:    make(map[string]bool),
		stockWrites:    make(map[string]bool),
		metaWrites:     make(map[string]bool),
		costWrites:     make(map[string]bool),
		orders:         newStaged(&s.mu, s.orders, cloneOrder),
		sales:          newStaged(&s.mu, s.sales, cloneSale),
		customers:      make(map[string]*entity.Customer),
		newCustomers:   make(map[string]bool),
		customerWrites: make(map[string]bool),
	}
}

func (t *txn) repositories() inventory.Repositories {
	return inventory.Repositories{
		Products:  &productRepo{s: t.s, t: t},
		Orders:    &orderRepo{s: t.s, t: t},
		Sales:     &saleRepo{s: t.s, t: t},
		Customers: &customerRepo{s: t.s, t: t},
	}
}

// done confirma de inmediato las escrituras de un repositorio en modo autocommit.
func (t *txn) done() error {
	if t.auto {
		return t.commit()
	}
	return nil
}

func (t *txn) product(id string) *entity.Product {
	if p, ok := t.products[id]; ok {
		return p
	}
	t.s.mu.RLock()
	row := t.s.products[id]
	t.s.mu.RUnlock()
	var p *entity.Product
	if row != nil {
		p = cloneProduct(row)
		t.productBase[id] = row.Version
	}
	t.products[id] = p
	return p
}

func (t *txn) customer(id string) *entity.Customer {
	if c, ok := t.customers[id]; ok {
		return c
	}
	t.s.mu.RLock()
	row := t.s.customers[id]
	t.s.mu.RUnlock()
	var c *entity.Customer
	if row != nil {
		c = cloneCustomer(row)
	}
	t.customers[id] = c
	return c
}

func (t *txn) commit() error {
	if !t.auto {
		t.s.mu.RLock()
		hook := t.s.beforeCommit
		t.s.mu.RUnlock()
		if hook != nil {
			hook()
		}
	}

	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := t.validate(); err != nil {
		return err
	}

	for id := range t.newProducts {
		s.products[id] = cloneProduct(t.products[id])
	}
	for id := range t.stockWrites {
		if t.newProducts[id] {
			continue
		}
		row, p := s.products[id], t.products[id]
		row.StockQuantity = p.StockQuantity
		row.Decant.OpenedVolumeLeft = p.Decant.OpenedVolumeLeft
		row.Version = p.Version
		row.UpdatedAt = p.UpdatedAt
	}
	for id := range t.metaWrites {
		if !t.newProducts[id] {
			copyProductMetadata(s.products[id], t.products[id])
		}
	}
	for id := range t.costWrites {
		if !t.newProducts[id] {
			s.products[id].Cost = t.products[id].Cost
			s.products[id].SupplierID = t.products[id].SupplierID
		}
	}

	t.orders.apply()
	t.sales.apply()

	for id := range t.newCustomers {
		s.customers[id] = cloneCustomer(t.customers[id])
	}
	for id := range t.customerWrites {
		if t.newCustomers[id] {
			continue
		}
		row, c := s.customers[id], t.customers[id]
		row.Name, row.TaxID, row.Email, row.Phone, row.UpdatedAt = c.Name, c.TaxID, c.Email, c.Phone, c.UpdatedAt
	}
	for _, p := range t.purchases {
		if t.newCustomers[p.customerID] {
			continue
		}
		row := s.customers[p.customerID]
		row.TotalPurchases = decimal.Max(row.TotalPurchases.Add(p.amount), decimal.Zero)
		row.TotalOrders = max(row.TotalOrders+p.orders, 0)
		if p.lastPurchase != nil {
			d := *p.lastPurchase
			row.LastPurchaseDate = &d
		}
	}
	return nil
}

// validate se ejecuta con el lock de escritura tomado.
func (t *txn) validate() error {
	s := t.s
	for id := range t.newProducts {
		if _, ok := s.products[id]; ok {
			return domain.ErrDuplicate
		}
	}
	for id := range t.newProducts {
		if s.skuTaken(t.products[id].SKU, id) {
			return domain.ErrDuplicate
		}
	}
	for id := range t.metaWrites {
		if s.skuTaken(t.products[id].SKU, id) {
			return domain.ErrDuplicate
		}
		if t.newProducts[id] {
			continue
		}
		row, p := s.products[id], t.products[id]
		if row == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		// El envase abierto confirmado puede haber cambiado desde la lectura.
		opened := row.Decant.OpenedVolumeLeft
		if t.stockWrites[id] {
			opened = p.Decant.OpenedVolumeLeft
		}
		if p.ContainerVolume.IsPositive() && opened.GreaterThan(p.ContainerVolume) {
			return fmt.Errorf("%w: el volumen del envase no puede ser menor que el abierto", domain.ErrInvalidInput)
		}
	}
	for id := range t.stockWrites {
		if t.newProducts[id] {
			continue
		}
		row := s.products[id]
		if row == nil || row.Version != t.productBase[id] {
			return fmt.Errorf("%w: producto %s", domain.ErrConcurrentModification, id)
		}
	}
	if t.orders.conflict() {
		return fmt.Errorf("%w: orden modificada por otra transacción", domain.ErrConcurrentModification)
	}
	if t.sales.conflict() {
		return fmt.Errorf("%w: venta modificada por otra transacción", domain.ErrConcurrentModification)
	}
	for id := range t.newCustomers {
		if _, ok := s.customers[id]; ok || s.taxIDTaken(t.customers[id].TaxID, id) {
			return domain.ErrDuplicate
		}
	}
	for id := range t.customerWrites {
		if !t.newCustomers[id] && s.taxIDTaken(t.customers[id].TaxID, id) {
			return domain.ErrDuplicate
		}
	}
	for _, p := range t.purchases {
		if s.customers[p.customerID] == nil && !t.newCustomers[p.customerID] {
			return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, p.customerID)
		}
	}
	return nil
}

func (s *Store) skuTaken(sku, exceptID string) bool {
	for id, p := range s.products {
		if id != exceptID && p.SKU == sku {
			return true
		}
	}
	return false
}

func (s *Store) taxIDTaken(taxID, exceptID string) bool {
	for id, c := range s.customers {
		if id != exceptID && c.TaxID == taxID {
			return true
		}
	}
	return false
}

// ── copias ────────────────────────────────────────────────────────────────────

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func copyProductMetadata(dst, src *entity.Product) {
	dst.SKU = src.SKU
	dst.Name = src.Name
	dst.Description = src.Description
	dst.Unit = src.Unit
	dst.Price = src.Price
	dst.ContainerVolume = src.ContainerVolume
	dst.Decant.Enabled = src.Decant.Enabled
	dst.Decant.Volume = src.Decant.Volume
	dst.Decant.Price = src.Decant.Price
	dst.UpdatedAt = src.UpdatedAt
}

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Items = append([]entity.OrderItem(nil), o.Items...)
	if o.SaleID != nil {
		id := *o.SaleID
		c.SaleID = &id
	}
	return &c
}

func cloneSale(s *entity.Sale) *entity.Sale {
	c := *s
	c.Items = append([]entity.SaleItem(nil), s.Items...)
	return &c
}

func cloneCustomer(c *entity.Customer) *entity.Customer {
	out := *c
	if c.LastPurchaseDate != nil {
		d := *c.LastPurchaseDate
		out.LastPurchaseDate = &d
	}
	return &out
}

// page aplica offset y limit sobre una lista ya ordenada.
func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func sortByNewest[T any](list []T, created func(T) int64, id func(T) string) {
	sort.SliceStable(list, func(i, j int) bool {
		ci, cj := created(list[i]), created(list[j])
		if ci != cj {
			return ci > cj
		}
		return id(list[i]) < id(list[j])
	})
}
