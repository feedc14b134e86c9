package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct {
	s *Store
	t *txn // nil = autocommit
}

func (r *productRepo) tx() *txn {
	if r.t != nil {
		return r.t
	}
	return newTxn(r.s, true)
}

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	t := r.tx()
	if t.product(p.ID) != nil {
		return domain.ErrDuplicate
	}
	if p.Version == 0 {
		p.Version = 1
	}
	t.products[p.ID] = cloneProduct(p)
	t.newProducts[p.ID] = true
	return t.done()
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p := r.tx().product(id)
	if p == nil {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (r *productRepo) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	t := r.tx()
	out := make(map[string]*entity.Product, len(ids))
	for _, id := range ids {
		if p := t.product(id); p != nil {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	all, err := r.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (r *productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	t := r.tx()
	r.s.mu.RLock()
	ids := make([]string, 0, len(r.s.products))
	for id := range r.s.products {
		ids = append(ids, id)
	}
	r.s.mu.RUnlock()
	for id := range t.newProducts {
		ids = append(ids, id)
	}
	list := make([]*entity.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p := t.product(id); p != nil {
			list = append(list, cloneProduct(p))
		}
	}
	sortByNewest(list,
		func(p *entity.Product) int64 { return p.CreatedAt.UnixNano() },
		func(p *entity.Product) string { return p.ID })
	return page(list, limit, offset), nil
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	t := r.tx()
	cur := t.product(p.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	if p.ContainerVolume.IsPositive() && cur.Decant.OpenedVolumeLeft.GreaterThan(p.ContainerVolume) {
		return fmt.Errorf("%w: el volumen del envase no puede ser menor que el abierto", domain.ErrInvalidInput)
	}
	copyProductMetadata(cur, p)
	t.metaWrites[p.ID] = true
	return t.done()
}

func (r *productRepo) UpdateStock(_ context.Context, p *entity.Product, expectedVersion int64) error {
	t := r.tx()
	cur := t.product(p.ID)
	if cur == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, p.ID)
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("%w: producto %s", domain.ErrConcurrentModification, p.ID)
	}
	if p.StockQuantity < 0 || p.Decant.OpenedVolumeLeft.IsNegative() {
		return fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, p.ID)
	}
	cur.StockQuantity = p.StockQuantity
	cur.Decant.OpenedVolumeLeft = p.Decant.OpenedVolumeLeft
	cur.Version = expectedVersion + 1
	cur.UpdatedAt = time.Now()
	t.stockWrites[p.ID] = true
	if err := t.done(); err != nil {
		return err
	}
	p.Version = expectedVersion + 1
	return nil
}

func (r *productRepo) UpdateCostAndSupplier(_ context.Context, productID string, cost decimal.Decimal, supplierID string) error {
	t := r.tx()
	cur := t.product(productID)
	if cur == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	cur.Cost = cost
	cur.SupplierID = supplierID
	t.costWrites[productID] = true
	return t.done()
}
