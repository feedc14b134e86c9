package memory

import (
	"context"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

var (
	_ repository.OrderRepository = (*orderRepo)(nil)
	_ repository.SaleRepository  = (*saleRepo)(nil)
)

type orderRepo struct {
	s *Store
	t *txn
}

func (r *orderRepo) tx() *txn {
	if r.t != nil {
		return r.t
	}
	return newTxn(r.s, true)
}

func (r *orderRepo) Create(_ context.Context, o *entity.Order) error {
	t := r.tx()
	if t.orders.get(o.ID) != nil {
		return domain.ErrDuplicate
	}
	t.orders.put(o.ID, o)
	return t.done()
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	o := r.tx().orders.get(id)
	if o == nil {
		return nil, nil
	}
	return cloneOrder(o), nil
}

// GetForUpdate equivale a GetByID: la revisión leída se valida en el commit.
func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) List(_ context.Context, limit, offset int) ([]*entity.Order, error) {
	t := r.tx()
	seen := make(map[string]bool)
	var list []*entity.Order
	for _, id := range t.orders.ids() {
		if seen[id] {
			continue
		}
		seen[id] = true
		if o := t.orders.get(id); o != nil {
			list = append(list, cloneOrder(o))
		}
	}
	sortByNewest(list,
		func(o *entity.Order) int64 { return o.CreatedAt.UnixNano() },
		func(o *entity.Order) string { return o.ID })
	return page(list, limit, offset), nil
}

func (r *orderRepo) Update(_ context.Context, o *entity.Order) error {
	t := r.tx()
	if t.orders.get(o.ID) == nil {
		return domain.ErrNotFound
	}
	t.orders.put(o.ID, o)
	return t.done()
}

func (r *orderRepo) Delete(_ context.Context, id string) error {
	t := r.tx()
	if t.orders.get(id) == nil {
		return nil
	}
	t.orders.del(id)
	return t.done()
}

type saleRepo struct {
	s *Store
	t *txn
}

func (r *saleRepo) tx() *txn {
	if r.t != nil {
		return r.t
	}
	return newTxn(r.s, true)
}

func (r *saleRepo) Create(_ context.Context, s *entity.Sale) error {
	t := r.tx()
	if t.sales.get(s.ID) != nil {
		return domain.ErrDuplicate
	}
	if t.orders.get(s.OrderID) == nil {
		return domain.ErrNotFound
	}
	t.sales.put(s.ID, s)
	return t.done()
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	s := r.tx().sales.get(id)
	if s == nil {
		return nil, nil
	}
	return cloneSale(s), nil
}

func (r *saleRepo) Update(_ context.Context, s *entity.Sale) error {
	t := r.tx()
	if t.sales.get(s.ID) == nil {
		return domain.ErrNotFound
	}
	t.sales.put(s.ID, s)
	return t.done()
}

func (r *saleRepo) Delete(_ context.Context, id string) error {
	t := r.tx()
	if t.sales.get(id) == nil {
		return nil
	}
	t.sales.del(id)
	return t.done()
}
