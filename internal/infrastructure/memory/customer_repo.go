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

var _ repository.CustomerRepository = (*customerRepo)(nil)

type customerRepo struct {
	s *Store
	t *txn
}

func (r *customerRepo) tx() *txn {
	if r.t != nil {
		return r.t
	}
	return newTxn(r.s, true)
}

func (r *customerRepo) Create(_ context.Context, c *entity.Customer) error {
	t := r.tx()
	if t.customer(c.ID) != nil {
		return domain.ErrDuplicate
	}
	t.customers[c.ID] = cloneCustomer(c)
	t.newCustomers[c.ID] = true
	return t.done()
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c := r.tx().customer(id)
	if c == nil {
		return nil, nil
	}
	return cloneCustomer(c), nil
}

func (r *customerRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Customer, error) {
	all, err := r.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.TaxID == taxID {
			return c, nil
		}
	}
	return nil, nil
}

func (r *customerRepo) List(_ context.Context, limit, offset int) ([]*entity.Customer, error) {
	t := r.tx()
	r.s.mu.RLock()
	ids := make([]string, 0, len(r.s.customers))
	for id := range r.s.customers {
		ids = append(ids, id)
	}
	r.s.mu.RUnlock()
	for id := range t.newCustomers {
		ids = append(ids, id)
	}
	seen := make(map[string]bool, len(ids))
	var list []*entity.Customer
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c := t.customer(id); c != nil {
			list = append(list, cloneCustomer(c))
		}
	}
	sortByName(list)
	return page(list, limit, offset), nil
}

func (r *customerRepo) Update(_ context.Context, c *entity.Customer) error {
	t := r.tx()
	cur := t.customer(c.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	cur.Name, cur.TaxID, cur.Email, cur.Phone, cur.UpdatedAt = c.Name, c.TaxID, c.Email, c.Phone, c.UpdatedAt
	t.customerWrites[c.ID] = true
	return t.done()
}

// ApplyPurchase difiere el incremento al commit y lo aplica sobre la fila vigente.
func (r *customerRepo) ApplyPurchase(_ context.Context, customerID string, amount decimal.Decimal, orders int, lastPurchase *time.Time) error {
	t := r.tx()
	cur := t.customer(customerID)
	if cur == nil {
		return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, customerID)
	}
	cur.TotalPurchases = decimal.Max(cur.TotalPurchases.Add(amount), decimal.Zero)
	cur.TotalOrders = max(cur.TotalOrders+orders, 0)
	if lastPurchase != nil {
		d := *lastPurchase
		cur.LastPurchaseDate = &d
	}
	t.purchases = append(t.purchases, purchase{
		customerID: customerID, amount: amount, orders: orders, lastPurchase: lastPurchase,
	})
	return t.done()
}
