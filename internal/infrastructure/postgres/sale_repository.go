package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, order_id, customer_id, status, subtotal, discount_total, total, cost_total,
	payment_method, amount_paid, change_amount, created_by, created_at, updated_at`

// SaleRepo implementación de SaleRepository (cabecera en sales, líneas en sale_items).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la venta y sus líneas. La orden referenciada debe existir.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.OrderID, s.CustomerID, s.Status, s.Subtotal, s.DiscountTotal, s.Total, s.CostTotal,
		s.PaymentMethod, s.AmountPaid, s.Change, s.CreatedBy, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return classify("insert sale", err)
	}
	return r.insertItems(ctx, s.ID, s.Items)
}

func (r *SaleRepo) insertItems(ctx context.Context, saleID string, items []entity.SaleItem) error {
	query := `
		INSERT INTO sale_items (sale_id, line_no, product_id, kind, quantity, unit_price, discount, total_price, decant_volume, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i, it := range items {
		if _, err := r.q.Exec(ctx, query, saleID, i+1, it.ProductID, string(it.Kind), it.Quantity,
			it.UnitPrice, it.Discount, it.TotalPrice, it.DecantVolume, it.UnitCost); err != nil {
			return classify("insert sale item", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var s entity.Sale
	err := r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id).Scan(
		&s.ID, &s.OrderID, &s.CustomerID, &s.Status, &s.Subtotal, &s.DiscountTotal, &s.Total, &s.CostTotal,
		&s.PaymentMethod, &s.AmountPaid, &s.Change, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get sale", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT product_id, kind, quantity, unit_price, discount, total_price, decant_volume, unit_cost
		FROM sale_items WHERE sale_id = $1 ORDER BY line_no`, s.ID)
	if err != nil {
		return nil, classify("list sale items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.SaleItem
		var kind string
		if err := rows.Scan(&it.ProductID, &kind, &it.Quantity, &it.UnitPrice, &it.Discount, &it.TotalPrice,
			&it.DecantVolume, &it.UnitCost); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		it.Kind = entity.LineKind(kind)
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list sale items", err)
	}
	return &s, nil
}

// Update reemplaza cabecera y líneas.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales SET customer_id = $2, status = $3, subtotal = $4, discount_total = $5, total = $6, cost_total = $7,
			payment_method = $8, amount_paid = $9, change_amount = $10, updated_at = $11
		WHERE id = $1`,
		s.ID, s.CustomerID, s.Status, s.Subtotal, s.DiscountTotal, s.Total, s.CostTotal,
		s.PaymentMethod, s.AmountPaid, s.Change, s.UpdatedAt,
	)
	if err != nil {
		return classify("update sale", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, s.ID); err != nil {
		return classify("delete sale items", err)
	}
	return r.insertItems(ctx, s.ID, s.Items)
}

// Delete elimina la venta; sus líneas caen por ON DELETE CASCADE.
func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id); err != nil {
		return classify("delete sale", err)
	}
	return nil
}
