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

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, customer_id, sale_id, status, subtotal, discount_total, total, created_by, created_at, updated_at`

// OrderRepo implementación de OrderRepository (cabecera en orders, líneas en order_items).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	if err := row.Scan(&o.ID, &o.CustomerID, &o.SaleID, &o.Status, &o.Subtotal, &o.DiscountTotal, &o.Total,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// Create persiste la orden y sus líneas.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, `INSERT INTO orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.CustomerID, o.SaleID, o.Status, o.Subtotal, o.DiscountTotal, o.Total, o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return classify("insert order", err)
	}
	return r.insertItems(ctx, o.ID, o.Items)
}

func (r *OrderRepo) insertItems(ctx context.Context, orderID string, items []entity.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, line_no, product_id, kind, quantity, unit_price, discount, total_price, decant_volume, opened_containers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i, it := range items {
		if _, err := r.q.Exec(ctx, query, orderID, i+1, it.ProductID, string(it.Kind), it.Quantity,
			it.UnitPrice, it.Discount, it.TotalPrice, it.DecantVolume, it.OpenedContainers); err != nil {
			return classify("insert order item", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus líneas en orden de captura.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate obtiene la orden con SELECT ... FOR UPDATE: una segunda transacción que edite
// la misma orden espera al commit de la primera y lee sus líneas ya confirmadas.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) get(ctx context.Context, query, id string) (*entity.Order, error) {
	if !isUUID(id) {
		return nil, nil
	}
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get order", err)
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepo) items(ctx context.Context, orderID string) ([]entity.OrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, kind, quantity, unit_price, discount, total_price, decant_volume, opened_containers
		FROM order_items WHERE order_id = $1 ORDER BY line_no`, orderID)
	if err != nil {
		return nil, classify("list order items", err)
	}
	defer rows.Close()
	var items []entity.OrderItem
	for rows.Next() {
		var it entity.OrderItem
		var kind string
		if err := rows.Scan(&it.ProductID, &kind, &it.Quantity, &it.UnitPrice, &it.Discount, &it.TotalPrice,
			&it.DecantVolume, &it.OpenedContainers); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.Kind = entity.LineKind(kind)
		items = append(items, it)
	}
	return items, rows.Err()
}

// List lista órdenes (sin líneas), más recientes primero.
func (r *OrderRepo) List(ctx context.Context, limit, offset int) ([]*entity.Order, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, classify("list orders", err)
	}
	defer rows.Close()
	var list []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Update reemplaza cabecera y líneas de la orden.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE orders SET customer_id = $2, sale_id = $3, status = $4, subtotal = $5, discount_total = $6, total = $7, updated_at = $8
		WHERE id = $1`,
		o.ID, o.CustomerID, o.SaleID, o.Status, o.Subtotal, o.DiscountTotal, o.Total, o.UpdatedAt,
	)
	if err != nil {
		return classify("update order", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
		return classify("delete order items", err)
	}
	return r.insertItems(ctx, o.ID, o.Items)
}

// Delete elimina la orden; sus líneas caen por ON DELETE CASCADE.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return classify("delete order", err)
	}
	return nil
}
