package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, description, unit, price, cost, supplier_id, stock_quantity, container_volume,
	decant_enabled, decant_volume, decant_price, opened_volume_left, version, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Unit, &p.Price, &p.Cost, &p.SupplierID,
		&p.StockQuantity, &p.ContainerVolume,
		&p.Decant.Enabled, &p.Decant.Volume, &p.Decant.Price, &p.Decant.OpenedVolumeLeft,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto con su stock inicial.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	if p.Version == 0 {
		p.Version = 1
	}
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Description, p.Unit, p.Price, p.Cost, p.SupplierID,
		p.StockQuantity, p.ContainerVolume,
		p.Decant.Enabled, p.Decant.Volume, p.Decant.Price, p.Decant.OpenedVolumeLeft,
		p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return classify("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if !isUUID(id) {
		return nil, nil
	}
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get product", err)
	}
	return p, nil
}

// GetByIDs obtiene varios productos en una sola consulta; los ids inexistentes no aparecen en el mapa.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, dedupe(ids))
	if err != nil {
		return nil, classify("get products", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, classify("get products", err)
	}
	return out, nil
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get product by sku", err)
	}
	return p, nil
}

// List lista productos con paginación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, classify("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update actualiza datos de catálogo. No toca stock, envase abierto, costo ni versión.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET sku = $2, name = $3, description = $4, unit = $5, price = $6,
			container_volume = $7, decant_enabled = $8, decant_volume = $9, decant_price = $10, updated_at = $11
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Description, p.Unit, p.Price,
		p.ContainerVolume, p.Decant.Enabled, p.Decant.Volume, p.Decant.Price, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: el volumen del envase no puede ser menor que el abierto", domain.ErrInvalidInput)
		}
		return classify("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStock escribe stock y envase abierto solo si la versión sigue siendo expectedVersion.
func (r *ProductRepo) UpdateStock(ctx context.Context, p *entity.Product, expectedVersion int64) error {
	query := `
		UPDATE products SET stock_quantity = $3, opened_volume_left = $4, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`
	cmd, err := r.q.Exec(ctx, query, p.ID, expectedVersion, p.StockQuantity, p.Decant.OpenedVolumeLeft)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, p.ID)
		}
		return classify("update product stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: producto %s", domain.ErrConcurrentModification, p.ID)
	}
	p.Version = expectedVersion + 1
	return nil
}

// UpdateCostAndSupplier actualiza costo promedio y proveedor (usado por el reabastecimiento).
func (r *ProductRepo) UpdateCostAndSupplier(ctx context.Context, productID string, cost decimal.Decimal, supplierID string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE products SET cost = $2, supplier_id = $3, updated_at = now() WHERE id = $1`,
		productID, cost, supplierID,
	)
	if err != nil {
		return classify("update product cost", err)
	}
	return nil
}

// dedupe elimina repetidos e ids que no son UUID (no pueden existir en una columna uuid).
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || !isUUID(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
