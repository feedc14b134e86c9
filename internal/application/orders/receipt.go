package orders

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

// ReceiptLine línea de venta enriquecida con el nombre del producto.
type ReceiptLine struct {
	entity.SaleItem
	ProductName string
	Unit        string
}

// ReceiptGenerator puerto de generación del comprobante de venta en PDF.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, sale *entity.Sale, customer *entity.Customer, lines []ReceiptLine) ([]byte, error)
}

// ReceiptUseCase genera el comprobante PDF de una venta.
type ReceiptUseCase struct {
	sales     repository.SaleRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	generator ReceiptGenerator
}

// NewReceiptUseCase construye el caso de uso inyectando todas sus dependencias.
func NewReceiptUseCase(
	sales repository.SaleRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	generator ReceiptGenerator,
) *ReceiptUseCase {
	return &ReceiptUseCase{sales: sales, customers: customers, products: products, generator: generator}
}

// Download devuelve (pdfBytes, filename). Una venta cancelada no tiene comprobante (ErrInvalidInput).
func (uc *ReceiptUseCase) Download(ctx context.Context, saleID string) ([]byte, string, error) {
	sale, err := uc.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, "", domain.ErrNotFound
	}
	if sale.Status == entity.SaleStatusCancelled {
		return nil, "", fmt.Errorf("%w: la venta está cancelada", domain.ErrInvalidInput)
	}

	var customer *entity.Customer
	if sale.CustomerID != "" {
		customer, err = uc.customers.GetByID(ctx, sale.CustomerID)
		if err != nil {
			return nil, "", fmt.Errorf("comprobante: obtener cliente: %w", err)
		}
	}

	ids := make([]string, 0, len(sale.Items))
	for _, it := range sale.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := uc.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: obtener productos: %w", err)
	}
	lines := make([]ReceiptLine, 0, len(sale.Items))
	for _, it := range sale.Items {
		line := ReceiptLine{SaleItem: it, ProductName: "Producto " + it.ProductID}
		if p := products[it.ProductID]; p != nil {
			line.ProductName = p.Name
			line.Unit = p.Unit
		}
		lines = append(lines, line)
	}

	pdf, err := uc.generator.GenerateReceipt(ctx, sale, customer, lines)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: generación fallida: %w", err)
	}
	return pdf, fmt.Sprintf("venta_%s.pdf", shortID(sale.ID)), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
