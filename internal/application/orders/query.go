package orders

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/repository"
)

// QueryUseCase lecturas de órdenes y ventas fuera de transacción.
type QueryUseCase struct {
	orders repository.OrderRepository
	sales  repository.SaleRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(orders repository.OrderRepository, sales repository.SaleRepository) *QueryUseCase {
	return &QueryUseCase{orders: orders, sales: sales}
}

// GetOrder obtiene una orden con sus líneas.
func (uc *QueryUseCase) GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener orden: %w", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	resp := toOrderResponse(o)
	return &resp, nil
}

// ListOrders lista órdenes, más recientes primero.
func (uc *QueryUseCase) ListOrders(ctx context.Context, page dto.PageRequest) (*dto.OrderListResponse, error) {
	page.DefaultPage()
	list, err := uc.orders.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar órdenes: %w", err)
	}
	items := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, toOrderResponse(o))
	}
	return &dto.OrderListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// GetSale obtiene una venta con sus líneas y costos.
func (uc *QueryUseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	s, err := uc.sales.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener venta: %w", err)
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	resp := toSaleResponse(s)
	return &resp, nil
}

func toLineResponse(it entity.OrderItem) dto.OrderLineResponse {
	l := dto.OrderLineResponse{
		ProductID:  it.ProductID,
		Kind:       string(it.Kind),
		Quantity:   it.Quantity,
		UnitPrice:  it.UnitPrice,
		Discount:   it.Discount,
		TotalPrice: it.TotalPrice,
	}
	if it.Kind == entity.LineKindDecant {
		v := it.DecantVolume
		l.DecantVolume = &v
	}
	return l
}

func toOrderResponse(o *entity.Order) dto.OrderResponse {
	items := make([]dto.OrderLineResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, toLineResponse(it))
	}
	return dto.OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		SaleID:        o.SaleID,
		Status:        o.Status,
		Items:         items,
		Subtotal:      o.Subtotal,
		DiscountTotal: o.DiscountTotal,
		Total:         o.Total,
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	items := make([]dto.OrderLineResponse, 0, len(s.Items))
	for _, it := range s.Items {
		l := toLineResponse(it.OrderItem)
		cost := it.UnitCost
		l.UnitCost = &cost
		items = append(items, l)
	}
	return dto.SaleResponse{
		ID:            s.ID,
		OrderID:       s.OrderID,
		CustomerID:    s.CustomerID,
		Status:        s.Status,
		Items:         items,
		Subtotal:      s.Subtotal,
		DiscountTotal: s.DiscountTotal,
		Total:         s.Total,
		CostTotal:     s.CostTotal,
		PaymentMethod: s.PaymentMethod,
		AmountPaid:    s.AmountPaid,
		Change:        s.Change,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
