package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	appinventory "github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
	"github.com/jhoicas/pos-inventario/internal/domain/inventory"
	"github.com/jhoicas/pos-inventario/pkg/logger"
)

// Coordinator traduce crear, editar y eliminar una orden (y su venta espejo) en una única
// transacción de ajuste de stock neto. Solo las órdenes DRAFT o ACTIVE admiten cambios.
type Coordinator struct {
	runner   *appinventory.Runner
	adjuster *appinventory.StockAdjuster
	audit    *appinventory.AuditTrail
	log      *logger.Logger
	now      func() time.Time
}

// NewCoordinator construye el coordinador.
func NewCoordinator(
	runner *appinventory.Runner,
	adjuster *appinventory.StockAdjuster,
	audit *appinventory.AuditTrail,
	log *logger.Logger,
) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		runner:   runner,
		adjuster: adjuster,
		audit:    audit,
		log:      log.Named("orders"),
		now:      time.Now,
	}
}

// Create registra una venta POS: asigna stock por línea (unidad entera o decant según Kind),
// persiste Order y Sale espejo y actualiza los agregados del cliente, todo en una transacción.
// Sin Payment se registra solo la orden (entrada manual) con estado DRAFT por defecto.
func (c *Coordinator) Create(ctx context.Context, actor string, in dto.CreateSaleRequest) (*dto.CreateSaleResponse, error) {
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = entity.OrderStatusActive
		if in.Payment == nil {
			status = entity.OrderStatusDraft
		}
	}
	if in.Payment != nil && in.Payment.AmountPaid.IsNegative() {
		return nil, fmt.Errorf("%w: monto pagado negativo", domain.ErrInvalidInput)
	}

	var out *dto.CreateSaleResponse
	var movements []*entity.InventoryMovement
	err := c.runner.Run(ctx, "order_create", func(repos appinventory.Repositories) error {
		if in.CustomerID != "" {
			customer, err := repos.Customers.GetByID(ctx, in.CustomerID)
			if err != nil {
				return fmt.Errorf("obtener cliente: %w", err)
			}
			if customer == nil {
				return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, in.CustomerID)
			}
		}
		products, err := appinventory.LoadProducts(ctx, repos.Products, productIDs(in.Items, nil))
		if err != nil {
			return err
		}
		items, err := buildItems(in.Items, products)
		if err != nil {
			return err
		}

		now := c.now()
		order := &entity.Order{
			ID:         uuid.New().String(),
			CustomerID: in.CustomerID,
			Status:     status,
			Items:      items,
			CreatedBy:  actor,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		order.RecalculateTotals()
		if in.Payment != nil && in.Payment.AmountPaid.LessThan(order.Total) {
			return fmt.Errorf("%w: el pago (%s) no cubre el total (%s)", domain.ErrInvalidInput,
				in.Payment.AmountPaid.StringFixed(2), order.Total.StringFixed(2))
		}

		res, err := c.adjuster.Apply(ctx, repos.Products, products,
			inventory.NetAdjustments(nil, order.Items),
			appinventory.MovementMeta{Type: entity.MovementTypeSale, Reference: order.ID, Actor: actor})
		if err != nil {
			return err
		}
		inventory.AssignOpened(order.Items, res.Changes)

		var sale *entity.Sale
		if in.Payment != nil {
			sale = &entity.Sale{
				ID:            uuid.New().String(),
				Status:        entity.SaleStatusCompleted,
				PaymentMethod: in.Payment.Method,
				AmountPaid:    in.Payment.AmountPaid,
				CreatedBy:     actor,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			order.SaleID = &sale.ID
			sale.MirrorOrder(order, products)
		}
		if err := repos.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("crear orden: %w", err)
		}
		if sale != nil {
			if err := repos.Sales.Create(ctx, sale); err != nil {
				return fmt.Errorf("crear venta: %w", err)
			}
		}
		if order.CustomerID != "" {
			if err := repos.Customers.ApplyPurchase(ctx, order.CustomerID, order.Total, 1, &now); err != nil {
				return fmt.Errorf("agregados del cliente: %w", err)
			}
		}

		movements = res.Movements
		out = &dto.CreateSaleResponse{OrderID: order.ID, Total: order.Total}
		if sale != nil {
			out.SaleID = sale.ID
			out.Change = sale.Change
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.audit.Append(ctx, movements)
	return out, nil
}

// Update reemplaza las líneas de una orden editable. El stock cambia solo por el delta neto
// entre líneas anteriores y nuevas; totales, venta espejo y agregados se actualizan en la misma transacción.
func (c *Coordinator) Update(ctx context.Context, actor, orderID string, in dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}

	var out *dto.OrderResponse
	var movements []*entity.InventoryMovement
	err := c.runner.Run(ctx, "order_update", func(repos appinventory.Repositories) error {
		order, err := editableOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		products, err := appinventory.LoadProducts(ctx, repos.Products, productIDs(in.Items, order.Items))
		if err != nil {
			return err
		}
		items, err := buildItems(in.Items, products)
		if err != nil {
			return err
		}

		res, err := c.adjuster.Apply(ctx, repos.Products, products,
			inventory.NetAdjustments(order.Items, items),
			appinventory.MovementMeta{Type: entity.MovementTypeOrderEdit, Reference: order.ID, Actor: actor})
		if err != nil {
			return err
		}
		inventory.AssignOpened(items, res.Changes)

		previousTotal := order.Total
		order.Items = items
		order.RecalculateTotals()
		order.UpdatedAt = c.now()
		if err := repos.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("actualizar orden: %w", err)
		}
		if err := c.mirrorSale(ctx, repos, order, products, ""); err != nil {
			return err
		}
		if order.CustomerID != "" {
			if diff := order.Total.Sub(previousTotal); !diff.IsZero() {
				if err := repos.Customers.ApplyPurchase(ctx, order.CustomerID, diff, 0, nil); err != nil {
					return fmt.Errorf("agregados del cliente: %w", err)
				}
			}
		}

		movements = res.Movements
		resp := toOrderResponse(order)
		out = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.audit.Append(ctx, movements)
	return out, nil
}

// Delete elimina una orden editable y su venta, devolviendo todo el stock que reservaba.
// Equivale a editarla a una lista vacía, con la misma atomicidad.
func (c *Coordinator) Delete(ctx context.Context, actor, orderID string) (*dto.DeleteOrderResponse, error) {
	return c.release(ctx, actor, orderID, entity.MovementTypeOrderDelete)
}

// Cancel devuelve el stock de una orden editable y la deja (con su venta) en estado CANCELLED.
func (c *Coordinator) Cancel(ctx context.Context, actor, orderID string) (*dto.DeleteOrderResponse, error) {
	return c.release(ctx, actor, orderID, entity.MovementTypeOrderCancel)
}

// Complete cierra una orden editable; no tiene efecto sobre el stock.
func (c *Coordinator) Complete(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.OrderResponse
	err := c.runner.Run(ctx, "order_complete", func(repos appinventory.Repositories) error {
		order, err := editableOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		order.Status = entity.OrderStatusCompleted
		order.UpdatedAt = c.now()
		if err := repos.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("actualizar orden: %w", err)
		}
		resp := toOrderResponse(order)
		out = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Coordinator) release(ctx context.Context, actor, orderID, movementType string) (*dto.DeleteOrderResponse, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.DeleteOrderResponse
	var movements []*entity.InventoryMovement
	err := c.runner.Run(ctx, "order_"+lowerType(movementType), func(repos appinventory.Repositories) error {
		order, err := editableOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		products, err := appinventory.LoadProducts(ctx, repos.Products, productIDs(nil, order.Items))
		if err != nil {
			return err
		}
		res, err := c.adjuster.Apply(ctx, repos.Products, products,
			inventory.NetAdjustments(order.Items, nil),
			appinventory.MovementMeta{Type: movementType, Reference: order.ID, Actor: actor})
		if err != nil {
			return err
		}

		if movementType == entity.MovementTypeOrderDelete {
			if order.SaleID != nil {
				if err := repos.Sales.Delete(ctx, *order.SaleID); err != nil {
					return fmt.Errorf("eliminar venta: %w", err)
				}
			}
			if err := repos.Orders.Delete(ctx, order.ID); err != nil {
				return fmt.Errorf("eliminar orden: %w", err)
			}
		} else {
			order.Status = entity.OrderStatusCancelled
			order.UpdatedAt = c.now()
			if err := repos.Orders.Update(ctx, order); err != nil {
				return fmt.Errorf("actualizar orden: %w", err)
			}
			if err := c.mirrorSale(ctx, repos, order, products, entity.SaleStatusCancelled); err != nil {
				return err
			}
		}
		if order.CustomerID != "" {
			if err := repos.Customers.ApplyPurchase(ctx, order.CustomerID, order.Total.Neg(), -1, nil); err != nil {
				return fmt.Errorf("agregados del cliente: %w", err)
			}
		}

		units, volume := restoredQuantities(order.Items)
		movements = res.Movements
		out = &dto.DeleteOrderResponse{OrderID: order.ID, RestoredUnits: units, RestoredVolume: volume}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.audit.Append(ctx, movements)
	return out, nil
}

// mirrorSale copia la orden sobre su venta enlazada. status vacío conserva el estado.
// Una orden enlazada a una venta que ya no existe aborta la transacción con ErrNotFound.
func (c *Coordinator) mirrorSale(
	ctx context.Context,
	repos appinventory.Repositories,
	order *entity.Order,
	products map[string]*entity.Product,
	status string,
) error {
	if order.SaleID == nil {
		return nil
	}
	sale, err := repos.Sales.GetByID(ctx, *order.SaleID)
	if err != nil {
		return fmt.Errorf("obtener venta: %w", err)
	}
	if sale == nil {
		c.log.Error().Str("order_id", order.ID).Str("sale_id", *order.SaleID).Msg("orden enlazada a una venta inexistente")
		return fmt.Errorf("%w: venta %s enlazada a la orden %s", domain.ErrNotFound, *order.SaleID, order.ID)
	}
	sale.MirrorOrder(order, products)
	if status != "" {
		sale.Status = status
	}
	sale.UpdatedAt = order.UpdatedAt
	if err := repos.Sales.Update(ctx, sale); err != nil {
		return fmt.Errorf("actualizar venta: %w", err)
	}
	return nil
}

func editableOrder(ctx context.Context, repos appinventory.Repositories, orderID string) (*entity.Order, error) {
	order, err := repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("obtener orden: %w", err)
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if !order.Editable() {
		return nil, fmt.Errorf("%w: estado %s", domain.ErrOrderNotEditable, order.Status)
	}
	return order, nil
}

func lowerType(movementType string) string {
	switch movementType {
	case entity.MovementTypeOrderDelete:
		return "delete"
	case entity.MovementTypeOrderCancel:
		return "cancel"
	default:
		return "release"
	}
}
