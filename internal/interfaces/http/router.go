package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventario/internal/application/auth"
	"github.com/jhoicas/pos-inventario/internal/application/inventory"
	"github.com/jhoicas/pos-inventario/internal/application/orders"
	"github.com/jhoicas/pos-inventario/internal/application/usecase"
	"github.com/jhoicas/pos-inventario/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC      *usecase.ProductUseCase
	CustomerUC     *usecase.CustomerUseCase
	Restock        *inventory.RestockUseCase
	Decants        *inventory.DecantService
	InventoryQuery *inventory.QueryUseCase
	Coordinator    *orders.Coordinator
	OrderQuery     *orders.QueryUseCase
	Receipts       *orders.ReceiptUseCase
	AuthUC         *auth.AuthUseCase
	// Idempotency puede ser nil: POST /api/sales se atiende sin deduplicar.
	Idempotency IdempotencyStore
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (login público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	admin := RequireRole(entity.RoleAdmin)
	stock := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	sales := RequireRole(entity.RoleAdmin, entity.RoleVendedor)

	protected.Post("/auth/register", admin, authHandler.Register)

	// Products e inventario
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	inventoryHandler := NewInventoryHandler(deps.Restock, deps.Decants, deps.InventoryQuery)
	products.Post("/", stock, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", stock, productHandler.Update)
	products.Post("/:id/restock", stock, inventoryHandler.Restock)
	products.Post("/:id/open-container", stock, inventoryHandler.OpenContainer)
	products.Get("/:id/availability", inventoryHandler.Availability)
	products.Get("/:id/movements", inventoryHandler.Movements)

	// Customers
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", sales, customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)

	// Ventas POS y órdenes
	orderHandler := NewOrderHandler(deps.Coordinator, deps.OrderQuery, deps.Receipts)
	salesGroup := protected.Group("/sales")
	salesGroup.Post("/", sales, Idempotency(deps.Idempotency), orderHandler.CreateSale)
	salesGroup.Get("/:id", orderHandler.GetSale)
	salesGroup.Get("/:id/receipt", orderHandler.Receipt)

	ordersGroup := protected.Group("/orders")
	ordersGroup.Get("/", orderHandler.ListOrders)
	ordersGroup.Get("/:id", orderHandler.GetOrder)
	ordersGroup.Put("/:id", sales, orderHandler.UpdateOrder)
	ordersGroup.Delete("/:id", sales, orderHandler.DeleteOrder)
	ordersGroup.Post("/:id/complete", sales, orderHandler.CompleteOrder)
	ordersGroup.Post("/:id/cancel", sales, orderHandler.CancelOrder)
}
