package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	"github.com/jhoicas/pos-inventario/internal/application/inventory"
)

// InventoryHandler maneja reposición, apertura de envases y consultas de stock (protegido).
type InventoryHandler struct {
	restock *inventory.RestockUseCase
	decants *inventory.DecantService
	query   *inventory.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(restock *inventory.RestockUseCase, decants *inventory.DecantService, query *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{restock: restock, decants: decants, query: query}
}

// Restock godoc
// @Summary      Reponer stock
// @Description  Suma unidades enteras; con unit_cost recalcula el costo promedio ponderado.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.RestockRequest  true  "quantity, unit_cost, supplier_id"
// @Success      200   {object}  dto.RestockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/restock [post]
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	var in dto.RestockRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.restock.Apply(c.UserContext(), inventory.RestockInput{
		ProductID:  c.Params("id"),
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		SupplierID: in.SupplierID,
		Actor:      GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// OpenContainer godoc
// @Summary      Abrir un envase
// @Description  Abre un envase cerrado para vender decants. Falla si ya hay uno abierto con volumen.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.OpenContainerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/open-container [post]
func (h *InventoryHandler) OpenContainer(c *fiber.Ctx) error {
	out, err := h.decants.OpenContainer(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Availability godoc
// @Summary      Disponibilidad de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/availability [get]
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	out, err := h.query.Availability(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Auditoría de stock de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {array}   dto.MovementResponse
// @Router       /api/products/{id}/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := bindQuery(c, &page); err != nil {
		return writeError(c, err)
	}
	out, err := h.query.Movements(c.UserContext(), c.Params("id"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
