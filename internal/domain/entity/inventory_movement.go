package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeRestock       = "RESTOCK"        // entrada por reposición
	MovementTypeSale          = "SALE"           // salida por venta POS
	MovementTypeOrderEdit     = "ORDER_EDIT"     // ajuste neto por edición de orden
	MovementTypeOrderDelete   = "ORDER_DELETE"   // devolución por eliminación de orden
	MovementTypeOrderCancel   = "ORDER_CANCEL"   // devolución por cancelación de orden
	MovementTypeOpenContainer = "OPEN_CONTAINER" // apertura manual de un envase
)

// InventoryMovement es la entrada de auditoría de un cambio de stock de un producto.
// Quantity es la variación de unidades enteras (positiva entrada, negativa salida).
type InventoryMovement struct {
	ID             string
	ProductID      string
	Type           string
	PreviousStock  int
	Quantity       int
	NewStock       int
	PreviousVolume decimal.Decimal // ml en el envase abierto antes del cambio
	NewVolume      decimal.Decimal
	UnitCost       decimal.Decimal
	SupplierID     string
	Reference      string // id de orden o venta, si aplica
	CreatedBy      string // UserID del actor
	CreatedAt      time.Time
}
