package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")

	// Reglas de negocio del inventario.
	ErrInsufficientStock    = errors.New("stock insuficiente")
	ErrInsufficientVolume   = errors.New("volumen insuficiente para decants")
	ErrNoContainerAvailable = errors.New("no hay envases cerrados disponibles")
	ErrContainerAlreadyOpen = errors.New("ya hay un envase abierto con volumen restante")
	ErrDecantNotConfigured  = errors.New("el producto no tiene decants configurados")
	ErrOrderNotEditable     = errors.New("la orden no admite modificaciones en su estado actual")

	// Concurrencia y almacenamiento.
	ErrConcurrentModification = errors.New("el recurso fue modificado concurrentemente, reintente")
	ErrStorageUnavailable     = errors.New("almacenamiento no disponible")
	ErrDuplicateSubmission    = errors.New("la solicitud ya fue procesada")
)

// InsufficientStockError detalla qué producto no alcanza para el delta pedido.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: solicitado %d, disponible %d", e.ProductID, e.Requested, e.Available)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InsufficientVolumeError detalla el volumen requerido frente al disponible (ml).
type InsufficientVolumeError struct {
	ProductID string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientVolumeError) Error() string {
	return fmt.Sprintf("volumen insuficiente para %s: requerido %s, disponible %s",
		e.ProductID, e.Required.String(), e.Available.String())
}

// Is permite errors.Is(err, ErrInsufficientVolume).
func (e *InsufficientVolumeError) Is(target error) bool { return target == ErrInsufficientVolume }
