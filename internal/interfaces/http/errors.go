package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	"github.com/jhoicas/pos-inventario/internal/domain"
)

// errorStatus asocia cada error de dominio a su código HTTP y código de respuesta.
var errorStatus = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrInsufficientVolume, fiber.StatusConflict, "INSUFFICIENT_VOLUME"},
	{domain.ErrConcurrentModification, fiber.StatusConflict, "CONCURRENT_MODIFICATION"},
	{domain.ErrDuplicateSubmission, fiber.StatusConflict, "DUPLICATE_SUBMISSION"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS"},
	{domain.ErrOrderNotEditable, fiber.StatusUnprocessableEntity, "ORDER_NOT_EDITABLE"},
	{domain.ErrContainerAlreadyOpen, fiber.StatusUnprocessableEntity, "CONTAINER_ALREADY_OPEN"},
	{domain.ErrNoContainerAvailable, fiber.StatusUnprocessableEntity, "NO_CONTAINER_AVAILABLE"},
	{domain.ErrDecantNotConfigured, fiber.StatusUnprocessableEntity, "DECANT_NOT_CONFIGURED"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUserNotFound, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrStorageUnavailable, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
}

// writeError traduce err a dto.ErrorResponse. Los errores tipados de stock viajan con su contexto
// en Details; lo no clasificado responde 500 sin exponer el detalle y queda en el log.
func writeError(c *fiber.Ctx, err error) error {
	resp, status := errorResponse(err)
	if status >= fiber.StatusInternalServerError {
		zerolog.Ctx(c.UserContext()).Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Msg("error atendiendo la petición")
	}
	return c.Status(status).JSON(resp)
}

func errorResponse(err error) (dto.ErrorResponse, int) {
	var validation *ValidationError
	if errors.As(err, &validation) {
		details := make(map[string]any, len(validation.Fields))
		for k, v := range validation.Fields {
			details[k] = v
		}
		return dto.ErrorResponse{Code: "VALIDATION", Message: "la solicitud no superó la validación", Details: details}, fiber.StatusBadRequest
	}
	if errors.Is(err, errInvalidBody) {
		return dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}, fiber.StatusBadRequest
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: stockErr.Error(),
			Details: map[string]any{
				"product_id": stockErr.ProductID,
				"requested":  stockErr.Requested,
				"available":  stockErr.Available,
			},
		}, fiber.StatusConflict
	}
	var volumeErr *domain.InsufficientVolumeError
	if errors.As(err, &volumeErr) {
		return dto.ErrorResponse{
			Code:    "INSUFFICIENT_VOLUME",
			Message: volumeErr.Error(),
			Details: map[string]any{
				"product_id": volumeErr.ProductID,
				"required":   volumeErr.Required,
				"available":  volumeErr.Available,
			},
		}, fiber.StatusConflict
	}

	for _, e := range errorStatus {
		if !errors.Is(err, e.target) {
			continue
		}
		resp := dto.ErrorResponse{Code: e.code, Message: err.Error()}
		switch e.status {
		case fiber.StatusServiceUnavailable:
			resp.Message = "almacenamiento no disponible, reintente"
			resp.Details = map[string]any{"retryable": true}
		case fiber.StatusUnauthorized:
			resp.Message = "credenciales inválidas"
		}
		if e.target == domain.ErrConcurrentModification {
			resp.Details = map[string]any{"retryable": true}
		}
		return resp, e.status
	}
	return dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}, fiber.StatusInternalServerError
}
