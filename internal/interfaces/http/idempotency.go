package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-inventario/internal/application/dto"
	"github.com/jhoicas/pos-inventario/internal/infrastructure/cache"
)

// HeaderIdempotencyKey identifica un envío del POS; reintentos con la misma clave no duplican la venta.
const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore reserva claves y guarda la respuesta de la primera ejecución.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Complete(ctx context.Context, key string, status int, body []byte) error
	Lookup(ctx context.Context, key string) (*cache.Record, error)
	Release(ctx context.Context, key string) error
}

// Idempotency reproduce la respuesta guardada cuando llega una clave ya completada y rechaza
// con 409 DUPLICATE_SUBMISSION la que sigue en curso. Las respuestas 5xx y los conflictos
// reintentables liberan la clave para que el cliente pueda reintentar.
// Sin store, o si el store falla, la petición se atiende sin deduplicar.
func Idempotency(store IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if store == nil || key == "" {
			return c.Next()
		}
		ctx := c.UserContext()
		log := zerolog.Ctx(ctx)
		scoped := GetUserID(c) + ":" + key

		reserved, err := store.Reserve(ctx, scoped)
		if err != nil {
			log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotencia no disponible, se atiende sin deduplicar")
			return c.Next()
		}
		if !reserved {
			rec, err := store.Lookup(ctx, scoped)
			if err != nil {
				log.Warn().Err(err).Str("idempotency_key", key).Msg("no se pudo leer la respuesta guardada")
			}
			if rec != nil && !rec.Pending {
				c.Set("Idempotent-Replayed", "true")
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(rec.Status).Send(rec.Body)
			}
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code:    "DUPLICATE_SUBMISSION",
				Message: "una solicitud con esta clave está en curso",
				Details: map[string]any{"idempotency_key": key},
			})
		}

		if err := c.Next(); err != nil {
			_ = store.Release(ctx, scoped)
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError || status == fiber.StatusConflict {
			if err := store.Release(ctx, scoped); err != nil {
				log.Warn().Err(err).Str("idempotency_key", key).Msg("no se pudo liberar la clave")
			}
			return nil
		}
		body := append([]byte(nil), c.Response().Body()...)
		if err := store.Complete(ctx, scoped, status, body); err != nil {
			log.Warn().Err(err).Str("idempotency_key", key).Msg("no se pudo guardar la respuesta")
		}
		return nil
	}
}
