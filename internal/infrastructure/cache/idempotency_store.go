// Package cache guarda el estado de idempotencia de las ventas POS en Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pos-inventario/internal/domain"
	"github.com/jhoicas/pos-inventario/pkg/config"
)

const defaultKeyPrefix = "pos:idempotency:"

// Record es lo guardado por clave: Pending mientras la petición original está en curso,
// y la respuesta completa cuando terminó con éxito.
type Record struct {
	Pending bool   `json:"pending"`
	Status  int    `json:"status,omitempty"`
	Body    []byte `json:"body,omitempty"`
}

// IdempotencyStore implementa la reserva de claves Idempotency-Key con SETNX + TTL.
type IdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewClient abre un cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return client, nil
}

// NewIdempotencyStore construye el store sobre un cliente existente.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, keyPrefix: defaultKeyPrefix, ttl: ttl}
}

// Reserve marca la clave como en curso. Devuelve false si ya existía.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	raw, _ := json.Marshal(Record{Pending: true})
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, raw, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reservar clave de idempotencia: %w", err)
	}
	return ok, nil
}

// Complete guarda la respuesta para reproducirla ante reintentos.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, status int, body []byte) error {
	raw, err := json.Marshal(Record{Status: status, Body: body})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("guardar respuesta idempotente: %w", err)
	}
	return nil
}

// Lookup devuelve el registro de la clave o nil si no existe.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (*Record, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer clave de idempotencia: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decodificar clave de idempotencia: %w", err)
	}
	return &rec, nil
}

// Release libera la clave para que el cliente pueda reintentar tras un fallo.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("liberar clave de idempotencia: %w", err)
	}
	return nil
}
