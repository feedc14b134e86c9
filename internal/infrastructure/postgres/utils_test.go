package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-inventario/internal/domain"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("op", nil))

	err := classify("update", &pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	err = classify("update", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	err = classify("select", &pgconn.PgError{Code: "08006", Message: "connection failure"})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	other := errors.New("syntax")
	err = classify("select", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", pgx5URL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u@h/db", pgx5URL("postgresql://u@h/db"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(errors.New("otro")))
}
