package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/clinic-cover/pkg/db"
)

var (
	_ db.Store = (*DB)(nil)
	_ db.Tx    = (*pgTx)(nil)
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantConflict bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, wantConflict: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, wantConflict: true},
		{name: "wrapped serialization failure", err: fmt.Errorf("failed to set coverage: %w", &pgconn.PgError{Code: "40001"}), wantConflict: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, wantConflict: false},
		{name: "plain error", err: errors.New("boom"), wantConflict: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError(tt.err)
			assert.Equal(t, tt.wantConflict, errors.Is(mapped, db.ErrConflict))
			// The original error stays reachable
			assert.ErrorIs(t, mapped, tt.err)
		})
	}
}

func TestMapError_AlreadyConflict(t *testing.T) {
	err := fmt.Errorf("session s-1 holder changed: %w", db.ErrConflict)
	assert.Same(t, err, mapError(err))
}

func TestNotFound(t *testing.T) {
	err := notFound(pgx.ErrNoRows, "session", "s-1")
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Contains(t, err.Error(), "session s-1")

	err = notFound(errors.New("connection refused"), "session", "s-1")
	assert.False(t, errors.Is(err, db.ErrNotFound))
}

func TestConditions(t *testing.T) {
	c := &conditions{}
	assert.Empty(t, c.where())

	c.add(`a = %[1]s`, 1)
	c.add(`(b = %[1]s OR c = %[1]s)`, "x")
	c.clauses = append(c.clauses, `d IS NULL`)
	suffix := c.limit(10, 20)

	assert.Equal(t, " WHERE a = $1 AND (b = $2 OR c = $2) AND d IS NULL", c.where())
	assert.Equal(t, " LIMIT $3 OFFSET $4", suffix)
	assert.Equal(t, []any{1, "x", 10, 20}, c.args)
}

func TestConditions_NoLimit(t *testing.T) {
	c := &conditions{}
	assert.Empty(t, c.limit(0, 0))
	assert.Empty(t, c.args)
}

func TestMigrationFiles(t *testing.T) {
	files, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_initial_schema.sql", files[0])
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("bob"))
	assert.Equal(t, "bob", *nullable("bob"))
	assert.Equal(t, "", deref(nil))
}
