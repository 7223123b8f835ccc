package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpReadsPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", TableName: "orders", ConstraintName: "orders_user_id_fkey", Message: "violates foreign key"}
	d := Dump(Wrap(CodePersistence, fmt.Errorf("insert: %w", pgErr), "create order"))

	require.NotNil(t, d.PG)
	assert.Equal(t, "23503", d.PG.Code)
	assert.Equal(t, "orders", d.PG.Table)

	fields := d.Fields()
	assert.Equal(t, "orders_user_id_fkey", fields["pg_constraint"])
	assert.Equal(t, "PERSISTENCE_ERROR", fields["error_code"])
	assert.NotContains(t, fields, "pg_column")
}

func TestDumpFieldsOmitEmptyParts(t *testing.T) {
	fields := Dump(stdErrors.New("boom")).Fields()
	assert.Equal(t, map[string]any{"error": "boom"}, fields)
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pgx", fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pgx other code", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite", stdErrors.New("UNIQUE constraint failed: users.email"), true},
		{"plain", stdErrors.New("timeout"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUniqueViolation(tc.err))
		})
	}
}
