package pgutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			code: CodeUniqueViolation,
			want: false,
		},
		{
			name: "pgconn error with matching code",
			err:  &pgconn.PgError{Code: "23505", Message: "duplicate key value"},
			code: CodeUniqueViolation,
			want: true,
		},
		{
			name: "pgconn error with different code",
			err:  &pgconn.PgError{Code: "23503", Message: "fk violation"},
			code: CodeUniqueViolation,
			want: false,
		},
		{
			name: "wrapped pgconn error",
			err:  fmt.Errorf("insert countries: %w", &pgconn.PgError{Code: "23505"}),
			code: CodeUniqueViolation,
			want: true,
		},
		{
			name: "flattened SQLSTATE in message",
			err:  errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"),
			code: CodeUniqueViolation,
			want: true,
		},
		{
			name: "plain error without code",
			err:  errors.New("connection refused"),
			code: CodeUniqueViolation,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasCode(tt.err, tt.code))
		})
	}
}

func TestClassifiers(t *testing.T) {
	unique := &pgconn.PgError{Code: CodeUniqueViolation}
	fk := &pgconn.PgError{Code: CodeForeignKeyViolation}
	notNull := &pgconn.PgError{Code: CodeNotNullViolation}
	noTable := &pgconn.PgError{Code: CodeUndefinedTable}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(unique))

	assert.True(t, IsNotNullViolation(notNull))
	assert.False(t, IsNotNullViolation(fk))

	assert.True(t, IsUndefinedTable(noTable))
	assert.False(t, IsUndefinedTable(unique))
}
