package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/storage/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore(t *testing.T) {
	dsn := os.Getenv("TUSK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TUSK_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) core.KVStore {
		store, err := NewKVStore(context.Background(), dsn)
		require.NoError(t, err)
		_, err = store.pool.Exec(context.Background(), `TRUNCATE kv`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "serialization failure",
			err:  &pgconn.PgError{Code: sqlStateSerializationFailure},
			want: core.ErrConflict,
		},
		{
			name: "deadlock",
			err:  &pgconn.PgError{Code: sqlStateDeadlockDetected},
			want: core.ErrConflict,
		},
		{
			name: "unique violation is not retried",
			err:  &pgconn.PgError{Code: "23505"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				assert.False(t, errors.Is(got, core.ErrConflict))
				assert.False(t, errors.Is(got, core.ErrUnavailable))
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
