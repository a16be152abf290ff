package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fieldsync/internal/canvass/store"
	"fieldsync/internal/canvass/store/sqlstore"
	"fieldsync/internal/canvass/store/storetest"
)

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &storetest.StoreSuite{
		NewStore: func() store.Store {
			s, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "fieldsync.db"))
			require.NoError(t, err)
			return s
		},
	})
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldsync.db")

	first, err := sqlstore.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sqlstore.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, second.Ping(context.Background()))
	require.NoError(t, second.Close())
}
