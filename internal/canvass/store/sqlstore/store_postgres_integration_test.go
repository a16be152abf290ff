//go:build integration

package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fieldsync/internal/canvass/store"
	"fieldsync/internal/canvass/store/sqlstore"
	"fieldsync/internal/canvass/store/storetest"
	"fieldsync/pkg/testutil/containers"
)

func TestPostgresStoreSuite(t *testing.T) {
	pg := containers.NewPostgresContainer(t)

	suite.Run(t, &storetest.StoreSuite{
		NewStore: func() store.Store {
			_, err := pg.DB.ExecContext(context.Background(), `DROP TABLE IF EXISTS visit_events, members, schema_migrations`)
			require.NoError(t, err)
			s, err := sqlstore.OpenPostgres(context.Background(), pg.DSN)
			require.NoError(t, err)
			return s
		},
	})
}
