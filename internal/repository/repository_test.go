package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

var (
	acme     = &model.Client{ID: 2, Name: "Acme", Slug: "acme"}
	platform = &model.Client{ID: 1, Name: "Platform", Slug: "admin", Platform: true}
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func asTenant(c *model.Client) context.Context {
	return tenant.WithClient(context.Background(), c)
}
