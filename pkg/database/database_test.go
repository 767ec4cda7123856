package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
)

func openTemp(t *testing.T) *Client {
	t.Helper()
	c, err := OpenSQLite(context.Background(), config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "corpus.db")})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenSQLite(t *testing.T) {
	c := openTemp(t)
	assert.Equal(t, DriverSQLite, c.Driver())
	assert.NoError(t, c.Ping(context.Background()))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "?", (&Client{driver: DriverSQLite}).Placeholder(2))
	assert.Equal(t, "$2", (&Client{driver: DriverPostgres}).Placeholder(2))
}

func TestInTx(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()
	_, err := c.DB.ExecContext(ctx, `CREATE TABLE documents (id TEXT PRIMARY KEY, body TEXT NOT NULL)`)
	require.NoError(t, err)

	require.NoError(t, c.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO documents (id, body) VALUES ('a', 'kept')`)
		return err
	}))

	boom := errors.New("boom")
	err = c.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO documents (id, body) VALUES ('b', 'rolled back')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenPostgres_Unavailable(t *testing.T) {
	cfg := config.Default().Corpus.Postgres
	cfg.Port = 1
	_, err := OpenPostgres(context.Background(), cfg)
	assert.Error(t, err)
}
