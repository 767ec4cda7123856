package analytics

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/database"
)

func TestStore_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "stats.db")})
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrate is idempotent")

	for _, n := range []int64{1, 2, 3} {
		require.NoError(t, store.Save(ctx, Stats{TotalQueries: n, ByOrigin: map[string]int64{OriginCLI: n}}))
	}
	_, err = db.DB.ExecContext(ctx, `INSERT INTO analytics_snapshots (data) VALUES ('{broken')`)
	require.NoError(t, err)

	recent, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 2, "corrupt newest row is skipped")
	assert.Equal(t, int64(3), recent[0].TotalQueries)
	assert.Equal(t, int64(2), recent[1].TotalQueries)
	assert.Equal(t, map[string]int64{OriginCLI: 3}, recent[0].ByOrigin)
}
