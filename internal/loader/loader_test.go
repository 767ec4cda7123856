package loader

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/stopwords"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/redis"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func ids(docs []corpus.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestDirSource_LexicalOrder(t *testing.T) {
	files := map[string]string{
		"c.txt":     "third",
		"a.txt":     "first",
		"b.txt":     "second",
		".hidden":   "skipped",
		"notes.md":  "also a document",
		"empty.txt": "",
	}
	dir := writeFiles(t, files)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	for _, conc := range []int{1, 3, 16} {
		t.Run(fmt.Sprintf("concurrency_%d", conc), func(t *testing.T) {
			docs, err := (&DirSource{Dir: dir, Concurrency: conc}).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "empty.txt", "notes.md"}, ids(docs))
			assert.Equal(t, "first", docs[0].Text)
			assert.Empty(t, docs[3].Text)
		})
	}
}

func TestDirSource_InvalidUTF8(t *testing.T) {
	dir := writeFiles(t, map[string]string{"ok.txt": "fine", "bad.txt": "\xff\xfe broken"})
	_, err := (&DirSource{Dir: dir, Concurrency: 2}).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "bad.txt")
}

func TestDirSource_Missing(t *testing.T) {
	src := &DirSource{Dir: filepath.Join(t.TempDir(), "nope")}
	_, err := src.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, src.Check(context.Background()))
	assert.Equal(t, "dir:"+src.Dir, src.Describe())
}

func TestBuild(t *testing.T) {
	tok := tokenizer.New(stopwords.English())
	dir := writeFiles(t, map[string]string{"python.txt": "Python is a language.", "go.txt": "Go is a language."})
	src := &DirSource{Dir: dir, Concurrency: 2}
	require.NoError(t, src.Check(context.Background()))

	c, err := Build(context.Background(), src, tok)
	require.NoError(t, err)
	assert.Equal(t, []string{"go.txt", "python.txt"}, c.Words().IDs())

	_, err = Build(context.Background(), &DirSource{Dir: t.TempDir()}, tok)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default().Corpus
	cfg.Dir = t.TempDir()
	src, err := Open(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &DirSource{}, src)
	assert.NoError(t, src.Close())

	cfg.Dir = ""
	_, err = Open(ctx, cfg)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	cfg.Source = "ftp"
	_, err = Open(ctx, cfg)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedSource)
}

func seedSQLite(t *testing.T, rows [][2]string) config.CorpusConfig {
	t.Helper()
	cfg := config.Default().Corpus
	cfg.Source = config.SourceSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "corpus.db")

	client, err := database.OpenSQLite(context.Background(), cfg.SQLite)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.InTx(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`CREATE TABLE documents (id TEXT NOT NULL, body TEXT NOT NULL)`); err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := tx.Exec(`INSERT INTO documents (id, body) VALUES (?, ?)`, r[0], r[1]); err != nil {
				return err
			}
		}
		return nil
	}))
	return cfg
}

func TestSQLSource_SQLite(t *testing.T) {
	cfg := seedSQLite(t, [][2]string{
		{"tea", "Tea is steeped."},
		{"coffee", "Coffee is brewed."},
	})
	src, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "sql:sqlite", src.Describe())
	require.NoError(t, src.Check(context.Background()))
	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "tea"}, ids(docs))
	assert.Equal(t, "Coffee is brewed.", docs[0].Text)
}

func TestSQLSource_DuplicateIDs(t *testing.T) {
	cfg := seedSQLite(t, [][2]string{{"same", "one"}, {"same", "two"}})
	src, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer src.Close()

	_, err = Build(context.Background(), src, tokenizer.New(stopwords.English()))
	assert.ErrorIs(t, err, apperrors.ErrDuplicateDocument)
}

func TestSQLSource_BadQuery(t *testing.T) {
	cfg := seedSQLite(t, nil)
	cfg.Query = "SELECT nothing FROM nowhere"
	src, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Load(context.Background())
	assert.Error(t, err)
}

func TestOpen_PostgresUnavailable(t *testing.T) {
	cfg := config.Default().Corpus
	cfg.Source = config.SourcePostgres
	cfg.ConnectAttempts = 1
	cfg.Postgres.Port = 1
	_, err := Open(context.Background(), cfg)
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
}

func TestRedisSource(t *testing.T) {
	cfg := config.Default().Corpus
	cfg.Source = config.SourceRedis
	cfg.ConnectAttempts = 1
	if addr := os.Getenv("CQA_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	cfg.Redis.KeyPrefix = "corpusqa:test:loader:"

	ctx := context.Background()
	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		t.Skipf("redis not available at %s: %v", cfg.Redis.Addr, err)
	}
	defer client.Close()
	t.Cleanup(func() { client.DeleteByPattern(ctx, cfg.Redis.KeyPrefix+"*") })
	require.NoError(t, client.Set(ctx, cfg.Redis.KeyPrefix+"b.txt", "Bees buzz.", 0))
	require.NoError(t, client.Set(ctx, cfg.Redis.KeyPrefix+"a.txt", "Ants march.", 0))

	src, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer src.Close()

	docs, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, ids(docs))
	assert.Equal(t, "Ants march.", docs[0].Text)
}
