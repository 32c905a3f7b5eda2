package scaffold_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/migrator"
	"github.com/syssam/migrator/compiler/gen"
	"github.com/syssam/migrator/dialect"
	"github.com/syssam/migrator/dialect/sql/history"
	"github.com/syssam/migrator/scaffold"
)

func TestNewConfig(t *testing.T) {
	cfg, err := scaffold.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, scaffold.DefaultNamespace, cfg.Namespace)
	assert.Equal(t, migrator.Version, cfg.ProductVersion)
	assert.Error(t, cfg.Validate())

	cfg, err = scaffold.NewConfig(
		scaffold.WithContext(contextType),
		scaffold.WithNamespace("db/migrations"),
		scaffold.WithHeader("Copyright Acme."),
		scaffold.WithProductVersion("1.2.3"),
	)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, &scaffold.Config{
		Context:        contextType,
		Namespace:      "db/migrations",
		Header:         "Copyright Acme.",
		ProductVersion: "1.2.3",
	}, cfg)
	assert.Len(t, cfg.GeneratorOptions(), 2)
}

func TestNewConfig_Errors(t *testing.T) {
	_, err := scaffold.NewConfig(
		scaffold.WithContext(" "),
		scaffold.WithProductVersion(""),
		scaffold.WithHistory("oracle", "dsn"),
	)
	require.Error(t, err)
	assert.True(t, gen.IsConfigError(err))
	for _, option := range []string{`"Context"`, `"ProductVersion"`, `"History.Dialect"`} {
		assert.Contains(t, err.Error(), option)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, scaffold.ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`
context: ShopContext
namespace: internal/migrations
header: Copyright Acme.
history:
  dialect: sqlite
  dsn: file:shop.db
  table: applied_migrations
`), 0o644))

	cfg, err := scaffold.LoadConfig(path, scaffold.WithProductVersion("2.0.0"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, contextType, cfg.Context)
	assert.Equal(t, "internal/migrations", cfg.Namespace)
	assert.Equal(t, "Copyright Acme.", cfg.Header)
	assert.Equal(t, "2.0.0", cfg.ProductVersion)
	assert.Equal(t, &scaffold.HistoryConfig{Dialect: dialect.SQLite, DSN: "file:shop.db", Table: "applied_migrations"}, cfg.History)

	t.Run("missing file", func(t *testing.T) {
		cfg, err := scaffold.LoadConfig(filepath.Join(dir, "absent.yaml"), scaffold.WithContext(contextType))
		require.NoError(t, err)
		assert.Equal(t, scaffold.DefaultNamespace, cfg.Namespace)
		assert.Nil(t, cfg.History)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("context: [unterminated"), 0o644))
		_, err := scaffold.LoadConfig(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse scaffold config")
	})

	t.Run("unsupported dialect", func(t *testing.T) {
		other := filepath.Join(dir, "other.yaml")
		require.NoError(t, os.WriteFile(other, []byte("context: ShopContext\nhistory:\n  dialect: oracle\n"), 0o644))
		cfg, err := scaffold.LoadConfig(other)
		require.NoError(t, err)
		assert.True(t, gen.IsConfigError(cfg.Validate()))
	})
}

func TestConfig_OpenHistory(t *testing.T) {
	cfg, err := scaffold.NewConfig(scaffold.WithContext(contextType))
	require.NoError(t, err)
	repo, err := cfg.OpenHistory(nil)
	require.NoError(t, err)
	assert.Nil(t, repo)

	_, err = scaffold.New(cfg, scaffold.Dependencies{Model: build(t, customer(false)), History: repo})
	require.NoError(t, err, "a nil repository disables the history check")

	cfg, err = scaffold.NewConfig(
		scaffold.WithContext(contextType),
		scaffold.WithHistory(dialect.SQLite, filepath.Join(t.TempDir(), "shop.db")),
	)
	require.NoError(t, err)
	repo, err = cfg.OpenHistory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	assert.Equal(t, history.DefaultTable, repo.Table())
}
