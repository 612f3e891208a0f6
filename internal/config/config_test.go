package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  name: admin\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "admin", cfg.Database.Name)
	assert.Equal(t, "public", cfg.Database.Schema)
	assert.Equal(t, 50, cfg.Query.DefaultLimit)
	assert.Equal(t, 1000, cfg.Query.MaxLimit)
	assert.Equal(t, 1000, cfg.Query.OptionsLimit)
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoadFile_OverridesAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	yaml := `
server:
  port: 9090
database:
  driver: sqlite
  name: admin
  path: /tmp/data
query:
  default_limit: 20
  max_limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Database.IsSQLite())
	assert.Equal(t, filepath.Join("/tmp/data", "admin.db"), cfg.Database.DSN())
	assert.Equal(t, 20, cfg.Query.DefaultLimit)
	assert.Equal(t, 20, cfg.Query.MaxLimit, "max limit is raised to the default limit")
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", User: "u", Password: "p", Host: "db", Port: 5433, Name: "admin"}
	assert.Equal(t, "postgres://u:p@db:5433/admin?sslmode=disable", pg.DSN())

	pg.Password = "p@ss/w:rd?"
	parsed, err := url.Parse(pg.DSN())
	require.NoError(t, err)
	assert.Equal(t, "db:5433", parsed.Host)
	assert.Equal(t, "/admin", parsed.Path)
	assert.Equal(t, "u", parsed.User.Username())
	password, ok := parsed.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss/w:rd?", password)

	mem := DatabaseConfig{Driver: "sqlite", Name: ":memory:"}
	assert.Equal(t, ":memory:", mem.DSN())
}
