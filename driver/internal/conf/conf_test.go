package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("full option map", func(t *testing.T) {
		cfg, err := Decode(map[string]any{
			"url":          "http://localhost:7474",
			"database":     "movies",
			"pool_size":    5,
			"max_overflow": 2,
			"timeout":      30,
			"basic_auth": map[string]any{
				"username": "neo4j",
				"password": "secret",
			},
			"result_formats": []string{"row", "graph"},
		})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:7474", cfg.URL)
		assert.Equal(t, "movies", cfg.Database)
		assert.Equal(t, 5, cfg.PoolSize)
		assert.Equal(t, 2, cfg.MaxOverflow)
		assert.Equal(t, Timeout(30), cfg.Timeout)
		require.NotNil(t, cfg.BasicAuth)
		assert.Equal(t, "neo4j", cfg.BasicAuth.Username)
		assert.Equal(t, []string{"row", "graph"}, cfg.ResultFormats)
	})

	t.Run("minimal option map", func(t *testing.T) {
		cfg, err := Decode(map[string]any{"url": "http://localhost:7474"})
		require.NoError(t, err)
		assert.Empty(t, cfg.TokenAuth)
		assert.Nil(t, cfg.BasicAuth)
	})

	t.Run("infinite timeout", func(t *testing.T) {
		cfg, err := Decode(map[string]any{"url": "http://localhost:7474", "timeout": "infinite"})
		require.NoError(t, err)
		assert.Equal(t, TimeoutInfinite, cfg.Timeout)
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg, err := Decode(map[string]any{"url": "http://localhost:7474", "timeout": -1})
		require.NoError(t, err)
		assert.Equal(t, Timeout(-1), cfg.Timeout)
	})

	t.Run("invalid timeout literal", func(t *testing.T) {
		_, err := Decode(map[string]any{"url": "http://localhost:7474", "timeout": "forever"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid timeout")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Decode(map[string]any{
			"url":        "http://localhost:7474",
			"fetch_size": 100,
		})
		require.Error(t, err)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := Decode(map[string]any{"pool_size": 5})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "url is required")
	})

	t.Run("negative pool size", func(t *testing.T) {
		_, err := Decode(map[string]any{"url": "http://localhost:7474", "pool_size": -1})
		require.Error(t, err)
	})

	t.Run("invalid result format", func(t *testing.T) {
		_, err := Decode(map[string]any{"url": "http://localhost:7474", "result_formats": []string{"tabular"}})
		require.Error(t, err)
	})

	t.Run("credential exclusivity", func(t *testing.T) {
		_, err := Decode(map[string]any{
			"url":        "http://localhost:7474",
			"token_auth": "eyJhbGc",
			"basic_auth": map[string]any{"username": "neo4j", "password": "secret"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mutually exclusive")
	})
}

func TestLoad(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
url: http://localhost:7474
database: movies
pool_size: 3
basic_auth:
  username: neo4j
  password: ${NEOREST_TEST_PASSWORD}
result_formats:
  - row
`), 0o600))
		t.Setenv("NEOREST_TEST_PASSWORD", "from-env")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "movies", cfg.Database)
		assert.Equal(t, 3, cfg.PoolSize)
		require.NotNil(t, cfg.BasicAuth)
		assert.Equal(t, "from-env", cfg.BasicAuth.Password)
	})

	t.Run("infinite timeout", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.yaml")
		require.NoError(t, os.WriteFile(path, []byte("url: http://localhost:7474\ntimeout: infinite\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, TimeoutInfinite, cfg.Timeout)
	})

	t.Run("unset variable stays verbatim", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.yaml")
		require.NoError(t, os.WriteFile(path, []byte("url: http://localhost:7474\ntoken_auth: ${NEOREST_TEST_UNSET_TOKEN}\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "${NEOREST_TEST_UNSET_TOKEN}", cfg.TokenAuth)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("url: [unclosed"), 0o600))
		_, err := Load(path)
		require.Error(t, err)
	})
}
