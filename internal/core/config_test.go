package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv aponta os diretórios da configuração para um diretório temporário.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APP_LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("APP_EXPORT_DIR", filepath.Join(dir, "exports"))
	t.Setenv("APP_DB_NAME", filepath.Join(dir, "db", "auditoria.db"))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := isolateEnv(t)

	cfg, err := LoadConfig(filepath.Join(dir, "nao_existe.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.APITimeout)
	assert.Equal(t, 60*time.Second, cfg.QueryCacheTTL)
	assert.Equal(t, "sqlite", cfg.DBEngine)
	assert.Equal(t, "INFO", cfg.LogLevel)

	assert.DirExists(t, filepath.Join(dir, "logs"))
	assert.DirExists(t, filepath.Join(dir, "exports"))
	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	dir := isolateEnv(t)
	envFile := filepath.Join(dir, ".env")
	content := "APP_API_URL=https://recibos.exemplo.com.br/\nAPP_API_TIMEOUT=5\nAPP_QUERY_CACHE_TTL=0\nAPP_DB_ENGINE=SQLITE\nAPP_LOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv não sobrescreve variáveis já presentes; limpa as que o arquivo define.
	for _, key := range []string{"APP_API_URL", "APP_API_TIMEOUT", "APP_QUERY_CACHE_TTL", "APP_DB_ENGINE", "APP_LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "https://recibos.exemplo.com.br", cfg.APIURL, "barra final removida")
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, time.Duration(0), cfg.QueryCacheTTL)
	assert.Equal(t, "sqlite", cfg.DBEngine)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"url sem esquema":    {"APP_API_URL": "localhost:5000"},
		"esquema ftp":        {"APP_API_URL": "ftp://servidor"},
		"timeout zero":       {"APP_API_TIMEOUT": "0"},
		"motor desconhecido": {"APP_DB_ENGINE": "oracle"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			dir := isolateEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(filepath.Join(dir, "nao_existe.env"))
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestLoadConfig_NegativeTTLDisablesCache(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("APP_QUERY_CACHE_TTL", "-10")

	cfg, err := LoadConfig(filepath.Join(dir, "nao_existe.env"))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.QueryCacheTTL)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("RECIBOS_TEST_INT", "abc")
	assert.Equal(t, 7, getEnvAsInt("RECIBOS_TEST_INT", 7))
	t.Setenv("RECIBOS_TEST_INT", "12")
	assert.Equal(t, 12, getEnvAsInt("RECIBOS_TEST_INT", 7))

	t.Setenv("RECIBOS_TEST_BOOL", "true")
	assert.True(t, getEnvAsBool("RECIBOS_TEST_BOOL", false))
	assert.Equal(t, 3*time.Second, getEnvAsDuration("RECIBOS_TEST_NAO_DEFINIDA", 3))
}
