package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vaultServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		assert.Equal(t, "/v1/secret/data/mypadicare", r.URL.Path)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testVaultConfig(addr string) VaultConfig {
	return VaultConfig{
		Enabled:   true,
		Addr:      addr,
		Token:     "root-token",
		Mount:     "secret",
		Path:      "mypadicare",
		KVVersion: 2,
		Timeout:   time.Second,
		Keys:      DefaultKeys,
	}
}

func TestApplyVaultSecrets_ExportsAllowedKeys(t *testing.T) {
	srv, _ := vaultServer(t, http.StatusOK, `{"data":{"data":{
		"GEMINI_API_KEY":"gm-key","REDIS_PASSWORD":"hunter2","DATABASE_URL":"postgres://x"}}}`)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("REDIS_PASSWORD", "already-set")
	t.Setenv("DATABASE_URL", "")

	result, err := ApplyVaultSecrets(context.Background(), testVaultConfig(srv.URL))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Ignored)
	assert.Equal(t, "gm-key", os.Getenv("GEMINI_API_KEY"))
	assert.Equal(t, "already-set", os.Getenv("REDIS_PASSWORD"))
	assert.Empty(t, os.Getenv("DATABASE_URL"))
}

func TestApplyVaultSecrets_Overwrite(t *testing.T) {
	srv, _ := vaultServer(t, http.StatusOK, `{"data":{"data":{"REDIS_PASSWORD":"from-vault"}}}`)
	t.Setenv("REDIS_PASSWORD", "local")

	cfg := testVaultConfig(srv.URL)
	cfg.Overwrite = true
	_, err := ApplyVaultSecrets(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-vault", os.Getenv("REDIS_PASSWORD"))
}

func TestApplyVaultSecrets_ClientErrorIsNotRetried(t *testing.T) {
	srv, calls := vaultServer(t, http.StatusForbidden, `{"errors":["permission denied"]}`)

	_, err := ApplyVaultSecrets(context.Background(), testVaultConfig(srv.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestApplyVaultSecrets_ServerErrorIsRetried(t *testing.T) {
	srv, calls := vaultServer(t, http.StatusServiceUnavailable, `sealed`)

	_, err := ApplyVaultSecrets(context.Background(), testVaultConfig(srv.URL))
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestApplyVaultSecrets_DisabledOrIncomplete(t *testing.T) {
	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{})
	require.NoError(t, err)
	assert.False(t, result.Enabled)

	_, err = ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: true, Addr: "http://vault"})
	assert.Error(t, err)
}

func TestBuildVaultURL(t *testing.T) {
	url, err := buildVaultURL("http://vault:8200/", "/secret/", "/mypadicare", 2)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/secret/data/mypadicare", url)

	url, err = buildVaultURL("http://vault:8200", "kv", "mypadicare", 1)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/kv/mypadicare", url)

	_, err = buildVaultURL("", "kv", "p", 2)
	assert.Error(t, err)
}

func TestExtractVaultData_MissingData(t *testing.T) {
	_, err := extractVaultData(map[string]interface{}{"data": map[string]interface{}{}}, 2)
	assert.Error(t, err)

	data, err := extractVaultData(map[string]interface{}{"data": map[string]interface{}{"K": "v"}}, 1)
	require.NoError(t, err)
	assert.Equal(t, "v", data["K"])
}

func TestStringifyVaultValue(t *testing.T) {
	assert.Equal(t, "true", stringifyVaultValue(true))
	assert.Equal(t, "6379", stringifyVaultValue(float64(6379)))
	assert.Equal(t, "", stringifyVaultValue(nil))
	assert.Equal(t, `["a","b"]`, stringifyVaultValue([]interface{}{"a", "b"}))
}

func TestLoadVaultConfigFromEnv(t *testing.T) {
	t.Setenv("VAULT_ENABLED", "TRUE")
	t.Setenv("VAULT_ADDR", "http://vault:8200")
	t.Setenv("VAULT_MOUNT", "")
	t.Setenv("VAULT_PATH", "")
	t.Setenv("VAULT_KV_VERSION", "1")
	t.Setenv("VAULT_TIMEOUT", "2s")

	cfg := LoadVaultConfigFromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "secret", cfg.Mount)
	assert.Equal(t, "mypadicare", cfg.Path)
	assert.Equal(t, 1, cfg.KVVersion)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, DefaultKeys, cfg.Keys)
}
