// Package secrets fills credential environment variables from a Vault KV
// secret so config.Load sees them like any other setting.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
	"github.com/zatekoja/mypadicare/pkg/retry"
)

// DefaultKeys are the credentials the service reads from its environment.
var DefaultKeys = []string{"GEMINI_API_KEY", "REDIS_PASSWORD"}

// VaultConfig describes where the secret lives.
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	// Overwrite replaces variables that are already set.
	Overwrite bool
	// Keys limits which secret fields are exported. Empty exports all.
	Keys []string
}

// VaultResult counts what ApplyVaultSecrets did.
type VaultResult struct {
	Enabled bool
	Path    string
	Loaded  int
	Skipped int
	Ignored int
}

// LoadVaultConfigFromEnv reads VAULT_* variables.
func LoadVaultConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     envOr("VAULT_MOUNT", "secret"),
		Path:      envOr("VAULT_PATH", "mypadicare"),
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
		Keys:      DefaultKeys,
	}
	if val := os.Getenv("VAULT_KV_VERSION"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			cfg.KVVersion = parsed
		}
	}
	if val := os.Getenv("VAULT_TIMEOUT"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			cfg.Timeout = parsed
		}
	}
	return cfg
}

// ApplyVaultSecrets fetches the secret and exports its fields as
// environment variables. It is a no-op when Vault is disabled.
func ApplyVaultSecrets(ctx context.Context, cfg VaultConfig) (VaultResult, error) {
	result := VaultResult{Enabled: cfg.Enabled, Path: cfg.Path}
	if !cfg.Enabled {
		return result, nil
	}
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return result, errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")
	}

	url, err := buildVaultURL(cfg.Addr, cfg.Mount, cfg.Path, cfg.KVVersion)
	if err != nil {
		return result, err
	}

	logger := observability.LoggerFromContext(ctx)
	client := &http.Client{Timeout: cfg.Timeout}

	var data map[string]interface{}
	retryCfg := retry.Config{
		MaxAttempts:     3,
		InitialDelay:    250 * time.Millisecond,
		MaxDelay:        time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 3*cfg.Timeout + 2*time.Second,
		Retryable: func(err error) bool {
			var statusErr *statusError
			return !errors.As(err, &statusErr) || statusErr.code >= 500
		},
	}
	err = retry.DoWithLog(ctx, retryCfg, "vault", func() error {
		data, err = fetch(ctx, client, url, cfg)
		return err
	}, func(attempt int, err error, next time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("vault fetch failed")
	})
	if err != nil {
		return result, err
	}

	for key, value := range data {
		if len(cfg.Keys) > 0 && !slices.Contains(cfg.Keys, key) {
			result.Ignored++
			continue
		}
		if !cfg.Overwrite && os.Getenv(key) != "" {
			result.Skipped++
			continue
		}
		if err := os.Setenv(key, stringifyVaultValue(value)); err != nil {
			return result, err
		}
		result.Loaded++
	}
	return result, nil
}

type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("vault fetch failed: %d %s", e.code, e.msg)
}

func fetch(ctx context.Context, client *http.Client, url string, cfg VaultConfig) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", cfg.Token)
	if cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", cfg.Namespace)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, msg: strings.TrimSpace(string(body))}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &statusError{code: resp.StatusCode, msg: "invalid JSON: " + err.Error()}
	}
	return extractVaultData(payload, cfg.KVVersion)
}

func buildVaultURL(addr, mount, path string, kvVersion int) (string, error) {
	addr = strings.TrimRight(addr, "/")
	mount = strings.Trim(mount, "/")
	path = strings.TrimLeft(path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("vault address, mount, and path must be set")
	}
	if kvVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

func extractVaultData(payload map[string]interface{}, kvVersion int) (map[string]interface{}, error) {
	data, _ := payload["data"].(map[string]interface{})
	if kvVersion != 1 {
		data, _ = data["data"].(map[string]interface{})
	}
	if data == nil {
		return nil, &statusError{code: http.StatusOK, msg: fmt.Sprintf("response missing data for KV v%d", kvVersion)}
	}
	return data, nil
}

func stringifyVaultValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
