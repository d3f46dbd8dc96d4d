package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Env        string
	Server     ServerConfig
	Upload     UploadConfig
	Classifier ClassifierConfig
	Treatments TreatmentsConfig
	Gemini     GeminiConfig
	Redis      RedisConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// UploadConfig holds server-side intake configuration
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// ClassifierConfig holds configuration for the image classifier backend
type ClassifierConfig struct {
	// Backend is "process" (external script) or "onnx" (in-process model)
	Backend string
	Command string
	Script  string
	WorkDir string
	Timeout time.Duration

	// ModelPath is the artifact reported by the health endpoint
	ModelPath string

	OnnxModelPath    string
	OnnxMetadataPath string
	OnnxLibraryPath  string
	TopK             int
}

// TreatmentsConfig holds treatment dataset configuration
type TreatmentsConfig struct {
	Dir       string
	CacheSize int
	Watch     bool
}

// GeminiConfig holds generative-text service configuration
type GeminiConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	MaxAttempts     int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 16<<20)),
		},
		Classifier: ClassifierConfig{
			Backend:          getEnv("CLASSIFIER_BACKEND", "process"),
			Command:          getEnv("CLASSIFIER_COMMAND", "python"),
			Script:           getEnv("CLASSIFIER_SCRIPT", "predict_single.py"),
			WorkDir:          getEnv("CLASSIFIER_WORKDIR", ""),
			Timeout:          getEnvAsDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
			ModelPath:        getEnv("MODEL_PATH", "results/model.hdf5"),
			OnnxModelPath:    getEnv("ONNX_MODEL_PATH", "models/paddy.onnx"),
			OnnxMetadataPath: getEnv("ONNX_METADATA_PATH", "models/paddy_metadata.json"),
			OnnxLibraryPath:  getEnv("ONNX_LIBRARY_PATH", ""),
			TopK:             getEnvAsInt("CLASSIFIER_TOP_K", 5),
		},
		Treatments: TreatmentsConfig{
			Dir:       getEnv("TREATMENTS_DIR", "data"),
			CacheSize: getEnvAsInt("TREATMENTS_CACHE_SIZE", 8),
			Watch:     getEnvAsBool("TREATMENTS_WATCH", false),
		},
		Gemini: GeminiConfig{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			Model:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL:         getEnv("GEMINI_BASE_URL", ""),
			Timeout:         getEnvAsDuration("GEMINI_TIMEOUT", 15*time.Second),
			Temperature:     getEnvAsFloat32("GEMINI_TEMPERATURE", 0.5),
			TopP:            getEnvAsFloat32("GEMINI_TOP_P", 0.9),
			TopK:            getEnvAsFloat32("GEMINI_TOP_K", 20),
			MaxOutputTokens: int32(getEnvAsInt("GEMINI_MAX_OUTPUT_TOKENS", 150)),
			MaxAttempts:     getEnvAsInt("GEMINI_MAX_ATTEMPTS", 2),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "mypadicare"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	switch c.Classifier.Backend {
	case "process", "onnx":
	default:
		return fmt.Errorf("unknown CLASSIFIER_BACKEND %q", c.Classifier.Backend)
	}
	if c.Classifier.Timeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT must be positive")
	}
	if c.Treatments.CacheSize <= 0 {
		return fmt.Errorf("TREATMENTS_CACHE_SIZE must be positive, got %d", c.Treatments.CacheSize)
	}
	return nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
