// Package config loads the service configuration from an optional YAML file
// and the environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Encryption modes.
const (
	EncryptionModeLambda = "lambda"
	EncryptionModeLocal  = "local"
)

// Storage backends. The memory backend also replaces the queue and the
// event bus with a log sink.
const (
	StorageBackendDynamoDB = "dynamodb"
	StorageBackendMemory   = "memory"
)

// devJWTSecret signs tokens outside production when no secret is set.
const devJWTSecret = "local-development-secret"

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"serverAddress"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	StorageBackend        string `yaml:"storageBackend"`
	AWSRegion             string `yaml:"awsRegion"`
	TableName             string `yaml:"tableName"`
	GSI1IndexName         string `yaml:"gsi1IndexName"`
	StatusIndexName       string `yaml:"statusIndexName"`
	ReviewStatusIndexName string `yaml:"reviewStatusIndexName"`
	QueueURL              string `yaml:"queueUrl"`
	EventBusName          string `yaml:"eventBusName"`
	EventSource           string `yaml:"eventSource"`

	// Encryption gateway
	EncryptionMode      string `yaml:"encryptionMode"`
	EncryptFunctionName string `yaml:"encryptFunctionName"`
	DecryptFunctionName string `yaml:"decryptFunctionName"`
	CipherSecretKey     string `yaml:"cipherSecretKey"`
	CipherSecretIV      string `yaml:"cipherSecretIV"`
	CipherSecretID      string `yaml:"cipherSecretId"`

	// Gateway circuit breaker
	BreakerMaxRequests         int `yaml:"breakerMaxRequests"`
	BreakerIntervalSeconds     int `yaml:"breakerIntervalSeconds"`
	BreakerTimeoutSeconds      int `yaml:"breakerTimeoutSeconds"`
	BreakerConsecutiveFailures int `yaml:"breakerConsecutiveFailures"`

	// Authentication
	JWTSecret     string `yaml:"jwtSecret"`
	JWTIssuer     string `yaml:"jwtIssuer"`
	JWTTTLMinutes int    `yaml:"jwtTTLMinutes"`

	// Lambda runtime
	IsLambda bool `yaml:"-"`

	// ConfigFile is the YAML overlay this configuration was read from.
	ConfigFile string `yaml:"-"`

	// Logging and features
	LogLevel         string `yaml:"logLevel"`
	EnableMetrics    bool   `yaml:"enableMetrics"`
	EnableTracing    bool   `yaml:"enableTracing"`
	EnableCORS       bool   `yaml:"enableCors"`
	MetricsNamespace string `yaml:"metricsNamespace"`
}

func defaults() *Config {
	return &Config{
		ServerAddress:              ":8080",
		Environment:                "development",
		StorageBackend:             StorageBackendDynamoDB,
		AWSRegion:                  "us-east-1",
		TableName:                  "marketplace",
		GSI1IndexName:              "GSI1",
		StatusIndexName:            "StatusIndex",
		ReviewStatusIndexName:      "ReviewStatusIndex",
		EventSource:                "marketplace.api",
		EncryptionMode:             EncryptionModeLambda,
		BreakerMaxRequests:         1,
		BreakerIntervalSeconds:     30,
		BreakerTimeoutSeconds:      15,
		BreakerConsecutiveFailures: 5,
		JWTIssuer:                  "marketplace-backend",
		JWTTTLMinutes:              60,
		LogLevel:                   "info",
		EnableCORS:                 true,
		MetricsNamespace:           "marketplace",
	}
}

// LoadConfig loads configuration from CONFIG_FILE, when set, and the
// environment, then validates it.
func LoadConfig() (*Config, error) {
	cfg, err := LoadUnvalidated()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnvalidated loads configuration without checking the API's required
// settings. The gateway functions use it since they need only the cipher
// secrets.
func LoadUnvalidated() (*Config, error) {
	return loadFrom(os.Getenv("CONFIG_FILE"))
}

func loadFrom(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.ConfigFile = path
	}

	cfg.applyEnv()
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.TableName = getEnv("TABLE_NAME", c.TableName)
	c.GSI1IndexName = getEnv("GSI1_INDEX_NAME", c.GSI1IndexName)
	c.StatusIndexName = getEnv("STATUS_INDEX_NAME", c.StatusIndexName)
	c.ReviewStatusIndexName = getEnv("REVIEW_STATUS_INDEX_NAME", c.ReviewStatusIndexName)
	c.QueueURL = getEnv("QUEUE_URL", c.QueueURL)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.EventSource = getEnv("EVENT_SOURCE", c.EventSource)

	c.EncryptionMode = getEnv("ENCRYPTION_MODE", c.EncryptionMode)
	c.EncryptFunctionName = getEnv("ENCRYPT_FUNCTION_NAME", c.EncryptFunctionName)
	c.DecryptFunctionName = getEnv("DECRYPT_FUNCTION_NAME", c.DecryptFunctionName)
	c.CipherSecretKey = getEnv("CIPHER_SECRET_KEY", c.CipherSecretKey)
	c.CipherSecretIV = getEnv("CIPHER_SECRET_IV", c.CipherSecretIV)
	c.CipherSecretID = getEnv("CIPHER_SECRET_ID", c.CipherSecretID)

	c.BreakerMaxRequests = getEnvInt("GATEWAY_BREAKER_MAX_REQUESTS", c.BreakerMaxRequests)
	c.BreakerIntervalSeconds = getEnvInt("GATEWAY_BREAKER_INTERVAL_SECONDS", c.BreakerIntervalSeconds)
	c.BreakerTimeoutSeconds = getEnvInt("GATEWAY_BREAKER_TIMEOUT_SECONDS", c.BreakerTimeoutSeconds)
	c.BreakerConsecutiveFailures = getEnvInt("GATEWAY_BREAKER_CONSECUTIVE_FAILURES", c.BreakerConsecutiveFailures)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.JWTTTLMinutes = getEnvInt("JWT_TTL_MINUTES", c.JWTTTLMinutes)

	c.IsLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.EncryptionMode {
	case EncryptionModeLambda, EncryptionModeLocal:
	default:
		return fmt.Errorf("ENCRYPTION_MODE must be %q or %q", EncryptionModeLambda, EncryptionModeLocal)
	}

	switch c.StorageBackend {
	case StorageBackendDynamoDB, StorageBackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", StorageBackendDynamoDB, StorageBackendMemory)
	}

	if c.IsProduction() {
		if c.StorageBackend == StorageBackendMemory {
			return fmt.Errorf("STORAGE_BACKEND=memory is not allowed in production")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.TableName == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
		if c.QueueURL == "" {
			return fmt.Errorf("QUEUE_URL is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
		if c.EncryptionMode == EncryptionModeLambda && (c.EncryptFunctionName == "" || c.DecryptFunctionName == "") {
			return fmt.Errorf("ENCRYPT_FUNCTION_NAME and DECRYPT_FUNCTION_NAME are required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesLocalGateway reports whether encryption runs in process.
func (c *Config) UsesLocalGateway() bool {
	return c.EncryptionMode == EncryptionModeLocal
}

// UsesMemoryBackend reports whether records and notifications stay in
// process.
func (c *Config) UsesMemoryBackend() bool {
	return c.StorageBackend == StorageBackendMemory
}

// JWTTTL is the session token lifetime.
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
