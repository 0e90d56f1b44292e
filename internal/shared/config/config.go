package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Provider  ProviderConfig
	Relay     RelayConfig
	Webhook   WebhookConfig
	Poller    PollerConfig
	Scheduler SchedulerConfig
	Firebase  FirebaseConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowedHosts []string
	// AppURL is the public origin used to build the consent callback URL.
	AppURL string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
}

const (
	ProviderModeDirect = "direct"
	ProviderModeRelay  = "relay"
)

type ProviderConfig struct {
	Mode              string
	Environment       string
	ClientID          string
	ClientSecret      string
	ProductInstanceID string
	BaseURL           string
	RelayURL          string
	Timeout           time.Duration
}

type RelayConfig struct {
	Port           string
	Region         string
	BackendURL     string
	InternalAPIKey string
}

type WebhookConfig struct {
	InternalAPIKey string
}

type PollerConfig struct {
	MaxAttempts int
	Interval    time.Duration
}

type SchedulerConfig struct {
	WorkerCount int
	QueueSize   int
	JobDelay    time.Duration
}

type FirebaseConfig struct {
	CredentialsFile string
	MessagesFile    string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	MetricsPort  string
	Environment  string
}

// Load reads the API configuration. A .env file in the working directory is
// loaded first when present; real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	provider, err := loadProvider()
	if err != nil {
		return nil, err
	}

	poller, err := loadPoller()
	if err != nil {
		return nil, err
	}

	workers, err := strconv.Atoi(getEnv("SCHEDULER_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_WORKERS: %w", err)
	}
	queueSize, err := strconv.Atoi(getEnv("SCHEDULER_QUEUE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_QUEUE_SIZE: %w", err)
	}
	jobDelay, err := time.ParseDuration(getEnv("SCHEDULER_JOB_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_JOB_DELAY: %w", err)
	}

	port := getEnv("PORT", "8080")
	internalKey := getEnv("INTERNAL_API_KEY", "")

	cfg := &Config{
		Server: ServerConfig{
			Port:         port,
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowedHosts: splitList(getEnv("ALLOWED_HOSTS", "")),
			AppURL:       strings.TrimRight(getEnv("APP_URL", "http://localhost:"+port), "/"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "finlink"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Provider: provider,
		Webhook: WebhookConfig{
			InternalAPIKey: internalKey,
		},
		Poller: poller,
		Scheduler: SchedulerConfig{
			WorkerCount: workers,
			QueueSize:   queueSize,
			JobDelay:    jobDelay,
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			MessagesFile:    getEnv("NOTIFICATION_MESSAGES_FILE", ""),
		},
		Telemetry: loadTelemetry("finlink-api", provider.Environment),
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Scheduler.WorkerCount < 1 {
		return nil, fmt.Errorf("SCHEDULER_WORKERS must be at least 1")
	}

	return cfg, nil
}

// LoadRelay reads the relay's configuration. Provider credentials are not
// required here; missing ones surface as errors on the first provider call.
func LoadRelay() (*Config, error) {
	_ = godotenv.Load()

	provider, err := loadProvider()
	if err != nil {
		return nil, err
	}
	// The relay is the process that talks to the provider.
	provider.Mode = ProviderModeDirect

	poller, err := loadPoller()
	if err != nil {
		return nil, err
	}

	port := getEnv("PORT", "3001")
	return &Config{
		Server: ServerConfig{
			Port: port,
			Host: getEnv("HOST", "0.0.0.0"),
		},
		Provider: provider,
		Relay: RelayConfig{
			Port:           port,
			Region:         getEnv("RELAY_REGION", "ap-south-1"),
			BackendURL:     strings.TrimRight(getEnv("RENDER_BACKEND_URL", ""), "/"),
			InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
		},
		Poller:    poller,
		Telemetry: loadTelemetry("finlink-relay", provider.Environment),
	}, nil
}

func loadProvider() (ProviderConfig, error) {
	timeout, err := time.ParseDuration(getEnv("SETU_TIMEOUT", "30s"))
	if err != nil {
		return ProviderConfig{}, fmt.Errorf("invalid SETU_TIMEOUT: %w", err)
	}

	env := getEnv("SETU_ENV", "sandbox")
	if env != "sandbox" && env != "production" {
		return ProviderConfig{}, fmt.Errorf("invalid SETU_ENV %q: must be sandbox or production", env)
	}

	relayURL := strings.TrimRight(getEnv("SETU_SERVICE_URL", ""), "/")
	mode := getEnv("SETU_MODE", "")
	switch {
	case mode == "" && (getBoolEnv("SETU_USE_DIRECT", false) || relayURL == ""):
		mode = ProviderModeDirect
	case mode == "":
		mode = ProviderModeRelay
	case mode != ProviderModeDirect && mode != ProviderModeRelay:
		return ProviderConfig{}, fmt.Errorf("invalid SETU_MODE %q: must be direct or relay", mode)
	}
	if mode == ProviderModeRelay && relayURL == "" {
		return ProviderConfig{}, fmt.Errorf("SETU_SERVICE_URL is required when SETU_MODE=relay")
	}

	return ProviderConfig{
		Mode:              mode,
		Environment:       env,
		ClientID:          getEnv("SETU_CLIENT_ID", ""),
		ClientSecret:      getEnv("SETU_CLIENT_SECRET", ""),
		ProductInstanceID: getEnv("SETU_PRODUCT_ID", ""),
		BaseURL:           strings.TrimRight(getEnv("SETU_BASE_URL", ""), "/"),
		RelayURL:          relayURL,
		Timeout:           timeout,
	}, nil
}

func loadPoller() (PollerConfig, error) {
	attempts, err := strconv.Atoi(getEnv("SETU_POLL_ATTEMPTS", "10"))
	if err != nil || attempts < 1 {
		return PollerConfig{}, fmt.Errorf("invalid SETU_POLL_ATTEMPTS %q", os.Getenv("SETU_POLL_ATTEMPTS"))
	}
	interval, err := time.ParseDuration(getEnv("SETU_POLL_INTERVAL", "2s"))
	if err != nil {
		return PollerConfig{}, fmt.Errorf("invalid SETU_POLL_INTERVAL: %w", err)
	}
	return PollerConfig{MaxAttempts: attempts, Interval: interval}, nil
}

func loadTelemetry(service, env string) TelemetryConfig {
	return TelemetryConfig{
		Enabled:      getBoolEnv("OTEL_ENABLED", false),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", service),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		MetricsPort:  getEnv("METRICS_PORT", "9464"),
		Environment:  env,
	}
}

// IsProduction reports whether the provider environment is production.
func (c *ProviderConfig) IsProduction() bool {
	return c.Environment == "production"
}

// HasCredentials reports whether all three provider credentials are set.
func (c *ProviderConfig) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.ProductInstanceID != ""
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the connection string in URL form.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
