// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Memory backends.
const (
	MemoryBackendFile  = "file"
	MemoryBackendRedis = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	AppEnv         string
	DataDir        string
	GRPCHealthPort string

	// Identity of the agent wallet and messaging client.
	WalletKey     string
	EncryptionKey string
	XMTPEnv       string
	NetworkID     string

	FundraiserBaseURL string
	PublicAPIURL      string

	LLM             LLMConfig
	Chain           ChainConfig
	Memory          MemoryConfig
	Ledger          LedgerConfig
	CORS            CORSConfig
	Balance         BalanceConfig
	RateLimit       RateLimitConfig
	ConversationLog ConversationLogConfig
}

// LLMConfig configures the OpenAI-compatible chat client.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	Referer     string
	Title       string
}

// ChainConfig configures the RPC endpoints and contract artifact.
type ChainConfig struct {
	RPCURL         string
	ENSRPCURL      string
	ChainID        int64
	ArtifactPath   string
	ConfirmTimeout time.Duration
}

// MemoryConfig configures session memory.
type MemoryConfig struct {
	Backend       string
	RedisURL      string
	IdleTTL       time.Duration
	SweepInterval time.Duration
	ContextWindow int
}

// LedgerConfig configures the SQLite ledger.
type LedgerConfig struct {
	DBPath string
}

// CORSConfig lists accepted browser origins.
type CORSConfig struct {
	AllowedOrigins  []string
	AllowedPatterns []string
}

// BalanceConfig configures the agent wallet balance guard.
type BalanceConfig struct {
	Minimum         string
	Target          string
	PolicyPath      string
	RecheckInterval time.Duration
}

// RateLimitConfig configures per-caller chat throttling.
type RateLimitConfig struct {
	RequestsPerWindow  int
	WindowDuration     time.Duration
	MaxRequestBodySize int64
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv reads configuration without validating it.
func FromEnv() *Config {
	dataDir := getEnv("DATA_DIR", ".data")
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	return &Config{
		Port:           getEnv("PORT", "10000"),
		AppEnv:         getEnv("APP_ENV", getEnv("NODE_ENV", "development")),
		DataDir:        dataDir,
		GRPCHealthPort: getEnv("GRPC_HEALTH_PORT", ""),

		WalletKey:     strings.TrimSpace(os.Getenv("WALLET_KEY")),
		EncryptionKey: strings.TrimSpace(os.Getenv("ENCRYPTION_KEY")),
		XMTPEnv:       getEnv("XMTP_ENV", ""),
		NetworkID:     getEnv("NETWORK_ID", ""),

		FundraiserBaseURL: getEnv("FUNDRAISER_BASE_URL", "https://zeonai.xyz/fundraiser"),
		PublicAPIURL:      getEnv("PUBLIC_API_URL", ""),

		LLM: LLMConfig{
			APIKey:      strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
			BaseURL:     getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnv("LLM_MODEL", "gpt-4"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.2),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 30*time.Second),
			MaxRetries:  getEnvInt("LLM_MAX_RETRIES", 3),
			Referer:     getEnv("LLM_REFERER", "https://zeonai.xyz"),
			Title:       getEnv("LLM_TITLE", "Zeon Hybrid Agent"),
		},
		Chain: ChainConfig{
			RPCURL:         getEnv("CHAIN_RPC_URL", "https://sepolia.base.org"),
			ENSRPCURL:      getEnv("ENS_RPC_URL", ""),
			ChainID:        int64(getEnvInt("CHAIN_ID", 84532)),
			ArtifactPath:   getEnv("CONTRACT_ARTIFACT", "dist/CrowdFund.json"),
			ConfirmTimeout: getEnvDuration("TX_CONFIRM_TIMEOUT", 90*time.Second),
		},
		Memory: MemoryConfig{
			Backend:       strings.ToLower(getEnv("MEMORY_BACKEND", MemoryBackendFile)),
			RedisURL:      getEnv("REDIS_URL", ""),
			IdleTTL:       getEnvDuration("MEMORY_IDLE_TTL", 24*time.Hour),
			SweepInterval: getEnvDuration("MEMORY_SWEEP_INTERVAL", time.Hour),
			ContextWindow: getEnvInt("MEMORY_CONTEXT_WINDOW", 20),
		},
		Ledger: LedgerConfig{
			DBPath: getEnv("LEDGER_DB_PATH", filepath.Join(dataDir, "zeon.db")),
		},
		CORS: CORSConfig{
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", nil),
			AllowedPatterns: getEnvList("CORS_ALLOWED_PATTERNS", nil),
		},
		Balance: BalanceConfig{
			Minimum:         getEnv("BALANCE_MIN", "0.001"),
			Target:          getEnv("BALANCE_TARGET", "0.005"),
			PolicyPath:      getEnv("BALANCE_POLICY_PATH", ""),
			RecheckInterval: getEnvDuration("BALANCE_RECHECK_INTERVAL", time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow:  getEnvInt("RATE_LIMIT_REQUESTS", 30),
			WindowDuration:     getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:       getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:           getEnv("CONVERSATION_LOG_DIR", filepath.Join(dataDir, "logs", "conversations")),
			GlobalEnabled: getEnvBool("CONVERSATION_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("CONVERSATION_LOG_GLOBAL_PATH", filepath.Join(dataDir, "logs", "conversations", "all.ndjson")),
			QueueSize:     queueSize,
		},
	}
}

// Validate checks that all required configuration fields are set. Every
// missing required variable is reported at once.
func (c *Config) Validate() error {
	var missing []string
	for _, req := range []struct{ name, value string }{
		{"WALLET_KEY", c.WalletKey},
		{"ENCRYPTION_KEY", c.EncryptionKey},
		{"XMTP_ENV", c.XMTPEnv},
		{"NETWORK_ID", c.NetworkID},
		{"OPENROUTER_API_KEY", c.LLM.APIKey},
	} {
		if req.value == "" {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR cannot be empty"))
	}
	if c.Ledger.DBPath == "" {
		errs = append(errs, errors.New("LEDGER_DB_PATH cannot be empty"))
	}
	switch c.Memory.Backend {
	case MemoryBackendFile:
	case MemoryBackendRedis:
		if c.Memory.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when MEMORY_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("MEMORY_BACKEND must be %q or %q, got %q", MemoryBackendFile, MemoryBackendRedis, c.Memory.Backend))
	}
	if c.Memory.ContextWindow <= 0 {
		errs = append(errs, errors.New("MEMORY_CONTEXT_WINDOW must be > 0"))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, errors.New("LLM_MAX_RETRIES must be >= 0"))
	}
	if c.RateLimit.RequestsPerWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be > 0"))
	}
	if c.ConversationLog.Dir == "" {
		errs = append(errs, errors.New("CONVERSATION_LOG_DIR cannot be empty"))
	}
	if c.ConversationLog.GlobalEnabled && c.ConversationLog.GlobalPath == "" {
		errs = append(errs, errors.New("CONVERSATION_LOG_GLOBAL_PATH cannot be empty"))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MemoryDir is where file-backed session memory lives.
func (c *Config) MemoryDir() string {
	return filepath.Join(c.DataDir, "memory")
}

// WalletDir is where exported wallet blobs live.
func (c *Config) WalletDir() string {
	return filepath.Join(c.DataDir, "wallet")
}

// XMTPDir is the messaging client database directory for address.
func (c *Config) XMTPDir(address string) string {
	return filepath.Join(c.DataDir, "xmtp", c.XMTPEnv+"-"+address)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
