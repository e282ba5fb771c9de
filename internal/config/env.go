package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ProvidersConfig carries server-side provider credentials. User-supplied
// keys in a request take precedence over these.
type ProvidersConfig struct {
	OpenAIKey      string
	DeepSeekKey    string
	BaiduAppID     string
	BaiduAppKey    string
	GoogleKey      string
	AzureKey       string
	AzureRegion    string
	DeepLKey       string
	RequestTimeout time.Duration
}

// QuotaConfig defines the daily free-translation limit.
type QuotaConfig struct {
	DailyLimit int
	UsageTTL   time.Duration
	BonusTTL   time.Duration
	ShareBase  string // base URL for share links
}

// UploadConfig bounds accepted files.
type UploadConfig struct {
	MaxSizeBytes int64
	Dir          string
}

// ToolsConfig configures the external extraction tools.
type ToolsConfig struct {
	Pdf2zhScript   string
	BabelDocScript string
	OutputDir      string
	RunTimeout     time.Duration
	AutoInstall    bool
}

// ArtifactConfig configures storage of tool-generated documents.
type ArtifactConfig struct {
	S3Bucket        string
	S3Prefix        string
	S3Region        string
	AccessKeyID     string
	SecretAccessKey string
	EncPassphrase   string
	LocalDir        string
}

// Config is the top-level configuration.
type Config struct {
	Port      string
	RedisURL  string
	Logging   LoggingConfig
	Axiom     AxiomConfig
	Providers ProvidersConfig
	Quota     QuotaConfig
	Upload    UploadConfig
	Tools     ToolsConfig
	Artifact  ArtifactConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		RedisURL: getEnv("REDIS_URL", ""),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdftranslate.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdftranslate",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Providers = ProvidersConfig{
		OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
		DeepSeekKey:    getEnv("DEEPSEEK_API_KEY", ""),
		BaiduAppID:     getEnv("BAIDU_APP_ID", ""),
		BaiduAppKey:    getEnv("BAIDU_APP_KEY", ""),
		GoogleKey:      getEnv("GOOGLE_API_KEY", ""),
		AzureKey:       getEnv("AZURE_TRANSLATOR_KEY", ""),
		AzureRegion:    getEnv("AZURE_TRANSLATOR_REGION", "global"),
		DeepLKey:       getEnv("DEEPL_API_KEY", ""),
		RequestTimeout: parseDuration(getEnv("PROVIDER_TIMEOUT", "30s"), 30*time.Second),
	}

	cfg.Quota = QuotaConfig{
		DailyLimit: parseInt(getEnv("FREE_DAILY_LIMIT", "5"), 5),
		UsageTTL:   parseDuration(getEnv("USAGE_TTL", "168h"), 7*24*time.Hour),
		BonusTTL:   parseDuration(getEnv("BONUS_TTL", "720h"), 30*24*time.Hour),
		ShareBase:  getEnv("APP_URL", "http://localhost:8080"),
	}

	cfg.Upload = UploadConfig{
		MaxSizeBytes: int64(parseInt(getEnv("UPLOAD_MAX_MB", "20"), 20)) << 20,
		Dir:          getEnv("UPLOAD_DIR", "uploads"),
	}

	cfg.Tools = ToolsConfig{
		Pdf2zhScript:   getEnv("PDF2ZH_SCRIPT", "scripts/pdf2zh_api.py"),
		BabelDocScript: getEnv("BABELDOC_SCRIPT", "scripts/babeldoc_api.py"),
		OutputDir:      getEnv("TOOL_OUTPUT_DIR", "uploads/translated"),
		RunTimeout:     parseDuration(getEnv("TOOL_TIMEOUT", "300s"), 300*time.Second),
		AutoInstall:    parseBool(getEnv("TOOL_AUTO_INSTALL", "true")),
	}

	cfg.Artifact = ArtifactConfig{
		S3Bucket:        getEnv("ARTIFACT_S3_BUCKET", ""),
		S3Prefix:        getEnv("ARTIFACT_S3_PREFIX", "artifacts"),
		S3Region:        getEnv("AWS_REGION", "us-east-1"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		EncPassphrase:   getEnv("ARTIFACT_ENC_PASSPHRASE", ""),
		LocalDir:        getEnv("RESULT_DIR", "uploads/results"),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
