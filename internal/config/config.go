package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Storage  StorageConfig
	OCR      OCRConfig
	Vision   VisionConfig
	Extract  ExtractConfig
	Download DownloadConfig
	Cleanup  CleanupConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig holds task artifact storage settings. Backend selects
// between "local" (disk under LocalPath) and "s3".
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	LocalPath     string `mapstructure:"local_path"`
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// OCRConfig holds OCR channel settings. Engine names the engine used when
// a request does not select one; the Baidu fields credential the cloud
// engine, Languages applies to Tesseract.
type OCRConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Engine         string `mapstructure:"engine"`
	Languages      string `mapstructure:"languages"`
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
	BaiduAPIKey    string `mapstructure:"baidu_api_key"`
	BaiduSecretKey string `mapstructure:"baidu_secret_key"`
	BaiduEndpoint  string `mapstructure:"baidu_endpoint"`
}

// VisionConfig holds vision-language model settings.
type VisionConfig struct {
	APIKey       string `mapstructure:"api_key"`
	Endpoint     string `mapstructure:"endpoint"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractConfig holds the fusion policy knobs and pipeline sizing. The
// scoring weights are empirical defaults; they are surfaced here rather
// than hardcoded so the fusion policy can be tuned without a rebuild.
type ExtractConfig struct {
	MinTextLength    int     `mapstructure:"min_text_length"`
	Workers          int     `mapstructure:"workers"`
	ConfidenceWeight float64 `mapstructure:"confidence_weight"`
	LengthWeight     float64 `mapstructure:"length_weight"`
	QualityWeight    float64 `mapstructure:"quality_weight"`
	TieBand          float64 `mapstructure:"tie_band"`
	DominanceRatio   float64 `mapstructure:"dominance_ratio"`
}

// DownloadConfig holds URL ingestion settings.
type DownloadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	TimeoutSecs   int   `mapstructure:"timeout_secs"`
}

// CleanupConfig holds artifact retention settings.
type CleanupConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RetentionHours int  `mapstructure:"retention_hours"`
	IntervalHours  int  `mapstructure:"interval_hours"`
}

// Load reads configuration from environment variables with the TEXTMILL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TEXTMILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_path", "./storage")
	v.SetDefault("storage.bucket", "textmill-tasks")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.presign_expiry", 3600)
	v.SetDefault("storage.max_file_size_mb", 100)

	// OCR defaults
	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.engine", "baidu")
	v.SetDefault("ocr.languages", "chi_sim+eng")
	v.SetDefault("ocr.timeout_secs", 30)
	v.SetDefault("ocr.baidu_api_key", "")
	v.SetDefault("ocr.baidu_secret_key", "")
	v.SetDefault("ocr.baidu_endpoint", "")

	// Vision defaults
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.endpoint", "")
	v.SetDefault("vision.default_model", "qwen-vl-plus")
	v.SetDefault("vision.timeout_secs", 60)

	// Extract defaults
	v.SetDefault("extract.min_text_length", 10)
	v.SetDefault("extract.workers", 4)
	v.SetDefault("extract.confidence_weight", 0.4)
	v.SetDefault("extract.length_weight", 0.3)
	v.SetDefault("extract.quality_weight", 0.3)
	v.SetDefault("extract.tie_band", 0.1)
	v.SetDefault("extract.dominance_ratio", 1.5)

	// Download defaults
	v.SetDefault("download.max_file_size_mb", 100)
	v.SetDefault("download.timeout_secs", 60)

	// Cleanup defaults
	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.retention_hours", 168)
	v.SetDefault("cleanup.interval_hours", 24)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "TEXTMILL_SERVER_PORT",
		"server.read_timeout":       "TEXTMILL_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "TEXTMILL_SERVER_WRITE_TIMEOUT",
		"server.environment":        "TEXTMILL_SERVER_ENVIRONMENT",
		"log.level":                 "TEXTMILL_LOG_LEVEL",
		"log.format":                "TEXTMILL_LOG_FORMAT",
		"storage.backend":           "TEXTMILL_STORAGE_BACKEND",
		"storage.local_path":        "TEXTMILL_STORAGE_LOCAL_PATH",
		"storage.bucket":            "TEXTMILL_STORAGE_BUCKET",
		"storage.region":            "TEXTMILL_STORAGE_REGION",
		"storage.endpoint":          "TEXTMILL_STORAGE_ENDPOINT",
		"storage.access_key":        "TEXTMILL_STORAGE_ACCESS_KEY",
		"storage.secret_key":        "TEXTMILL_STORAGE_SECRET_KEY",
		"storage.presign_expiry":    "TEXTMILL_STORAGE_PRESIGN_EXPIRY",
		"storage.max_file_size_mb":  "TEXTMILL_STORAGE_MAX_FILE_SIZE_MB",
		"ocr.enabled":               "TEXTMILL_OCR_ENABLED",
		"ocr.engine":                "TEXTMILL_OCR_ENGINE",
		"ocr.languages":             "TEXTMILL_OCR_LANGUAGES",
		"ocr.timeout_secs":          "TEXTMILL_OCR_TIMEOUT_SECS",
		"ocr.baidu_api_key":         "TEXTMILL_OCR_BAIDU_API_KEY",
		"ocr.baidu_secret_key":      "TEXTMILL_OCR_BAIDU_SECRET_KEY",
		"ocr.baidu_endpoint":        "TEXTMILL_OCR_BAIDU_ENDPOINT",
		"vision.api_key":            "TEXTMILL_VISION_API_KEY",
		"vision.endpoint":           "TEXTMILL_VISION_ENDPOINT",
		"vision.default_model":      "TEXTMILL_VISION_DEFAULT_MODEL",
		"vision.timeout_secs":       "TEXTMILL_VISION_TIMEOUT_SECS",
		"extract.min_text_length":   "TEXTMILL_EXTRACT_MIN_TEXT_LENGTH",
		"extract.workers":           "TEXTMILL_EXTRACT_WORKERS",
		"extract.confidence_weight": "TEXTMILL_EXTRACT_CONFIDENCE_WEIGHT",
		"extract.length_weight":     "TEXTMILL_EXTRACT_LENGTH_WEIGHT",
		"extract.quality_weight":    "TEXTMILL_EXTRACT_QUALITY_WEIGHT",
		"extract.tie_band":          "TEXTMILL_EXTRACT_TIE_BAND",
		"extract.dominance_ratio":   "TEXTMILL_EXTRACT_DOMINANCE_RATIO",
		"download.max_file_size_mb": "TEXTMILL_DOWNLOAD_MAX_FILE_SIZE_MB",
		"download.timeout_secs":     "TEXTMILL_DOWNLOAD_TIMEOUT_SECS",
		"cleanup.enabled":           "TEXTMILL_CLEANUP_ENABLED",
		"cleanup.retention_hours":   "TEXTMILL_CLEANUP_RETENTION_HOURS",
		"cleanup.interval_hours":    "TEXTMILL_CLEANUP_INTERVAL_HOURS",
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
