package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// APIConfig — настройки сервиса сертификации
type APIConfig struct {
	Enabled       bool    `yaml:"enabled"`
	BaseURL       string  `yaml:"base_url"`
	TimeoutSec    int     `yaml:"timeout"`
	RetryAttempts int     `yaml:"retry_attempts"`
	RetryDelaySec float64 `yaml:"retry_delay"`
}

// WipeConfig — настройки движка затирания
type WipeConfig struct {
	BufferSize          int64   `yaml:"buffer_size"`
	DefaultAlgorithm    string  `yaml:"default_algorithm"`
	RandomPasses        int     `yaml:"random_passes"`
	VerifyAfterWipe     bool    `yaml:"verify_after_wipe"`
	AllowMounted        bool    `yaml:"allow_mounted_devices"`
	RequireConfirmation bool    `yaml:"require_confirmation"`
	MaxSpeedMBps        float64 `yaml:"max_speed_mbps"`
}

// LoggingConfig — настройки логирования
type LoggingConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// SecurityConfig — настройки безопасности
type SecurityConfig struct {
	RequireAdmin   bool     `yaml:"require_admin"`
	ProtectedPaths []string `yaml:"protected_paths"`
}

// OutputConfig — настройки отчётов
type OutputConfig struct {
	ReportDirectory string `yaml:"report_directory"`
	Format          string `yaml:"format"`
}

// Config — конфигурация приложения
type Config struct {
	API      APIConfig      `yaml:"api"`
	Wipe     WipeConfig     `yaml:"wipe"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
	Output   OutputConfig   `yaml:"output"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		API: APIConfig{
			Enabled:       true,
			BaseURL:       "http://localhost:3001",
			TimeoutSec:    30,
			RetryAttempts: 3,
			RetryDelaySec: 1.0,
		},
		Wipe: WipeConfig{
			BufferSize:          1024 * 1024, // 1MB
			DefaultAlgorithm:    "nist",
			RandomPasses:        3,
			VerifyAfterWipe:     false,
			AllowMounted:        false,
			RequireConfirmation: true,
			MaxSpeedMBps:        0, // без ограничения
		},
		Logging: LoggingConfig{
			Level:   "INFO",
			File:    "",
			Console: true,
		},
		Security: SecurityConfig{
			RequireAdmin:   true,
			ProtectedPaths: defaultProtectedPaths(),
		},
		Output: OutputConfig{
			ReportDirectory: "./reports",
			Format:          "json",
		},
	}
}

// Load загружает конфигурацию из файла с env переопределениями
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvironment(cfg)

	// Валидация конфигурации
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvironment применяет переопределения из переменных окружения
func applyEnvironment(cfg *Config) {
	if v := os.Getenv("WIPEOUT_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("WIPEOUT_API_ENABLED"); v != "" {
		cfg.API.Enabled = parseBool(v, cfg.API.Enabled)
	}
	if v := os.Getenv("WIPEOUT_API_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.TimeoutSec = n
		}
	}
	if v := os.Getenv("WIPEOUT_BUFFER_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Wipe.BufferSize = n
		}
	}
	if v := os.Getenv("WIPEOUT_DEFAULT_ALGORITHM"); v != "" {
		cfg.Wipe.DefaultAlgorithm = v
	}
	if v := os.Getenv("WIPEOUT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToUpper(v)
	}
	if v := os.Getenv("WIPEOUT_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("WIPEOUT_REQUIRE_ADMIN"); v != "" {
		cfg.Security.RequireAdmin = parseBool(v, cfg.Security.RequireAdmin)
	}
	if v := os.Getenv("WIPEOUT_REPORT_DIR"); v != "" {
		cfg.Output.ReportDirectory = v
	}
}

func parseBool(v string, fallback bool) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off":
		return false
	default:
		return fallback
	}
}

// validAlgorithms — имена алгоритмов, допустимые в конфигурации
var validAlgorithms = map[string]bool{
	"nist":            true,
	"nist-clear":      true,
	"dod":             true,
	"dod-extended":    true,
	"random":          true,
	"single-random":   true,
	"zero-random":     true,
	"gutmann":         true,
	"gutmann-reduced": true,
}

// Validate проверяет конфигурацию на валидность
func Validate(cfg *Config) error {
	// Валидация wipe секции
	if cfg.Wipe.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", cfg.Wipe.BufferSize)
	}
	if cfg.Wipe.BufferSize > 100*1024*1024 { // 100MB max
		return fmt.Errorf("buffer size too large (max 100MB), got %d", cfg.Wipe.BufferSize)
	}

	if !validAlgorithms[cfg.Wipe.DefaultAlgorithm] {
		return fmt.Errorf("invalid default algorithm: %s", cfg.Wipe.DefaultAlgorithm)
	}

	if cfg.Wipe.RandomPasses <= 0 || cfg.Wipe.RandomPasses > 100 {
		return fmt.Errorf("random passes must be between 1 and 100, got %d", cfg.Wipe.RandomPasses)
	}

	if cfg.Wipe.MaxSpeedMBps < 0 {
		return fmt.Errorf("max speed cannot be negative, got %f", cfg.Wipe.MaxSpeedMBps)
	}

	// Валидация api секции
	if cfg.API.Enabled {
		if cfg.API.BaseURL == "" {
			return fmt.Errorf("api base_url is required when api is enabled")
		}
		if cfg.API.TimeoutSec <= 0 {
			return fmt.Errorf("api timeout must be positive, got %d", cfg.API.TimeoutSec)
		}
		if cfg.API.RetryAttempts < 0 || cfg.API.RetryAttempts > 10 {
			return fmt.Errorf("api retry attempts must be between 0 and 10, got %d", cfg.API.RetryAttempts)
		}
	}

	// Валидация logging секции
	validLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	// Валидация путей
	for _, path := range cfg.Security.ProtectedPaths {
		if path == "" {
			return fmt.Errorf("empty protected path")
		}
	}

	if cfg.Output.Format != "json" {
		return fmt.Errorf("unsupported report format: %s", cfg.Output.Format)
	}

	return nil
}

// Save сохраняет конфигурацию в файл
func Save(cfg *Config, path string) error {
	// Валидация перед сохранением
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	// Создаем директорию если нужно
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
