package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Notebook NotebookConfig `mapstructure:"notebook"`
	Registry RegistryConfig `mapstructure:"registry"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver is either sqlite or mysql.
	Driver          string            `mapstructure:"driver" validate:"oneof=sqlite mysql"`
	Path            string            `mapstructure:"path" validate:"required_if=Driver sqlite"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

// FetchConfig bounds exercise document downloads. AllowedHosts are the only
// hosts documents are fetched from, as "host" (any port) or "host:port".
type FetchConfig struct {
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"min=1"`
	RetryAttempts  uint     `mapstructure:"retry_attempts" validate:"min=1,max=10"`
	AllowedHosts   []string `mapstructure:"allowed_hosts" validate:"min=1,dive,fetch_host"`
}

func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NotebookConfig holds the write-behind windows of the notebook store in milliseconds.
type NotebookConfig struct {
	PageDebounceMS     int `mapstructure:"page_debounce_ms" validate:"min=0"`
	BookmarkDebounceMS int `mapstructure:"bookmark_debounce_ms" validate:"min=0"`
	LastPageDebounceMS int `mapstructure:"last_page_debounce_ms" validate:"min=0"`
	DefaultPagesCount  int `mapstructure:"default_pages_count" validate:"min=1,max=1000"`
}

func (c NotebookConfig) PageDebounce() time.Duration {
	return time.Duration(c.PageDebounceMS) * time.Millisecond
}

func (c NotebookConfig) BookmarkDebounce() time.Duration {
	return time.Duration(c.BookmarkDebounceMS) * time.Millisecond
}

func (c NotebookConfig) LastPageDebounce() time.Duration {
	return time.Duration(c.LastPageDebounceMS) * time.Millisecond
}

type RegistryConfig struct {
	TypesDirectory string `mapstructure:"types_directory" validate:"required"`
	RegistryFile   string `mapstructure:"registry_file" validate:"omitempty,file"`
	Watch          bool   `mapstructure:"watch"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/learntools")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join("data", "learntools.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "learntools")
	v.SetDefault("database.username", "user")
	v.SetDefault("fetch.timeout_seconds", 10)
	v.SetDefault("fetch.retry_attempts", 3)
	v.SetDefault("fetch.allowed_hosts", []string{"localhost:3000"})
	v.SetDefault("notebook.page_debounce_ms", 350)
	v.SetDefault("notebook.bookmark_debounce_ms", 400)
	v.SetDefault("notebook.last_page_debounce_ms", 250)
	v.SetDefault("notebook.default_pages_count", 100)
	v.SetDefault("registry.types_directory", "types")
	v.SetDefault("registry.registry_file", "")
	v.SetDefault("registry.watch", false)

	// Bind database password to environment variable
	if err := v.BindEnv("database.password", "LEARNTOOLS_DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind LEARNTOOLS_DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("server.port", "LEARNTOOLS_PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind LEARNTOOLS_PORT environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

// RegistryFilePath returns the registry file, defaulting to registry.json inside the types directory.
func (c RegistryConfig) RegistryFilePath() string {
	if c.RegistryFile != "" {
		return c.RegistryFile
	}
	return filepath.Join(c.TypesDirectory, "registry.json")
}
