package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			CORS: CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			Path:     filepath.Join("data", "learntools.db"),
			Host:     "localhost",
			Port:     3306,
			Database: "learntools",
			Username: "user",
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 10,
			RetryAttempts:  3,
			AllowedHosts:   []string{"localhost:3000"},
		},
		Notebook: NotebookConfig{
			PageDebounceMS:     350,
			BookmarkDebounceMS: 400,
			LastPageDebounceMS: 250,
			DefaultPagesCount:  100,
		},
		Registry: RegistryConfig{
			TypesDirectory: "types",
		},
	}
}

func TestConfigLoader_Load(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		useExplicitPath   bool
		env               map[string]string
		wantErr           bool
		want              func() *Config
		wantErrorContains []string
	}{
		{
			name:            "no config file uses defaults",
			useExplicitPath: false,
			want:            defaultConfig,
		},
		{
			name: "valid config file with custom values",
			configContent: `server:
  port: 9090
  cors:
    allowed_origins:
      - https://lms.example.org
database:
  driver: mysql
  host: db
  port: 3307
  database: tools
  username: app
fetch:
  timeout_seconds: 3
  retry_attempts: 5
  allowed_hosts:
    - raw.githubusercontent.com
    - 127.0.0.1:8000
notebook:
  page_debounce_ms: 100
registry:
  types_directory: public/types
  watch: true
`,
			useExplicitPath: true,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Server.Port = 9090
				cfg.Server.CORS.AllowedOrigins = []string{"https://lms.example.org"}
				cfg.Database.Driver = "mysql"
				cfg.Database.Host = "db"
				cfg.Database.Port = 3307
				cfg.Database.Database = "tools"
				cfg.Database.Username = "app"
				cfg.Fetch.TimeoutSeconds = 3
				cfg.Fetch.RetryAttempts = 5
				cfg.Fetch.AllowedHosts = []string{"raw.githubusercontent.com", "127.0.0.1:8000"}
				cfg.Notebook.PageDebounceMS = 100
				cfg.Registry.TypesDirectory = "public/types"
				cfg.Registry.Watch = true
				return cfg
			},
		},
		{
			name: "password is read from the environment",
			configContent: `database:
  driver: mysql
`,
			useExplicitPath: true,
			env:             map[string]string{"LEARNTOOLS_DB_PASSWORD": "secret"},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Database.Driver = "mysql"
				cfg.Database.Password = "secret"
				return cfg
			},
		},
		{
			name: "invalid YAML format",
			configContent: `server:
  port: 9090
  invalid yaml format here [[[
`,
			useExplicitPath: false,
			wantErr:         true,
			wantErrorContains: []string{
				"configuration file found but could not be read",
				"Please check the file format and permissions",
			},
		},
		{
			name: "unknown driver",
			configContent: `database:
  driver: postgres
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"invalid configuration",
				"database.driver must be one of [sqlite mysql], got postgres",
			},
		},
		{
			name: "registry file must exist",
			configContent: `registry:
  registry_file: does/not/exist.json
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"registry.registry_file must be an existing and readable file",
			},
		},
		{
			name: "retry attempts out of range",
			configContent: `fetch:
  retry_attempts: 50
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"retry_attempts must be 10 or less",
			},
		},
		{
			name: "allowed hosts are host names, not URLs",
			configContent: `fetch:
  allowed_hosts:
    - example.org
    - http://169.254.169.254/
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"fetch.allowed_hosts[1] must be a host name or host:port, got http://169.254.169.254/",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var configPath string
			if tt.useExplicitPath {
				configPath = filepath.Join(tempDir, "config.yml")
				err := os.WriteFile(configPath, []byte(tt.configContent), 0644)
				require.NoError(t, err)
			} else {
				if tt.configContent != "" {
					err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(tt.configContent), 0644)
					require.NoError(t, err)
				}
				t.Chdir(tempDir)
			}

			loader, err := NewConfigLoader(configPath)
			require.NoError(t, err)
			got, err := loader.Load()

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				for _, wantMsg := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), wantMsg)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want(), got)
		})
	}
}

func TestRegistryConfig_RegistryFilePath(t *testing.T) {
	tests := []struct {
		name   string
		config RegistryConfig
		want   string
	}{
		{
			name:   "defaults to registry.json in the types directory",
			config: RegistryConfig{TypesDirectory: "types"},
			want:   filepath.Join("types", "registry.json"),
		},
		{
			name:   "explicit file wins",
			config: RegistryConfig{TypesDirectory: "types", RegistryFile: "/etc/registry.json"},
			want:   "/etc/registry.json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.RegistryFilePath())
		})
	}
}
