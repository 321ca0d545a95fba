package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const FileName = "taskline.yml"

// Backends accepted by storage.backend.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config models taskline.yml.
type Config struct {
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
}

type Storage struct {
	Backend string `yaml:"backend"`
	// Dir holds the .tbl files of the file backend. Relative paths are
	// resolved against the workspace.
	Dir       string        `yaml:"dir"`
	OpTimeout time.Duration `yaml:"op_timeout"`
	Postgres  Postgres      `yaml:"postgres"`
}

type Postgres struct {
	DSN            string        `yaml:"dsn"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with tl init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Keys absent
// from data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no taskline.yml exists.
func Default() *Config {
	return &Config{
		Storage: Storage{
			Backend:   BackendFile,
			Dir:       "data",
			OpTimeout: 10 * time.Second,
			Postgres:  Postgres{ConnectTimeout: 5 * time.Second},
		},
		Log: Log{Level: "info", Format: "console"},
	}
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("config.storage.dir is required for the file backend")
		}
	case BackendPostgres:
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("config.storage.postgres.dsn is required for the postgres backend")
		}
		if c.Storage.Postgres.ConnectTimeout <= 0 {
			return fmt.Errorf("config.storage.postgres.connect_timeout must be positive")
		}
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("config.storage.backend must be one of file, sqlite, postgres, memory; got %q", c.Storage.Backend)
	}
	if c.Storage.OpTimeout < 0 {
		return fmt.Errorf("config.storage.op_timeout must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config.log.level: %w", err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("config.log.format must be console or json")
	}
	return nil
}

// RequirePersistent fails unless records outlive the process. The memory
// backend does not, so a CLI where each command is a new process rejects it.
func (c *Config) RequirePersistent() error {
	if c.Storage.Backend == BackendMemory {
		return fmt.Errorf("config.storage.backend %q keeps nothing between commands; use file, sqlite or postgres", c.Storage.Backend)
	}
	return nil
}

// DataDir resolves storage.dir against workspace.
func (c *Config) DataDir(workspace string) string {
	if filepath.IsAbs(c.Storage.Dir) {
		return c.Storage.Dir
	}
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, c.Storage.Dir)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `storage:
  # file | sqlite | postgres | memory
  backend: file
  dir: data
  op_timeout: 10s
  postgres:
    dsn: ""
    connect_timeout: 5s

log:
  # trace | debug | info | warn | error
  level: info
  # console | json
  format: console
`
