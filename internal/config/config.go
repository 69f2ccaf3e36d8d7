package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadopc/ctfpad/internal/store"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines application configuration.
type Config struct {
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Export ExportConfig `yaml:"export"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads configuration from an optional YAML file and environment variables.
// An empty path falls back to CTFPAD_CONFIG; with neither, only defaults and
// environment apply.
func Load(path string) (Config, error) {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return Config{}, fmt.Errorf("default db path: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	cfg := Config{
		DB: DBConfig{
			Path: dbPath,
		},
		Log: LogConfig{
			Level: "info",
		},
		Export: ExportConfig{
			Dir: home,
		},
	}

	if path == "" {
		path = os.Getenv("CTFPAD_CONFIG")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv("CTFPAD_DB_PATH"); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv("CTFPAD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CTFPAD_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("CTFPAD_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}

	cfg.applyDerived()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDBPath overrides the database location after loading, moving the default
// log file along with it.
func (c *Config) SetDBPath(path string) {
	if c.Log.File == defaultLogFile(c.DB.Path) {
		c.Log.File = ""
	}
	c.DB.Path = path
	c.applyDerived()
}

func (c *Config) applyDerived() {
	if c.Log.File == "" {
		c.Log.File = defaultLogFile(c.DB.Path)
	}
}

func defaultLogFile(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "ctfpad.log")
}

func (c Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("invalid config: db.path is empty")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid config: log.level: %w", err)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
