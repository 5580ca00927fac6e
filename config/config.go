// Package config loads optional run defaults from a file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds run defaults. Zero values mean "unspecified"; command-line
// flags take precedence over anything set here.
type Config struct {
	Backend     string   `json:"backend" yaml:"backend" toml:"backend"`
	Command     string   `json:"command" yaml:"command" toml:"command"`
	CommandArgs []string `json:"command_args" yaml:"command_args" toml:"command_args"`
	Endpoint    string   `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Timeout     string   `json:"timeout" yaml:"timeout" toml:"timeout"`
	Quality     *int     `json:"quality" yaml:"quality" toml:"quality"`
	KeepGoing   bool     `json:"keep_going" yaml:"keep_going" toml:"keep_going"`
	MetricsFile string   `json:"metrics_file" yaml:"metrics_file" toml:"metrics_file"`
	LogLevel    string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat   string   `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// Load reads run defaults from path. The format follows the extension:
// .toml, .yaml/.yml or .json.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
