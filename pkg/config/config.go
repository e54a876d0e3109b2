// Package config loads varlog configuration from defaults, an optional YAML
// file, and VARLOG_-prefixed environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

type Config struct {
	Log       LogConfig       `koanf:"log" yaml:"log"`
	Store     StoreConfig     `koanf:"store" yaml:"store"`
	Server    ServerConfig    `koanf:"server" yaml:"server"`
	Telemetry TelemetryConfig `koanf:"telemetry" yaml:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"` // json, text
}

type StoreConfig struct {
	Path string `koanf:"path" yaml:"path"`
}

type ServerConfig struct {
	Name      string `koanf:"name" yaml:"name"`
	Version   string `koanf:"version" yaml:"version"`
	Transport string `koanf:"transport" yaml:"transport"` // stdio, http
	HTTPAddr  string `koanf:"http_addr" yaml:"http_addr"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter" yaml:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure" yaml:"otlp_insecure"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("store.path", "data/varlog.db")
	k.Set("server.name", "varlog")
	k.Set("server.version", "0.1.0")
	k.Set("server.transport", "stdio")
	k.Set("server.http_addr", "localhost:8080")
	k.Set("telemetry.exporter", "stdout")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	// 2. Load from ENV (VARLOG_STORE_PATH -> store.path)
	if err := k.Load(env.Provider("VARLOG_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "VARLOG_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WriteDefault scaffolds a config file with the default settings. Fails if
// the file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	cfg, err := Load("")
	if err != nil {
		return err
	}
	payload, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
