/*
 * Copyright (c) 2026 Sharknado Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package config provides configuration management for Sharknado.

The configuration system supports multiple sources with clear precedence:
 1. Command-line flags (highest priority, applied by the entry point)
 2. Environment variables
 3. Configuration file (sharknado.json)
 4. Default values (lowest priority)

Example configuration file:

	{
	  "server": { "host": "127.0.0.1", "port": 8080 },
	  "logging": {
	    "main": { "level": "info", "path": "console", "color": true },
	    "tcp":  { "level": "debug", "path": "tcp.log", "color": false }
	  },
	  "data_dir": "/var/lib/sharknado",
	  "admin_port": 0,
	  "discovery": { "enabled": false }
	}

When data_dir is not configured anywhere, the platform application
data directory is used (see DefaultDataDir).

Environment Variables:
  - SHARKNADO_HOST: Listen host for the TCP server
  - SHARKNADO_PORT: Listen port for the TCP server
  - SHARKNADO_DATA_DIR: Directory holding the operation log and users.json
  - SHARKNADO_LOG_LEVEL: Log level (debug, info, warn, error)
  - SHARKNADO_LOG_JSON: Enable JSON logging (true/false)
  - SHARKNADO_ADMIN_PORT: HTTP port for /health and /metrics (0 = disabled)
  - SHARKNADO_DISCOVERY: Enable mDNS advertisement (true/false)
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
)

// Environment variable names for configuration.
const (
	EnvHost      = "SHARKNADO_HOST"
	EnvPort      = "SHARKNADO_PORT"
	EnvDataDir   = "SHARKNADO_DATA_DIR"
	EnvLogLevel  = "SHARKNADO_LOG_LEVEL"
	EnvLogJSON   = "SHARKNADO_LOG_JSON"
	EnvAdminPort = "SHARKNADO_ADMIN_PORT"
	EnvDiscovery = "SHARKNADO_DISCOVERY"
)

// DefaultConfigFile is the configuration file looked up in the working
// directory when no explicit path is given.
const DefaultConfigFile = "sharknado.json"

// DefaultDataDir returns the platform default directory for database
// storage: the per-user application data directory, or ./data when no
// suitable environment is available.
//
//	Windows: %APPDATA%\sharknado
//	macOS:   ~/Library/Application Support/sharknado
//	other:   $XDG_DATA_HOME/sharknado, else ~/.local/share/sharknado
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "sharknado")
		}
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Application Support", "sharknado")
		}
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, "sharknado")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".local", "share", "sharknado")
		}
	}
	return "./data"
}

// ServerConfig holds the TCP listener settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SinkConfig routes one logging component.
// Path is "console" or a file path.
type SinkConfig struct {
	Level string `json:"level"`
	Path  string `json:"path"`
	Color bool   `json:"color"`
}

// LoggingConfig holds per-component logging routes.
type LoggingConfig struct {
	Main SinkConfig `json:"main"`
	TCP  SinkConfig `json:"tcp"`
}

// DiscoveryConfig controls mDNS advertisement of the server.
type DiscoveryConfig struct {
	Enabled bool `json:"enabled"`
}

// Config holds all configuration values.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Logging   LoggingConfig   `json:"logging"`
	Discovery DiscoveryConfig `json:"discovery"`

	// DataDir holds <database>.log and users.json. Defaults to the
	// platform application data directory (DefaultDataDir).
	DataDir string `json:"data_dir"`

	// AdminPort serves /health and /metrics over HTTP; 0 disables it.
	AdminPort int `json:"admin_port"`

	// LogJSON switches all console logging to JSON entries.
	LogJSON bool `json:"log_json"`

	// ConfigFile is the path the configuration was loaded from.
	ConfigFile string `json:"-"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
		Logging: LoggingConfig{
			Main: SinkConfig{Level: "info", Path: "console", Color: true},
			TCP:  SinkConfig{Level: "info", Path: "console", Color: true},
		},
		Discovery: DiscoveryConfig{Enabled: false},
		DataDir:   DefaultDataDir(),
		AdminPort: 0,
		LogJSON:   false,
	}
}

// Manager handles configuration loading, validation, and access.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

var (
	globalManager *Manager
	globalOnce    sync.Once
)

// Global returns the process-wide configuration manager.
func Global() *Manager {
	globalOnce.Do(func() {
		globalManager = &Manager{config: DefaultConfig()}
	})
	return globalManager
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := *m.config
	return &cfg
}

// Set replaces the current configuration.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
}

// FindConfigFile returns the path of the default configuration file if
// it exists in the working directory, or "".
func FindConfigFile() string {
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// Load populates the configuration from the default file (if present)
// and then from the environment.
func (m *Manager) Load() error {
	if path := FindConfigFile(); path != "" {
		if err := m.LoadFromFile(path); err != nil {
			return err
		}
	}
	m.LoadFromEnv()
	return nil
}

// LoadFromFile merges the JSON file at path over the current config.
func (m *Manager) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Unmarshal over a copy of the current config, so absent fields
	// keep their existing values.
	cfg := *m.config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	cfg.ConfigFile = path
	m.config = &cfg
	return nil
}

// LoadFromEnv applies environment variables over the current config.
func (m *Manager) LoadFromEnv() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := *m.config
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Main.Level = v
		cfg.Logging.TCP.Level = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		cfg.LogJSON = v == "true" || v == "1"
	}
	if v := os.Getenv(EnvAdminPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.AdminPort = port
		}
	}
	if v := os.Getenv(EnvDiscovery); v != "" {
		cfg.Discovery.Enabled = v == "true" || v == "1"
	}
	m.config = &cfg
}

// Validate checks the configuration for impossible values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d: must be 1-65535", c.Server.Port)
	}
	if c.AdminPort < 0 || c.AdminPort > 65535 {
		return fmt.Errorf("invalid admin port %d: must be 0-65535", c.AdminPort)
	}
	if c.AdminPort != 0 && c.AdminPort == c.Server.Port {
		return fmt.Errorf("admin port must differ from server port %d", c.Server.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}
