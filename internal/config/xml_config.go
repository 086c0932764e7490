// Package config provides XML-based configuration management for the dashboard server.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultFileName is the config file looked up beside the executable.
const DefaultFileName = "safety-dashboard.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"SafetyDashboard"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Simulated telemetry
	Simulator SimulatorConfig `xml:"Simulator"`

	// Virtual reset
	Reset ResetConfig `xml:"Reset"`

	// Signal catalog selection
	Catalog CatalogConfig `xml:"Catalog"`

	// Live viewer sessions
	Sessions SessionsConfig `xml:"Sessions"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	Title        string `xml:"Title"`
}

// SimulatorConfig controls the random signal flipper
type SimulatorConfig struct {
	Enabled         bool    `xml:"Enabled"`
	IntervalMs      int     `xml:"IntervalMs"`
	TickProbability float64 `xml:"TickProbability"`
	FlipProbability float64 `xml:"FlipProbability"`
	Seed            uint64  `xml:"Seed"`
}

// ResetConfig controls the virtual reset notifications
type ResetConfig struct {
	DelayMs int `xml:"DelayMs"`
}

// CatalogConfig selects the signal catalog
type CatalogConfig struct {
	Profile string `xml:"Profile"`
	File    string `xml:"File"`
}

// SessionsConfig contains live viewer housekeeping settings
type SessionsConfig struct {
	MaxViewers             int `xml:"MaxViewers"`
	TimeoutMinutes         int `xml:"TimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	LogFormat            string `xml:"LogFormat"` // "console" or "json"
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	WebSocketBufferKB    int    `xml:"WebSocketBufferKB"`
	ClientQueueSize      int    `xml:"ClientQueueSize"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			Title:        "Safety Service Dashboard",
		},
		Simulator: SimulatorConfig{
			Enabled:         true,
			IntervalMs:      3000,
			TickProbability: 0.10,
			FlipProbability: 0.05,
			Seed:            0,
		},
		Reset: ResetConfig{
			DelayMs: 2000,
		},
		Catalog: CatalogConfig{
			Profile: "platform-v2.3",
		},
		Sessions: SessionsConfig{
			MaxViewers:             256,
			TimeoutMinutes:         30,
			CleanupIntervalMinutes: 5,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "console",
			EnableRequestLogging: true,
			WebSocketBufferKB:    16,
			ClientQueueSize:      32,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Safety Service Dashboard Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the simulator and server cannot run with
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if p := c.Simulator.TickProbability; p < 0 || p > 1 {
		return fmt.Errorf("simulator tick probability out of range: %v", p)
	}
	if p := c.Simulator.FlipProbability; p < 0 || p > 1 {
		return fmt.Errorf("simulator flip probability out of range: %v", p)
	}
	if c.Simulator.Enabled && c.Simulator.IntervalMs <= 0 {
		return fmt.Errorf("simulator interval must be positive: %d", c.Simulator.IntervalMs)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}

	if seed := os.Getenv("SIM_SEED"); seed != "" {
		if s, err := strconv.ParseUint(seed, 10, 64); err == nil {
			c.Simulator.Seed = s
		}
	}

	if profile := os.Getenv("CATALOG_PROFILE"); profile != "" {
		c.Catalog.Profile = profile
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Catalog.File != "" && !filepath.IsAbs(c.Catalog.File) {
		c.Catalog.File = filepath.Join(configDir, c.Catalog.File)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// SimulatorInterval returns the tick interval as a duration
func (c *AppConfig) SimulatorInterval() time.Duration {
	return time.Duration(c.Simulator.IntervalMs) * time.Millisecond
}

// ResetDelay returns the reset completion delay as a duration
func (c *AppConfig) ResetDelay() time.Duration {
	return time.Duration(c.Reset.DelayMs) * time.Millisecond
}

// SessionTimeout returns how long an idle viewer is kept
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Sessions.TimeoutMinutes) * time.Minute
}

// CleanupInterval returns how often idle viewers are swept
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Sessions.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Sessions.CleanupIntervalMinutes) * time.Minute
}
