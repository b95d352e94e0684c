// Package config loads server configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Display DisplayConfig `mapstructure:"display"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Script  ScriptConfig  `mapstructure:"script"`
	Assets  AssetsConfig  `mapstructure:"assets"`
	Storage StorageConfig `mapstructure:"storage"`
	Tuning  TuningConfig  `mapstructure:"tuning"`
}

// ServerConfig holds HTTP/WebSocket listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DisplayConfig describes the virtual screen.
type DisplayConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	Scale  int `mapstructure:"scale"`
}

// EngineConfig holds tick loop settings.
type EngineConfig struct {
	TickRate     int    `mapstructure:"tick_rate"`
	StreamEvery  int    `mapstructure:"stream_every"`
	InitialState string `mapstructure:"initial_state"`
	DebugOverlay bool   `mapstructure:"debug_overlay"`
}

// ScriptConfig holds Lua settings.
type ScriptConfig struct {
	Path string `mapstructure:"path"`
}

// AssetsConfig holds asset loading settings.
type AssetsConfig struct {
	Root string `mapstructure:"root"`
}

// StorageConfig holds sqlite settings.
type StorageConfig struct {
	Path   string `mapstructure:"path"`
	Record bool   `mapstructure:"record"`
}

// TuningConfig holds performance knobs for stress scenarios.
type TuningConfig struct {
	FrameChannelBuffer int `mapstructure:"frame_channel_buffer"`
	InputChannelBuffer int `mapstructure:"input_channel_buffer"`
	ClientSendBuffer   int `mapstructure:"client_send_buffer"`
	MaxClients         int `mapstructure:"max_clients"`
	InputRateLimit     int `mapstructure:"input_rate_limit"` // messages per second per client
	DBMaxConns         int `mapstructure:"db_max_conns"`
	DBMaxIdleConns     int `mapstructure:"db_max_idle_conns"`
}

// Load reads configuration from file and env. Env var overrides use prefix FAROL_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.addr", ":8420")
	v.SetDefault("display.width", 320)
	v.SetDefault("display.height", 200)
	v.SetDefault("display.scale", 2)
	v.SetDefault("engine.tick_rate", 60)
	v.SetDefault("engine.stream_every", 4)
	v.SetDefault("engine.initial_state", "title")
	v.SetDefault("engine.debug_overlay", false)
	v.SetDefault("script.path", "scripts/main.lua")
	v.SetDefault("assets.root", "assets")
	v.SetDefault("storage.path", filepath.Join("data", "farol.db"))
	v.SetDefault("storage.record", true)
	v.SetDefault("tuning.frame_channel_buffer", 64)
	v.SetDefault("tuning.input_channel_buffer", 256)
	v.SetDefault("tuning.client_send_buffer", 64)
	v.SetDefault("tuning.max_clients", 100)
	v.SetDefault("tuning.input_rate_limit", 120)
	v.SetDefault("tuning.db_max_conns", runtime.NumCPU()*2)
	v.SetDefault("tuning.db_max_idle_conns", runtime.NumCPU())

	v.SetConfigType("toml")

	cfgPath := os.Getenv("FAROL_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "farol"))
		v.SetConfigName("farol")
	}

	v.SetEnvPrefix("FAROL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display dimensions must be positive, got %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Display.Scale < 1 || c.Display.Scale > 10 {
		return fmt.Errorf("display scale must be in 1..10, got %d", c.Display.Scale)
	}
	if c.Engine.TickRate < 1 || c.Engine.TickRate > 240 {
		return fmt.Errorf("tick rate must be in 1..240, got %d", c.Engine.TickRate)
	}
	if c.Engine.StreamEvery < 1 {
		return fmt.Errorf("stream_every must be at least 1, got %d", c.Engine.StreamEvery)
	}
	if c.Engine.InitialState == "" {
		return fmt.Errorf("initial state must not be empty")
	}
	if c.Tuning.MaxClients < 1 {
		return fmt.Errorf("max_clients must be at least 1, got %d", c.Tuning.MaxClients)
	}
	return nil
}
