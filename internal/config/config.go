package config

import (
	"time"

	"github.com/vovakirdan/typeroom-server/internal/core"
	"github.com/vovakirdan/typeroom-server/internal/gate"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// Transport limits.
	MaxFrameBytes int64   `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`
	FrameRate     float64 `mapstructure:"frame_rate" yaml:"frame_rate"`
	FrameBurst    int     `mapstructure:"frame_burst" yaml:"frame_burst"`

	// Abuse gate.
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window" yaml:"rate_limit_window"`
	RateLimitMax    int           `mapstructure:"rate_limit_max" yaml:"rate_limit_max"`
	RateLimitBlock  time.Duration `mapstructure:"rate_limit_block" yaml:"rate_limit_block"`

	// Sessions and rooms.
	GracePeriod           time.Duration `mapstructure:"grace_period" yaml:"grace_period"`
	IdentityTTL           time.Duration `mapstructure:"identity_ttl" yaml:"identity_ttl"`
	IdentitySweepInterval time.Duration `mapstructure:"identity_sweep_interval" yaml:"identity_sweep_interval"`
	RoomCapacity          int           `mapstructure:"room_capacity" yaml:"room_capacity"`
	LineHistory           int           `mapstructure:"line_history" yaml:"line_history"`
	MaxNicknameLength     int           `mapstructure:"max_nickname_length" yaml:"max_nickname_length"`
	MaxRoomNameLength     int           `mapstructure:"max_room_name_length" yaml:"max_room_name_length"`
	MaxMessageLength      int           `mapstructure:"max_message_length" yaml:"max_message_length"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	hub := core.DefaultOptions()
	return Config{
		Addr:              ":3000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		AllowedOrigins:    []string{"localhost:5173"},

		MaxFrameBytes: 1_000_000,
		FrameRate:     50,
		FrameBurst:    100,

		RateLimitWindow: hub.Gate.Window,
		RateLimitMax:    hub.Gate.Max,
		RateLimitBlock:  hub.Gate.Block,

		GracePeriod:           hub.GracePeriod,
		IdentityTTL:           hub.IdentityTTL,
		IdentitySweepInterval: hub.SweepInterval,
		RoomCapacity:          hub.Limits.RoomCapacity,
		LineHistory:           hub.Limits.LineHistory,
		MaxNicknameLength:     hub.Limits.MaxNicknameLength,
		MaxRoomNameLength:     hub.Limits.MaxRoomNameLength,
		MaxMessageLength:      hub.Limits.MaxMessageLength,
	}
}

// HubOptions translates the configuration into hub options.
func (c Config) HubOptions() core.Options {
	opts := core.DefaultOptions()
	opts.Gate = gate.Config{
		Window: c.RateLimitWindow,
		Max:    c.RateLimitMax,
		Block:  c.RateLimitBlock,
	}
	opts.GracePeriod = c.GracePeriod
	opts.IdentityTTL = c.IdentityTTL
	opts.SweepInterval = c.IdentitySweepInterval
	opts.Limits = core.Limits{
		RoomCapacity:      c.RoomCapacity,
		LineHistory:       c.LineHistory,
		MaxNicknameLength: c.MaxNicknameLength,
		MaxRoomNameLength: c.MaxRoomNameLength,
		MaxMessageLength:  c.MaxMessageLength,
	}
	return opts
}

// UpdateFrom overwrites non-zero listener values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
