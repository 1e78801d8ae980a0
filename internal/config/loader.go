package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "TYPEROOM"
	envConfigDefaultPath = "TYPEROOM_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, configPath, err
	}

	return cfg, configPath, nil
}

// Validate rejects configurations the hub cannot run with.
func (c Config) Validate() error {
	switch {
	case c.RoomCapacity <= 0:
		return fmt.Errorf("room_capacity must be positive, got %d", c.RoomCapacity)
	case c.RateLimitMax <= 0:
		return fmt.Errorf("rate_limit_max must be positive, got %d", c.RateLimitMax)
	case c.LineHistory < 0:
		return fmt.Errorf("line_history must not be negative, got %d", c.LineHistory)
	case c.GracePeriod < 0:
		return fmt.Errorf("grace_period must not be negative, got %s", c.GracePeriod)
	case c.MaxFrameBytes <= 0:
		return fmt.Errorf("max_frame_bytes must be positive, got %d", c.MaxFrameBytes)
	}
	return nil
}

// setDefaults registers every key so env vars override keys absent from the file.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("allowed_origins", cfg.AllowedOrigins)
	v.SetDefault("max_frame_bytes", cfg.MaxFrameBytes)
	v.SetDefault("frame_rate", cfg.FrameRate)
	v.SetDefault("frame_burst", cfg.FrameBurst)
	v.SetDefault("rate_limit_window", cfg.RateLimitWindow)
	v.SetDefault("rate_limit_max", cfg.RateLimitMax)
	v.SetDefault("rate_limit_block", cfg.RateLimitBlock)
	v.SetDefault("grace_period", cfg.GracePeriod)
	v.SetDefault("identity_ttl", cfg.IdentityTTL)
	v.SetDefault("identity_sweep_interval", cfg.IdentitySweepInterval)
	v.SetDefault("room_capacity", cfg.RoomCapacity)
	v.SetDefault("line_history", cfg.LineHistory)
	v.SetDefault("max_nickname_length", cfg.MaxNicknameLength)
	v.SetDefault("max_room_name_length", cfg.MaxRoomNameLength)
	v.SetDefault("max_message_length", cfg.MaxMessageLength)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
