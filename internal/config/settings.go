package config

import (
	"errors"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"focusctl/internal/types"
)

const defaultServerAddress = "127.0.0.1:8600"

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Push    PushConfig    `toml:"push"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Address string `toml:"address"`
}

type PushConfig struct {
	// PublicKey is the backend's web-push application key. When empty, the
	// out-of-band push subscription is an optional enhancement that silently
	// stays off; the push channel still delivers reminders.
	PublicKey  string `toml:"public_key"`
	DeviceType string `toml:"device_type"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address: defaultServerAddress,
		},
		Push: PushConfig{
			DeviceType: string(types.DeviceTypeDesktop),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return loadFromPath(path)
}

func loadFromPath(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) ServerAddress() string {
	addr := strings.TrimSpace(c.Server.Address)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultServerAddress
	}
	return addr
}

func (c Config) ServerURL() string {
	return "http://" + c.ServerAddress()
}

func (c Config) PushPublicKey() string {
	return strings.TrimSpace(c.Push.PublicKey)
}

func (c Config) DeviceType() types.DeviceType {
	switch strings.ToLower(strings.TrimSpace(c.Push.DeviceType)) {
	case "mobile":
		return types.DeviceTypeMobile
	case "tablet":
		return types.DeviceTypeTablet
	default:
		return types.DeviceTypeDesktop
	}
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}
