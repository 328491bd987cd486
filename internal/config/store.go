package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	AppDirName       = "vbanctl"
	ModelFileName    = "config.toml"
	SettingsFileName = "settings.toml"
)

// Dir returns the per-user vbanctl configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot detect config dir: %w", err)
	}
	return filepath.Join(base, AppDirName), nil
}

// DefaultDropinDir returns the PipeWire per-user drop-in fragment directory.
func DefaultDropinDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot detect config dir: %w", err)
	}
	return filepath.Join(base, "pipewire", "pipewire.conf.d"), nil
}

// LoadModel reads the declared endpoint model. A missing file is created with
// defaults so the first run leaves an editable config behind.
func LoadModel(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultAppConfig()
		if err := SaveModel(path, cfg); err != nil {
			return AppConfig{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return AppConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := DecodeModel(data, toml.Unmarshal)
	if err != nil {
		return AppConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := ValidateAppConfig(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("%w (%s): %w", ErrInvalid, path, err)
	}
	return cfg, nil
}

// SaveModel writes cfg as TOML, creating the parent directory.
func SaveModel(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config save failed (%s): %w", path, err)
	}
	raw, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config encode failed (%s): %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("config save failed (%s): %w", path, err)
	}
	return nil
}
