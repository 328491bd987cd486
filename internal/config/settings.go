package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultHTTPAddr  = "127.0.0.1:7080"
	DefaultLinkDelay = time.Second
)

// Settings configures the tool itself, as opposed to the declared endpoints.
// A nil Remote runs every command on the local host.
type Settings struct {
	ModelPath   string
	DropinDir   string
	HTTPAddr    string
	CorsOrigins []string
	MetricsFile string
	LinkDelay   time.Duration
	AuthToken   string
	Remote      *RemoteSettings
}

// RemoteSettings selects the SSH runner. PassphraseEnv names the environment
// variable holding the key passphrase so the secret stays out of the file.
type RemoteSettings struct {
	Host           string
	Port           string
	User           string
	KeyPath        string
	PassphraseEnv  string
	KnownHostsPath string
	Insecure       bool
	Timeout        time.Duration
}

type settingsFile struct {
	ModelPath   string      `toml:"model_path"`
	DropinDir   string      `toml:"dropin_dir"`
	HTTPAddr    string      `toml:"http_addr"`
	CorsOrigins []string    `toml:"cors_origins"`
	MetricsFile string      `toml:"metrics_file"`
	LinkDelay   string      `toml:"link_delay"`
	AuthToken   string      `toml:"auth_token"`
	Remote      *remoteFile `toml:"remote"`
}

type remoteFile struct {
	Host           string `toml:"host"`
	Port           string `toml:"port"`
	User           string `toml:"user"`
	KeyPath        string `toml:"key_path"`
	PassphraseEnv  string `toml:"key_passphrase_env"`
	KnownHostsPath string `toml:"known_hosts_path"`
	Insecure       bool   `toml:"insecure_skip_host_key_checking"`
	Timeout        string `toml:"timeout"`
}

func DefaultSettings() (Settings, error) {
	dir, err := Dir()
	if err != nil {
		return Settings{}, err
	}
	dropin, err := DefaultDropinDir()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		ModelPath:   filepath.Join(dir, ModelFileName),
		DropinDir:   dropin,
		HTTPAddr:    DefaultHTTPAddr,
		CorsOrigins: []string{"http://localhost:3000"},
		LinkDelay:   DefaultLinkDelay,
	}, nil
}

// LoadSettings overlays keys present in path onto defaults. A missing file
// yields the defaults unchanged.
func LoadSettings(path string, defaults Settings) (Settings, error) {
	cfg := defaults

	var raw settingsFile
	meta, err := toml.DecodeFile(path, &raw)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	if meta.IsDefined("model_path") {
		cfg.ModelPath = strings.TrimSpace(raw.ModelPath)
	}
	if meta.IsDefined("dropin_dir") {
		cfg.DropinDir = strings.TrimSpace(raw.DropinDir)
	}
	if meta.IsDefined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("metrics_file") {
		cfg.MetricsFile = strings.TrimSpace(raw.MetricsFile)
	}
	if meta.IsDefined("link_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.LinkDelay))
		if err != nil {
			return Settings{}, fmt.Errorf("parse link_delay: %w", err)
		}
		cfg.LinkDelay = d
	}
	if meta.IsDefined("auth_token") {
		cfg.AuthToken = strings.TrimSpace(raw.AuthToken)
	}
	if meta.IsDefined("remote") && raw.Remote != nil {
		remote := RemoteSettings{
			Host:           strings.TrimSpace(raw.Remote.Host),
			Port:           strings.TrimSpace(raw.Remote.Port),
			User:           strings.TrimSpace(raw.Remote.User),
			KeyPath:        strings.TrimSpace(raw.Remote.KeyPath),
			PassphraseEnv:  strings.TrimSpace(raw.Remote.PassphraseEnv),
			KnownHostsPath: strings.TrimSpace(raw.Remote.KnownHostsPath),
			Insecure:       raw.Remote.Insecure,
		}
		if meta.IsDefined("remote", "timeout") {
			d, err := time.ParseDuration(strings.TrimSpace(raw.Remote.Timeout))
			if err != nil {
				return Settings{}, fmt.Errorf("parse remote.timeout: %w", err)
			}
			remote.Timeout = d
		}
		cfg.Remote = &remote
	}

	if err := ValidateSettings(cfg); err != nil {
		return Settings{}, fmt.Errorf("settings invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func ValidateSettings(cfg Settings) error {
	if strings.TrimSpace(cfg.ModelPath) == "" {
		return fmt.Errorf("model_path is required")
	}
	if strings.TrimSpace(cfg.DropinDir) == "" {
		return fmt.Errorf("dropin_dir is required")
	}
	if cfg.LinkDelay < 0 {
		return fmt.Errorf("link_delay must not be negative")
	}
	if cfg.Remote != nil {
		if cfg.Remote.Host == "" {
			return fmt.Errorf("remote.host is required")
		}
		if cfg.Remote.User == "" {
			return fmt.Errorf("remote.user is required")
		}
		if cfg.Remote.KeyPath == "" {
			return fmt.Errorf("remote.key_path is required")
		}
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
