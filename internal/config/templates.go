package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Template returns the starter file for kind: "settings" or "model".
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "settings":
		return settingsTemplate, nil
	case "model":
		cfg := DefaultAppConfig()
		cfg.Sends = append(cfg.Sends, NewSend())
		cfg.Recvs = append(cfg.Recvs, NewRecv())
		raw, err := toml.Marshal(cfg)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const settingsTemplate = `# model_path = "~/.config/vbanctl/config.toml"
# dropin_dir = "~/.config/pipewire/pipewire.conf.d"
http_addr = "127.0.0.1:7080"
cors_origins = ["http://localhost:3000"]
metrics_file = ""
link_delay = "1s"
# auth_token = "change-me"

# [remote]
# host = "studio.local"
# user = "audio"
# key_path = "/home/audio/.ssh/id_ed25519"
# key_passphrase_env = "VBANCTL_SSH_PASSPHRASE"
# timeout = "5s"
`
