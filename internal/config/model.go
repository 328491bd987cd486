package config

import (
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultSendPort        = 6980
	DefaultSendIP          = "127.0.0.1"
	DefaultSessName        = "PipeWire VBAN stream"
	DefaultSessMedia       = "audio"
	DefaultAudioFormat     = "S16LE"
	DefaultAudioRate       = 48_000
	DefaultAudioChannels   = 2
	DefaultRecvLatencyMsec = 100
	DefaultSendDescription = "VBAN Send"
	DefaultRecvDescription = "VBAN Recv"
)

// AppConfig is the declared endpoint model persisted in config.toml.
type AppConfig struct {
	Sends    []Send            `toml:"sends" json:"sends" yaml:"sends"`
	Recvs    []Recv            `toml:"recvs" json:"recvs" yaml:"recvs"`
	HostInfo HostInfoEmulation `toml:"host_info_emulation" json:"host_info_emulation" yaml:"host_info_emulation"`
}

// HostInfoEmulation carries the global identity advertised by every generated stream.
type HostInfoEmulation struct {
	Enabled    bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	AppName    string `toml:"app_name" json:"app_name" yaml:"app_name"`
	HostName   string `toml:"host_name" json:"host_name" yaml:"host_name"`
	UserName   string `toml:"user_name" json:"user_name" yaml:"user_name"`
	ClientName string `toml:"client_name" json:"client_name" yaml:"client_name"`
}

// Send declares a VBAN sender. TargetObject names the capture source node that
// autolink wires into the sender; empty means manual patching.
type Send struct {
	ID              uuid.UUID `toml:"id" json:"id" yaml:"id"`
	Enabled         bool      `toml:"enabled" json:"enabled" yaml:"enabled"`
	AlwaysProcess   bool      `toml:"always_process" json:"always_process" yaml:"always_process"`
	DestinationIP   string    `toml:"destination_ip" json:"destination_ip" yaml:"destination_ip"`
	DestinationPort uint16    `toml:"destination_port" json:"destination_port" yaml:"destination_port"`
	SessName        string    `toml:"sess_name" json:"sess_name" yaml:"sess_name"`
	SessMedia       string    `toml:"sess_media" json:"sess_media" yaml:"sess_media"`
	AudioFormat     string    `toml:"audio_format" json:"audio_format" yaml:"audio_format"`
	AudioRate       uint32    `toml:"audio_rate" json:"audio_rate" yaml:"audio_rate"`
	AudioChannels   uint8     `toml:"audio_channels" json:"audio_channels" yaml:"audio_channels"`
	NodeName        string    `toml:"node_name" json:"node_name" yaml:"node_name"`
	NodeDescription string    `toml:"node_description" json:"node_description" yaml:"node_description"`
	TargetObject    string    `toml:"target_object" json:"target_object" yaml:"target_object"`
}

// Recv declares a VBAN receiver.
type Recv struct {
	ID              uuid.UUID `toml:"id" json:"id" yaml:"id"`
	Enabled         bool      `toml:"enabled" json:"enabled" yaml:"enabled"`
	SourceIP        string    `toml:"source_ip" json:"source_ip" yaml:"source_ip"`
	SourcePort      uint16    `toml:"source_port" json:"source_port" yaml:"source_port"`
	LatencyMsec     uint32    `toml:"latency_msec" json:"latency_msec" yaml:"latency_msec"`
	AlwaysProcess   bool      `toml:"always_process" json:"always_process" yaml:"always_process"`
	StreamName      string    `toml:"stream_name" json:"stream_name" yaml:"stream_name"`
	NodeName        string    `toml:"node_name" json:"node_name" yaml:"node_name"`
	NodeDescription string    `toml:"node_description" json:"node_description" yaml:"node_description"`
}

func DefaultHostInfo() HostInfoEmulation {
	return HostInfoEmulation{
		Enabled:    false,
		AppName:    "VBAN",
		HostName:   "vban-host",
		UserName:   "vban",
		ClientName: "VBAN Remote",
	}
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Sends:    []Send{},
		Recvs:    []Recv{},
		HostInfo: DefaultHostInfo(),
	}
}

// NewSend returns an enabled sender with a fresh identity.
func NewSend() Send {
	id := uuid.New()
	return Send{
		ID:              id,
		Enabled:         true,
		DestinationIP:   DefaultSendIP,
		DestinationPort: DefaultSendPort,
		SessName:        DefaultSessName,
		SessMedia:       DefaultSessMedia,
		AudioFormat:     DefaultAudioFormat,
		AudioRate:       DefaultAudioRate,
		AudioChannels:   DefaultAudioChannels,
		NodeName:        "vban-send-" + SimpleID(id),
		NodeDescription: DefaultSendDescription,
	}
}

// NewRecv returns an enabled receiver with a fresh identity.
func NewRecv() Recv {
	id := uuid.New()
	return Recv{
		ID:              id,
		Enabled:         true,
		SourceIP:        DefaultSendIP,
		SourcePort:      DefaultSendPort,
		LatencyMsec:     DefaultRecvLatencyMsec,
		NodeName:        "vban-recv-" + SimpleID(id),
		NodeDescription: DefaultRecvDescription,
	}
}

// SimpleID renders id as 32 lowercase hex digits without hyphens.
func SimpleID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

// entryKeys records keys an entry spelled out, where absence must not read
// as the zero value.
type entryKeys struct {
	Enabled *bool `toml:"enabled" json:"enabled"`
}

type modelKeys struct {
	Sends []entryKeys `toml:"sends" json:"sends"`
	Recvs []entryKeys `toml:"recvs" json:"recvs"`
}

// DecodeModel decodes a model document with unmarshal (toml.Unmarshal or
// json.Unmarshal). Entries without an enabled key are enabled. Defaults are
// filled; validation is left to the caller.
func DecodeModel(data []byte, unmarshal func([]byte, any) error) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if err := unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	var keys modelKeys
	if err := unmarshal(data, &keys); err != nil {
		return AppConfig{}, err
	}
	for i := range cfg.Sends {
		if i < len(keys.Sends) && keys.Sends[i].Enabled == nil {
			cfg.Sends[i].Enabled = true
		}
	}
	for i := range cfg.Recvs {
		if i < len(keys.Recvs) && keys.Recvs[i].Enabled == nil {
			cfg.Recvs[i].Enabled = true
		}
	}
	FillDefaults(&cfg)
	return cfg, nil
}

// FillDefaults completes entries decoded from a partial file or request body.
func FillDefaults(cfg *AppConfig) {
	for i := range cfg.Sends {
		s := &cfg.Sends[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		if strings.TrimSpace(s.DestinationIP) == "" {
			s.DestinationIP = DefaultSendIP
		}
		if s.DestinationPort == 0 {
			s.DestinationPort = DefaultSendPort
		}
		if s.SessName == "" {
			s.SessName = DefaultSessName
		}
		if s.SessMedia == "" {
			s.SessMedia = DefaultSessMedia
		}
		if s.AudioFormat == "" {
			s.AudioFormat = DefaultAudioFormat
		}
		if s.AudioRate == 0 {
			s.AudioRate = DefaultAudioRate
		}
		if s.AudioChannels == 0 {
			s.AudioChannels = DefaultAudioChannels
		}
		if strings.TrimSpace(s.NodeName) == "" {
			s.NodeName = "vban-send-" + SimpleID(s.ID)
		}
		if s.NodeDescription == "" {
			s.NodeDescription = DefaultSendDescription
		}
	}
	for i := range cfg.Recvs {
		r := &cfg.Recvs[i]
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if strings.TrimSpace(r.SourceIP) == "" {
			r.SourceIP = DefaultSendIP
		}
		if r.SourcePort == 0 {
			r.SourcePort = DefaultSendPort
		}
		if r.LatencyMsec == 0 {
			r.LatencyMsec = DefaultRecvLatencyMsec
		}
		if strings.TrimSpace(r.NodeName) == "" {
			r.NodeName = "vban-recv-" + SimpleID(r.ID)
		}
		if r.NodeDescription == "" {
			r.NodeDescription = DefaultRecvDescription
		}
	}

	defaults := DefaultHostInfo()
	if cfg.HostInfo.AppName == "" {
		cfg.HostInfo.AppName = defaults.AppName
	}
	if cfg.HostInfo.HostName == "" {
		cfg.HostInfo.HostName = defaults.HostName
	}
	if cfg.HostInfo.UserName == "" {
		cfg.HostInfo.UserName = defaults.UserName
	}
	if cfg.HostInfo.ClientName == "" {
		cfg.HostInfo.ClientName = defaults.ClientName
	}
	if cfg.Sends == nil {
		cfg.Sends = []Send{}
	}
	if cfg.Recvs == nil {
		cfg.Recvs = []Recv{}
	}
}
