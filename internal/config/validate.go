package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxAudioChannels = 64

var ErrInvalid = errors.New("config invalid")

func ValidateAppConfig(cfg AppConfig) error {
	ids := make(map[uuid.UUID]struct{})
	names := make(map[string]struct{})
	claim := func(id uuid.UUID, node string) error {
		if id == uuid.Nil {
			return fmt.Errorf("id is required")
		}
		if _, ok := ids[id]; ok {
			return fmt.Errorf("duplicate id %s", id)
		}
		ids[id] = struct{}{}
		name := strings.TrimSpace(node)
		if name == "" {
			return fmt.Errorf("node_name is required")
		}
		if _, ok := names[name]; ok {
			return fmt.Errorf("duplicate node_name %q", name)
		}
		names[name] = struct{}{}
		return nil
	}

	for i, s := range cfg.Sends {
		if err := claim(s.ID, s.NodeName); err != nil {
			return fmt.Errorf("sends[%d] invalid: %w", i, err)
		}
		if err := ValidateSend(s); err != nil {
			return fmt.Errorf("sends[%d] invalid: %w", i, err)
		}
	}
	for i, r := range cfg.Recvs {
		if err := claim(r.ID, r.NodeName); err != nil {
			return fmt.Errorf("recvs[%d] invalid: %w", i, err)
		}
		if err := ValidateRecv(r); err != nil {
			return fmt.Errorf("recvs[%d] invalid: %w", i, err)
		}
	}
	return nil
}

func ValidateSend(s Send) error {
	if strings.TrimSpace(s.DestinationIP) == "" {
		return fmt.Errorf("destination_ip is required")
	}
	if s.DestinationPort == 0 {
		return fmt.Errorf("destination_port is required")
	}
	if s.AudioRate == 0 {
		return fmt.Errorf("audio_rate is required")
	}
	if s.AudioChannels == 0 || s.AudioChannels > maxAudioChannels {
		return fmt.Errorf("audio_channels must be 1..%d", maxAudioChannels)
	}
	if strings.TrimSpace(s.AudioFormat) == "" {
		return fmt.Errorf("audio_format is required")
	}
	if strings.Contains(s.TargetObject, ".monitor") {
		return fmt.Errorf("target_object %q is a monitor source", s.TargetObject)
	}
	return nil
}

func ValidateRecv(r Recv) error {
	if strings.TrimSpace(r.SourceIP) == "" {
		return fmt.Errorf("source_ip is required")
	}
	if r.SourcePort == 0 {
		return fmt.Errorf("source_port is required")
	}
	return nil
}
