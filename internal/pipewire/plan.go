package pipewire

import (
	"cmp"
	"slices"
	"strings"
)

// PlannedLink connects one source output port to one target input port.
type PlannedLink struct {
	SourcePort string `json:"source_port" yaml:"source_port"`
	TargetPort string `json:"target_port" yaml:"target_port"`
}

// PlanLinks picks a source output port for every target input port.
// For each target: exact channel match, then MONO for an FL/FR target, then
// the first source port. Layouts beyond stereo get no extra tie-breaking.
// The result is deduplicated and sorted so repeated passes agree.
func PlanLinks(sourcePorts, targetPorts []Port) []PlannedLink {
	links := make([]PlannedLink, 0, len(targetPorts))
	for _, target := range targetPorts {
		source, ok := pickSourcePort(sourcePorts, target)
		if !ok {
			continue
		}
		links = append(links, PlannedLink{SourcePort: source.Name, TargetPort: target.Name})
	}

	slices.SortFunc(links, func(a, b PlannedLink) int {
		return cmp.Or(
			cmp.Compare(a.SourcePort, b.SourcePort),
			cmp.Compare(a.TargetPort, b.TargetPort),
		)
	})
	return slices.Compact(links)
}

func pickSourcePort(sources []Port, target Port) (Port, bool) {
	if len(sources) == 0 {
		return Port{}, false
	}

	if channel := target.Channel; channel != "" {
		if port, ok := findChannel(sources, channel); ok {
			return port, true
		}
		if strings.EqualFold(channel, "FL") || strings.EqualFold(channel, "FR") {
			if port, ok := findChannel(sources, "MONO"); ok {
				return port, true
			}
		}
	}

	return sources[0], true
}

func findChannel(ports []Port, channel string) (Port, bool) {
	for _, port := range ports {
		if port.Channel != "" && strings.EqualFold(port.Channel, channel) {
			return port, true
		}
	}
	return Port{}, false
}
