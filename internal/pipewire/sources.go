package pipewire

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
)

// AudioSource is one capture-capable endpoint offered as a send target.
type AudioSource struct {
	NodeName    string `json:"node_name" yaml:"node_name"`
	Description string `json:"description" yaml:"description"`
}

// sourceSchema maps one backend's entry shape onto a sourceRecord.
type sourceSchema struct {
	backend     string
	props       propChain
	filterClass bool
	mediaClass  propChain
	name        propChain
	description propChain
}

type sourceRecord struct {
	mediaClass  string
	name        string
	description string
}

var (
	graphSchema = sourceSchema{
		backend:     "pw-dump",
		props:       chain("$.info.props"),
		filterClass: true,
		mediaClass:  chain("$.info.props['media.class']"),
		name: chain(
			"$.info.props['node.name']",
			"$.info.props.source_name",
			"$.info.props.name",
			"$.name",
		),
		description: chain(
			"$.info.props['node.description']",
			"$.info.props['device.description']",
			"$.info.props.description",
			"$.description",
		),
	}
	legacySchema = sourceSchema{
		backend: "pactl",
		props:   chain("$.properties"),
		name: chain(
			"$.properties['node.name']",
			"$.properties.source_name",
			"$.properties.name",
			"$.name",
		),
		description: chain(
			"$.properties['node.description']",
			"$.properties['device.description']",
			"$.properties.description",
			"$.description",
		),
	}
)

// decode returns false for entries that carry no property object.
func (s sourceSchema) decode(entry any) (sourceRecord, bool) {
	if !s.props.Has(entry) {
		return sourceRecord{}, false
	}
	rec := sourceRecord{
		name:        s.name.String(entry),
		description: s.description.String(entry),
	}
	if s.filterClass {
		rec.mediaClass = s.mediaClass.String(entry)
	}
	return rec, true
}

// ListAudioSources merges the pw-dump and pactl views of capture sources.
// One failing backend is tolerated; both failing returns a *SourcesError.
func (i *Inspector) ListAudioSources() ([]AudioSource, error) {
	graph, graphErr := i.listSources(graphSchema, "pw-dump", "Node")
	legacy, legacyErr := i.listSources(legacySchema, "pactl", "-f", "json", "list", "sources")

	switch {
	case graphErr == nil && legacyErr == nil:
		return mergeAudioSources(graph, legacy), nil
	case graphErr == nil:
		log.Debug().Err(legacyErr).Msg("pipewire.ListAudioSources pactl unavailable")
		return graph, nil
	case legacyErr == nil:
		log.Debug().Err(graphErr).Msg("pipewire.ListAudioSources pw-dump unavailable")
		return legacy, nil
	default:
		return nil, &SourcesError{Graph: graphErr, Legacy: legacyErr}
	}
}

func (i *Inspector) listSources(schema sourceSchema, name string, args ...string) ([]AudioSource, error) {
	entries, err := i.query(name, args...)
	if err != nil {
		return nil, err
	}
	return extractAudioSources(entries, schema), nil
}

func extractAudioSources(entries []any, schema sourceSchema) []AudioSource {
	seen := make(map[string]struct{})
	sources := make([]AudioSource, 0, len(entries))

	for _, entry := range entries {
		rec, ok := schema.decode(entry)
		if !ok {
			continue
		}
		if schema.filterClass && !isAudioSourceClass(rec.mediaClass) {
			continue
		}
		if rec.name == "" || IsMonitorSource(rec.name) {
			continue
		}
		if _, dup := seen[rec.name]; dup {
			continue
		}
		seen[rec.name] = struct{}{}

		description := rec.description
		if description == "" {
			description = rec.name
		}
		sources = append(sources, AudioSource{NodeName: rec.name, Description: description})
	}

	sortAudioSources(sources)
	log.Debug().Str("backend", schema.backend).Int("sources", len(sources)).Msg("pipewire.extractAudioSources")
	return sources
}

// mergeAudioSources unions two directories; first wins on a shared node name.
func mergeAudioSources(first, second []AudioSource) []AudioSource {
	seen := make(map[string]struct{}, len(first)+len(second))
	merged := make([]AudioSource, 0, len(first)+len(second))
	for _, list := range [][]AudioSource{first, second} {
		for _, source := range list {
			if _, dup := seen[source.NodeName]; dup {
				continue
			}
			seen[source.NodeName] = struct{}{}
			merged = append(merged, source)
		}
	}
	sortAudioSources(merged)
	return merged
}

func sortAudioSources(sources []AudioSource) {
	fold := cases.Fold()
	keys := make(map[string]string, len(sources))
	for _, s := range sources {
		keys[s.NodeName] = fold.String(s.Description)
	}
	sort.SliceStable(sources, func(a, b int) bool {
		ka, kb := keys[sources[a].NodeName], keys[sources[b].NodeName]
		if ka != kb {
			return ka < kb
		}
		return sources[a].NodeName < sources[b].NodeName
	})
}

// isAudioSourceClass accepts Audio/Source and its sub-kinds such as
// Audio/Source/Virtual.
func isAudioSourceClass(mediaClass string) bool {
	const class = "audio/source"
	lower := strings.ToLower(mediaClass)
	return lower == class || strings.HasPrefix(lower, class+"/")
}

// IsMonitorSource reports whether node mirrors a sink's output.
func IsMonitorSource(node string) bool {
	return strings.Contains(node, ".monitor")
}
