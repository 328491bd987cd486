package pipewire

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/vbanctl/internal/config"
	"github.com/danmuck/vbanctl/internal/observability"
	"github.com/danmuck/vbanctl/internal/tools"
)

type LinkOutcome int

const (
	LinkCreated LinkOutcome = iota + 1
	LinkExists
)

func (o LinkOutcome) String() string {
	switch o {
	case LinkCreated:
		return "created"
	case LinkExists:
		return "exists"
	default:
		return "unknown"
	}
}

// pw-link diagnostics that mean the requested link is already in place.
var alreadyLinkedPhrases = []string{
	"file exists",
	"already linked",
	"already exists",
}

// Summary aggregates one autolink pass. Issues never abort the pass.
type Summary struct {
	LinksCreated int      `json:"links_created" yaml:"links_created"`
	Issues       []string `json:"issues" yaml:"issues"`
}

func (s *Summary) addIssue(issue string) {
	log.Warn().Str("issue", issue).Msg("pipewire.autolink issue")
	observability.RecordAutolinkIssue()
	s.Issues = append(s.Issues, issue)
}

// Linker creates port links and drives autolink passes.
type Linker struct {
	runner    tools.CommandRunner
	inspector *Inspector
}

func NewLinker(runner tools.CommandRunner) *Linker {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Linker{runner: runner, inspector: NewInspector(runner)}
}

// EnsureLink connects sourceNode:sourcePort to targetNode:targetPort.
// An existing link is reported as LinkExists, never as an error.
func (l *Linker) EnsureLink(sourceNode, sourcePort, targetNode, targetPort string) (LinkOutcome, error) {
	source := sourceNode + ":" + sourcePort
	target := targetNode + ":" + targetPort
	line := tools.CommandLine("pw-link", source, target)

	start := time.Now()
	_, stderr, exitCode, err := l.runner.Run("pw-link", source, target)
	observability.RecordCommand("pw-link", err == nil && exitCode == 0, time.Since(start))
	if err == nil && exitCode == 0 {
		observability.RecordLink(LinkCreated.String())
		log.Debug().Str("source", source).Str("target", target).Msg("pipewire.Linker.EnsureLink created")
		return LinkCreated, nil
	}

	diagnostic := strings.ToLower(string(stderr))
	for _, phrase := range alreadyLinkedPhrases {
		if strings.Contains(diagnostic, phrase) {
			observability.RecordLink(LinkExists.String())
			return LinkExists, nil
		}
	}

	observability.RecordLink("error")
	return 0, commandError(ErrLink, line, exitCode, stderr, err)
}

// AutolinkSends wires every enabled send with a target object to that source.
// Only a failed topology load is returned as an error; everything else lands
// in Summary.Issues.
func (l *Linker) AutolinkSends(sends []config.Send) (Summary, error) {
	summary := Summary{Issues: []string{}}

	pending := make([]config.Send, 0, len(sends))
	for _, send := range sends {
		if send.Enabled && strings.TrimSpace(send.TargetObject) != "" {
			pending = append(pending, send)
		}
	}
	if len(pending) == 0 {
		return summary, nil
	}

	topology, err := l.inspector.LoadTopology()
	if err != nil {
		return Summary{}, err
	}

	for _, send := range pending {
		l.linkSend(topology, send, &summary)
	}

	log.Info().
		Int("sends", len(pending)).
		Int("links_created", summary.LinksCreated).
		Int("issues", len(summary.Issues)).
		Msg("pipewire.Linker.AutolinkSends")
	return summary, nil
}

func (l *Linker) linkSend(topology Topology, send config.Send, summary *Summary) {
	sourceNode := strings.TrimSpace(send.TargetObject)
	sendNode := strings.TrimSpace(send.NodeName)

	_, sourcePorts, ok := topology.Ports(sourceNode, false)
	if !ok {
		summary.addIssue(fmt.Sprintf("%v: source %q is not in the PipeWire graph", ErrNotFound, sourceNode))
		return
	}
	_, sendPorts, ok := topology.Ports(sendNode, true)
	if !ok {
		summary.addIssue(fmt.Sprintf("%v: send node %q is not in the PipeWire graph (apply with restart to load it)", ErrNotFound, sendNode))
		return
	}
	if len(sourcePorts) == 0 {
		summary.addIssue(fmt.Sprintf("%v: source %q has no output audio ports", ErrNotFound, sourceNode))
		return
	}
	if len(sendPorts) == 0 {
		summary.addIssue(fmt.Sprintf("%v: send %q has no input audio ports", ErrNotFound, sendNode))
		return
	}

	planned := PlanLinks(sourcePorts, sendPorts)
	if len(planned) == 0 {
		summary.addIssue(fmt.Sprintf("no compatible ports found for %q", sendNode))
		return
	}

	for _, link := range planned {
		outcome, err := l.EnsureLink(sourceNode, link.SourcePort, sendNode, link.TargetPort)
		if err != nil {
			summary.addIssue(fmt.Sprintf("%s:%s -> %s:%s: %v", sourceNode, link.SourcePort, sendNode, link.TargetPort, err))
			continue
		}
		if outcome == LinkCreated {
			summary.LinksCreated++
		}
	}
}
