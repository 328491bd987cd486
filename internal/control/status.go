package control

import (
	"sort"

	"github.com/danmuck/vbanctl/internal/config"
	"github.com/danmuck/vbanctl/internal/fragments"
)

type EndpointStatus struct {
	ID       string `json:"id" yaml:"id"`
	Kind     string `json:"kind" yaml:"kind"`
	NodeName string `json:"node_name" yaml:"node_name"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Fragment bool   `json:"fragment" yaml:"fragment"`
	Live     bool   `json:"live" yaml:"live"`
	Target   string `json:"target,omitempty" yaml:"target,omitempty"`
}

// StatusReport compares the declared model with the drop-in directory and
// the running graph. Stray lists generated fragments no endpoint claims;
// the next apply sweeps them.
type StatusReport struct {
	DropinDir  string           `json:"dropin_dir" yaml:"dropin_dir"`
	Endpoints  []EndpointStatus `json:"endpoints" yaml:"endpoints"`
	Stray      []string         `json:"stray" yaml:"stray"`
	GraphError string           `json:"graph_error,omitempty" yaml:"graph_error,omitempty"`
}

// Status is read-only. An unreachable graph is reported, not returned.
func (c *Controller) Status() (StatusReport, error) {
	report := StatusReport{
		DropinDir: c.reconciler.Dir(),
		Endpoints: []EndpointStatus{},
		Stray:     []string{},
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return report, err
	}
	onDisk, err := c.reconciler.List()
	if err != nil {
		return report, err
	}
	present := make(map[string]struct{}, len(onDisk))
	for _, name := range onDisk {
		present[name] = struct{}{}
	}

	live := map[string]uint32{}
	topology, err := c.inspector.LoadTopology()
	if err != nil {
		report.GraphError = err.Error()
	} else {
		live = topology.NodesByName
	}

	claimed := make(map[string]struct{})
	add := func(kind fragments.Kind, status EndpointStatus, file string) {
		_, status.Fragment = present[file]
		_, status.Live = live[status.NodeName]
		status.Kind = string(kind)
		claimed[file] = struct{}{}
		report.Endpoints = append(report.Endpoints, status)
	}
	for _, s := range cfg.Sends {
		add(fragments.KindSend, EndpointStatus{
			ID:       s.ID.String(),
			NodeName: s.NodeName,
			Enabled:  s.Enabled,
			Target:   s.TargetObject,
		}, fragments.FilenameFor(fragments.KindSend, s.ID))
	}
	for _, r := range cfg.Recvs {
		add(fragments.KindRecv, EndpointStatus{
			ID:       r.ID.String(),
			NodeName: r.NodeName,
			Enabled:  r.Enabled,
		}, fragments.FilenameFor(fragments.KindRecv, r.ID))
	}

	for _, name := range onDisk {
		if _, ok := claimed[name]; !ok {
			report.Stray = append(report.Stray, name)
		}
	}
	sort.Strings(report.Stray)
	return report, nil
}

// AddSend appends a default sender to the saved model and returns it.
func (c *Controller) AddSend(mutate func(*config.Send)) (config.Send, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return config.Send{}, err
	}
	s := config.NewSend()
	if mutate != nil {
		mutate(&s)
	}
	cfg.Sends = append(cfg.Sends, s)
	if err := c.SaveConfig(cfg); err != nil {
		return config.Send{}, err
	}
	return s, nil
}

// AddRecv appends a default receiver to the saved model and returns it.
func (c *Controller) AddRecv(mutate func(*config.Recv)) (config.Recv, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return config.Recv{}, err
	}
	r := config.NewRecv()
	if mutate != nil {
		mutate(&r)
	}
	cfg.Recvs = append(cfg.Recvs, r)
	if err := c.SaveConfig(cfg); err != nil {
		return config.Recv{}, err
	}
	return r, nil
}
