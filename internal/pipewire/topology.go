package pipewire

import (
	"github.com/rs/zerolog/log"
)

// Port is one mono terminal on a node. Channel is empty for non-positional ports.
type Port struct {
	Name    string `json:"name" yaml:"name"`
	Input   bool   `json:"input" yaml:"input"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// Topology is a snapshot of node names and their ports. Node ids are only
// meaningful within the snapshot that produced them.
type Topology struct {
	NodesByName map[string]uint32
	PortsByNode map[uint32][]Port
}

var (
	nodeIDPath   = chain("$.id")
	nodeNamePath = chain("$.info.props['node.name']")

	portNodePath      = chain("$.info.props['node.id']")
	portNamePath      = chain("$.info.props['port.name']")
	portDirectionPath = chain("$.info.direction")
	portChannelPath   = chain("$.info.props['audio.channel']")
)

// LoadTopology queries all nodes and ports. Entries without a usable name,
// id or direction are skipped.
func (i *Inspector) LoadTopology() (Topology, error) {
	topology := Topology{
		NodesByName: make(map[string]uint32),
		PortsByNode: make(map[uint32][]Port),
	}

	nodes, err := i.query("pw-dump", "Node")
	if err != nil {
		return Topology{}, err
	}
	for _, entry := range nodes {
		id, ok := nodeIDPath.ID(entry)
		if !ok {
			continue
		}
		name := nodeNamePath.String(entry)
		if name == "" {
			continue
		}
		topology.NodesByName[name] = id
	}

	ports, err := i.query("pw-dump", "Port")
	if err != nil {
		return Topology{}, err
	}
	for _, entry := range ports {
		port, nodeID, ok := decodePort(entry)
		if !ok {
			continue
		}
		topology.PortsByNode[nodeID] = append(topology.PortsByNode[nodeID], port)
	}

	log.Debug().
		Int("nodes", len(topology.NodesByName)).
		Int("port_nodes", len(topology.PortsByNode)).
		Msg("pipewire.Inspector.LoadTopology")
	return topology, nil
}

func decodePort(entry any) (Port, uint32, bool) {
	nodeID, ok := portNodePath.ID(entry)
	if !ok {
		return Port{}, 0, false
	}
	name := portNamePath.String(entry)
	if name == "" {
		return Port{}, 0, false
	}

	var input bool
	switch portDirectionPath.String(entry) {
	case "input":
		input = true
	case "output":
		input = false
	default:
		return Port{}, 0, false
	}

	return Port{
		Name:    name,
		Input:   input,
		Channel: portChannelPath.String(entry),
	}, nodeID, true
}

// Ports resolves node by name and returns its ports of one direction in
// introspection order.
func (t Topology) Ports(node string, input bool) (uint32, []Port, bool) {
	id, ok := t.NodesByName[node]
	if !ok {
		return 0, nil, false
	}
	var out []Port
	for _, port := range t.PortsByNode[id] {
		if port.Input == input {
			out = append(out, port)
		}
	}
	return id, out, true
}
