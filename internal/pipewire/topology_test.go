package pipewire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/vbanctl/internal/testutil/fakerun"
	"github.com/danmuck/vbanctl/internal/testutil/testlog"
)

func TestLoadTopology(t *testing.T) {
	testlog.Start(t)
	runner := graphRunner(t)

	topology, err := NewInspector(runner).LoadTopology()
	require.NoError(t, err)

	assert.Equal(t, map[string]uint32{
		"alsa_input.usb-mic":               31,
		"easyeffects_source":               32,
		"alsa_output.pci-speakers":         40,
		"alsa_output.pci-speakers.monitor": 41,
		"vban-send-aaaa":                   50,
		"mono-mic":                         60,
	}, topology.NodesByName)

	assert.Equal(t, []Port{
		{Name: "capture_FL", Channel: "FL"},
		{Name: "capture_FR", Channel: "FR"},
	}, topology.PortsByNode[31])
	assert.Equal(t, []Port{{Name: "capture_MONO", Channel: "MONO"}}, topology.PortsByNode[60])
	assert.Len(t, topology.PortsByNode[50], 3)
	assert.NotContains(t, topology.PortsByNode, uint32(40))
	assert.Equal(t, []string{cmdNodes, cmdPorts}, runner.Calls)
}

func TestTopologyPortsByDirection(t *testing.T) {
	testlog.Start(t)
	topology, err := NewInspector(graphRunner(t)).LoadTopology()
	require.NoError(t, err)

	id, inputs, ok := topology.Ports("vban-send-aaaa", true)
	require.True(t, ok)
	assert.Equal(t, uint32(50), id)
	assert.Equal(t, []Port{
		{Name: "playback_FL", Input: true, Channel: "FL"},
		{Name: "playback_FR", Input: true, Channel: "FR"},
	}, inputs)

	_, outputs, ok := topology.Ports("vban-send-aaaa", false)
	require.True(t, ok)
	assert.Equal(t, []Port{{Name: "monitor_FL", Channel: "FL"}}, outputs)

	_, _, ok = topology.Ports("ghost", false)
	assert.False(t, ok)
}

func TestLoadTopologyFailures(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name   string
		runner *fakerun.Runner
		want   string
	}{
		{
			name:   "node dump exits non-zero",
			runner: fakerun.New().On(cmdNodes, fakerun.Fail(1, "failed to connect\n")),
			want:   "`pw-dump Node` exited with status 1: failed to connect",
		},
		{
			name:   "node dump missing",
			runner: fakerun.New(),
			want:   "could not execute `pw-dump Node`",
		},
		{
			name:   "port dump not json",
			runner: fakerun.New().On(cmdNodes, fakerun.OK("[]")).On(cmdPorts, fakerun.OK("pw-dump: garbage")),
			want:   "could not parse JSON output from `pw-dump Port`",
		},
		{
			name:   "port dump not an array",
			runner: fakerun.New().On(cmdNodes, fakerun.OK("[]")).On(cmdPorts, fakerun.OK(`{"id": 1}`)),
			want:   "`pw-dump Port` did not return a JSON array",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInspector(tc.runner).LoadTopology()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIntrospection))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestToUint32(t *testing.T) {
	for _, v := range []any{int64(7), 7, float64(7), " 7 "} {
		id, ok := toUint32(v)
		assert.True(t, ok, "%#v", v)
		assert.Equal(t, uint32(7), id)
	}
	for _, v := range []any{int64(-1), 1.5, "x", nil, true} {
		_, ok := toUint32(v)
		assert.False(t, ok, "%#v", v)
	}
}
