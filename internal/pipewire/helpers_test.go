package pipewire

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/vbanctl/internal/testutil/fakerun"
)

const (
	cmdNodes   = "pw-dump Node"
	cmdPorts   = "pw-dump Port"
	cmdSources = "pactl -f json list sources"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(raw)
}

// graphRunner scripts the node and port dumps from testdata.
func graphRunner(t *testing.T) *fakerun.Runner {
	t.Helper()
	return fakerun.New().
		On(cmdNodes, fakerun.OK(fixture(t, "pw-dump-node.json"))).
		On(cmdPorts, fakerun.OK(fixture(t, "pw-dump-port.json")))
}
