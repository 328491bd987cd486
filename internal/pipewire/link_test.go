package pipewire

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/vbanctl/internal/config"
	"github.com/danmuck/vbanctl/internal/testutil/fakerun"
	"github.com/danmuck/vbanctl/internal/testutil/testlog"
)

const linkUSBFL = "pw-link alsa_input.usb-mic:capture_FL vban-send-aaaa:playback_FL"

func send(node, target string, enabled bool) config.Send {
	s := config.NewSend()
	s.ID = uuid.New()
	s.NodeName = node
	s.TargetObject = target
	s.Enabled = enabled
	return s
}

func TestEnsureLinkIsIdempotent(t *testing.T) {
	testlog.Start(t)
	runner := fakerun.New().On(linkUSBFL,
		fakerun.OK(""),
		fakerun.Fail(1, "failed to link ports: File exists\n"),
	)
	linker := NewLinker(runner)

	first, err := linker.EnsureLink("alsa_input.usb-mic", "capture_FL", "vban-send-aaaa", "playback_FL")
	require.NoError(t, err)
	assert.Equal(t, LinkCreated, first)

	second, err := linker.EnsureLink("alsa_input.usb-mic", "capture_FL", "vban-send-aaaa", "playback_FL")
	require.NoError(t, err)
	assert.Equal(t, LinkExists, second)
	assert.Equal(t, 2, runner.Count(linkUSBFL))
}

func TestEnsureLinkRecognisesAlreadyLinkedPhrases(t *testing.T) {
	testlog.Start(t)
	for _, stderr := range []string{"Ports ALREADY LINKED", "link already exists"} {
		runner := fakerun.New().On(linkUSBFL, fakerun.Fail(1, stderr))
		outcome, err := NewLinker(runner).EnsureLink("alsa_input.usb-mic", "capture_FL", "vban-send-aaaa", "playback_FL")
		require.NoError(t, err, stderr)
		assert.Equal(t, LinkExists, outcome)
	}
}

func TestEnsureLinkHardError(t *testing.T) {
	testlog.Start(t)
	runner := fakerun.New().On(linkUSBFL, fakerun.Fail(1, "failed to link ports: Invalid argument\n"))

	_, err := NewLinker(runner).EnsureLink("alsa_input.usb-mic", "capture_FL", "vban-send-aaaa", "playback_FL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLink))
	assert.Equal(t,
		"link failed: `pw-link alsa_input.usb-mic:capture_FL vban-send-aaaa:playback_FL` exited with status 1: failed to link ports: Invalid argument",
		err.Error())
}

func TestAutolinkSendsAggregatesOutcomes(t *testing.T) {
	testlog.Start(t)
	runner := graphRunner(t).
		On(linkUSBFL, fakerun.OK("")).
		On("pw-link alsa_input.usb-mic:capture_FR vban-send-aaaa:playback_FR", fakerun.Fail(1, "already linked")).
		On("pw-link mono-mic:capture_MONO vban-send-aaaa:playback_FL", fakerun.OK("")).
		On("pw-link mono-mic:capture_MONO vban-send-aaaa:playback_FR", fakerun.Fail(1, "Invalid argument"))

	sends := []config.Send{
		send("vban-send-aaaa", "alsa_input.usb-mic", true),
		send("vban-send-aaaa", "mono-mic", true),
		send("vban-send-aaaa", "ghost-mic", true),
		send("vban-send-aaaa", "alsa_input.usb-mic", false),
		send("vban-send-aaaa", "  ", true),
		send("vban-send-missing", "alsa_input.usb-mic", true),
		send("vban-send-aaaa", "alsa_output.pci-speakers", true),
	}

	summary, err := NewLinker(runner).AutolinkSends(sends)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.LinksCreated)
	require.Len(t, summary.Issues, 4)
	assert.Contains(t, summary.Issues[0], "mono-mic:capture_MONO -> vban-send-aaaa:playback_FR")
	assert.Contains(t, summary.Issues[0], "Invalid argument")
	assert.Equal(t, `not found: source "ghost-mic" is not in the PipeWire graph`, summary.Issues[1])
	assert.Contains(t, summary.Issues[2], `send node "vban-send-missing"`)
	assert.Equal(t, `not found: source "alsa_output.pci-speakers" has no output audio ports`, summary.Issues[3])

	assert.Equal(t, 1, runner.Count(cmdNodes))
	assert.Equal(t, 1, runner.Count(cmdPorts))
}

func TestAutolinkSendsSecondPassCreatesNothing(t *testing.T) {
	testlog.Start(t)
	runner := graphRunner(t).
		On(linkUSBFL, fakerun.OK(""), fakerun.Fail(1, "File exists")).
		On("pw-link alsa_input.usb-mic:capture_FR vban-send-aaaa:playback_FR", fakerun.OK(""), fakerun.Fail(1, "File exists"))
	sends := []config.Send{send("vban-send-aaaa", "alsa_input.usb-mic", true)}
	linker := NewLinker(runner)

	first, err := linker.AutolinkSends(sends)
	require.NoError(t, err)
	assert.Equal(t, 2, first.LinksCreated)

	second, err := linker.AutolinkSends(sends)
	require.NoError(t, err)
	assert.Equal(t, 0, second.LinksCreated)
	assert.Empty(t, second.Issues)
}

func TestAutolinkSendsWithoutTargetsRunsNothing(t *testing.T) {
	testlog.Start(t)
	runner := fakerun.New()

	summary, err := NewLinker(runner).AutolinkSends([]config.Send{
		send("vban-send-aaaa", "", true),
		send("vban-send-bbbb", "alsa_input.usb-mic", false),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.LinksCreated)
	assert.Empty(t, summary.Issues)
	assert.Empty(t, runner.Calls)
}

func TestAutolinkSendsTopologyFailure(t *testing.T) {
	testlog.Start(t)
	runner := fakerun.New().On(cmdNodes, fakerun.Fail(1, "no pipewire"))

	_, err := NewLinker(runner).AutolinkSends([]config.Send{send("vban-send-aaaa", "mic", true)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIntrospection))
}

func TestRestartServicesFallsBack(t *testing.T) {
	testlog.Start(t)
	runner := fakerun.New().
		On("systemctl --user restart pipewire.service pipewire-pulse.service", fakerun.Fail(5, "Unit pipewire-pulse.service not found.")).
		On("systemctl --user restart pipewire.service", fakerun.OK(""))

	require.NoError(t, RestartServices(runner))
	assert.Equal(t, []string{
		"systemctl --user restart pipewire.service pipewire-pulse.service",
		"systemctl --user restart pipewire.service",
	}, runner.Calls)
}

func TestRestartServicesAllFail(t *testing.T) {
	testlog.Start(t)
	err := RestartServices(fakerun.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRestart))
	assert.Contains(t, err.Error(), "systemctl --user restart pipewire")
}
