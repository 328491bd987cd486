package control

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/vbanctl/internal/config"
	"github.com/danmuck/vbanctl/internal/fragments"
	"github.com/danmuck/vbanctl/internal/pipewire"
	"github.com/danmuck/vbanctl/internal/testutil/fakerun"
	"github.com/danmuck/vbanctl/internal/testutil/testlog"
	"github.com/danmuck/vbanctl/internal/tools"
)

const (
	nodesJSON = `[
  {"id": 1, "info": {"props": {"node.name": "mic", "media.class": "Audio/Source"}}},
  {"id": 2, "info": {"props": {"node.name": "vban-send-a", "media.class": "Audio/Sink"}}}
]`
	portsJSON = `[
  {"id": 10, "info": {"direction": "output", "props": {"node.id": 1, "port.name": "capture_FL", "audio.channel": "FL"}}},
  {"id": 11, "info": {"direction": "output", "props": {"node.id": 1, "port.name": "capture_FR", "audio.channel": "FR"}}},
  {"id": 20, "info": {"direction": "input", "props": {"node.id": 2, "port.name": "playback_FL", "audio.channel": "FL"}}},
  {"id": 21, "info": {"direction": "input", "props": {"node.id": 2, "port.name": "playback_FR", "audio.channel": "FR"}}}
]`

	cmdRestart = "systemctl --user restart pipewire.service pipewire-pulse.service"
	cmdLinkFL  = "pw-link mic:capture_FL vban-send-a:playback_FL"
	cmdLinkFR  = "pw-link mic:capture_FR vban-send-a:playback_FR"
)

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	dir := t.TempDir()
	return config.Settings{
		ModelPath: filepath.Join(dir, "vbanctl", config.ModelFileName),
		DropinDir: filepath.Join(dir, "pipewire.conf.d"),
		HTTPAddr:  config.DefaultHTTPAddr,
		LinkDelay: 250 * time.Millisecond,
	}
}

func graphRunner() *fakerun.Runner {
	return fakerun.New().
		On("pw-dump Node", fakerun.OK(nodesJSON)).
		On("pw-dump Port", fakerun.OK(portsJSON))
}

func linkedModel() (config.AppConfig, config.Send) {
	s := config.NewSend()
	s.NodeName = "vban-send-a"
	s.TargetObject = "mic"
	cfg := config.DefaultAppConfig()
	cfg.Sends = []config.Send{s}
	return cfg, s
}

func TestApplyRestartAndLink(t *testing.T) {
	testlog.Start(t)
	settings := testSettings(t)
	runner := graphRunner().
		On(cmdRestart, fakerun.OK("")).
		On(cmdLinkFL, fakerun.OK("")).
		On(cmdLinkFR, fakerun.OK(""))
	c := New(settings, runner)
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	cfg, s := linkedModel()
	result, err := c.Apply(cfg, ApplyOptions{Restart: true, Link: true})
	require.NoError(t, err)

	assert.True(t, result.Restarted)
	require.NotNil(t, result.Autolink)
	assert.Equal(t, 2, result.Autolink.LinksCreated)
	assert.Empty(t, result.Autolink.Issues)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, slept)
	assert.Equal(t, "Applied: wrote 1 fragment(s), removed 0; restarted PipeWire; created 2 link(s), 0 issue(s)", result.Status())

	assert.FileExists(t, filepath.Join(settings.DropinDir, fragments.FilenameFor(fragments.KindSend, s.ID)))
	saved, err := config.LoadModel(settings.ModelPath)
	require.NoError(t, err)
	require.Len(t, saved.Sends, 1)
	assert.Equal(t, s.ID, saved.Sends[0].ID)

	assert.Equal(t, []string{cmdRestart, "pw-dump Node", "pw-dump Port", cmdLinkFL, cmdLinkFR}, runner.Calls)
}

func TestApplyWithoutRestartSkipsDelay(t *testing.T) {
	testlog.Start(t)
	runner := graphRunner().On(cmdLinkFL, fakerun.OK("")).On(cmdLinkFR, fakerun.Fail(1, "File exists"))
	c := New(testSettings(t), runner)
	c.sleep = func(time.Duration) { t.Fatal("unexpected sleep") }

	cfg, _ := linkedModel()
	result, err := c.Apply(cfg, ApplyOptions{Link: true})
	require.NoError(t, err)
	assert.False(t, result.Restarted)
	require.NotNil(t, result.Autolink)
	assert.Equal(t, 1, result.Autolink.LinksCreated)
	assert.Zero(t, runner.Count(cmdRestart))
}

func TestApplyRestartFailureAborts(t *testing.T) {
	testlog.Start(t)
	settings := testSettings(t)
	runner := fakerun.New()
	c := New(settings, runner)

	cfg, s := linkedModel()
	result, err := c.Apply(cfg, ApplyOptions{Restart: true, Link: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipewire.ErrRestart))
	assert.False(t, result.Restarted)
	assert.Nil(t, result.Autolink)
	assert.Equal(t, []string{fragments.FilenameFor(fragments.KindSend, s.ID)}, result.Fragments.Written)
	assert.Zero(t, runner.Count("pw-dump Node"))
}

func TestApplyAutolinkFailureIsWarning(t *testing.T) {
	testlog.Start(t)
	c := New(testSettings(t), fakerun.New())

	cfg, _ := linkedModel()
	result, err := c.Apply(cfg, ApplyOptions{Link: true})
	require.NoError(t, err)
	assert.Nil(t, result.Autolink)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "autolink skipped: introspection failed")
}

func TestApplyRejectsInvalidModel(t *testing.T) {
	testlog.Start(t)
	settings := testSettings(t)
	c := New(settings, fakerun.New())

	s := config.NewSend()
	cfg := config.DefaultAppConfig()
	cfg.Sends = []config.Send{s, s}
	_, err := c.Apply(cfg, ApplyOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")

	_, statErr := os.Stat(settings.DropinDir)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestStatusReportsFragmentsAndLiveNodes(t *testing.T) {
	testlog.Start(t)
	settings := testSettings(t)
	c := New(settings, graphRunner())

	cfg, s := linkedModel()
	r := config.NewRecv()
	r.Enabled = false
	cfg.Recvs = []config.Recv{r}
	_, err := c.Apply(cfg, ApplyOptions{})
	require.NoError(t, err)

	stray := "99-vbanctl-recv-0123456789abcdef0123456789abcdef.conf"
	require.NoError(t, os.WriteFile(filepath.Join(settings.DropinDir, stray), []byte("x"), 0o644))

	report, err := c.Status()
	require.NoError(t, err)
	assert.Empty(t, report.GraphError)
	assert.Equal(t, settings.DropinDir, report.DropinDir)
	assert.Equal(t, []string{stray}, report.Stray)
	require.Len(t, report.Endpoints, 2)

	assert.Equal(t, EndpointStatus{
		ID:       s.ID.String(),
		Kind:     "send",
		NodeName: "vban-send-a",
		Enabled:  true,
		Fragment: true,
		Live:     true,
		Target:   "mic",
	}, report.Endpoints[0])
	assert.Equal(t, "recv", report.Endpoints[1].Kind)
	assert.False(t, report.Endpoints[1].Fragment)
	assert.False(t, report.Endpoints[1].Live)
}

func TestStatusWithUnreachableGraph(t *testing.T) {
	testlog.Start(t)
	c := New(testSettings(t), fakerun.New())

	report, err := c.Status()
	require.NoError(t, err)
	assert.Contains(t, report.GraphError, "pw-dump Node")
	assert.Empty(t, report.Endpoints)
}

func TestAddSendPersists(t *testing.T) {
	testlog.Start(t)
	settings := testSettings(t)
	c := New(settings, fakerun.New())

	s, err := c.AddSend(func(s *config.Send) { s.TargetObject = "mic" })
	require.NoError(t, err)
	_, err = c.AddRecv(nil)
	require.NoError(t, err)

	cfg, err := c.LoadConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Sends, 1)
	assert.Equal(t, s.ID, cfg.Sends[0].ID)
	assert.Equal(t, "mic", cfg.Sends[0].TargetObject)
	assert.Len(t, cfg.Recvs, 1)
}

func TestAddSendRejectsMonitorTarget(t *testing.T) {
	testlog.Start(t)
	c := New(testSettings(t), fakerun.New())

	_, err := c.AddSend(func(s *config.Send) { s.TargetObject = "speakers.monitor" })
	require.Error(t, err)
}

func TestRunnerForRemote(t *testing.T) {
	settings := testSettings(t)
	assert.IsType(t, tools.ExecRunner{}, RunnerFor(settings))

	settings.Remote = &config.RemoteSettings{Host: "studio", User: "audio", KeyPath: "/k"}
	runner, ok := RunnerFor(settings).(tools.SSHRunner)
	require.True(t, ok)
	assert.Equal(t, "studio", runner.Host)
	assert.Empty(t, runner.Passphrase)

	t.Setenv("VBANCTL_TEST_PASSPHRASE", "open sesame")
	settings.Remote.PassphraseEnv = "VBANCTL_TEST_PASSPHRASE"
	runner, ok = RunnerFor(settings).(tools.SSHRunner)
	require.True(t, ok)
	assert.Equal(t, []byte("open sesame"), runner.Passphrase)
}
