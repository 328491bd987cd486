package control

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/vbanctl/internal/config"
	"github.com/danmuck/vbanctl/internal/fragments"
	"github.com/danmuck/vbanctl/internal/pipewire"
	"github.com/danmuck/vbanctl/internal/tools"
)

// Controller binds settings to one command runner. It holds no state between
// calls; every pass starts from the model file and a fresh PipeWire snapshot.
type Controller struct {
	settings   config.Settings
	runner     tools.CommandRunner
	inspector  *pipewire.Inspector
	linker     *pipewire.Linker
	reconciler *fragments.Reconciler
	sleep      func(time.Duration)
}

func New(settings config.Settings, runner tools.CommandRunner) *Controller {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Controller{
		settings:   settings,
		runner:     runner,
		inspector:  pipewire.NewInspector(runner),
		linker:     pipewire.NewLinker(runner),
		reconciler: fragments.NewReconciler(settings.DropinDir),
		sleep:      time.Sleep,
	}
}

// RunnerFor picks the SSH runner when settings name a remote host.
func RunnerFor(settings config.Settings) tools.CommandRunner {
	if settings.Remote == nil {
		return tools.ExecRunner{}
	}
	var passphrase []byte
	if env := settings.Remote.PassphraseEnv; env != "" {
		passphrase = []byte(os.Getenv(env))
	}
	return tools.SSHRunner{
		Host:                        settings.Remote.Host,
		Port:                        settings.Remote.Port,
		User:                        settings.Remote.User,
		KeyPath:                     settings.Remote.KeyPath,
		Passphrase:                  passphrase,
		KnownHostsPath:              settings.Remote.KnownHostsPath,
		InsecureSkipHostKeyChecking: settings.Remote.Insecure,
		Timeout:                     settings.Remote.Timeout,
	}
}

func (c *Controller) Settings() config.Settings {
	return c.settings
}

func (c *Controller) LoadConfig() (config.AppConfig, error) {
	return config.LoadModel(c.settings.ModelPath)
}

func (c *Controller) SaveConfig(cfg config.AppConfig) error {
	if err := config.ValidateAppConfig(cfg); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	return config.SaveModel(c.settings.ModelPath, cfg)
}

func (c *Controller) Sources() ([]pipewire.AudioSource, error) {
	return c.inspector.ListAudioSources()
}

func (c *Controller) Link(sourceNode, sourcePort, targetNode, targetPort string) (pipewire.LinkOutcome, error) {
	return c.linker.EnsureLink(sourceNode, sourcePort, targetNode, targetPort)
}

func (c *Controller) Restart() error {
	return pipewire.RestartServices(c.runner)
}

// Autolink runs one autolink pass over the saved model.
func (c *Controller) Autolink() (pipewire.Summary, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return pipewire.Summary{}, err
	}
	return c.linker.AutolinkSends(cfg.Sends)
}

type ApplyOptions struct {
	Restart bool
	Link    bool
}

// ApplyResult records each step of an apply. Autolink is nil when linking
// was not requested. Warnings hold step failures that did not abort the pass.
type ApplyResult struct {
	Fragments fragments.Report  `json:"fragments" yaml:"fragments"`
	Restarted bool              `json:"restarted" yaml:"restarted"`
	Autolink  *pipewire.Summary `json:"autolink,omitempty" yaml:"autolink,omitempty"`
	Warnings  []string          `json:"warnings" yaml:"warnings"`
}

// Status renders the one-line summary shown after an apply.
func (r ApplyResult) Status() string {
	parts := []string{fmt.Sprintf("wrote %d fragment(s), removed %d", len(r.Fragments.Written), len(r.Fragments.Removed))}
	if r.Restarted {
		parts = append(parts, "restarted PipeWire")
	}
	if r.Autolink != nil {
		parts = append(parts, fmt.Sprintf("created %d link(s), %d issue(s)", r.Autolink.LinksCreated, len(r.Autolink.Issues)))
	}
	if len(r.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", len(r.Warnings)))
	}
	return "Applied: " + strings.Join(parts, "; ")
}

// Apply saves cfg, reconciles the drop-in directory, optionally restarts
// PipeWire and then autolinks. Save, reconcile and restart failures abort;
// an autolink failure is kept as a warning since the fragments are already
// in place.
func (c *Controller) Apply(cfg config.AppConfig, opts ApplyOptions) (ApplyResult, error) {
	result := ApplyResult{Warnings: []string{}}

	if err := c.SaveConfig(cfg); err != nil {
		return result, err
	}

	report, err := c.reconciler.Apply(cfg)
	result.Fragments = report
	if err != nil {
		return result, err
	}

	if opts.Restart {
		if err := c.Restart(); err != nil {
			return result, err
		}
		result.Restarted = true
		if c.settings.LinkDelay > 0 && opts.Link {
			c.sleep(c.settings.LinkDelay)
		}
	}

	if opts.Link {
		summary, err := c.linker.AutolinkSends(cfg.Sends)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("autolink skipped: %v", err))
		} else {
			result.Autolink = &summary
		}
	}

	log.Info().
		Bool("restart", opts.Restart).
		Bool("link", opts.Link).
		Str("status", result.Status()).
		Msg("control.Apply")
	return result, nil
}
