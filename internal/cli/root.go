package cli

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/vbanctl/internal/config"
	"github.com/danmuck/vbanctl/internal/control"
	"github.com/danmuck/vbanctl/internal/logging"
	"github.com/danmuck/vbanctl/internal/observability"
	"github.com/danmuck/vbanctl/internal/tools"
)

var ValidFormats = []string{"text", "json", "yaml"}

// RootOptions holds global flags. Empty paths fall back to settings.toml and
// then to the per-user defaults.
type RootOptions struct {
	SettingsPath string
	ModelPath    string
	DropinDir    string
	MetricsFile  string
	Format       string
	Verbose      bool

	runnerFor func(config.Settings) tools.CommandRunner
	settings  *config.Settings
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(control.RunnerFor)
}

func newRootCommand(runnerFor func(config.Settings) tools.CommandRunner) *cobra.Command {
	opts := &RootOptions{runnerFor: runnerFor}

	cmd := &cobra.Command{
		Use:           "vbanctl",
		Short:         "Manage VBAN endpoints on a PipeWire host",
		Long:          "vbanctl reconciles PipeWire VBAN drop-in fragments against a declared endpoint list and autolinks capture sources into senders.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			logging.ConfigureRuntime("vbanctl")
			if opts.Verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.writeMetrics()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.SettingsPath, "settings", "", "settings file (default $XDG_CONFIG_HOME/vbanctl/settings.toml)")
	flags.StringVar(&opts.ModelPath, "config", "", "endpoint model file (overrides settings)")
	flags.StringVar(&opts.DropinDir, "dropin-dir", "", "PipeWire drop-in directory (overrides settings)")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "write a node_exporter textfile after the command")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newSourcesCommand(opts))
	cmd.AddCommand(newApplyCommand(opts))
	cmd.AddCommand(newLinkCommand(opts))
	cmd.AddCommand(newRestartCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	return cmd
}

func (o *RootOptions) settingsPath() (string, error) {
	if o.SettingsPath != "" {
		return o.SettingsPath, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.SettingsFileName), nil
}

// loadSettings resolves settings once per invocation.
func (o *RootOptions) loadSettings() (config.Settings, error) {
	if o.settings != nil {
		return *o.settings, nil
	}
	defaults, err := config.DefaultSettings()
	if err != nil {
		return config.Settings{}, err
	}
	path, err := o.settingsPath()
	if err != nil {
		return config.Settings{}, err
	}
	settings, err := config.LoadSettings(path, defaults)
	if err != nil {
		return config.Settings{}, err
	}
	if o.ModelPath != "" {
		settings.ModelPath = o.ModelPath
	}
	if o.DropinDir != "" {
		settings.DropinDir = o.DropinDir
	}
	if o.MetricsFile != "" {
		settings.MetricsFile = o.MetricsFile
	}
	if err := config.ValidateSettings(settings); err != nil {
		return config.Settings{}, err
	}
	o.settings = &settings
	log.Debug().
		Str("settings", path).
		Str("model", settings.ModelPath).
		Str("dropin", settings.DropinDir).
		Bool("remote", settings.Remote != nil).
		Msg("cli settings resolved")
	return settings, nil
}

func (o *RootOptions) controller() (*control.Controller, error) {
	settings, err := o.loadSettings()
	if err != nil {
		return nil, err
	}
	return control.New(settings, o.runnerFor(settings)), nil
}

func (o *RootOptions) writeMetrics() error {
	path := o.MetricsFile
	if path == "" && o.settings != nil {
		path = o.settings.MetricsFile
	}
	if path == "" {
		return nil
	}
	if err := observability.WriteTextfile(path); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) Formatter {
	return Formatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
