package cli

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/danmuck/vbanctl/internal/config"
)

func newConfigCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, inspect and edit the endpoint model",
	}
	cmd.AddCommand(newConfigInitCommand(opts))
	cmd.AddCommand(newConfigValidateCommand(opts))
	cmd.AddCommand(newConfigShowCommand(opts))
	cmd.AddCommand(newConfigAddSendCommand(opts))
	cmd.AddCommand(newConfigAddRecvCommand(opts))
	return cmd
}

func newConfigInitCommand(opts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write starter settings.toml and config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settingsPath, err := opts.settingsPath()
			if err != nil {
				return err
			}
			if err := config.WriteTemplate(settingsPath, "settings", force); err != nil {
				return err
			}
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			if err := config.WriteTemplate(settings.ModelPath, "model", force); err != nil {
				return err
			}
			written := map[string]string{"settings": settingsPath, "model": settings.ModelPath}
			return opts.formatter(cmd).Emit(written, func(w io.Writer) error {
				fmt.Fprintf(w, "wrote %s\nwrote %s\n", settingsPath, settings.ModelPath)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func newConfigValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate settings and the endpoint model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller()
			if err != nil {
				return err
			}
			cfg, err := ctrl.LoadConfig()
			if err != nil {
				return err
			}
			summary := map[string]int{"sends": len(cfg.Sends), "recvs": len(cfg.Recvs)}
			return opts.formatter(cmd).Emit(summary, func(w io.Writer) error {
				fmt.Fprintf(w, "ok: %d send(s), %d recv(s)\n", len(cfg.Sends), len(cfg.Recvs))
				return nil
			})
		},
	}
}

func newConfigShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the endpoint model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller()
			if err != nil {
				return err
			}
			cfg, err := ctrl.LoadConfig()
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Emit(cfg, func(w io.Writer) error {
				return toml.NewEncoder(w).Encode(cfg)
			})
		},
	}
}

func newConfigAddSendCommand(opts *RootOptions) *cobra.Command {
	var (
		target, ip, description, format string
		port                            uint16
		channels                        uint8
		rate                            uint32
		disabled, alwaysProcess         bool
	)
	cmd := &cobra.Command{
		Use:   "add-send",
		Short: "Declare a VBAN sender",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller()
			if err != nil {
				return err
			}
			s, err := ctrl.AddSend(func(s *config.Send) {
				s.TargetObject = target
				s.Enabled = !disabled
				s.AlwaysProcess = alwaysProcess
				if ip != "" {
					s.DestinationIP = ip
				}
				if port != 0 {
					s.DestinationPort = port
				}
				if channels != 0 {
					s.AudioChannels = channels
				}
				if rate != 0 {
					s.AudioRate = rate
				}
				if format != "" {
					s.AudioFormat = format
				}
				if description != "" {
					s.NodeDescription = description
				}
			})
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Emit(s, func(w io.Writer) error {
				fmt.Fprintf(w, "added send %s (%s)\n", s.ID, s.NodeName)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&target, "target", "", "source node to autolink into this send")
	f.StringVar(&ip, "ip", "", "destination IP")
	f.Uint16Var(&port, "port", 0, "destination UDP port")
	f.Uint8Var(&channels, "channels", 0, "audio channels (1..64)")
	f.Uint32Var(&rate, "rate", 0, "audio rate in Hz")
	f.StringVar(&format, "audio-format", "", "sample format, e.g. S16LE")
	f.StringVar(&description, "description", "", "node description")
	f.BoolVar(&disabled, "disabled", false, "declare the send disabled")
	f.BoolVar(&alwaysProcess, "always-process", false, "keep the node processing without links")
	return cmd
}

func newConfigAddRecvCommand(opts *RootOptions) *cobra.Command {
	var (
		ip, stream, description string
		port                    uint16
		latency                 uint32
		disabled, alwaysProcess bool
	)
	cmd := &cobra.Command{
		Use:   "add-recv",
		Short: "Declare a VBAN receiver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller()
			if err != nil {
				return err
			}
			r, err := ctrl.AddRecv(func(r *config.Recv) {
				r.Enabled = !disabled
				r.AlwaysProcess = alwaysProcess
				r.StreamName = stream
				if ip != "" {
					r.SourceIP = ip
				}
				if port != 0 {
					r.SourcePort = port
				}
				if latency != 0 {
					r.LatencyMsec = latency
				}
				if description != "" {
					r.NodeDescription = description
				}
			})
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Emit(r, func(w io.Writer) error {
				fmt.Fprintf(w, "added recv %s (%s)\n", r.ID, r.NodeName)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&ip, "ip", "", "source IP to accept")
	f.Uint16Var(&port, "port", 0, "source UDP port")
	f.Uint32Var(&latency, "latency", 0, "session latency in milliseconds")
	f.StringVar(&stream, "stream", "", "VBAN stream name to accept")
	f.StringVar(&description, "description", "", "node description")
	f.BoolVar(&disabled, "disabled", false, "declare the receiver disabled")
	f.BoolVar(&alwaysProcess, "always-process", false, "keep the node processing without links")
	return cmd
}
