package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danmuck/vbanctl/internal/control"
	"github.com/danmuck/vbanctl/internal/pipewire"
	"github.com/danmuck/vbanctl/internal/server"
)

func newSourcesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List capture sources that sends can target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller()
			if err != nil {
				return err
			}
			sources, err := ctrl.Sources()
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Emit(sources, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NODE\tDESCRIPTION")
				for _, s := range sources {
					fmt.Fprintf(tw, "%s\t%s\n", s.NodeName, s.Description)
				}
				return tw.Flush()
			})
		},
	}
}

func newApplyCommand(opts *RootOptions) *cobra.Command {
	var restart, noLink bool
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Write fragments for the saved model, optionally restart PipeWire, then autolink",
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
			result, err := ctrl.Apply(cfg, control.ApplyOptions{Restart: restart, Link: !noLink})
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Emit(result, func(w io.Writer) error {
				fmt.Fprintln(w, result.Status())
				if result.Autolink != nil {
					writeIssues(w, result.Autolink.Issues)
				}
				for _, warning := range result.Warnings {
					fmt.Fprintf(w, "  warning: %s\n", warning)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&restart, "restart", false, "restart PipeWire user services after writing fragments")
	cmd.Flags().BoolVar(&noLink, "no-link", false, "skip the autolink pass")
	return cmd
}

func newLinkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "link [<source-node>:<port> <target-node>:<port>]",
		Short: "Autolink every send, or create one port link",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("link takes no arguments or exactly two endpoints")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller()
			if err != nil {
				return err
			}
			if len(args) == 2 {
				return runSingleLink(cmd, opts, ctrl, args[0], args[1])
			}
			summary, err := ctrl.Autolink()
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Emit(summary, func(w io.Writer) error {
				fmt.Fprintf(w, "created %d link(s), %d issue(s)\n", summary.LinksCreated, len(summary.Issues))
				writeIssues(w, summary.Issues)
				return nil
			})
		},
	}
}

type linkResult struct {
	Source  string `json:"source" yaml:"source"`
	Target  string `json:"target" yaml:"target"`
	Outcome string `json:"outcome" yaml:"outcome"`
}

func runSingleLink(cmd *cobra.Command, opts *RootOptions, ctrl *control.Controller, source, target string) error {
	srcNode, srcPort, err := splitEndpoint(source)
	if err != nil {
		return err
	}
	dstNode, dstPort, err := splitEndpoint(target)
	if err != nil {
		return err
	}
	outcome, err := ctrl.Link(srcNode, srcPort, dstNode, dstPort)
	if err != nil {
		return err
	}
	result := linkResult{Source: source, Target: target, Outcome: outcome.String()}
	return opts.formatter(cmd).Emit(result, func(w io.Writer) error {
		if outcome == pipewire.LinkExists {
			fmt.Fprintf(w, "already linked %s -> %s\n", source, target)
			return nil
		}
		fmt.Fprintf(w, "linked %s -> %s\n", source, target)
		return nil
	})
}

// splitEndpoint cuts at the last colon; node names may contain colons.
func splitEndpoint(raw string) (string, string, error) {
	i := strings.LastIndex(raw, ":")
	if i <= 0 || i == len(raw)-1 {
		return "", "", fmt.Errorf("endpoint %q must be <node>:<port>", raw)
	}
	return raw[:i], raw[i+1:], nil
}

func newRestartCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the PipeWire user services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller()
			if err != nil {
				return err
			}
			if err := ctrl.Restart(); err != nil {
				return err
			}
			return opts.formatter(cmd).Emit(map[string]string{"status": "restarted"}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "restarted PipeWire")
				return err
			})
		},
	}
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Compare declared endpoints with fragments on disk and live nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller()
			if err != nil {
				return err
			}
			report, err := ctrl.Status()
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Emit(report, func(w io.Writer) error {
				fmt.Fprintf(w, "drop-in dir: %s\n", report.DropinDir)
				if report.GraphError != "" {
					fmt.Fprintf(w, "graph unavailable: %s\n", report.GraphError)
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KIND\tNODE\tENABLED\tFRAGMENT\tLIVE\tTARGET")
				for _, e := range report.Endpoints {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						e.Kind, e.NodeName, yesNo(e.Enabled), yesNo(e.Fragment), yesNo(e.Live), e.Target)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				for _, name := range report.Stray {
					fmt.Fprintf(w, "stray: %s\n", name)
				}
				return nil
			})
		},
	}
}

func newServeCommand(opts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller()
			if err != nil {
				return err
			}
			srv := server.New(ctrl)
			if addr != "" {
				srv.Addr = addr
			}
			return srv.Serve()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides settings http_addr)")
	return cmd
}

func writeIssues(w io.Writer, issues []string) {
	for _, issue := range issues {
		fmt.Fprintf(w, "  issue: %s\n", issue)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
