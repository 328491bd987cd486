package pipewire

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/vbanctl/internal/observability"
	"github.com/danmuck/vbanctl/internal/tools"
)

// restartCandidates are tried in order; older setups lack pipewire-pulse or
// only know the bare unit name.
var restartCandidates = [][]string{
	{"--user", "restart", "pipewire.service", "pipewire-pulse.service"},
	{"--user", "restart", "pipewire.service"},
	{"--user", "restart", "pipewire"},
}

// RestartServices restarts the PipeWire user units so new fragments load.
func RestartServices(runner tools.CommandRunner) error {
	if runner == nil {
		runner = tools.ExecRunner{}
	}

	var last error
	for _, args := range restartCandidates {
		start := time.Now()
		_, stderr, exitCode, err := runner.Run("systemctl", args...)
		ok := err == nil && exitCode == 0
		observability.RecordCommand("systemctl", ok, time.Since(start))
		if ok {
			log.Info().Strs("args", args).Msg("pipewire.RestartServices ok")
			return nil
		}
		last = commandError(ErrRestart, tools.CommandLine("systemctl", args...), exitCode, stderr, err)
		log.Debug().Err(last).Msg("pipewire.RestartServices candidate failed")
	}
	return fmt.Errorf("could not restart PipeWire via systemctl --user: %w", last)
}
