package pipewire

import (
	"fmt"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/vbanctl/internal/observability"
	"github.com/danmuck/vbanctl/internal/tools"
)

// Inspector runs read-only introspection commands against PipeWire.
type Inspector struct {
	runner tools.CommandRunner
}

func NewInspector(runner tools.CommandRunner) *Inspector {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Inspector{runner: runner}
}

// query runs one command and decodes its stdout as a JSON array.
func (i *Inspector) query(name string, args ...string) ([]any, error) {
	line := tools.CommandLine(name, args...)
	start := time.Now()
	stdout, stderr, exitCode, err := i.runner.Run(name, args...)
	ok := err == nil && exitCode == 0
	observability.RecordCommand(name, ok, time.Since(start))
	if !ok {
		log.Debug().Str("cmd", line).Int32("exit", exitCode).Err(err).Msg("pipewire.Inspector.query failed")
		return nil, commandError(ErrIntrospection, line, exitCode, stderr, err)
	}

	parsed, err := oj.Parse(stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse JSON output from `%s`: %v", ErrIntrospection, line, err)
	}
	entries, isArray := parsed.([]any)
	if !isArray {
		return nil, fmt.Errorf("%w: `%s` did not return a JSON array", ErrIntrospection, line)
	}
	log.Debug().Str("cmd", line).Int("entries", len(entries)).Msg("pipewire.Inspector.query ok")
	return entries, nil
}
