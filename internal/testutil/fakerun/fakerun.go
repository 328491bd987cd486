// Package fakerun provides a scripted tools.CommandRunner for tests.
package fakerun

import (
	"errors"
	"fmt"

	"github.com/danmuck/vbanctl/internal/tools"
)

// Response is one scripted command outcome.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int32
	Err      error
}

// OK returns a successful response carrying stdout.
func OK(stdout string) Response {
	return Response{Stdout: stdout}
}

// Fail returns a non-zero exit carrying stderr.
func Fail(exitCode int32, stderr string) Response {
	return Response{
		Stderr:   stderr,
		ExitCode: exitCode,
		Err:      fmt.Errorf("exit status %d", exitCode),
	}
}

// Runner replays responses keyed by the full command line. Queued responses are
// consumed in order and the last one repeats. Unscripted commands behave like a
// missing binary.
type Runner struct {
	script map[string][]Response
	Calls  []string
}

var _ tools.CommandRunner = (*Runner)(nil)

func New() *Runner {
	return &Runner{script: make(map[string][]Response)}
}

// On queues responses for a command line such as "pw-dump Node".
func (r *Runner) On(commandLine string, responses ...Response) *Runner {
	r.script[commandLine] = append(r.script[commandLine], responses...)
	return r
}

func (r *Runner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	line := tools.CommandLine(name, args...)
	r.Calls = append(r.Calls, line)

	queue := r.script[line]
	if len(queue) == 0 {
		return nil, []byte(name + ": command not found\n"), 127, errors.New("executable file not found in $PATH")
	}
	resp := queue[0]
	if len(queue) > 1 {
		r.script[line] = queue[1:]
	}

	var stdout, stderr []byte
	if resp.Stdout != "" {
		stdout = []byte(resp.Stdout)
	}
	if resp.Stderr != "" {
		stderr = []byte(resp.Stderr)
	}
	return stdout, stderr, resp.ExitCode, resp.Err
}

// Count reports how many times a command line ran.
func (r *Runner) Count(commandLine string) int {
	n := 0
	for _, call := range r.Calls {
		if call == commandLine {
			n++
		}
	}
	return n
}
