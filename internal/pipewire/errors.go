package pipewire

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIntrospection = errors.New("introspection failed")
	ErrNotFound      = errors.New("not found")
	ErrLink          = errors.New("link failed")
	ErrRestart       = errors.New("restart failed")
)

// SourcesError reports that both source directory backends failed.
type SourcesError struct {
	Graph  error
	Legacy error
}

func (e *SourcesError) Error() string {
	return fmt.Sprintf("could not list PipeWire sources. pw-dump: %v | pactl: %v", e.Graph, e.Legacy)
}

func (e *SourcesError) Unwrap() []error {
	return []error{e.Graph, e.Legacy}
}

// commandError describes a failed invocation of line under kind.
func commandError(kind error, line string, exitCode int32, stderr []byte, err error) error {
	detail := strings.TrimSpace(string(stderr))
	if exitCode == 127 || (detail == "" && exitCode == 0) {
		return fmt.Errorf("%w: could not execute `%s`: %v", kind, line, err)
	}
	if detail == "" {
		return fmt.Errorf("%w: `%s` exited with status %d", kind, line, exitCode)
	}
	return fmt.Errorf("%w: `%s` exited with status %d: %s", kind, line, exitCode, detail)
}
