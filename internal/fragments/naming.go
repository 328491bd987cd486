package fragments

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danmuck/vbanctl/internal/config"
)

type Kind string

const (
	KindSend Kind = "send"
	KindRecv Kind = "recv"
)

const (
	filePrefix = "99-vbanctl-"
	fileSuffix = ".conf"
)

// FilenameFor names the fragment of one declared endpoint.
func FilenameFor(kind Kind, id uuid.UUID) string {
	return fmt.Sprintf("%s%s-%s%s", filePrefix, kind, config.SimpleID(id), fileSuffix)
}

// IsFragment reports whether name follows the generated naming convention.
func IsFragment(name string) bool {
	if !strings.HasSuffix(name, fileSuffix) {
		return false
	}
	return strings.HasPrefix(name, filePrefix+string(KindSend)+"-") ||
		strings.HasPrefix(name, filePrefix+string(KindRecv)+"-")
}
