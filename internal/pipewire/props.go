package pipewire

import (
	"math"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// propChain is an ordered list of JSONPath lookups; the first populated one wins.
type propChain []jp.Expr

func chain(paths ...string) propChain {
	exprs := make(propChain, 0, len(paths))
	for _, p := range paths {
		exprs = append(exprs, jp.MustParseString(p))
	}
	return exprs
}

// String returns the first non-blank string along the chain, trimmed.
func (c propChain) String(entry any) string {
	for _, x := range c {
		s, ok := x.First(entry).(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// ID returns the first value along the chain that reads as a uint32.
func (c propChain) ID(entry any) (uint32, bool) {
	for _, x := range c {
		if id, ok := toUint32(x.First(entry)); ok {
			return id, true
		}
	}
	return 0, false
}

// Has reports whether any path in the chain resolves to an object.
func (c propChain) Has(entry any) bool {
	for _, x := range c {
		if _, ok := x.First(entry).(map[string]any); ok {
			return true
		}
	}
	return false
}

func toUint32(v any) (uint32, bool) {
	switch n := v.(type) {
	case int64:
		if n >= 0 && n <= math.MaxUint32 {
			return uint32(n), true
		}
	case int:
		if n >= 0 && int64(n) <= math.MaxUint32 {
			return uint32(n), true
		}
	case float64:
		if n >= 0 && n <= math.MaxUint32 && n == math.Trunc(n) {
			return uint32(n), true
		}
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(n), 10, 32)
		if err == nil {
			return uint32(parsed), true
		}
	}
	return 0, false
}
