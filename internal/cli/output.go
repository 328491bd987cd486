package cli

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// Formatter writes command results as text, JSON or YAML.
type Formatter struct {
	Format string
	Writer io.Writer
}

// Emit encodes data for json and yaml; text delegates to the command.
func (f Formatter) Emit(data any, text func(w io.Writer) error) error {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(f.Writer)
	}
}
