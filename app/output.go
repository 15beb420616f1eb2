package app

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// render writes v to w in the requested format.
func render(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v) //nolint:wrapcheck
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2) //nolint:mnd

		if err := enc.Encode(v); err != nil {
			return err //nolint:wrapcheck
		}

		return enc.Close() //nolint:wrapcheck
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
