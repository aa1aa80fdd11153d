package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/cyp0633/librecur/recurrence"
)

// Format identifies the encoding of a rule document
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// FormatFromPath picks a Format from a file extension. Unknown extensions
// are read as JSONC, which also accepts plain JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSONC
	}
}

// Decode parses a single rule document into its raw field map
func Decode(data []byte, format Format) (map[string]any, error) {
	fields := make(map[string]any)

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parsing rule: %w", err)
		}
	case FormatJSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), &fields); err != nil {
			return nil, fmt.Errorf("parsing rule: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parsing rule: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rule format %q", format)
	}

	return fields, nil
}

// Parse decodes data and builds a Spec from it
func Parse(data []byte, format Format, opts ...Option) (recurrence.Spec, error) {
	fields, err := Decode(data, format)
	if err != nil {
		return recurrence.Spec{}, err
	}
	return FromMap(fields, opts...)
}

// ReadFile reads a rule document from disk, choosing the format from the
// file extension.
func ReadFile(path string, opts ...Option) (recurrence.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return recurrence.Spec{}, fmt.Errorf("reading %s: %w", path, err)
	}

	spec, err := Parse(data, FormatFromPath(path), opts...)
	if err != nil {
		return recurrence.Spec{}, fmt.Errorf("%s: %w", path, err)
	}

	return spec, nil
}
