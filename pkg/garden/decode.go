package garden

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/gardenflow/pkg/errors"
)

// Format identifies a schema interchange encoding.
type Format string

// Supported schema formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat converts a format name ("json", "yaml", "yml", "toml") to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported schema format %q", s)
	}
}

// ReadFile reads and validates a schema file. The format is chosen from the
// file extension (.json, .yaml, .yml, .toml).
func ReadFile(path string) (*Garden, error) {
	name, err := errors.ValidateSchemaFilename(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f, Format(name))
}

// Decode reads a schema in the given format, validates it, and returns the
// decoded garden.
func Decode(r io.Reader, format Format) (*Garden, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read schema")
	}
	raw, err := ToJSON(data, format)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// ToJSON normalizes a YAML or TOML document to its JSON equivalent so all
// formats share one validation path. JSON input is returned unchanged.
func ToJSON(data []byte, format Format) ([]byte, error) {
	var doc any
	switch format {
	case FormatJSON, "":
		return data, nil
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse yaml")
		}
	case FormatTOML:
		m := map[string]any{}
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse toml")
		}
		doc = m
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported schema format %q", format)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "convert %s to json", format)
	}
	return out, nil
}

// Parse decodes and validates a JSON schema document.
func Parse(raw []byte) (*Garden, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "schema must be a JSON object")
	}
	if cats, ok := fields["categories"]; ok && !isArray(cats) {
		return nil, errors.New(errors.ErrCodeInvalidSchema, "categories must be an array")
	}

	var g Garden
	if err := json.Unmarshal(raw, &g); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, errors.New(errors.ErrCodeInvalidSchema, "field %q: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "decode schema")
	}
	if err := ValidateGarden(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Encode writes g in the given format.
func Encode(w io.Writer, g *Garden, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(g)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported schema format %q", format)
	}
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
