package garden

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/gardenflow/pkg/errors"
)

func TestReadFileFormats(t *testing.T) {
	want, err := ReadFile(filepath.Join("testdata", "omni.json"))
	if err != nil {
		t.Fatalf("ReadFile(json): %v", err)
	}

	for _, name := range []string{"omni.yaml", "omni.toml"} {
		t.Run(name, func(t *testing.T) {
			got, err := ReadFile(filepath.Join("testdata", name))
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ReadFile(%s) differs from json:\n got  %+v\n want %+v", name, got, want)
			}
		})
	}
}

func TestReadFileErrors(t *testing.T) {
	tests := []struct {
		path string
		code errors.Code
	}{
		{"testdata/missing.json", errors.ErrCodeFileNotFound},
		{"testdata/omni.txt", errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		_, err := ReadFile(tt.path)
		if !errors.Is(err, tt.code) {
			t.Errorf("ReadFile(%q) error = %v, want code %s", tt.path, err, tt.code)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		code    errors.Code
		message string
	}{
		{
			name:  "minimal",
			input: `{"name":"Root","version":"1.0.0"}`,
		},
		{
			name:  "root items only",
			input: `{"name":"Root","version":"1.0.0","items":[{"name":"A","homepage_url":"http://a"}]}`,
		},
		{
			name:  "empty categories",
			input: `{"name":"Root","version":"1.0.0","categories":[]}`,
		},
		{
			name:    "missing name",
			input:   `{"version":"1.0.0","categories":[]}`,
			code:    errors.ErrCodeInvalidSchema,
			message: `missing required field "name"`,
		},
		{
			name:    "missing version",
			input:   `{"name":"Root","categories":[]}`,
			code:    errors.ErrCodeInvalidSchema,
			message: `missing required field "version"`,
		},
		{
			name:    "categories object",
			input:   `{"name":"Root","version":"1","categories":{"name":"x"}}`,
			code:    errors.ErrCodeInvalidSchema,
			message: "categories must be an array",
		},
		{
			name:    "categories null",
			input:   `{"name":"Root","version":"1","categories":null}`,
			code:    errors.ErrCodeInvalidSchema,
			message: "categories must be an array",
		},
		{
			name:    "wrong item type",
			input:   `{"name":"Root","version":"1","items":"nope"}`,
			code:    errors.ErrCodeInvalidSchema,
			message: `field "items"`,
		},
		{
			name:  "top-level array",
			input: `[]`,
			code:  errors.ErrCodeInvalidFormat,
		},
		{
			name:  "not json",
			input: `name: Root`,
			code:  errors.ErrCodeInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse([]byte(tt.input))
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Parse() error = %v", err)
				}
				if g.Name != "Root" {
					t.Errorf("Name = %q, want Root", g.Name)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("Parse() error = %v, want code %s", err, tt.code)
			}
			if tt.message != "" && !strings.Contains(errors.UserMessage(err), tt.message) {
				t.Errorf("message = %q, want it to contain %q", errors.UserMessage(err), tt.message)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]byte(`{"name":"Root","version":"1.0.0"}`)); err != nil {
		t.Errorf("Validate(valid) = %v, want nil", err)
	}
	if err := Validate([]byte(`{"name":"Root"}`)); err == nil {
		t.Error("Validate(missing version) = nil, want error")
	}
	if err := ValidateGarden(nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ValidateGarden(nil) = %v, want INVALID_INPUT", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	g, err := ReadFile(filepath.Join("testdata", "omni.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, g, format); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			back, err := Decode(&buf, format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(back, g) {
				t.Errorf("round trip mismatch:\n got  %+v\n want %+v", back, g)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"toml", FormatTOML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEntityCount(t *testing.T) {
	g, err := ReadFile(filepath.Join("testdata", "omni.json"))
	if err != nil {
		t.Fatal(err)
	}
	// 1 item, 1 supergarden, 1 subgarden, 2 categories, 2 category items, 1 garden_ref
	if got := g.EntityCount(); got != 8 {
		t.Errorf("EntityCount() = %d, want 8", got)
	}

	g.Items = append(g.Items, Item{HomepageURL: "http://unnamed"})
	if got := g.EntityCount(); got != 8 {
		t.Errorf("EntityCount() with unnamed item = %d, want 8", got)
	}

	var nilGarden *Garden
	if got := nilGarden.EntityCount(); got != 0 {
		t.Errorf("nil EntityCount() = %d, want 0", got)
	}
}

func TestLint(t *testing.T) {
	g := &Garden{
		Name:    "Root",
		Version: "1",
		Items: []Item{
			{Name: "ok", HomepageURL: "https://ok"},
			{HomepageURL: "https://unnamed"},
			{Name: "ftp", HomepageURL: "ftp://files"},
		},
		Categories: []Category{
			{Items: []Item{{Name: "hidden"}}},
			{Name: "Tools", GardenRefs: []Reference{{Name: "Other", URL: "mailto:x"}}},
		},
	}

	issues := Lint(g)
	var paths []string
	for _, is := range issues {
		paths = append(paths, is.Path)
	}
	want := []string{
		"items[1]",
		"items[2].homepage_url",
		"categories[0]",
		"categories[1].garden_refs[0].url",
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Lint paths = %v, want %v", paths, want)
	}
	if Lint(nil) != nil {
		t.Error("Lint(nil) should be nil")
	}
}

func TestJSONSchema(t *testing.T) {
	data, err := JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema: %v", err)
	}

	var doc struct {
		ID         string                     `json:"$id"`
		Title      string                     `json:"title"`
		Type       string                     `json:"type"`
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}

	if doc.ID != SchemaID {
		t.Errorf("$id = %q, want %q", doc.ID, SchemaID)
	}
	if doc.Type != "object" {
		t.Errorf("type = %q, want object", doc.Type)
	}
	if !reflect.DeepEqual(doc.Required, []string{"name", "version"}) {
		t.Errorf("required = %v, want [name version]", doc.Required)
	}
	for _, field := range []string{"categories", "items", "subgardens", "supergardens", "theme", "maintainers"} {
		if _, ok := doc.Properties[field]; !ok {
			t.Errorf("properties missing %q", field)
		}
	}
}
