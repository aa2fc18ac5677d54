package garden

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaID is the $id published in the generated JSON Schema.
const SchemaID = "https://gardenflow.dev/schema/garden.json"

// JSONSchema returns the JSON Schema (draft 2020-12) describing a garden
// document, pretty-printed. Fields without omitempty are listed as required.
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(&Garden{})
	s.ID = jsonschema.ID(SchemaID)
	s.Title = "Garden"
	s.Description = "An ecosystem of products and services, with nested categories and links to related gardens."
	return json.MarshalIndent(s, "", "  ")
}
