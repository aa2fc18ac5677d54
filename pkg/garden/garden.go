package garden

// =============================================================================
// Garden - Root Ecosystem
// =============================================================================

// Garden is a named ecosystem of products and services.
//
// Name and Version are required at the edit boundary. Everything else is
// optional, and empty slices are equivalent to absent ones.
type Garden struct {
	Name         string       `json:"name" yaml:"name" toml:"name" bson:"name" validate:"required" jsonschema:"minLength=1"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty" bson:"description,omitempty"`
	Version      string       `json:"version" yaml:"version" toml:"version" bson:"version" validate:"required" jsonschema:"minLength=1"`
	Icon         string       `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty" bson:"icon,omitempty"`
	Items        []Item       `json:"items,omitempty" yaml:"items,omitempty" toml:"items,omitempty" bson:"items,omitempty"`
	Categories   []Category   `json:"categories,omitempty" yaml:"categories,omitempty" toml:"categories,omitempty" bson:"categories,omitempty"`
	Maintainers  []Maintainer `json:"maintainers,omitempty" yaml:"maintainers,omitempty" toml:"maintainers,omitempty" bson:"maintainers,omitempty"`
	CreatedAt    string       `json:"created_at,omitempty" yaml:"created_at,omitempty" toml:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt    string       `json:"updated_at,omitempty" yaml:"updated_at,omitempty" toml:"updated_at,omitempty" bson:"updated_at,omitempty"`
	Theme        *Theme       `json:"theme,omitempty" yaml:"theme,omitempty" toml:"theme,omitempty" bson:"theme,omitempty"`
	Supergardens []Reference  `json:"supergardens,omitempty" yaml:"supergardens,omitempty" toml:"supergardens,omitempty" bson:"supergardens,omitempty"`
	Subgardens   []Reference  `json:"subgardens,omitempty" yaml:"subgardens,omitempty" toml:"subgardens,omitempty" bson:"subgardens,omitempty"`
}

// EntityCount returns the number of named entities reachable from g without
// following references: items, categories, and super/sub/category references.
// Entries with an empty name are not counted.
func (g *Garden) EntityCount() int {
	if g == nil {
		return 0
	}
	n := countItems(g.Items) + countRefs(g.Supergardens) + countRefs(g.Subgardens)
	for i := range g.Categories {
		n += g.Categories[i].entityCount()
	}
	return n
}

// =============================================================================
// Category - Recursive Grouping
// =============================================================================

// Category groups items and nested categories. Nesting depth is unbounded.
type Category struct {
	Name        string      `json:"name" yaml:"name" toml:"name" bson:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty" bson:"description,omitempty"`
	IconColor   string      `json:"icon_color,omitempty" yaml:"icon_color,omitempty" toml:"icon_color,omitempty" bson:"icon_color,omitempty"`
	Items       []Item      `json:"items,omitempty" yaml:"items,omitempty" toml:"items,omitempty" bson:"items,omitempty"`
	Categories  []Category  `json:"categories,omitempty" yaml:"categories,omitempty" toml:"categories,omitempty" bson:"categories,omitempty"`
	GardenRefs  []Reference `json:"garden_refs,omitempty" yaml:"garden_refs,omitempty" toml:"garden_refs,omitempty" bson:"garden_refs,omitempty"`
}

func (c *Category) entityCount() int {
	if c.Name == "" {
		return 0
	}
	n := 1 + countItems(c.Items) + countRefs(c.GardenRefs)
	for i := range c.Categories {
		n += c.Categories[i].entityCount()
	}
	return n
}

// =============================================================================
// Item and Reference - Leaves
// =============================================================================

// Item is a concrete product or service. Items never have children.
type Item struct {
	Name        string `json:"name" yaml:"name" toml:"name" bson:"name"`
	HomepageURL string `json:"homepage_url" yaml:"homepage_url" toml:"homepage_url" bson:"homepage_url"`
	Logo        string `json:"logo,omitempty" yaml:"logo,omitempty" toml:"logo,omitempty" bson:"logo,omitempty"`
	RepoURL     string `json:"repo_url,omitempty" yaml:"repo_url,omitempty" toml:"repo_url,omitempty" bson:"repo_url,omitempty"`
	ProjectURL  string `json:"project_url,omitempty" yaml:"project_url,omitempty" toml:"project_url,omitempty" bson:"project_url,omitempty"`
	Twitter     string `json:"twitter,omitempty" yaml:"twitter,omitempty" toml:"twitter,omitempty" bson:"twitter,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty" bson:"description,omitempty"`
}

// Reference links to another garden by name. The target's data is not
// embedded; it is looked up in a [Registry] when needed.
type Reference struct {
	Name        string `json:"name" yaml:"name" toml:"name" bson:"name"`
	URL         string `json:"url" yaml:"url" toml:"url" bson:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty" bson:"description,omitempty"`
	Logo        string `json:"logo,omitempty" yaml:"logo,omitempty" toml:"logo,omitempty" bson:"logo,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty" bson:"version,omitempty"`
}

// =============================================================================
// Metadata
// =============================================================================

// Maintainer identifies a person responsible for a garden.
type Maintainer struct {
	Name  string `json:"name" yaml:"name" toml:"name" bson:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty" toml:"email,omitempty" bson:"email,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty" bson:"url,omitempty"`
}

// Theme carries the color tokens a renderer applies to a garden's nodes.
type Theme struct {
	PrimaryColor    string `json:"primary_color,omitempty" yaml:"primary_color,omitempty" toml:"primary_color,omitempty" bson:"primary_color,omitempty"`
	SecondaryColor  string `json:"secondary_color,omitempty" yaml:"secondary_color,omitempty" toml:"secondary_color,omitempty" bson:"secondary_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty" yaml:"background_color,omitempty" toml:"background_color,omitempty" bson:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty" yaml:"text_color,omitempty" toml:"text_color,omitempty" bson:"text_color,omitempty"`
}

func countItems(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Name != "" {
			n++
		}
	}
	return n
}

func countRefs(refs []Reference) int {
	n := 0
	for _, r := range refs {
		if r.Name != "" {
			n++
		}
	}
	return n
}
