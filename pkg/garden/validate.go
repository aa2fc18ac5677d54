package garden

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/gardenflow/pkg/errors"
)

// schemaValidate checks struct tags on decoded gardens. Field names in
// validation errors use the JSON name so messages match the document.
var schemaValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports whether raw is an acceptable JSON schema document.
// It is the edit-boundary check: callers keep their last good graph when
// it returns an error.
func Validate(raw []byte) error {
	_, err := Parse(raw)
	return err
}

// ValidateGarden checks the required top-level fields of a decoded garden.
func ValidateGarden(g *Garden) error {
	if g == nil {
		return errors.New(errors.ErrCodeInvalidInput, "garden is nil")
	}
	if err := schemaValidate.Struct(g); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Tag() == "required" {
				return errors.New(errors.ErrCodeInvalidSchema, "missing required field %q", fe.Field())
			}
			return errors.New(errors.ErrCodeInvalidSchema, "field %q failed %q check", fe.Field(), fe.Tag())
		}
		return errors.Wrap(errors.ErrCodeInvalidSchema, err, "validate schema")
	}
	return nil
}

// =============================================================================
// Lint - Non-fatal Findings
// =============================================================================

// Issue is a non-fatal finding about a schema entry. The graph builder
// tolerates every issue Lint reports; they usually indicate entries that
// will be skipped or links that will not open.
type Issue struct {
	Path    string `json:"path"` // JSON-pointer-like location, e.g. "categories[1].items[0]"
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Lint walks g and reports entries with missing names or non-http(s) URLs.
func Lint(g *Garden) []Issue {
	if g == nil {
		return nil
	}
	var issues []Issue
	lintItems(&issues, "items", g.Items)
	lintRefs(&issues, "supergardens", g.Supergardens)
	lintRefs(&issues, "subgardens", g.Subgardens)
	for i := range g.Categories {
		lintCategory(&issues, fmt.Sprintf("categories[%d]", i), &g.Categories[i])
	}
	return issues
}

func lintCategory(issues *[]Issue, path string, c *Category) {
	if c.Name == "" {
		*issues = append(*issues, Issue{Path: path, Message: "category has no name and will be skipped with its contents"})
		return
	}
	lintItems(issues, path+".items", c.Items)
	lintRefs(issues, path+".garden_refs", c.GardenRefs)
	for i := range c.Categories {
		lintCategory(issues, fmt.Sprintf("%s.categories[%d]", path, i), &c.Categories[i])
	}
}

func lintItems(issues *[]Issue, path string, items []Item) {
	for i, it := range items {
		p := fmt.Sprintf("%s[%d]", path, i)
		if it.Name == "" {
			*issues = append(*issues, Issue{Path: p, Message: "item has no name and will be skipped"})
			continue
		}
		if it.HomepageURL == "" {
			*issues = append(*issues, Issue{Path: p, Message: "item has no homepage_url"})
		} else if err := errors.ValidateURL(it.HomepageURL); err != nil {
			*issues = append(*issues, Issue{Path: p + ".homepage_url", Message: errors.UserMessage(err)})
		}
		if it.RepoURL != "" {
			if err := errors.ValidateURL(it.RepoURL); err != nil {
				*issues = append(*issues, Issue{Path: p + ".repo_url", Message: errors.UserMessage(err)})
			}
		}
	}
}

func lintRefs(issues *[]Issue, path string, refs []Reference) {
	for i, r := range refs {
		p := fmt.Sprintf("%s[%d]", path, i)
		if r.Name == "" {
			*issues = append(*issues, Issue{Path: p, Message: "reference has no name and will be skipped"})
			continue
		}
		if r.URL != "" {
			if err := errors.ValidateURL(r.URL); err != nil {
				*issues = append(*issues, Issue{Path: p + ".url", Message: errors.UserMessage(err)})
			}
		}
	}
}
