package flow

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/gardenflow/pkg/garden"
)

// Payload is the type-specific data carried by a [Node]. The concrete type
// is determined by the node's [NodeType]:
//
//	NodeEcosystem                     *EcosystemData
//	NodeCategory                      *CategoryData
//	NodeItem                          *ItemData
//	NodeReferenceUp, NodeReferenceDown *ReferenceData
type Payload interface {
	common() *Common
	clone() Payload
}

// Common holds the fields shared by every payload.
type Common struct {
	Label       string        `json:"label"`
	Description string        `json:"description,omitempty"`
	Theme       *garden.Theme `json:"theme,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	IconColor   string        `json:"icon_color,omitempty"`

	// Depth is the expansion depth of the garden that owns the node:
	// 0 for the root garden, n for a garden spliced in n levels below it.
	Depth int `json:"depth"`

	// SourceConnections lists the ids this node has outgoing edges to.
	// TargetConnections lists the ids it has incoming edges from.
	// Both are populated by [TrackConnections].
	SourceConnections []string `json:"source_connections"`
	TargetConnections []string `json:"target_connections"`
}

func (c *Common) cloneCommon() Common {
	out := *c
	if c.Theme != nil {
		t := *c.Theme
		out.Theme = &t
	}
	out.SourceConnections = slices.Clone(c.SourceConnections)
	out.TargetConnections = slices.Clone(c.TargetConnections)
	return out
}

// EcosystemData is the payload of an ecosystem node.
type EcosystemData struct {
	Common
	Garden  string `json:"garden"`
	Version string `json:"version,omitempty"`

	// Expanded is set on ecosystem nodes spliced in by subgarden expansion.
	Expanded bool `json:"expanded,omitempty"`
}

func (d *EcosystemData) common() *Common { return &d.Common }

func (d *EcosystemData) clone() Payload {
	out := *d
	out.Common = d.cloneCommon()
	return &out
}

// CategoryData is the payload of a category node.
type CategoryData struct {
	Common

	// Level is the nesting level inside the owning garden, 0 for top-level
	// categories.
	Level int `json:"level"`
}

func (d *CategoryData) common() *Common { return &d.Common }

func (d *CategoryData) clone() Payload {
	out := *d
	out.Common = d.cloneCommon()
	return &out
}

// CTA is a call-to-action link shown on a node.
type CTA struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Actions holds a node's primary and optional secondary call to action.
type Actions struct {
	Primary   CTA  `json:"primary"`
	Secondary *CTA `json:"secondary,omitempty"`
}

// ItemData is the payload of an item node.
type ItemData struct {
	Common
	HomepageURL string   `json:"homepage_url"`
	RepoURL     string   `json:"repo_url,omitempty"`
	ProjectURL  string   `json:"project_url,omitempty"`
	Twitter     string   `json:"twitter,omitempty"`
	Logo        string   `json:"logo,omitempty"`
	Image       string   `json:"image"`
	CTA         *Actions `json:"cta,omitempty"`
}

func (d *ItemData) common() *Common { return &d.Common }

func (d *ItemData) clone() Payload {
	out := *d
	out.Common = d.cloneCommon()
	if d.CTA != nil {
		a := *d.CTA
		if d.CTA.Secondary != nil {
			s := *d.CTA.Secondary
			a.Secondary = &s
		}
		out.CTA = &a
	}
	return &out
}

// Relation describes how a reference node relates to its owner.
type Relation string

// Reference relations.
const (
	RelationSupergarden Relation = "supergarden"
	RelationSubgarden   Relation = "subgarden"
	RelationGardenRef   Relation = "garden_ref"
)

// ReferenceData is the payload of reference-up and reference-down nodes.
type ReferenceData struct {
	Common
	Garden   string   `json:"garden"`
	Relation Relation `json:"relation"`
	URL      string   `json:"url,omitempty"`
	Logo     string   `json:"logo,omitempty"`
	Version  string   `json:"version,omitempty"`
	CTA      *Actions `json:"cta,omitempty"`

	// Resolved reports whether Garden was found in the registry at build time.
	Resolved bool `json:"resolved"`
}

func (d *ReferenceData) common() *Common { return &d.Common }

func (d *ReferenceData) clone() Payload {
	out := *d
	out.Common = d.cloneCommon()
	if d.CTA != nil {
		a := *d.CTA
		out.CTA = &a
	}
	return &out
}

// =============================================================================
// JSON Decoding
// =============================================================================

// UnmarshalJSON decodes a node, choosing the payload type from "type".
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	var raw struct {
		alias
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node(raw.alias)

	var p Payload
	switch n.Type {
	case NodeEcosystem:
		p = &EcosystemData{}
	case NodeCategory:
		p = &CategoryData{}
	case NodeItem:
		p = &ItemData{}
	case NodeReferenceUp, NodeReferenceDown:
		p = &ReferenceData{}
	default:
		return fmt.Errorf("node %q: unknown type %q", n.ID, n.Type)
	}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, p); err != nil {
			return fmt.Errorf("node %q: decode data: %w", n.ID, err)
		}
	}
	n.Data = p
	return nil
}
