package flow

import (
	"fmt"
	"math"
	"strings"
)

// =============================================================================
// Node Sizing
// =============================================================================

// Node dimensions in pixels, used as layout input.
const (
	NodeWidth             = 250.0
	ItemHeight            = 180.0
	DescribedHeight       = 120.0
	DefaultHeight         = 80.0
	DefaultItemImage      = "https://images.pexels.com/photos/546819/pexels-photo-546819.jpeg"
	expandedIconColorBase = 12
)

// Size returns the width and height of a node. Items are tallest, then any
// node bearing a description, then everything else.
func Size(t NodeType, description string) (float64, float64) {
	switch {
	case t == NodeItem:
		return NodeWidth, ItemHeight
	case description != "":
		return NodeWidth, DescribedHeight
	default:
		return NodeWidth, DefaultHeight
	}
}

// =============================================================================
// Icons
// =============================================================================

// Icon names understood by renderers.
const (
	IconEcosystem   = "Sprout"
	IconSupergarden = "Globe"
	IconSubgarden   = "Sprout"
	IconGardenRef   = "Link"
	IconFolder      = "Folder"
)

// categoryIcons maps name keywords to icons. Order matters: the first rule
// with a matching keyword wins.
var categoryIcons = []struct {
	keywords []string
	icon     string
}{
	{[]string{"productivity"}, "Zap"},
	{[]string{"development", "code"}, "Code"},
	{[]string{"communication", "message"}, "MessageSquare"},
	{[]string{"design", "ui"}, "Palette"},
	{[]string{"task"}, "CheckSquare"},
	{[]string{"note"}, "FileText"},
	{[]string{"version"}, "Git"},
	{[]string{"video"}, "Video"},
	{[]string{"graphics", "image"}, "Image"},
}

// CategoryIcon picks an icon for a category from keywords in its name.
func CategoryIcon(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryIcons {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.icon
			}
		}
	}
	return IconFolder
}

// expandedIconColor cycles through the renderer's chart palette by level.
func expandedIconColor(level int) string {
	idx := max(1, min(expandedIconColorBase, level%expandedIconColorBase))
	return fmt.Sprintf("var(--chart-%d)", idx)
}

// =============================================================================
// Edge Styling
// =============================================================================

// Edge presentation defaults.
const (
	DefaultEdgeType   = "step"
	DefaultStroke     = "var(--primary)"
	DefaultEdgeWidth  = 2.0
	ReferenceDash     = "5,5"
	ReferenceStroke   = "var(--muted-foreground)"
	GardenRefStroke   = "hsl(var(--chart-7))"
	MarkerArrowClosed = "arrowclosed"
)

// expansionStyle thins and fades edges the deeper an expanded garden sits.
func expansionStyle(level int) EdgeStyle {
	l := float64(level - 1)
	return EdgeStyle{
		Stroke:    DefaultStroke,
		Width:     math.Max(1, 2-l*0.2),
		DashArray: ReferenceDash,
		Opacity:   math.Max(0.7, 1-l*0.05),
	}
}

// categoryStyle draws top-level category edges heavier than nested ones.
func categoryStyle(level int) EdgeStyle {
	w := 1.5
	if level == 0 {
		w = 2
	}
	return EdgeStyle{Stroke: DefaultStroke, Width: w}
}

func itemStyle() EdgeStyle {
	return EdgeStyle{Stroke: DefaultStroke, Width: DefaultEdgeWidth}
}

func referenceStyle(rel Relation) EdgeStyle {
	if rel == RelationGardenRef {
		return EdgeStyle{Stroke: GardenRefStroke, Width: 1.5, DashArray: ReferenceDash}
	}
	return EdgeStyle{Stroke: ReferenceStroke, Width: DefaultEdgeWidth, DashArray: ReferenceDash}
}

// RefreshEdges fills presentation defaults on edges that lack them: a
// routing type, a stroke, a width and an arrow marker. Edges are drawn
// beneath nodes. Source and target are never changed.
func RefreshEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		if e.Type == "" {
			e.Type = DefaultEdgeType
		}
		if e.Style.Stroke == "" {
			e.Style.Stroke = DefaultStroke
		}
		if e.Style.Width == 0 {
			e.Style.Width = DefaultEdgeWidth
		}
		if e.Marker == "" {
			e.Marker = MarkerArrowClosed
		}
		e.ZIndex = 0
		out[i] = e
	}
	return out
}
