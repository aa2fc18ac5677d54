package flow

import (
	"math"
	"testing"
)

func TestID(t *testing.T) {
	tests := []struct {
		typ       NodeType
		qualifier string
		want      string
	}{
		{NodeEcosystem, "Omni", "ecosystem-omni"},
		{NodeCategory, "Omni/Developer Tools", "category-omni/developer-tools"},
		{NodeItem, "  Spaced   Out  ", "item-spaced-out"},
		{NodeItem, "Tab\tand\nNewline", "item-tab-and-newline"},
		{NodeReferenceUp, "", "reference-up-"},
	}
	for _, tt := range tests {
		if got := ID(tt.typ, tt.qualifier); got != tt.want {
			t.Errorf("ID(%s, %q) = %q, want %q", tt.typ, tt.qualifier, got, tt.want)
		}
	}
}

func TestIDSet(t *testing.T) {
	s := newIDSet()
	got := []string{
		s.next(NodeItem, "a"),
		s.next(NodeItem, "a"),
		s.next(NodeItem, "a-2"),
		s.next(NodeItem, "a"),
		s.next(NodeCategory, "a"),
	}
	want := []string{"item-a", "item-a-2", "item-a-2-2", "item-a-3", "category-a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("next #%d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		typ  NodeType
		desc string
		want float64
	}{
		{NodeItem, "", ItemHeight},
		{NodeItem, "described", ItemHeight},
		{NodeCategory, "described", DescribedHeight},
		{NodeEcosystem, "", DefaultHeight},
		{NodeReferenceDown, "", DefaultHeight},
	}
	for _, tt := range tests {
		w, h := Size(tt.typ, tt.desc)
		if w != NodeWidth || h != tt.want {
			t.Errorf("Size(%s, %q) = %v,%v, want %v,%v", tt.typ, tt.desc, w, h, NodeWidth, tt.want)
		}
	}
}

func TestCategoryIcon(t *testing.T) {
	tests := map[string]string{
		"Productivity Suite": "Zap",
		"Source Code":        "Code",
		"Message Queues":     "MessageSquare",
		"UI Kits":            "Palette",
		"Task Trackers":      "CheckSquare",
		"Notes":              "FileText",
		"Version Control":    "Git",
		"Video":              "Video",
		"Image Editing":      "Image",
		"Misc":               "Folder",
	}
	for name, want := range tests {
		if got := CategoryIcon(name); got != want {
			t.Errorf("CategoryIcon(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestExpansionStyle(t *testing.T) {
	tests := []struct {
		level   int
		width   float64
		opacity float64
	}{
		{1, 2, 1},
		{2, 1.8, 0.95},
		{6, 1, 0.75},
		{20, 1, 0.7},
	}
	for _, tt := range tests {
		s := expansionStyle(tt.level)
		if math.Abs(s.Width-tt.width) > 1e-9 || math.Abs(s.Opacity-tt.opacity) > 1e-9 {
			t.Errorf("expansionStyle(%d) = width %v opacity %v, want %v %v", tt.level, s.Width, s.Opacity, tt.width, tt.opacity)
		}
		if !s.Dashed() {
			t.Errorf("expansionStyle(%d) not dashed", tt.level)
		}
	}
}

func TestCategoryStyle(t *testing.T) {
	if w := categoryStyle(0).Width; w != 2 {
		t.Errorf("top-level width = %v, want 2", w)
	}
	if w := categoryStyle(3).Width; w != 1.5 {
		t.Errorf("nested width = %v, want 1.5", w)
	}
}

func TestRefreshEdges(t *testing.T) {
	in := []Edge{
		{ID: "a", Source: "x", Target: "y", ZIndex: 5},
		{ID: "b", Source: "y", Target: "z", Type: "smoothstep", Style: EdgeStyle{Stroke: "red", Width: 1.5}, Marker: "none"},
	}
	out := RefreshEdges(in)

	if out[0].Type != DefaultEdgeType || out[0].Style.Stroke != DefaultStroke || out[0].Style.Width != DefaultEdgeWidth {
		t.Errorf("defaults not applied: %+v", out[0])
	}
	if out[0].ZIndex != 0 || out[0].Marker != MarkerArrowClosed {
		t.Errorf("z-index/marker = %d/%q", out[0].ZIndex, out[0].Marker)
	}
	if out[1].Type != "smoothstep" || out[1].Style.Stroke != "red" || out[1].Style.Width != 1.5 || out[1].Marker != "none" {
		t.Errorf("existing values overwritten: %+v", out[1])
	}
	if out[0].Source != "x" || out[0].Target != "y" {
		t.Errorf("endpoints changed: %+v", out[0])
	}
	if in[0].Type != "" {
		t.Error("RefreshEdges modified its input")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		opts    Options
		wantErr bool
	}{
		{Options{}, false},
		{Options{MaxDepth: 5, Width: 800}, false},
		{Options{MaxDepth: -1}, true},
		{Options{MaxDepth: MaxAllowedDepth + 1}, true},
		{Options{Width: -10}, true},
	}
	for _, tt := range tests {
		if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.opts, err, tt.wantErr)
		}
	}

	o := Options{MaxDepth: 100}
	o.SetDefaults()
	if o.MaxDepth != MaxAllowedDepth || o.Width != DefaultWidth || o.Logger == nil {
		t.Errorf("SetDefaults() = %+v", o)
	}
}
