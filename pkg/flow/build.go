package flow

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardenflow/pkg/garden"
)

// Initial placement offsets in pixels. These positions are only seen when
// layout fails; a successful layout replaces them.
const (
	itemOffsetY        = 150.0
	itemSpacingY       = 80.0
	categoryOffsetY    = 200.0
	categoryLevelY     = 200.0
	categorySpacingY   = 150.0
	categorySpreadX    = 300.0
	nestedCategoryX    = 150.0
	categoryItemY      = 100.0
	referenceOffsetY   = 200.0
	referenceOffsetX   = 400.0
	referenceSpacingX  = 150.0
	gardenRefOffsetX   = 250.0
	expandedOffsetY    = 200.0
	expandedMaxSpacing = 600.0
)

// Build compiles root into a diagram, resolving references against reg.
//
// Build never fails. Entries without a name are skipped, and references that
// cannot be resolved, would exceed opts.MaxDepth or arrive after
// [NodeBudget] nodes have been emitted are drawn as condensed reference
// nodes. Sibling order follows the input; duplicates stay distinct.
// Neither root nor reg is modified. A nil or unnamed root yields an empty
// graph. reg may be nil, in which case no reference resolves.
func Build(root *garden.Garden, reg garden.Registry, opts Options) Graph {
	opts.SetDefaults()
	b := &builder{
		reg:   reg,
		opts:  opts,
		log:   opts.Logger,
		ids:   newIDSet(),
		index: make(map[string]int),
		nodes: []Node{},
		edges: []Edge{},
	}
	if root == nil || root.Name == "" {
		b.log.Debug("nothing to build: root garden has no name")
		return Graph{Nodes: b.nodes, Edges: b.edges}
	}
	b.ecosystem(root, nil, Position{X: opts.Width / 2, Y: 0})
	return Graph{Nodes: b.nodes, Edges: b.edges}
}

type builder struct {
	reg   garden.Registry
	opts  Options
	log   *log.Logger
	ids   *idSet
	index map[string]int
	nodes []Node
	edges []Edge
}

// frame is the placement context children attach to.
type frame struct {
	id    string
	qual  string
	pos   Position
	theme *garden.Theme
	depth int
}

func (b *builder) lookup(name string) (*garden.Garden, bool) {
	if b.reg == nil {
		return nil, false
	}
	g, ok := b.reg.Lookup(name)
	return g, ok && g != nil
}

// ecosystem emits g and everything beneath it. parent is nil for the root
// and the attaching frame for gardens spliced in by expansion.
func (b *builder) ecosystem(g *garden.Garden, parent *frame, pos Position) {
	self := &frame{qual: g.Name, pos: pos, theme: g.Theme}
	if parent != nil {
		self.depth = parent.depth + 1
		self.qual = qualify(parent.qual, g.Name)
		if self.theme == nil {
			self.theme = parent.theme
		}
	}
	self.id = b.ids.next(NodeEcosystem, self.qual)

	icon := g.Icon
	if icon == "" {
		icon = IconEcosystem
	}
	data := &EcosystemData{
		Common: Common{
			Label:       g.Name,
			Description: g.Description,
			Theme:       self.theme,
			Icon:        icon,
			Depth:       self.depth,
		},
		Garden:   g.Name,
		Version:  g.Version,
		Expanded: parent != nil,
	}
	if parent != nil {
		data.IconColor = expandedIconColor(self.depth)
	}
	b.addNode(self.id, NodeEcosystem, pos, data, SideBottom, SideTop)
	if parent != nil {
		b.addEdge(parent.id, self.id, EdgeExpansion, expansionStyle(self.depth))
	}

	direct := qualify(self.qual, "direct")
	for i, it := range g.Items {
		b.item(self, it, qualify(direct, it.Name), Position{
			X: pos.X,
			Y: pos.Y + itemOffsetY + float64(i)*itemSpacingY,
		})
	}

	for i, ref := range g.Supergardens {
		if ref.Name == "" {
			b.log.Debug("skipping supergarden without name", "garden", g.Name, "index", i)
			continue
		}
		id := b.reference(self, ref, RelationSupergarden, Position{
			X: pos.X - referenceOffsetX + float64(i)*referenceSpacingX,
			Y: pos.Y - referenceOffsetY,
		})
		b.addEdge(id, self.id, EdgeReference, referenceStyle(RelationSupergarden))
	}

	n := len(g.Subgardens)
	spacing := expandedMaxSpacing
	if n > 0 {
		spacing = math.Min(expandedMaxSpacing, b.opts.Width/float64(n))
	}
	for i, ref := range g.Subgardens {
		b.subgarden(self, self, ref, RelationSubgarden,
			Position{
				X: pos.X - float64(n-1)*spacing/2 + float64(i)*spacing,
				Y: pos.Y + expandedOffsetY,
			},
			Position{
				X: pos.X + referenceOffsetX - float64(i)*referenceSpacingX,
				Y: pos.Y + referenceOffsetY,
			})
	}

	nc := len(g.Categories)
	for i := range g.Categories {
		b.category(self, self, &g.Categories[i], 0, i, Position{
			X: pos.X + (float64(i)-float64(nc-1)/2)*categorySpreadX,
			Y: pos.Y + categoryOffsetY + float64(i)*categorySpacingY,
		})
	}
}

// category emits c under parent. owner is the frame of the garden the
// category belongs to; it supplies theme, depth and the vertical origin.
func (b *builder) category(owner, parent *frame, c *garden.Category, level, index int, pos Position) {
	if c.Name == "" {
		b.log.Debug("skipping category without name", "parent", parent.id, "index", index)
		return
	}
	self := &frame{
		qual:  qualify(parent.qual, c.Name),
		pos:   pos,
		theme: owner.theme,
		depth: owner.depth,
	}
	self.id = b.ids.next(NodeCategory, self.qual)

	data := &CategoryData{
		Common: Common{
			Label:       c.Name,
			Description: c.Description,
			Theme:       owner.theme,
			Icon:        CategoryIcon(c.Name),
			IconColor:   c.IconColor,
			Depth:       owner.depth,
		},
		Level: level,
	}
	b.addNode(self.id, NodeCategory, pos, data, SideBottom, SideTop)
	b.addEdge(parent.id, self.id, EdgeContains, categoryStyle(level))

	for j, it := range c.Items {
		b.item(self, it, qualify(self.qual, it.Name), Position{
			X: pos.X,
			Y: pos.Y + float64(j+1)*categoryItemY,
		})
	}

	for j, ref := range c.GardenRefs {
		at := Position{X: pos.X + gardenRefOffsetX, Y: pos.Y + float64(j+1)*categoryItemY}
		b.subgarden(owner, self, ref, RelationGardenRef, at, at)
	}

	for k := range c.Categories {
		dx := -nestedCategoryX
		if k%2 == 1 {
			dx = nestedCategoryX
		}
		b.category(owner, self, &c.Categories[k], level+1, k, Position{
			X: pos.X + dx,
			Y: owner.pos.Y + categoryOffsetY + float64(level+1)*categoryLevelY + float64(k)*categorySpacingY,
		})
	}
}

// subgarden handles a downward reference attached to at. With expansion on
// and the target resolvable within the depth bound and the node budget, the
// target garden is built in place; otherwise a condensed reference node is
// emitted.
func (b *builder) subgarden(owner, at *frame, ref garden.Reference, rel Relation, expandedPos, condensedPos Position) {
	if ref.Name == "" {
		b.log.Debug("skipping reference without name", "parent", at.id, "relation", rel)
		return
	}
	if b.opts.Expand {
		target, ok := b.lookup(ref.Name)
		switch {
		case !ok:
			b.log.Debug("reference not in registry, keeping it condensed", "garden", ref.Name)
		case owner.depth+1 > b.opts.MaxDepth:
			b.log.Debug("expansion depth reached, keeping reference condensed",
				"garden", ref.Name, "max_depth", b.opts.MaxDepth)
		case len(b.nodes) >= NodeBudget:
			b.log.Debug("node budget reached, keeping reference condensed",
				"garden", ref.Name, "budget", NodeBudget)
		default:
			b.ecosystem(target, at, expandedPos)
			return
		}
	}
	id := b.reference(at, ref, rel, condensedPos)
	b.addEdge(at.id, id, EdgeReference, referenceStyle(rel))
}

// reference emits a condensed reference node and returns its id.
func (b *builder) reference(at *frame, ref garden.Reference, rel Relation, pos Position) string {
	t := NodeReferenceDown
	icon := IconSubgarden
	switch rel {
	case RelationSupergarden:
		t = NodeReferenceUp
		icon = IconSupergarden
	case RelationGardenRef:
		icon = IconGardenRef
	}

	target, resolved := b.lookup(ref.Name)
	data := &ReferenceData{
		Common: Common{
			Label:       ref.Name,
			Description: ref.Description,
			Theme:       at.theme,
			Icon:        icon,
			Depth:       at.depth,
		},
		Garden:   ref.Name,
		Relation: rel,
		URL:      ref.URL,
		Logo:     ref.Logo,
		Version:  ref.Version,
		Resolved: resolved,
	}
	if resolved {
		if target.Theme != nil {
			data.Theme = target.Theme
		}
		if data.Description == "" {
			data.Description = target.Description
		}
		if data.Version == "" {
			data.Version = target.Version
		}
	}
	targetSide := SideTop
	if rel == RelationGardenRef {
		data.IconColor = GardenRefStroke
		data.CTA = &Actions{Primary: CTA{Label: "Visit Garden", URL: ref.URL}}
		targetSide = SideLeft
	}

	id := b.ids.next(t, qualify(at.qual, ref.Name))
	b.addNode(id, t, pos, data, SideBottom, targetSide)
	return id
}

func (b *builder) item(at *frame, it garden.Item, qual string, pos Position) {
	if it.Name == "" {
		b.log.Debug("skipping item without name", "parent", at.id)
		return
	}
	image := it.Logo
	if image == "" {
		image = DefaultItemImage
	}
	actions := &Actions{Primary: CTA{Label: "Visit Website", URL: it.HomepageURL}}
	if it.RepoURL != "" {
		actions.Secondary = &CTA{Label: "View Code", URL: it.RepoURL}
	}
	data := &ItemData{
		Common: Common{
			Label:       it.Name,
			Description: it.Description,
			Theme:       at.theme,
			Depth:       at.depth,
		},
		HomepageURL: it.HomepageURL,
		RepoURL:     it.RepoURL,
		ProjectURL:  it.ProjectURL,
		Twitter:     it.Twitter,
		Logo:        it.Logo,
		Image:       image,
		CTA:         actions,
	}
	id := b.ids.next(NodeItem, qual)
	b.addNode(id, NodeItem, pos, data, "", SideTop)
	b.addEdge(at.id, id, EdgeContains, itemStyle())
}

func (b *builder) addNode(id string, t NodeType, pos Position, data Payload, source, target Side) {
	w, h := Size(t, data.common().Description)
	b.index[id] = len(b.nodes)
	b.nodes = append(b.nodes, Node{
		ID:           id,
		Type:         t,
		Position:     pos,
		Width:        w,
		Height:       h,
		SourceHandle: source,
		TargetHandle: target,
		Data:         data,
	})
}

func (b *builder) addEdge(source, target string, kind EdgeKind, style EdgeStyle) {
	sourceSide, targetSide := SideBottom, SideTop
	if i, ok := b.index[target]; ok && b.nodes[i].TargetHandle != "" {
		targetSide = b.nodes[i].TargetHandle
	}
	b.edges = append(b.edges, Edge{
		ID:           EdgeID(source, target),
		Source:       source,
		Target:       target,
		SourceHandle: sourceSide,
		TargetHandle: targetSide,
		Kind:         kind,
		Type:         b.opts.EdgeType,
		Animated:     !b.opts.StaticEdges,
		Style:        style,
		Marker:       MarkerArrowClosed,
	})
}
