package flow

// TrackConnections annotates every node with the ids it has edges to
// (SourceConnections) and from (TargetConnections), in edge order.
//
// The lists are derived from g.Edges alone, never from earlier annotations,
// so running it again yields the same result. The returned graph holds
// copies of all payloads; g is not modified. Edges whose endpoints are not
// in the graph are ignored.
func TrackConnections(g Graph) Graph {
	out := g.Clone()

	index := make(map[string]*Common, len(out.Nodes))
	for i := range out.Nodes {
		c := out.Nodes[i].Common()
		if out.Nodes[i].Data == nil {
			continue
		}
		c.SourceConnections = []string{}
		c.TargetConnections = []string{}
		index[out.Nodes[i].ID] = c
	}

	for _, e := range out.Edges {
		src, okSrc := index[e.Source]
		dst, okDst := index[e.Target]
		if !okSrc || !okDst {
			continue
		}
		src.SourceConnections = append(src.SourceConnections, e.Target)
		dst.TargetConnections = append(dst.TargetConnections, e.Source)
	}
	return out
}
