package flow_test

import (
	"fmt"

	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/garden"
)

func ExampleBuild() {
	root := &garden.Garden{
		Name:    "Root",
		Version: "1.0.0",
		Items:   []garden.Item{{Name: "Item1", HomepageURL: "http://x"}},
		Categories: []garden.Category{{
			Name:  "Cat1",
			Items: []garden.Item{{Name: "Item2", HomepageURL: "http://y"}},
		}},
	}

	g := flow.Build(root, nil, flow.Options{})

	for _, n := range g.Nodes {
		fmt.Printf("%-10s %s\n", n.Type, n.ID)
	}
	for _, e := range g.Edges {
		fmt.Println(e.Source, "->", e.Target)
	}
	// Output:
	// ecosystem  ecosystem-root
	// item       item-root/direct/item1
	// category   category-root/cat1
	// item       item-root/cat1/item2
	// ecosystem-root -> item-root/direct/item1
	// ecosystem-root -> category-root/cat1
	// category-root/cat1 -> item-root/cat1/item2
}

func ExampleBuild_expand() {
	omni := &garden.Garden{
		Name:       "Omni",
		Version:    "1",
		Subgardens: []garden.Reference{{Name: "Labs"}},
	}
	labs := &garden.Garden{
		Name:       "Labs",
		Version:    "1",
		Subgardens: []garden.Reference{{Name: "Omni"}},
	}
	reg := garden.NewRegistry(omni, labs)

	g := flow.Build(omni, reg, flow.Options{Expand: true, MaxDepth: 2})

	for _, n := range g.Nodes {
		fmt.Printf("%d %s\n", n.Common().Depth, n.ID)
	}
	// Output:
	// 0 ecosystem-omni
	// 1 ecosystem-omni/labs
	// 2 ecosystem-omni/labs/omni
	// 2 reference-down-omni/labs/omni/labs
}

func ExampleTrackConnections() {
	root := &garden.Garden{
		Name:    "Root",
		Version: "1",
		Categories: []garden.Category{{
			Name:  "A",
			Items: []garden.Item{{Name: "B"}},
		}},
	}

	g := flow.TrackConnections(flow.Build(root, nil, flow.Options{}))

	for _, n := range g.Nodes {
		c := n.Common()
		fmt.Printf("%s in=%v out=%v\n", n.ID, c.TargetConnections, c.SourceConnections)
	}
	// Output:
	// ecosystem-root in=[] out=[category-root/a]
	// category-root/a in=[ecosystem-root] out=[item-root/a/b]
	// item-root/a/b in=[category-root/a] out=[]
}

func ExampleCategoryIcon() {
	fmt.Println(flow.CategoryIcon("Developer Productivity"))
	fmt.Println(flow.CategoryIcon("Video Tools"))
	fmt.Println(flow.CategoryIcon("Everything Else"))
	// Output:
	// Zap
	// Video
	// Folder
}
