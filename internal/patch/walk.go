package patch

// RenderItem is one line of a flattened tree view.
type RenderItem struct {
	Node  *TreeNode
	Depth int
	// Last is true when Node is the final sibling in its children list.
	Last bool
	// Guides has one entry per ancestor level; true means that ancestor has
	// later siblings, so a vertical guide continues through this line.
	Guides []bool
}

// Flatten walks the forest depth-first and returns the visible lines in display
// order. Descendants of folders for which collapsed returns true are omitted;
// a nil collapsed expands everything.
func Flatten(roots []*TreeNode, collapsed func(path string) bool) []RenderItem {
	type frame struct {
		nodes  []*TreeNode
		idx    int
		guides []bool
	}

	var items []RenderItem
	stack := []frame{{nodes: roots}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.idx >= len(top.nodes) {
			stack = stack[:len(stack)-1]
			continue
		}

		node := top.nodes[top.idx]
		top.idx++
		last := top.idx == len(top.nodes)
		guides := top.guides

		items = append(items, RenderItem{
			Node:   node,
			Depth:  len(guides),
			Last:   last,
			Guides: guides,
		})

		if !node.IsFolder || len(node.Children) == 0 {
			continue
		}
		if collapsed != nil && collapsed(node.Path) {
			continue
		}

		childGuides := make([]bool, len(guides)+1)
		copy(childGuides, guides)
		childGuides[len(guides)] = !last
		stack = append(stack, frame{nodes: node.Children, guides: childGuides})
	}

	return items
}

// CollapsedSet adapts a list of folder paths to Flatten's collapsed callback.
func CollapsedSet(paths ...string) func(string) bool {
	if len(paths) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(path string) bool {
		_, ok := set[path]
		return ok
	}
}
