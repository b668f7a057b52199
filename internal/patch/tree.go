package patch

import (
	"sort"
	"strings"
)

// BuildTree groups a flat list of changed files into a nested folder/file forest.
//
// Sibling order follows first occurrence in files. Paths are split on "/" as-is,
// so empty segments from leading, trailing or doubled slashes become nodes named "".
// When the same filename appears twice the later record replaces the earlier one on
// the existing leaf.
func BuildTree(files []FileChange) []*TreeNode {
	root := make([]*TreeNode, 0)

	for i := range files {
		file := &files[i]
		parts := strings.Split(file.Filename, "/")
		last := len(parts) - 1

		children := &root
		currentPath := ""

		for idx, part := range parts {
			path := part
			if currentPath != "" {
				path = currentPath + "/" + part
			}

			isFolder := idx != last
			node := findChild(*children, part, isFolder)
			if node == nil {
				node = &TreeNode{
					Name:     part,
					Path:     path,
					IsFolder: isFolder,
					Children: make([]*TreeNode, 0),
				}
				*children = append(*children, node)
			}

			if !isFolder {
				node.File = file
				node.Status = file.Status
				break
			}

			children = &node.Children
			currentPath = path
		}
	}

	return root
}

// findChild returns the node in nodes matching (name, isFolder), or nil.
func findChild(nodes []*TreeNode, name string, isFolder bool) *TreeNode {
	for _, n := range nodes {
		if n.Name == name && n.IsFolder == isFolder {
			return n
		}
	}
	return nil
}

// SortTree orders every level in place: folders first, then case-insensitive by name.
// BuildTree never sorts; this is a display option.
func SortTree(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].IsFolder != nodes[j].IsFolder {
			return nodes[i].IsFolder
		}
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})

	for _, node := range nodes {
		if node.IsFolder && len(node.Children) > 0 {
			SortTree(node.Children)
		}
	}
}

// Find returns the first node with the given cumulative path in depth-first order.
func Find(nodes []*TreeNode, path string) *TreeNode {
	for _, n := range nodes {
		if n.Path == path {
			return n
		}
		if found := Find(n.Children, path); found != nil {
			return found
		}
	}
	return nil
}

// TotalStats calculates total additions and deletions for a node.
// For folders, this sums all descendant files.
func (node *TreeNode) TotalStats() (additions, deletions int) {
	if !node.IsFolder {
		if node.File != nil {
			return node.File.Additions, node.File.Deletions
		}
		return 0, 0
	}

	for _, child := range node.Children {
		a, d := child.TotalStats()
		additions += a
		deletions += d
	}
	return additions, deletions
}

// FileCount returns the number of files under this node.
func (node *TreeNode) FileCount() int {
	if !node.IsFolder {
		return 1
	}

	count := 0
	for _, child := range node.Children {
		count += child.FileCount()
	}
	return count
}

// CollectFiles returns all FileChanges under this node in tree order.
func (node *TreeNode) CollectFiles() []*FileChange {
	if !node.IsFolder {
		if node.File != nil {
			return []*FileChange{node.File}
		}
		return nil
	}

	var files []*FileChange
	for _, child := range node.Children {
		files = append(files, child.CollectFiles()...)
	}
	return files
}
