package chunk

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// walker is a small breadth-first AST traversal utility.
type walker struct{}

// collectNodes returns every node under root whose type is in nodeTypes.
func (w walker) collectNodes(root *sitter.Node, nodeTypes map[string]bool) []*sitter.Node {
	if root == nil {
		return nil
	}

	var nodes []*sitter.Node
	queue := []*sitter.Node{root}
	visited := make(map[uintptr]struct{})

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		id := current.ID()
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		if nodeTypes[current.Type()] {
			nodes = append(nodes, current)
		}

		for i := 0; i < int(current.ChildCount()); i++ {
			if child := current.Child(i); child != nil {
				queue = append(queue, child)
			}
		}
	}
	return nodes
}

func nodeText(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(start) >= len(src) || int(end) > len(src) || start >= end {
		return ""
	}
	return string(src[start:end])
}

// enclosingDefinition walks up from node looking for the nearest ancestor
// whose type is a class/type definition, returning it (or nil).
func (w walker) enclosingDefinition(node *sitter.Node, def definition) *sitter.Node {
	if node == nil {
		return nil
	}
	for p := node.Parent(); p != nil; p = p.Parent() {
		if def.isClassNode(p.Type()) {
			return p
		}
	}
	return nil
}
