package browse

import (
	"metaextractor/internal/model"
)

// Navigator holds the cursor and expansion state over one snapshot
type Navigator struct {
	roots  []*Node
	cursor int
}

// Line is one visible row of the tree
type Line struct {
	Depth    int
	Node     *Node
	Selected bool
}

// NewNavigator creates a navigator with every node collapsed
func NewNavigator(results []model.ExtractionResult) *Navigator {
	return &Navigator{roots: buildTree(results)}
}

// Visible returns the rows currently shown, in display order
func (n *Navigator) Visible() []Line {
	var lines []Line
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, node := range nodes {
			lines = append(lines, Line{Depth: depth, Node: node, Selected: len(lines) == n.cursor})
			if node.expanded {
				walk(node.Children, depth+1)
			}
		}
	}
	walk(n.roots, 0)
	return lines
}

// Selected returns the node under the cursor, or nil for an empty snapshot
func (n *Navigator) Selected() *Node {
	lines := n.Visible()
	if n.cursor >= len(lines) {
		return nil
	}
	return lines[n.cursor].Node
}

// Down moves the cursor to the next visible row
func (n *Navigator) Down() {
	if n.cursor < len(n.Visible())-1 {
		n.cursor++
	}
}

// Up moves the cursor to the previous visible row
func (n *Navigator) Up() {
	if n.cursor > 0 {
		n.cursor--
	}
}

// Toggle expands or collapses the selected node
func (n *Navigator) Toggle() {
	node := n.Selected()
	if node == nil {
		return
	}
	if node.expanded {
		n.Collapse()
	} else {
		n.Expand()
	}
}

// Expand shows the selected node's children
func (n *Navigator) Expand() {
	if node := n.Selected(); node != nil && node.Expandable() {
		node.expanded = true
	}
}

// Collapse hides the selected node's children. On a collapsed node or a
// leaf the cursor moves to the parent instead.
func (n *Navigator) Collapse() {
	node := n.Selected()
	if node == nil {
		return
	}
	if node.expanded {
		node.expanded = false
		return
	}
	if node.parent != nil {
		n.moveTo(node.parent)
	}
}

func (n *Navigator) moveTo(target *Node) {
	for i, line := range n.Visible() {
		if line.Node == target {
			n.cursor = i
			return
		}
	}
}
