package doctree

// DocTree is the section outline of a processed document.
type DocTree struct {
	Title    string     `json:"title"`    // Document title (from <title> or filename)
	Children []*DocNode `json:"sections"` // Top-level sections
}

// DocNode is a recursive section in the outline.
type DocNode struct {
	Title    string     `json:"title"`              // Heading text
	Level    int        `json:"level"`              // Heading depth, 1 = shallowest
	Page     int        `json:"page,omitempty"`     // Source page (0 if unknown)
	Children []*DocNode `json:"children,omitempty"` // Subsections
}

// Count returns the number of nodes in the tree.
func (t *DocTree) Count() int {
	var walk func([]*DocNode) int
	walk = func(nodes []*DocNode) int {
		n := 0
		for _, c := range nodes {
			n += 1 + walk(c.Children)
		}
		return n
	}
	return walk(t.Children)
}

// Flatten returns nodes in pre-order.
func (t *DocTree) Flatten() []*DocNode {
	var out []*DocNode
	var walk func([]*DocNode)
	walk = func(nodes []*DocNode) {
		for _, c := range nodes {
			out = append(out, c)
			walk(c.Children)
		}
	}
	walk(t.Children)
	return out
}
