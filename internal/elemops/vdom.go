package elemops

// Node is the concrete, in-memory Element implementation this module
// builds and tests trees with, standing in for the real vdom the lexer,
// parser, and DOM library (external collaborators per spec.md §1) would
// hand the executor.
type Node struct {
	tag      string
	attrs    AttrSet
	children []Element
}

// NewNode creates a Node with the given tag and attributes. Children are
// attached afterward via AddChild, since they're typically built
// bottom-up in tests.
func NewNode(tag string, attrs AttrSet) *Node {
	if attrs == nil {
		attrs = AttrSet{}
	}
	return &Node{tag: tag, attrs: attrs}
}

// AddChild appends child to this node's children and returns the node,
// for chained tree construction.
func (n *Node) AddChild(child Element) *Node {
	n.children = append(n.children, child)
	return n
}

func (n *Node) Tag() string         { return n.tag }
func (n *Node) Attrs() AttrSet      { return n.attrs }
func (n *Node) Children() []Element { return n.children }

// AnchorID reports "#<id>" when this node has an "id" attribute, matching
// the frame-anchor contract coroutine.Stack.Unwind and
// coroutine.Frame.AnchorSymbol expect from a frame's element. Nodes
// without an id attribute report "", never matching a back-anchor.
func (n *Node) AnchorID() string {
	id, ok := n.attrs["id"]
	if !ok || id == "" {
		return ""
	}
	return "#" + id
}
