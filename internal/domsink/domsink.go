// Package domsink defines the boundary contract between the execution
// core and the DOM/HTML element tree library spec.md §1 treats as an
// external collaborator: the core never walks or mutates a real element
// tree directly, it only emits selector-addressed mutations through a
// Sink.
package domsink

// Node is an opaque handle into whatever concrete element tree a Sink
// implementation is backed by. The execution core never inspects a Node
// itself, only passes it back to the Sink that produced it.
type Node = any

// Sink is implemented by whatever owns the live element tree (normally
// the renderer-facing layer that also emits pcrdr operations). QuerySelect
// resolves a CSS selector to the set of matching nodes; RemoveAttr and
// RemoveNode perform the two erase-on-string forms spec.md §4.E
// describes, each reporting whether it actually removed something so
// callers can total up erase's return count.
type Sink interface {
	QuerySelect(selector string) []Node
	RemoveAttr(n Node, name string) bool
	RemoveNode(n Node) bool
}

// Memory is a simple in-memory Sink used by tests and by any caller that
// has no live renderer connection yet. Nodes are identified by an opaque
// integer handle; selectors are matched against a flat tag.class list
// rather than a real CSS engine, which is sufficient for the erase
// scenarios this module exercises and keeps a CSS selector library out of
// scope, per §1's explicit exclusion of "CSS/XPath selector engines".
type Memory struct {
	nodes []*memNode
}

type memNode struct {
	tag     string
	classes map[string]bool
	attrs   map[string]string
	removed bool
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// AddNode registers a node with the given tag and classes (one class per
// argument), returning its handle for attribute setup.
func (m *Memory) AddNode(tag string, classes ...string) Node {
	n := &memNode{tag: tag, classes: make(map[string]bool), attrs: make(map[string]string)}
	for _, c := range classes {
		n.classes[c] = true
	}
	m.nodes = append(m.nodes, n)
	return len(m.nodes) - 1
}

// SetAttr sets an attribute on a node added via AddNode.
func (m *Memory) SetAttr(n Node, name, value string) {
	m.nodes[n.(int)].attrs[name] = value
}

// Attr reports a node's current attribute value, for test assertions.
func (m *Memory) Attr(n Node, name string) (string, bool) {
	v, ok := m.nodes[n.(int)].attrs[name]
	return v, ok
}

// parseSimpleSelector splits a "tag.class1.class2" selector into its tag
// (possibly empty, meaning any tag) and required classes.
func parseSimpleSelector(selector string) (tag string, classes []string) {
	parts := []rune(selector)
	var cur []rune
	flush := func() {
		if len(cur) == 0 {
			return
		}
		if tag == "" && len(classes) == 0 && cur[0] != '.' {
			tag = string(cur)
		} else {
			classes = append(classes, string(cur))
		}
		cur = nil
	}
	for _, r := range parts {
		if r == '.' {
			flush()
			cur = append(cur, '.')
			continue
		}
		cur = append(cur, r)
	}
	flush()
	for i, c := range classes {
		classes[i] = string([]rune(c)[1:])
	}
	return tag, classes
}

// QuerySelect matches nodes whose tag (if the selector names one) and
// every listed class are present, skipping already-removed nodes.
func (m *Memory) QuerySelect(selector string) []Node {
	tag, classes := parseSimpleSelector(selector)
	var out []Node
	for i, n := range m.nodes {
		if n.removed {
			continue
		}
		if tag != "" && n.tag != tag {
			continue
		}
		matched := true
		for _, c := range classes {
			if !n.classes[c] {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, i)
		}
	}
	return out
}

// RemoveAttr deletes name from n's attribute set, reporting whether it was
// present.
func (m *Memory) RemoveAttr(n Node, name string) bool {
	node := m.nodes[n.(int)]
	if _, ok := node.attrs[name]; !ok {
		return false
	}
	delete(node.attrs, name)
	return true
}

// RemoveNode marks n removed, excluding it from future QuerySelect calls.
func (m *Memory) RemoveNode(n Node) bool {
	node := m.nodes[n.(int)]
	if node.removed {
		return false
	}
	node.removed = true
	return true
}
