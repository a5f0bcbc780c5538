package domsink

import "testing"

func TestQuerySelectMatchesTagAndClasses(t *testing.T) {
	m := NewMemory()
	a := m.AddNode("div", "item", "featured")
	b := m.AddNode("div", "item")
	_ = m.AddNode("span", "item")
	m.SetAttr(a, "class", "item featured")
	m.SetAttr(b, "class", "item")

	matches := m.QuerySelect("div.item")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for div.item, got %d", len(matches))
	}
}

func TestRemoveAttrReportsWhetherAttrWasPresent(t *testing.T) {
	m := NewMemory()
	n := m.AddNode("div", "item")
	m.SetAttr(n, "class", "item")

	if !m.RemoveAttr(n, "class") {
		t.Fatalf("expected RemoveAttr to report removal")
	}
	if m.RemoveAttr(n, "class") {
		t.Fatalf("expected second RemoveAttr to report nothing left to remove")
	}
}

func TestRemoveNodeExcludesFromFutureQueries(t *testing.T) {
	m := NewMemory()
	n := m.AddNode("div", "item")
	m.SetAttr(n, "class", "item")

	if !m.RemoveNode(n) {
		t.Fatalf("expected RemoveNode to report removal")
	}
	if len(m.QuerySelect("div.item")) != 0 {
		t.Fatalf("expected removed node to be excluded from query results")
	}
}
