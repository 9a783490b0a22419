package group

import (
	"fmt"
	"reflect"
	"testing"
)

func TestEngine_NewPair(t *testing.T) {
	e := NewEngine()
	e.AddMatch("b.jpg", "a.jpg")

	groups := e.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if !reflect.DeepEqual(groups[0], []string{"a.jpg", "b.jpg"}) {
		t.Errorf("group = %v, want sorted [a.jpg b.jpg]", groups[0])
	}
}

func TestEngine_SelfMatchIgnored(t *testing.T) {
	e := NewEngine()
	e.AddMatch("a.jpg", "a.jpg")
	if len(e.Groups()) != 0 {
		t.Errorf("self match created a group: %v", e.Groups())
	}
}

func TestEngine_ExtendExistingGroup(t *testing.T) {
	e := NewEngine()
	e.AddMatch("a.jpg", "b.jpg")
	e.AddMatch("b.jpg", "c.jpg") // one side already grouped
	e.AddMatch("d.jpg", "a.jpg") // other side already grouped

	groups := e.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if !reflect.DeepEqual(groups[0], []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}) {
		t.Errorf("group = %v", groups[0])
	}
}

func TestEngine_SameGroupNoOp(t *testing.T) {
	e := NewEngine()
	e.AddMatch("a.jpg", "b.jpg")
	e.AddMatch("a.jpg", "b.jpg")
	e.AddMatch("b.jpg", "a.jpg")

	groups := e.Groups()
	if len(groups) != 1 || len(groups[0]) != 2 {
		t.Errorf("repeated matches changed grouping: %v", groups)
	}
}

func TestEngine_MergeDistinctGroups(t *testing.T) {
	e := NewEngine()
	e.AddMatch("a.jpg", "b.jpg")
	e.AddMatch("c.jpg", "d.jpg")
	e.AddMatch("e.jpg", "c.jpg") // make {c,d,e} the larger group
	if e.Len() != 2 {
		t.Fatalf("expected 2 groups before merge, got %d", e.Len())
	}

	// Bridge the two groups; the smaller {a,b} is absorbed.
	e.AddMatch("a.jpg", "d.jpg")

	groups := e.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected 1 merged group, got %d", len(groups))
	}
	want := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}
	if !reflect.DeepEqual(groups[0], want) {
		t.Errorf("merged group = %v, want %v", groups[0], want)
	}

	// After a merge, members of the absorbed group must extend the
	// surviving group, not resurrect the old one.
	e.AddMatch("b.jpg", "f.jpg")
	groups = e.Groups()
	if len(groups) != 1 || len(groups[0]) != 6 {
		t.Errorf("post-merge extension failed: %v", groups)
	}
}

func TestEngine_Transitivity(t *testing.T) {
	// A-B and B-C matches must land A, B, C in one group even with no
	// direct A-C match.
	e := NewEngine()
	e.AddMatch("a.jpg", "b.jpg")
	e.AddMatch("b.jpg", "c.jpg")

	groups := e.Groups()
	if len(groups) != 1 || len(groups[0]) != 3 {
		t.Fatalf("expected one group of 3, got %v", groups)
	}
}

func TestEngine_Disjointness(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 30; i++ {
		e.AddMatch(fmt.Sprintf("x%d.jpg", i), fmt.Sprintf("x%d.jpg", (i*7)%30))
	}
	e.AddMatch("y1.jpg", "y2.jpg")

	seen := make(map[string]int)
	for gi, g := range e.Groups() {
		for _, p := range g {
			if prev, dup := seen[p]; dup {
				t.Fatalf("path %s appears in groups %d and %d", p, prev, gi)
			}
			seen[p] = gi
		}
	}
}

func TestEngine_OrderIndependence(t *testing.T) {
	edges := [][2]string{
		{"a", "b"}, {"c", "d"}, {"d", "e"}, {"b", "e"}, {"f", "g"},
	}

	forward := NewEngine()
	for _, e := range edges {
		forward.AddMatch(e[0], e[1])
	}
	backward := NewEngine()
	for i := len(edges) - 1; i >= 0; i-- {
		backward.AddMatch(edges[i][1], edges[i][0])
	}

	if !reflect.DeepEqual(sortGroups(forward.Groups()), sortGroups(backward.Groups())) {
		t.Errorf("grouping depends on edge order:\n%v\n%v",
			forward.Groups(), backward.Groups())
	}
}

func sortGroups(groups [][]string) map[string][]string {
	byFirst := make(map[string][]string)
	for _, g := range groups {
		byFirst[g[0]] = g
	}
	return byFirst
}
