// Package group clusters pairwise matches into disjoint duplicate
// groups. Matches are consumed incrementally; transitive connectivity
// falls out of merging, so no separate graph traversal is needed.
package group

import "sort"

// Engine incrementally merges match edges into connected components.
// It is not safe for concurrent use; the comparison loop feeds it
// sequentially.
type Engine struct {
	// arena of groups indexed by id; absorbed groups are tombstoned nil.
	groups [][]string
	// pathGroup maps each seen path to its live group id.
	pathGroup map[string]int
	live      int
}

// NewEngine creates an empty clustering engine.
func NewEngine() *Engine {
	return &Engine{pathGroup: make(map[string]int)}
}

// AddMatch records that path1 and path2 are duplicates of each other.
// Groups are merged smaller-into-larger by member count, so total merge
// work stays amortized near-linear.
func (e *Engine) AddMatch(path1, path2 string) {
	if path1 == path2 {
		return
	}
	id1, ok1 := e.pathGroup[path1]
	id2, ok2 := e.pathGroup[path2]

	switch {
	case ok1 && ok2:
		if id1 == id2 {
			return
		}
		if len(e.groups[id1]) < len(e.groups[id2]) {
			id1, id2 = id2, id1
		}
		// Relabel every member of the smaller group to the larger id.
		for _, p := range e.groups[id2] {
			e.pathGroup[p] = id1
		}
		e.groups[id1] = append(e.groups[id1], e.groups[id2]...)
		e.groups[id2] = nil
		e.live--
	case ok1:
		e.groups[id1] = append(e.groups[id1], path2)
		e.pathGroup[path2] = id1
	case ok2:
		e.groups[id2] = append(e.groups[id2], path1)
		e.pathGroup[path1] = id2
	default:
		id := len(e.groups)
		e.groups = append(e.groups, []string{path1, path2})
		e.pathGroup[path1] = id
		e.pathGroup[path2] = id
		e.live++
	}
}

// Groups returns the live groups, each as a sorted slice of member
// paths, for deterministic downstream processing.
func (e *Engine) Groups() [][]string {
	result := make([][]string, 0, e.live)
	for _, g := range e.groups {
		if g == nil {
			continue
		}
		members := append([]string(nil), g...)
		sort.Strings(members)
		result = append(result, members)
	}
	return result
}

// Len returns the number of live groups.
func (e *Engine) Len() int {
	return e.live
}
