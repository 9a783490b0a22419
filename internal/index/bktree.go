// Package index provides a BK-tree over 64-bit perceptual hashes for
// radius queries under Hamming distance. Hamming distance satisfies the
// triangle inequality, which the search pruning relies on.
package index

import "photodedup/internal/hash"

// Match is one radius-query result.
type Match struct {
	Hash uint64
	Dist int
}

// BKTree supports "all hashes within distance <= threshold" queries in
// sub-linear average time versus a full pairwise scan. Insertion order
// affects tree shape, not query results.
type BKTree struct {
	root *node
	size int
}

type node struct {
	hash     uint64
	children map[int]*node // distance -> child
}

// New creates an empty BK-tree.
func New() *BKTree {
	return &BKTree{}
}

// Insert adds a hash to the tree. Duplicate values may be inserted but
// callers normally collapse exact duplicates first.
func (t *BKTree) Insert(h uint64) {
	t.size++
	n := &node{hash: h, children: make(map[int]*node)}
	if t.root == nil {
		t.root = n
		return
	}

	current := t.root
	for {
		d := hash.HammingDistance(h, current.hash)
		if child, ok := current.children[d]; ok {
			current = child
		} else {
			current.children[d] = n
			return
		}
	}
}

// Find returns all stored hashes within the given distance of h,
// threshold inclusive.
func (t *BKTree) Find(h uint64, threshold int) []Match {
	if t.root == nil {
		return nil
	}
	var results []Match
	search(t.root, h, threshold, &results)
	return results
}

func search(n *node, h uint64, threshold int, results *[]Match) {
	d := hash.HammingDistance(h, n.hash)
	if d <= threshold {
		*results = append(*results, Match{Hash: n.hash, Dist: d})
	}

	// Triangle inequality: only children with edge distance in
	// [d-threshold, d+threshold] can contain matches.
	min := d - threshold
	if min < 0 {
		min = 0
	}
	max := d + threshold
	for edge, child := range n.children {
		if edge >= min && edge <= max {
			search(child, h, threshold, results)
		}
	}
}

// Size returns the number of inserted hashes.
func (t *BKTree) Size() int {
	return t.size
}
