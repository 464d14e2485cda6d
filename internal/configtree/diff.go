package configtree

import "sort"

// NodeChanged compares the children of the same path in two tree snapshots
// and returns the child names present in the previous snapshot but absent
// from the candidate one. This is how handlers learn which interfaces or
// peers were removed by the commit being processed; no history is kept
// anywhere, the diff is recomputed from the two snapshots each time.
func NodeChanged(previous, candidate *Node, path ...string) []string {
	if previous == nil {
		return nil
	}
	prev := previous.Get(path...)
	if prev == nil {
		return nil
	}

	var cur *Node
	if candidate != nil {
		cur = candidate.Get(path...)
	}

	var removed []string
	for _, name := range prev.ChildNames() {
		if cur == nil || !cur.Exists(name) {
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	return removed
}
