package configtree

import (
	"sort"
	"strings"
)

// Dict is the normalized in-memory representation of one configuration
// subtree for a single commit. Keys are dash/underscore-mangled node names;
// values are nested Dicts, string slices, or scalar strings. Handlers may
// inject synthetic keys (deleted, vrf, interface_removed) that never exist
// in the underlying tree and only carry derived facts between stages.
type Dict map[string]any

// Synthetic keys injected by the retrieval stage.
const (
	KeyDeleted = "deleted"
	KeyVRF     = "vrf"
)

// GetDict converts the subtree at the given path into a Dict.
//
// A node whose children are all leaves is treated as a value node: one leaf
// child becomes a scalar string, several become a string slice. Everything
// else becomes a nested Dict. Returns an empty (non-nil) Dict when the path
// does not exist.
func (n *Node) GetDict(path ...string) Dict {
	node := n.Get(path...)
	if node == nil {
		return Dict{}
	}
	d, ok := nodeValue(node).(Dict)
	if !ok {
		return Dict{}
	}
	return d
}

func nodeValue(n *Node) any {
	if n.IsLeaf() {
		return Dict{}
	}

	allLeaves := true
	for _, child := range n.children {
		if !child.IsLeaf() {
			allLeaves = false
			break
		}
	}
	if allLeaves {
		names := n.ChildNames()
		if len(names) == 1 {
			return names[0]
		}
		return names
	}

	d := make(Dict, len(n.children))
	for name, child := range n.children {
		d[MangleKey(name)] = nodeValue(child)
	}
	return d
}

// Has reports whether the key is present.
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Sub returns the nested Dict under key, or nil when absent or scalar.
func (d Dict) Sub(key string) Dict {
	sub, _ := d[key].(Dict)
	return sub
}

// Child returns the nested Dict stored at d[key][name], or nil. Tag nodes
// (interface, peer) keep their per-child options this way.
func (d Dict) Child(key, name string) Dict {
	sub := d.Sub(key)
	if sub == nil {
		return nil
	}
	c, _ := sub[name].(Dict)
	return c
}

// Strings normalizes the value under key into a string slice. Scalar values
// yield a single-element slice, nested Dicts yield their sorted keys. This
// is how handlers enumerate tag-node children (interfaces, peers) without
// caring whether the node carries per-child options.
func (d Dict) Strings(key string) []string {
	return valueStrings(d[key])
}

func valueStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case Dict:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	default:
		return nil
	}
}

// String returns the scalar string under key, or "" when absent or nested.
func (d Dict) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Search resolves a dotted path (segment_routing.global_block.low_label_value)
// against nested Dicts, returning nil when any segment is missing.
func (d Dict) Search(dotted string) any {
	var cur any = d
	for _, seg := range strings.Split(dotted, ".") {
		m, ok := cur.(Dict)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// SearchString resolves a dotted path to a scalar string, or "".
func (d Dict) SearchString(dotted string) string {
	s, _ := d.Search(dotted).(string)
	return s
}
