package versioning

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/goccy/go-json"
)

// DiffDefinitions computes the structural difference between two workflow
// definitions. Node identity is the node id; edge identity is the ordered
// (source, target) pair, compared as a set. The result is anti-symmetric
// under argument swap: added under (from, to) equals removed under (to, from).
func DiffDefinitions(from, to Definition) DefinitionDiff {
	fromNodes := nodesByID(from.Nodes)
	toNodes := nodesByID(to.Nodes)

	diff := DefinitionDiff{}

	// Iterate the input slices rather than the sets so output order is
	// stable for a given pair of definitions.
	for _, n := range to.Nodes {
		if _, ok := fromNodes[n.ID]; !ok {
			diff.Nodes.Added = append(diff.Nodes.Added, n)
		}
	}
	for _, n := range from.Nodes {
		if _, ok := toNodes[n.ID]; !ok {
			diff.Nodes.Removed = append(diff.Nodes.Removed, n)
		}
	}
	for _, after := range to.Nodes {
		before, ok := fromNodes[after.ID]
		if !ok {
			continue
		}
		if mod := diffNode(before, after); len(mod.Fields) > 0 {
			diff.Nodes.Modified = append(diff.Nodes.Modified, mod)
		}
	}

	fromEdges := edgeSet(from.Edges)
	toEdges := edgeSet(to.Edges)

	seen := mapset.NewThreadUnsafeSet[Edge]()
	for _, e := range to.Edges {
		if !fromEdges.Contains(e) && seen.Add(e) {
			diff.Edges.Added = append(diff.Edges.Added, e)
		}
	}
	seen.Clear()
	for _, e := range from.Edges {
		if !toEdges.Contains(e) && seen.Add(e) {
			diff.Edges.Removed = append(diff.Edges.Removed, e)
		}
	}

	return diff
}

// IsEmpty reports whether the diff contains no changes.
func (d DefinitionDiff) IsEmpty() bool {
	return len(d.Nodes.Added) == 0 && len(d.Nodes.Removed) == 0 && len(d.Nodes.Modified) == 0 &&
		len(d.Edges.Added) == 0 && len(d.Edges.Removed) == 0
}

// diffNode compares the enumerated set of node fields: type, label,
// description, and a key-union pass over properties.
func diffNode(before, after Node) NodeModification {
	mod := NodeModification{ID: after.ID, Type: after.Type}

	if before.Type != after.Type {
		mod.Fields = append(mod.Fields, NodeFieldChange{Field: "type", From: before.Type, To: after.Type})
	}
	if before.Label != after.Label {
		mod.Fields = append(mod.Fields, NodeFieldChange{Field: "label", From: before.Label, To: after.Label})
	}
	if before.Description != after.Description {
		mod.Fields = append(mod.Fields, NodeFieldChange{Field: "description", From: before.Description, To: after.Description})
	}

	keys := mapset.NewThreadUnsafeSet[string]()
	for k := range before.Properties {
		keys.Add(k)
	}
	for k := range after.Properties {
		keys.Add(k)
	}
	sorted := keys.ToSlice()
	sort.Strings(sorted)
	for _, k := range sorted {
		oldVal, hadOld := before.Properties[k]
		newVal, hasNew := after.Properties[k]
		if hadOld && hasNew && jsonEqual(oldVal, newVal) {
			continue
		}
		mod.Fields = append(mod.Fields, NodeFieldChange{
			Field: fmt.Sprintf("properties.%s", k),
			From:  oldVal,
			To:    newVal,
		})
	}

	return mod
}

// jsonEqual compares two opaque property values by canonical JSON
// serialization. Map keys marshal in sorted order, so equal structures
// always produce equal bytes.
func jsonEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

func nodesByID(nodes []Node) map[string]Node {
	m := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}

func edgeSet(edges []Edge) mapset.Set[Edge] {
	s := mapset.NewThreadUnsafeSetWithSize[Edge](len(edges))
	for _, e := range edges {
		s.Add(e)
	}
	return s
}
