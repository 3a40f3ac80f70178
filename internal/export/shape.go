package export

import "fmt"

// ShapeKind names how an export document's top level was resolved.
type ShapeKind int

const (
	ShapeUnrecognized ShapeKind = iota
	ShapeList                   // already a list of entries
	ShapeSingleEntry            // one entry object, wrapped as a list of one
	ShapeWrappedList            // object whose longest list field holds the entries
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeList:
		return "list"
	case ShapeSingleEntry:
		return "single-entry"
	case ShapeWrappedList:
		return "wrapped-list"
	}
	return "unrecognized"
}

// entryMarkers are keys that identify an object as a single insights entry.
var entryMarkers = []string{"string_map_data", "media_map_data"}

// Shape is the resolved top level of an export document.
type Shape struct {
	Kind    ShapeKind
	Key     string // list field chosen for ShapeWrappedList
	Entries []*Node
}

// Classify resolves root into a list of entries. Rules apply in order: a
// list is used as is; an object carrying an entry marker key becomes a
// one-element list; an object with list-valued fields yields its longest
// list (the first one on ties); anything else is unrecognized.
func Classify(root *Node) Shape {
	switch {
	case root.IsArray():
		return Shape{Kind: ShapeList, Entries: root.Items}
	case root.IsObject():
		for _, m := range entryMarkers {
			if root.Get(m) != nil {
				return Shape{Kind: ShapeSingleEntry, Entries: []*Node{root}}
			}
		}
		best := -1
		for i, f := range root.Fields {
			if !f.Value.IsArray() {
				continue
			}
			if best < 0 || len(f.Value.Items) > len(root.Fields[best].Value.Items) {
				best = i
			}
		}
		if best >= 0 {
			f := root.Fields[best]
			return Shape{Kind: ShapeWrappedList, Key: f.Key, Entries: f.Value.Items}
		}
	}
	return Shape{Kind: ShapeUnrecognized}
}

// Entries is Classify(root).Entries.
func Entries(root *Node) []*Node {
	return Classify(root).Entries
}

// Describe summarizes a root node for log lines: its keys for objects, its
// type name otherwise.
func Describe(root *Node) string {
	if root.IsObject() {
		return fmt.Sprintf("top-level keys: %v", root.Keys())
	}
	if root == nil {
		return "null"
	}
	return root.Kind.String()
}
