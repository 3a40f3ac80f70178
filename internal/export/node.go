// Package export reads social-media export files: it decodes JSON (plain,
// gzip or zstd) into an insertion-ordered node tree, tolerates one class of
// syntax error, and resolves the loose top-level shapes exports arrive in.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-faster/jx"
)

// Kind is the JSON type of a Node.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "list"
	case Object:
		return "dict"
	}
	return "null"
}

// Node is one decoded JSON value. Object fields keep the order in which
// they appeared in the source document.
type Node struct {
	Kind   Kind
	Bool   bool
	Float  float64
	Int    int64
	IsInt  bool
	Str    string
	Items  []*Node
	Fields []Field

	raw string // number text as written
}

// Field is one key of an object node.
type Field struct {
	Key   string
	Value *Node
}

// Get returns the value stored under key, or nil when n is not an object
// or has no such key.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != Object {
		return nil
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// Lookup follows a chain of object keys. It returns nil as soon as a step
// is missing or not an object.
func (n *Node) Lookup(path ...string) *Node {
	cur := n
	for _, k := range path {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Keys returns the object's keys in document order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != Object {
		return nil
	}
	keys := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		keys[i] = f.Key
	}
	return keys
}

func (n *Node) IsObject() bool { return n != nil && n.Kind == Object }
func (n *Node) IsArray() bool  { return n != nil && n.Kind == Array }

// set assigns key. A repeated key keeps its first position and takes the
// later value, matching how dict-based decoders resolve duplicates.
func (n *Node) set(key string, v *Node) {
	for i := range n.Fields {
		if n.Fields[i].Key == key {
			n.Fields[i].Value = v
			return
		}
	}
	n.Fields = append(n.Fields, Field{Key: key, Value: v})
}

// Parse decodes a complete JSON document. Trailing non-whitespace data is
// an error.
func Parse(data []byte) (*Node, error) {
	d := jx.DecodeBytes(data)
	n, err := decodeNode(d)
	if err != nil {
		return nil, err
	}
	if err := d.Skip(); !errors.Is(err, io.EOF) {
		return nil, errors.New("extra data after top-level value")
	}
	return n, nil
}

func decodeNode(d *jx.Decoder) (*Node, error) {
	switch t := d.Next(); t {
	case jx.Object:
		n := &Node{Kind: Object}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			child, err := decodeNode(d)
			if err != nil {
				return err
			}
			n.set(key, child)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return n, nil
	case jx.Array:
		n := &Node{Kind: Array}
		err := d.Arr(func(d *jx.Decoder) error {
			child, err := decodeNode(d)
			if err != nil {
				return err
			}
			n.Items = append(n.Items, child)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return n, nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: String, Str: s}, nil
	case jx.Number:
		num, err := d.Num()
		if err != nil {
			return nil, err
		}
		n := &Node{Kind: Number, raw: num.String()}
		if n.Float, err = num.Float64(); err != nil {
			return nil, err
		}
		if num.IsInt() {
			if i, err := num.Int64(); err == nil {
				n.Int, n.IsInt = i, true
			}
		}
		return n, nil
	case jx.Bool:
		b, err := d.Bool()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: Bool, Bool: b}, nil
	case jx.Null:
		if err := d.Null(); err != nil {
			return nil, err
		}
		return &Node{Kind: Null}, nil
	default:
		return nil, fmt.Errorf("unexpected %s value", t)
	}
}

// JSON re-encodes the node as compact JSON, preserving field order.
func (n *Node) JSON() string {
	var e jx.Encoder
	encodeNode(&e, n)
	return e.String()
}

func encodeNode(e *jx.Encoder, n *Node) {
	if n == nil {
		e.Null()
		return
	}
	switch n.Kind {
	case Object:
		e.ObjStart()
		for _, f := range n.Fields {
			e.FieldStart(f.Key)
			encodeNode(e, f.Value)
		}
		e.ObjEnd()
	case Array:
		e.ArrStart()
		for _, it := range n.Items {
			encodeNode(e, it)
		}
		e.ArrEnd()
	case String:
		e.Str(n.Str)
	case Number:
		if n.raw != "" {
			e.Num(jx.Num(n.raw))
		} else {
			e.Float64(n.Float)
		}
	case Bool:
		e.Bool(n.Bool)
	default:
		e.Null()
	}
}
