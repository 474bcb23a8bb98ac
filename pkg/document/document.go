// Package document holds the YAML syntax tree consumed by matching,
// completion, hover and validation. Nodes live in a per-document arena
// and refer to each other by index.
package document

// Kind is the semantic kind of a node.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindProperty
	KindString
	KindNumber
	KindBoolean
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindProperty:
		return "property"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// IsScalar reports whether k is a leaf value kind.
func (k Kind) IsScalar() bool {
	return k == KindString || k == KindNumber || k == KindBoolean || k == KindNull
}

// NodeID indexes a node inside its document's arena.
type NodeID int32

// NoNode is the absent node.
const NoNode NodeID = -1

// Node is one YAML construct. A property node has exactly two children,
// its key and its value.
type Node struct {
	Kind     Kind
	Offset   int // byte offset in the stream
	Length   int // byte length
	Parent   NodeID
	Children []NodeID

	Value   string // decoded scalar value
	Tag     string // resolved YAML tag, e.g. "!!int"
	Integer bool   // number written as an integer
	Anchor  string
	Alias   NodeID // anchored node for aliases
	Flow    bool   // flow-style collection
}

// End returns the offset just past the node.
func (n *Node) End() int { return n.Offset + n.Length }

// Document is one document of a YAML stream.
type Document struct {
	Index int
	Start int // first byte belonging to the document
	End   int // byte after the document
	Root  NodeID
	Lines *LineIndex

	nodes []Node
}

// Node returns the node for id, or nil.
func (d *Document) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil
	}
	return &d.nodes[id]
}

// Len returns the number of nodes in the arena.
func (d *Document) Len() int { return len(d.nodes) }

// Text returns the whole stream source.
func (d *Document) Text() string { return d.Lines.Text() }

// Source returns the raw source text of a node.
func (d *Document) Source(id NodeID) string {
	n := d.Node(id)
	if n == nil {
		return ""
	}
	return d.Text()[n.Offset:n.End()]
}

// Resolve follows alias links to the anchored node.
func (d *Document) Resolve(id NodeID) NodeID {
	for hops := 0; hops < 32; hops++ {
		n := d.Node(id)
		if n == nil || n.Alias == NoNode {
			return id
		}
		id = n.Alias
	}
	return id
}

// KeyNode returns the key of a property node.
func (d *Document) KeyNode(prop NodeID) NodeID {
	n := d.Node(prop)
	if n == nil || n.Kind != KindProperty || len(n.Children) == 0 {
		return NoNode
	}
	return n.Children[0]
}

// ValueNode returns the value of a property node.
func (d *Document) ValueNode(prop NodeID) NodeID {
	n := d.Node(prop)
	if n == nil || n.Kind != KindProperty || len(n.Children) < 2 {
		return NoNode
	}
	return n.Children[1]
}

// Key returns the key text of a property node.
func (d *Document) Key(prop NodeID) string {
	if k := d.Node(d.KeyNode(prop)); k != nil {
		return k.Value
	}
	return ""
}

// Properties returns the property nodes of an object.
func (d *Document) Properties(obj NodeID) []NodeID {
	n := d.Node(obj)
	if n == nil || n.Kind != KindObject {
		return nil
	}
	return n.Children
}

// Property finds the first property of obj named name.
func (d *Document) Property(obj NodeID, name string) NodeID {
	for _, p := range d.Properties(obj) {
		if d.Key(p) == name {
			return p
		}
	}
	return NoNode
}

// Items returns the items of an array.
func (d *Document) Items(arr NodeID) []NodeID {
	n := d.Node(arr)
	if n == nil || n.Kind != KindArray {
		return nil
	}
	return n.Children
}

// IndexOf returns the position of child among its parent's children.
func (d *Document) IndexOf(child NodeID) int {
	n := d.Node(child)
	if n == nil {
		return -1
	}
	p := d.Node(n.Parent)
	if p == nil {
		return -1
	}
	for i, c := range p.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// Path returns the chain of nodes from the root down to id.
func (d *Document) Path(id NodeID) []NodeID {
	var rev []NodeID
	for cur := id; cur != NoNode; {
		n := d.Node(cur)
		if n == nil {
			break
		}
		rev = append(rev, cur)
		cur = n.Parent
	}
	path := make([]NodeID, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// NodeAt returns the innermost node whose span contains offset. With
// includeRightBound a node also contains its end offset.
func (d *Document) NodeAt(offset int, includeRightBound bool) NodeID {
	contains := func(id NodeID) bool {
		n := d.Node(id)
		if n == nil {
			return false
		}
		if offset < n.Offset {
			return false
		}
		return offset < n.End() || (includeRightBound && offset == n.End())
	}
	if !contains(d.Root) {
		return NoNode
	}
	cur := d.Root
	for {
		next := NoNode
		for _, c := range d.Node(cur).Children {
			if contains(c) {
				next = c
				break
			}
		}
		if next == NoNode {
			return cur
		}
		cur = next
	}
}

// File is a parsed YAML stream.
type File struct {
	Text      string
	Lines     *LineIndex
	Documents []*Document
	// Err is the first syntax error. Documents decoded before it are kept.
	Err error
}

// DocumentAt returns the document whose range contains offset.
func (f *File) DocumentAt(offset int) *Document {
	var found *Document
	for _, d := range f.Documents {
		if d.Start <= offset {
			found = d
		}
	}
	return found
}
