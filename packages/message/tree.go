package message

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	KindMap Kind = iota
	KindList
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// Node is one element of a decoded parameter or file tree: an ordered mapping,
// a sequence, or a leaf value.
type Node[T any] struct {
	kind   Kind
	leaf   T
	keys   []string
	fields map[string]*Node[T]
	items  []*Node[T]
}

// Params is the tree produced by decoding query strings and request bodies.
// Leaves are strings, or JSON scalars (int64, float64, bool, nil).
type Params = Node[any]

// Files is the tree of uploaded files, shaped like Params.
type Files = Node[*UploadedFile]

func NewMap[T any]() *Node[T] {
	return &Node[T]{kind: KindMap, fields: make(map[string]*Node[T])}
}

func NewList[T any]() *Node[T] {
	return &Node[T]{kind: KindList}
}

func NewLeaf[T any](value T) *Node[T] {
	return &Node[T]{kind: KindLeaf, leaf: value}
}

// NewParams returns an empty parameter tree.
func NewParams() *Params {
	return NewMap[any]()
}

// NewFiles returns an empty file tree.
func NewFiles() *Files {
	return NewMap[*UploadedFile]()
}

func (n *Node[T]) Kind() Kind {
	if n == nil {
		return KindMap
	}
	return n.kind
}

// IsContainer reports whether n is a map or a list.
func (n *Node[T]) IsContainer() bool {
	return n != nil && n.kind != KindLeaf
}

// Len returns the number of children of a container, 0 for leaves.
func (n *Node[T]) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case KindMap:
		return len(n.keys)
	case KindList:
		return len(n.items)
	}
	return 0
}

// Empty reports whether n has no children.
func (n *Node[T]) Empty() bool {
	return n == nil || (n.kind != KindLeaf && n.Len() == 0)
}

// Keys returns the child keys in insertion order. Lists report their indexes.
func (n *Node[T]) Keys() []string {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindMap:
		return append([]string(nil), n.keys...)
	case KindList:
		keys := make([]string, len(n.items))
		for i := range n.items {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	return nil
}

// Get returns the child stored under key, or nil.
func (n *Node[T]) Get(key string) *Node[T] {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindMap:
		return n.fields[key]
	case KindList:
		if i, ok := listIndex(key); ok && i < len(n.items) {
			return n.items[i]
		}
	}
	return nil
}

// Index returns the i-th child of a list (or the map entry keyed "i").
func (n *Node[T]) Index(i int) *Node[T] {
	return n.Get(strconv.Itoa(i))
}

// Path walks keys from n and returns the node found, or nil.
func (n *Node[T]) Path(keys ...string) *Node[T] {
	cur := n
	for _, key := range keys {
		cur = cur.Get(key)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Value returns the leaf value of n, or the zero value for containers.
func (n *Node[T]) Value() T {
	var zero T
	if n == nil || n.kind != KindLeaf {
		return zero
	}
	return n.leaf
}

// Lookup returns the leaf value found at keys.
func (n *Node[T]) Lookup(keys ...string) (T, bool) {
	found := n.Path(keys...)
	if found == nil || found.kind != KindLeaf {
		var zero T
		return zero, false
	}
	return found.leaf, true
}

// Set stores child under key, turning a list into a map when the key is not
// the next free index.
func (n *Node[T]) Set(key string, child *Node[T]) {
	if n == nil {
		return
	}
	if n.kind == KindList {
		i, ok := listIndex(key)
		switch {
		case ok && i < len(n.items):
			n.items[i] = child
			return
		case ok && i == len(n.items):
			n.items = append(n.items, child)
			return
		}
		n.toMap()
	}
	if n.kind != KindMap {
		return
	}
	if _, exists := n.fields[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
}

// Append adds child at the end of a list, or under the next free integer key
// of a map.
func (n *Node[T]) Append(child *Node[T]) {
	if n == nil {
		return
	}
	switch n.kind {
	case KindList:
		n.items = append(n.items, child)
	case KindMap:
		next := 0
		for _, key := range n.keys {
			if i, ok := listIndex(key); ok && i >= next {
				next = i + 1
			}
		}
		n.Set(strconv.Itoa(next), child)
	}
}

func (n *Node[T]) toMap() {
	n.kind = KindMap
	n.fields = make(map[string]*Node[T], len(n.items))
	n.keys = make([]string, 0, len(n.items))
	for i, item := range n.items {
		key := strconv.Itoa(i)
		n.keys = append(n.keys, key)
		n.fields[key] = item
	}
	n.items = nil
}

// Insert stores value at a bracket-notation field path such as "name",
// "a[b][c]" or "list[]". An empty segment appends to a sequence. A path whose
// brackets are not well formed is used as a literal key.
func (n *Node[T]) Insert(path string, value T) {
	if n == nil || n.kind == KindLeaf {
		return
	}
	n.insert(path, NewLeaf(value))
}

func (n *Node[T]) insert(path string, leaf *Node[T]) {
	current, next, nested := splitFieldPath(path)
	if !nested {
		if current == "" {
			n.Append(leaf)
		} else {
			n.Set(current, leaf)
		}
		return
	}

	if current == "" {
		child := NewList[T]()
		child.insert(next, leaf)
		n.Append(child)
		return
	}

	child := n.Get(current)
	if !child.IsContainer() {
		child = NewList[T]()
		n.Set(current, child)
	}
	child.insert(next, leaf)
}

// splitFieldPath splits "a[b][c]" into "a" and "b[c]".
func splitFieldPath(path string) (current, next string, nested bool) {
	head, rest, found := strings.Cut(path, "[")
	if !found || !strings.HasSuffix(rest, "]") {
		return path, "", false
	}
	segments := strings.Split(rest[:len(rest)-1], "][")
	next = segments[0]
	if len(segments) > 1 {
		next += "[" + strings.Join(segments[1:], "][") + "]"
	}
	return head, next, true
}

func listIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Clone returns a deep copy of the tree structure. Leaf values are copied by
// assignment.
func (n *Node[T]) Clone() *Node[T] {
	return n.cloneWith(nil)
}

// cloneWith copies the tree, passing every leaf value through copyLeaf when
// it is not nil.
func (n *Node[T]) cloneWith(copyLeaf func(T) T) *Node[T] {
	if n == nil {
		return nil
	}
	out := &Node[T]{kind: n.kind, leaf: n.leaf}
	switch n.kind {
	case KindLeaf:
		if copyLeaf != nil {
			out.leaf = copyLeaf(n.leaf)
		}
	case KindMap:
		out.keys = append([]string(nil), n.keys...)
		out.fields = make(map[string]*Node[T], len(n.fields))
		for key, child := range n.fields {
			out.fields[key] = child.cloneWith(copyLeaf)
		}
	case KindList:
		out.items = make([]*Node[T], len(n.items))
		for i, item := range n.items {
			out.items[i] = item.cloneWith(copyLeaf)
		}
	}
	return out
}

// Interface converts the tree to plain Go values: map[string]any, []any and
// the leaf values.
func (n *Node[T]) Interface() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindMap:
		out := make(map[string]any, len(n.keys))
		for _, key := range n.keys {
			out[key] = n.fields[key].Interface()
		}
		return out
	case KindList:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = item.Interface()
		}
		return out
	}
	return n.leaf
}

// MarshalJSON encodes maps with their keys in insertion order.
func (n *Node[T]) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	switch n.kind {
	case KindMap:
		buf.WriteByte('{')
		for i, key := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			v, err := n.fields[key].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	case KindList:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			v, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteByte(']')
	default:
		return json.Marshal(n.leaf)
	}
	return buf.Bytes(), nil
}
