// Package btree implements the on-disk B+-tree: node encoding, search,
// and insert-with-split over pages obtained from a Pager. Keys are
// opaque uint32 composite keys; values are opaque uint64 row pointers
// — see table.go. The tree's own operations know nothing about row
// pointer structure.
package btree

import (
	"encoding/binary"

	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/page"
)

const payloadBase = 16

// Kind discriminates a decoded node's shape.
type Kind byte

const (
	KindLeaf     Kind = 1
	KindInternal Kind = 2
)

// LeafNode holds a leaf's sorted key/value pairs plus the forward link
// to the next leaf in key order (0 if none).
type LeafNode struct {
	NextLeaf page.ID
	Keys     []uint32
	Values   []uint64
}

// InternalNode holds an internal node's sorted separator keys and its
// len(Keys)+1 children.
type InternalNode struct {
	Children []page.ID
	Keys     []uint32
}

// Node is a decoded B+-tree node of one kind or the other.
type Node struct {
	Kind     Kind
	Leaf     *LeafNode
	Internal *InternalNode
}

// NewLeaf wraps a LeafNode as a Node.
func NewLeaf(l LeafNode) Node {
	return Node{Kind: KindLeaf, Leaf: &l}
}

// NewInternal wraps an InternalNode as a Node.
func NewInternal(n InternalNode) Node {
	return Node{Kind: KindInternal, Internal: &n}
}

// EmptyLeaf returns a fresh, empty leaf node (the initial tree state).
func EmptyLeaf() Node {
	return NewLeaf(LeafNode{})
}

// MaxLeafKeys returns the largest key count a leaf page can hold: 16
// bytes of node sub-header, 4 bytes key + 8 bytes value per entry.
func MaxLeafKeys() int {
	capacity := page.Size - page.HeaderLen
	return (capacity - 16) / 12
}

// MaxInternalKeys returns the largest key count an internal page can
// hold: 16 bytes of node sub-header, 4 bytes per child (k+1 of them),
// 4 bytes per key.
func MaxInternalKeys() int {
	capacity := page.Size - page.HeaderLen
	return (capacity - 20) / 8
}

// EncodeInto writes node into p's payload, zeroing the rest of the page
// first. p must already carry a KindBTree page header.
func EncodeInto(node Node, p *page.Page) error {
	if p.Kind() != page.KindBTree {
		return invderr.Corrupt("btree.page_kind", "page header not marked as btree")
	}

	buf := p.Payload()
	for i := range buf {
		buf[i] = 0
	}

	switch node.Kind {
	case KindLeaf:
		return encodeLeaf(node.Leaf, buf)
	case KindInternal:
		return encodeInternal(node.Internal, buf)
	default:
		return invderr.Corrupt("btree.node_kind", "unknown node kind %d", node.Kind)
	}
}

func encodeLeaf(leaf *LeafNode, buf []byte) error {
	k := len(leaf.Keys)
	if k != len(leaf.Values) {
		return invderr.Corrupt("btree.encode.leaf.size", "keys/values length mismatch")
	}
	if k > MaxLeafKeys() {
		return invderr.Corrupt("btree.encode.leaf.size", "num_keys %d exceeds capacity", k)
	}
	if k > 0xFFFF {
		return invderr.Corrupt("btree.encode.leaf.size", "num_keys %d exceeds uint16 range", k)
	}
	if err := validateSortedUnique(leaf.Keys, "btree.leaf.keys_order"); err != nil {
		return err
	}

	buf[0] = byte(KindLeaf)
	buf[1] = 0
	binary.LittleEndian.PutUint16(buf[2:4], uint16(k))
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(leaf.NextLeaf))
	binary.LittleEndian.PutUint32(buf[12:16], 0)

	keysOffset := 16
	valuesOffset := keysOffset + 4*k
	for i, key := range leaf.Keys {
		binary.LittleEndian.PutUint32(buf[keysOffset+4*i:], key)
	}
	for i, value := range leaf.Values {
		binary.LittleEndian.PutUint64(buf[valuesOffset+8*i:], value)
	}
	return nil
}

func encodeInternal(internal *InternalNode, buf []byte) error {
	k := len(internal.Keys)
	if len(internal.Children) != k+1 {
		return invderr.Corrupt("btree.encode.internal.size", "num_keys/children mismatch")
	}
	if k > MaxInternalKeys() {
		return invderr.Corrupt("btree.encode.internal.size", "num_keys %d exceeds capacity", k)
	}
	if k > 0xFFFF {
		return invderr.Corrupt("btree.encode.internal.size", "num_keys %d exceeds uint16 range", k)
	}
	if err := validateSortedUnique(internal.Keys, "btree.internal.keys_order"); err != nil {
		return err
	}

	buf[0] = byte(KindInternal)
	buf[1] = 0
	binary.LittleEndian.PutUint16(buf[2:4], uint16(k))
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	binary.LittleEndian.PutUint32(buf[8:12], 0)
	binary.LittleEndian.PutUint32(buf[12:16], 0)

	childrenOffset := 16
	for i, child := range internal.Children {
		binary.LittleEndian.PutUint32(buf[childrenOffset+4*i:], uint32(child))
	}

	keysOffset := childrenOffset + 4*(k+1)
	for i, key := range internal.Keys {
		binary.LittleEndian.PutUint32(buf[keysOffset+4*i:], key)
	}
	return nil
}

// Decode parses and validates a B+-tree node from p's payload. pageCount
// bounds child/next-leaf page references so a corrupted pointer is
// caught immediately rather than followed off the end of the file.
func Decode(p *page.Page, pageCount uint32) (Node, error) {
	buf := p.Payload()
	if len(buf) < payloadBase {
		return Node{}, invderr.Corrupt("btree.leaf.size", "payload too small")
	}

	nodeKindByte := buf[0]
	nodeFlags := buf[1]
	if nodeFlags != 0 {
		return Node{}, invderr.NotSupported("btree.node_flags")
	}

	numKeys := binary.LittleEndian.Uint16(buf[2:4])
	reserved := binary.LittleEndian.Uint32(buf[4:8])
	if reserved != 0 {
		return Node{}, invderr.NotSupported("btree.reserved")
	}

	switch nodeKindByte {
	case byte(KindLeaf):
		return decodeLeaf(buf, numKeys, pageCount)
	case byte(KindInternal):
		return decodeInternal(buf, numKeys, pageCount)
	default:
		return Node{}, invderr.Corrupt("btree.node_kind", "unknown kind %d", nodeKindByte)
	}
}

func decodeLeaf(buf []byte, numKeys uint16, pageCount uint32) (Node, error) {
	k := int(numKeys)
	keysOffset := 16
	valuesOffset := keysOffset + 4*k
	endOffset := valuesOffset + 8*k

	if endOffset > len(buf) {
		return Node{}, invderr.Corrupt("btree.leaf.size", "num_keys=%d exceeds page capacity", numKeys)
	}

	nextLeafRaw := binary.LittleEndian.Uint32(buf[8:12])
	reserved2 := binary.LittleEndian.Uint32(buf[12:16])
	if reserved2 != 0 {
		return Node{}, invderr.Corrupt("btree.leaf.reserved2", "expected 0 got %d", reserved2)
	}

	if nextLeafRaw != 0 && nextLeafRaw >= pageCount {
		return Node{}, invderr.Corrupt("btree.leaf.next_leaf", "next_leaf %d out of bounds for page_count %d", nextLeafRaw, pageCount)
	}

	keys := make([]uint32, k)
	for i := 0; i < k; i++ {
		keys[i] = binary.LittleEndian.Uint32(buf[keysOffset+4*i:])
	}
	if err := validateSortedUnique(keys, "btree.leaf.keys_order"); err != nil {
		return Node{}, err
	}

	values := make([]uint64, k)
	for i := 0; i < k; i++ {
		values[i] = binary.LittleEndian.Uint64(buf[valuesOffset+8*i:])
	}

	return NewLeaf(LeafNode{NextLeaf: page.ID(nextLeafRaw), Keys: keys, Values: values}), nil
}

func decodeInternal(buf []byte, numKeys uint16, pageCount uint32) (Node, error) {
	k := int(numKeys)
	childrenOffset := 16
	keysOffset := childrenOffset + 4*(k+1)
	endOffset := keysOffset + 4*k

	if endOffset > len(buf) {
		return Node{}, invderr.Corrupt("btree.internal.size", "num_keys=%d exceeds page capacity", numKeys)
	}

	reserved2 := binary.LittleEndian.Uint32(buf[8:12])
	if reserved2 != 0 {
		return Node{}, invderr.Corrupt("btree.internal.reserved2", "expected 0 got %d", reserved2)
	}
	reserved3 := binary.LittleEndian.Uint32(buf[12:16])
	if reserved3 != 0 {
		return Node{}, invderr.Corrupt("btree.internal.reserved3", "expected 0 got %d", reserved3)
	}

	children := make([]page.ID, k+1)
	for i := 0; i < k+1; i++ {
		child := binary.LittleEndian.Uint32(buf[childrenOffset+4*i:])
		if child == 0 || child >= pageCount {
			return Node{}, invderr.Corrupt("btree.internal.child", "child %d out of bounds for page_count %d", child, pageCount)
		}
		children[i] = page.ID(child)
	}

	keys := make([]uint32, k)
	for i := 0; i < k; i++ {
		keys[i] = binary.LittleEndian.Uint32(buf[keysOffset+4*i:])
	}
	if err := validateSortedUnique(keys, "btree.internal.keys_order"); err != nil {
		return Node{}, err
	}

	return NewInternal(InternalNode{Children: children, Keys: keys}), nil
}

func validateSortedUnique(keys []uint32, context string) error {
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			return invderr.Corrupt(context, "keys not strictly increasing: %d >= %d", keys[i-1], keys[i])
		}
	}
	return nil
}
