package btree

import (
	"sort"

	"github.com/invdb/invdb/internal/page"
)

type insertOutcome struct {
	split       bool
	promotedKey uint32
	right       page.ID
}

// InsertU64 inserts or overwrites key/value starting from root, growing
// the tree by one level (a fresh root page) when the root itself splits.
// Returns the (possibly new) root page id.
func InsertU64(pgr Pager, root page.ID, key uint32, value uint64) (page.ID, error) {
	outcome, err := insertInto(pgr, root, key, value)
	if err != nil {
		return 0, err
	}
	if !outcome.split {
		return root, nil
	}

	newRootID, err := pgr.AllocateBTreePage()
	if err != nil {
		return 0, err
	}
	internal := InternalNode{
		Children: []page.ID{root, outcome.right},
		Keys:     []uint32{outcome.promotedKey},
	}
	if err := encodeInternalPage(pgr, newRootID, internal); err != nil {
		return 0, err
	}
	return newRootID, nil
}

func insertInto(pgr Pager, pageID page.ID, key uint32, value uint64) (insertOutcome, error) {
	pageCount := pgr.PageCount()
	p, err := pgr.GetPage(pageID)
	if err != nil {
		return insertOutcome{}, err
	}
	node, err := Decode(p, pageCount)
	if err != nil {
		return insertOutcome{}, err
	}

	switch node.Kind {
	case KindLeaf:
		return insertIntoLeaf(pgr, pageID, node.Leaf, key, value)
	default:
		return insertIntoInternal(pgr, pageID, node.Internal, key, value)
	}
}

func insertIntoLeaf(pgr Pager, pageID page.ID, leaf *LeafNode, key uint32, value uint64) (insertOutcome, error) {
	idx := sort.Search(len(leaf.Keys), func(i int) bool { return leaf.Keys[i] >= key })
	if idx < len(leaf.Keys) && leaf.Keys[idx] == key {
		leaf.Values[idx] = value
		if err := encodeLeafPage(pgr, pageID, *leaf); err != nil {
			return insertOutcome{}, err
		}
		return insertOutcome{}, nil
	}

	leaf.Keys = append(leaf.Keys, 0)
	copy(leaf.Keys[idx+1:], leaf.Keys[idx:])
	leaf.Keys[idx] = key

	leaf.Values = append(leaf.Values, 0)
	copy(leaf.Values[idx+1:], leaf.Values[idx:])
	leaf.Values[idx] = value

	if len(leaf.Keys) <= MaxLeafKeys() {
		if err := encodeLeafPage(pgr, pageID, *leaf); err != nil {
			return insertOutcome{}, err
		}
		return insertOutcome{}, nil
	}

	split, err := splitLeaf(pgr, pageID, *leaf)
	if err != nil {
		return insertOutcome{}, err
	}
	return insertOutcome{split: true, promotedKey: split.PromotedKey, right: split.RightPage}, nil
}

func insertIntoInternal(pgr Pager, pageID page.ID, internal *InternalNode, key uint32, value uint64) (insertOutcome, error) {
	idx := sort.Search(len(internal.Keys), func(i int) bool { return key < internal.Keys[i] })
	childID := internal.Children[idx]

	childOutcome, err := insertInto(pgr, childID, key, value)
	if err != nil {
		return insertOutcome{}, err
	}
	if !childOutcome.split {
		return insertOutcome{}, nil
	}

	internal.Keys = append(internal.Keys, 0)
	copy(internal.Keys[idx+1:], internal.Keys[idx:])
	internal.Keys[idx] = childOutcome.promotedKey

	internal.Children = append(internal.Children, 0)
	copy(internal.Children[idx+2:], internal.Children[idx+1:])
	internal.Children[idx+1] = childOutcome.right

	if len(internal.Keys) <= MaxInternalKeys() {
		if err := encodeInternalPage(pgr, pageID, *internal); err != nil {
			return insertOutcome{}, err
		}
		return insertOutcome{}, nil
	}

	split, err := splitInternal(pgr, pageID, *internal)
	if err != nil {
		return insertOutcome{}, err
	}
	return insertOutcome{split: true, promotedKey: split.PromotedKey, right: split.RightPage}, nil
}
