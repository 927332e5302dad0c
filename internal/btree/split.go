package btree

import "github.com/invdb/invdb/internal/page"

// SplitResult carries the promoted separator key and the id of the new
// right-hand sibling page produced by a split.
type SplitResult struct {
	PromotedKey uint32
	RightPage   page.ID
}

// splitLeaf divides an overfull leaf at its midpoint: the left half
// keeps keys[:mid], the right half takes keys[mid:], and the right
// half's first key is promoted to the parent. The left leaf's
// next-leaf pointer is rewired to the new right page so the leaf chain
// stays intact.
func splitLeaf(pgr Pager, pageID page.ID, node LeafNode) (SplitResult, error) {
	mid := len(node.Keys) / 2

	leftKeys := append([]uint32(nil), node.Keys[:mid]...)
	leftValues := append([]uint64(nil), node.Values[:mid]...)
	rightKeys := append([]uint32(nil), node.Keys[mid:]...)
	rightValues := append([]uint64(nil), node.Values[mid:]...)

	promotedKey := rightKeys[0]
	rightNext := node.NextLeaf

	rightPageID, err := pgr.AllocateBTreePage()
	if err != nil {
		return SplitResult{}, err
	}

	leftNode := LeafNode{NextLeaf: rightPageID, Keys: leftKeys, Values: leftValues}
	rightNode := LeafNode{NextLeaf: rightNext, Keys: rightKeys, Values: rightValues}

	if err := encodeLeafPage(pgr, pageID, leftNode); err != nil {
		return SplitResult{}, err
	}
	if err := encodeLeafPage(pgr, rightPageID, rightNode); err != nil {
		return SplitResult{}, err
	}

	return SplitResult{PromotedKey: promotedKey, RightPage: rightPageID}, nil
}

// splitInternal divides an overfull internal node at its midpoint key:
// the midpoint key itself is promoted to the parent and appears in
// neither child — the left node keeps keys[:mid]/children[:mid+1], the
// right node keeps keys[mid+1:]/children[mid+1:].
func splitInternal(pgr Pager, pageID page.ID, node InternalNode) (SplitResult, error) {
	mid := len(node.Keys) / 2
	promotedKey := node.Keys[mid]

	leftKeys := append([]uint32(nil), node.Keys[:mid]...)
	leftChildren := append([]page.ID(nil), node.Children[:mid+1]...)
	rightKeys := append([]uint32(nil), node.Keys[mid+1:]...)
	rightChildren := append([]page.ID(nil), node.Children[mid+1:]...)

	rightPageID, err := pgr.AllocateBTreePage()
	if err != nil {
		return SplitResult{}, err
	}

	leftNode := InternalNode{Children: leftChildren, Keys: leftKeys}
	rightNode := InternalNode{Children: rightChildren, Keys: rightKeys}

	if err := encodeInternalPage(pgr, pageID, leftNode); err != nil {
		return SplitResult{}, err
	}
	if err := encodeInternalPage(pgr, rightPageID, rightNode); err != nil {
		return SplitResult{}, err
	}

	return SplitResult{PromotedKey: promotedKey, RightPage: rightPageID}, nil
}

func encodeLeafPage(pgr Pager, id page.ID, leaf LeafNode) error {
	p, err := pgr.GetPageMut(id)
	if err != nil {
		return err
	}
	return EncodeInto(NewLeaf(leaf), p)
}

func encodeInternalPage(pgr Pager, id page.ID, internal InternalNode) error {
	p, err := pgr.GetPageMut(id)
	if err != nil {
		return err
	}
	return EncodeInto(NewInternal(internal), p)
}
