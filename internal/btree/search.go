package btree

import (
	"sort"

	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/page"
)

// maxDepth bounds tree descent so a cyclic/corrupted child chain fails
// fast instead of looping forever.
const maxDepth = 64

// SearchU64 walks the tree rooted at root looking for key, returning its
// associated value and true if found, or false if absent.
func SearchU64(pgr Pager, root page.ID, key uint32) (uint64, bool, error) {
	current := root
	depth := 0

	for {
		if depth > maxDepth {
			return 0, false, invderr.Corrupt("btree.depth", "exceeded depth %d", maxDepth)
		}
		if current.IsHeader() {
			return 0, false, invderr.Corrupt("btree.traverse.header", "encountered header page")
		}

		pageCount := pgr.PageCount()
		p, err := pgr.GetPage(current)
		if err != nil {
			return 0, false, err
		}
		if p.Kind() != page.KindBTree {
			return 0, false, invderr.Corrupt("btree.page_kind", "expected %d got %d", page.KindBTree, p.Kind())
		}

		node, err := Decode(p, pageCount)
		if err != nil {
			return 0, false, err
		}

		switch node.Kind {
		case KindLeaf:
			idx := sort.Search(len(node.Leaf.Keys), func(i int) bool { return node.Leaf.Keys[i] >= key })
			if idx < len(node.Leaf.Keys) && node.Leaf.Keys[idx] == key {
				return node.Leaf.Values[idx], true, nil
			}
			return 0, false, nil
		case KindInternal:
			idx := sort.Search(len(node.Internal.Keys), func(i int) bool { return key < node.Internal.Keys[i] })
			current = node.Internal.Children[idx]
			depth++
		}
	}
}
