package invdb

import (
	"github.com/invdb/invdb/internal/btree"
	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/page"
	"github.com/invdb/invdb/internal/pager"
	"github.com/invdb/invdb/internal/rowstore"
)

// maxLeafWalkSteps caps the leaf-chain walk so a cycle (which open would
// otherwise loop forever chasing) is reported instead of hanging.
const maxLeafWalkSteps = 10000

// maxLeftmostDescentDepth caps the leftmost-leaf descent used to find the
// walk's starting point.
const maxLeftmostDescentDepth = 64

// Validate runs the structural validator: page
// count and root sanity, root node decodability, catalog invariants,
// every table's row-page reachability, and an acyclic leaf chain. Open
// calls this before handing back a Db so a corrupted file fails here
// rather than lazily at the first bad read.
func Validate(pgr *pager.Pager) error {
	pageCount := pgr.PageCount()
	if pageCount < 3 {
		return invderr.Corrupt("validate.page_count", "page_count %d < 3", pageCount)
	}

	root := pgr.RootPageID()
	if root == 0 || uint32(root) >= pageCount {
		return invderr.Corrupt("validate.root_page_id", "root %d invalid for page_count %d", root, pageCount)
	}

	rootPage, err := pgr.GetPage(root)
	if err != nil {
		return err
	}
	if rootPage.Kind() != page.KindBTree {
		return invderr.Corrupt("validate.root_kind", "expected kind %d got %d", page.KindBTree, rootPage.Kind())
	}
	if _, err := btree.Decode(rootPage, pageCount); err != nil {
		return err
	}

	cat, err := pgr.ReadCatalog()
	if err != nil {
		return err
	}

	for _, def := range cat.Tables {
		if def.ID == 0 {
			return invderr.Corrupt("validate.table_id", "table %q has id 0", def.Name)
		}
		if def.NextPK < 1 {
			return invderr.Corrupt("validate.next_pk", "table %q next_pk %d", def.Name, def.NextPK)
		}
		if def.Schema.Len() == 0 {
			return invderr.Corrupt("validate.schema", "table %q has empty schema", def.Name)
		}
		if def.LastRowPage == 0 {
			continue
		}
		if def.LastRowPage >= pageCount {
			return invderr.Corrupt("validate.last_row_page", "table %q last_row_page %d out of bounds for page_count %d", def.Name, def.LastRowPage, pageCount)
		}
		rowPage, err := pgr.GetPage(page.ID(def.LastRowPage))
		if err != nil {
			return err
		}
		if err := rowstore.ValidateRowPage(rowPage); err != nil {
			return err
		}
	}

	return walkLeafChain(pgr, root, pageCount)
}

func leftmostLeaf(pgr *pager.Pager, root page.ID, pageCount uint32) (page.ID, error) {
	current := root
	for depth := 0; depth < maxLeftmostDescentDepth; depth++ {
		p, err := pgr.GetPage(current)
		if err != nil {
			return 0, err
		}
		node, err := btree.Decode(p, pageCount)
		if err != nil {
			return 0, err
		}
		if node.Kind == btree.KindLeaf {
			return current, nil
		}
		if len(node.Internal.Children) == 0 {
			return 0, invderr.Corrupt("btree.leftmost", "internal node %d has no children", current)
		}
		current = node.Internal.Children[0]
	}
	return 0, invderr.Corrupt("btree.leftmost", "exceeded max descent depth %d", maxLeftmostDescentDepth)
}

func walkLeafChain(pgr *pager.Pager, root page.ID, pageCount uint32) error {
	leftmost, err := leftmostLeaf(pgr, root, pageCount)
	if err != nil {
		return err
	}

	visited := make(map[page.ID]struct{})
	current := leftmost
	steps := 0
	for current != 0 {
		if steps > maxLeafWalkSteps {
			return invderr.Corrupt("btree.leaf_walk", "exceeded %d steps", maxLeafWalkSteps)
		}
		if _, seen := visited[current]; seen {
			return invderr.Corrupt("btree.leaf_cycle", "leaf page %d revisited", current)
		}
		visited[current] = struct{}{}

		p, err := pgr.GetPage(current)
		if err != nil {
			return err
		}
		node, err := btree.Decode(p, pageCount)
		if err != nil {
			return err
		}
		if node.Kind != btree.KindLeaf {
			return invderr.Corrupt("btree.leaf_walk", "page %d is not a leaf", current)
		}

		next := node.Leaf.NextLeaf
		if next != 0 && uint32(next) >= pageCount {
			return invderr.Corrupt("btree.leaf.next_leaf", "next_leaf %d out of bounds for page_count %d", next, pageCount)
		}

		current = next
		steps++
	}

	return nil
}
