package btree

import "github.com/invdb/invdb/internal/page"

// Pager is the page-access surface the tree needs: reading/writing btree
// pages and allocating fresh ones for splits. internal/pager.Pager
// satisfies this.
type Pager interface {
	PageCount() uint32
	GetPage(id page.ID) (*page.Page, error)
	GetPageMut(id page.ID) (*page.Page, error)
	AllocateBTreePage() (page.ID, error)
}
