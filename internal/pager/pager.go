package pager

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/invdb/invdb/internal/btree"
	"github.com/invdb/invdb/internal/catalog"
	"github.com/invdb/invdb/internal/dbfile"
	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/page"
	"github.com/invdb/invdb/internal/rowstore"
)

// Pager owns the backing file, an in-memory page cache, and the set of
// pages dirtied since the last Flush. It satisfies both btree.Pager and
// rowstore.Pager.
type Pager struct {
	file       *dbfile.File
	cache      map[page.ID]*page.Page
	dirty      map[page.ID]struct{}
	rootPageID page.ID
	pageCount  uint32
	version    uint16
	log        *logrus.Logger
}

// debugf emits a Debug-level log line if log is non-nil. log is
// optional throughout the pager, the same explicit-injection-or-nil
// idiom NewBackend uses for its logger.
func debugf(log *logrus.Logger, fields logrus.Fields, msg string) {
	if log == nil {
		return
	}
	log.WithFields(fields).Debug(msg)
}

// Create initializes a new database file with header, an empty-leaf
// root page, and an empty catalog page. log is optional; pass nil to
// run silently.
func Create(path string, log *logrus.Logger) (*Pager, error) {
	f, err := dbfile.Create(path)
	if err != nil {
		return nil, err
	}

	header := encodeHeaderPage(fileFormatVersion, rootPageID, 3)
	if err := f.WritePage(headerPageID, header); err != nil {
		return nil, err
	}

	root := page.New(rootPageID)
	root.InitHeader(page.KindBTree)
	if err := btree.EncodeInto(btree.EmptyLeaf(), root); err != nil {
		return nil, err
	}
	if err := f.WritePage(rootPageID, root); err != nil {
		return nil, err
	}

	catPage := page.New(catalogPageID)
	catPage.InitHeader(page.KindCatalog)
	encoded, err := catalog.Encode(catalog.Empty())
	if err != nil {
		return nil, err
	}
	copy(catPage.Payload(), encoded)
	if err := f.WritePage(catalogPageID, catPage); err != nil {
		return nil, err
	}

	return &Pager{
		file:       f,
		cache:      make(map[page.ID]*page.Page),
		dirty:      make(map[page.ID]struct{}),
		rootPageID: rootPageID,
		pageCount:  3,
		version:    fileFormatVersion,
		log:        log,
	}, nil
}

// Open loads an existing database file, validating its header against
// the file's actual page count. log is optional; pass nil to run
// silently.
func Open(path string, log *logrus.Logger) (*Pager, error) {
	f, err := dbfile.Open(path)
	if err != nil {
		return nil, err
	}

	header, err := f.ReadPage(headerPageID)
	if err != nil {
		return nil, err
	}
	version, root, pageCount, err := decodeAndValidateHeaderPage(header)
	if err != nil {
		return nil, err
	}

	actualCount, err := f.PageCount()
	if err != nil {
		return nil, err
	}
	if actualCount != pageCount {
		return nil, invderr.Corrupt("header.page_count", "header page_count %d != file page_count %d", pageCount, actualCount)
	}
	if pageCount < 3 {
		return nil, invderr.Corrupt("catalog.missing", "catalog page missing")
	}

	return &Pager{
		file:       f,
		cache:      make(map[page.ID]*page.Page),
		dirty:      make(map[page.ID]struct{}),
		rootPageID: root,
		pageCount:  pageCount,
		version:    version,
		log:        log,
	}, nil
}

// Close flushes any dirty pages and closes the backing file. Unlike the
// reference implementation's Drop-based flush, Go has no destructor
// INVDB can rely on — callers must Close explicitly.
func (p *Pager) Close() error {
	if err := p.Flush(); err != nil {
		return err
	}
	return p.file.Close()
}

// GetPage fetches a page by id, validating its header (other than the
// file header page) the first time it's loaded into the cache.
func (p *Pager) GetPage(id page.ID) (*page.Page, error) {
	if uint32(id) >= p.pageCount {
		return nil, invderr.InvalidArg("page_id", "%d out of bounds (page_count=%d)", id, p.pageCount)
	}

	if cached, ok := p.cache[id]; ok {
		return cached, nil
	}

	loaded, err := p.file.ReadPage(id)
	if err != nil {
		return nil, err
	}
	if !id.IsHeader() {
		if err := loaded.ValidateHeader(); err != nil {
			return nil, err
		}
	}

	p.cache[id] = loaded
	return loaded, nil
}

// GetPageMut fetches a page and marks it dirty for the next Flush.
func (p *Pager) GetPageMut(id page.ID) (*page.Page, error) {
	loaded, err := p.GetPage(id)
	if err != nil {
		return nil, err
	}
	p.dirty[id] = struct{}{}
	return loaded, nil
}

// Flush writes the header plus every dirty cached page to the backing
// file, in ascending page-id order, then syncs and clears the dirty set.
func (p *Pager) Flush() error {
	if err := p.rewriteHeader(); err != nil {
		return err
	}

	ids := make([]page.ID, 0, len(p.dirty))
	for id := range p.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		cached, ok := p.cache[id]
		if !ok {
			continue
		}
		if err := p.file.WritePage(id, cached); err != nil {
			return err
		}
	}
	p.dirty = make(map[page.ID]struct{})

	debugf(p.log, logrus.Fields{"pages": len(ids)}, "flushed dirty pages")
	return p.file.Sync()
}

// RootPageID returns the current tree root page identifier.
func (p *Pager) RootPageID() page.ID {
	return p.rootPageID
}

// Version returns the file format version.
func (p *Pager) Version() uint16 {
	return p.version
}

// PageCount returns the number of pages currently in the file.
func (p *Pager) PageCount() uint32 {
	return p.pageCount
}

// Path returns the database file's path.
func (p *Pager) Path() string {
	return p.file.Path()
}

// AllocateBTreePage appends a fresh, empty-leaf btree page to the file.
func (p *Pager) AllocateBTreePage() (page.ID, error) {
	newID, err := p.allocatePage()
	if err != nil {
		return 0, err
	}

	newPage := page.New(newID)
	newPage.InitHeader(page.KindBTree)
	if err := btree.EncodeInto(btree.EmptyLeaf(), newPage); err != nil {
		return 0, err
	}
	if err := p.file.WritePage(newID, newPage); err != nil {
		return 0, err
	}
	p.cache[newID] = newPage

	if err := p.rewriteHeader(); err != nil {
		return 0, err
	}
	return newID, nil
}

// AllocateRowPage appends a fresh, empty row storage page to the file.
func (p *Pager) AllocateRowPage() (page.ID, error) {
	newID, err := p.allocatePage()
	if err != nil {
		return 0, err
	}

	newPage := page.New(newID)
	newPage.InitHeader(page.KindRow)
	if err := rowstore.InitRowPage(newPage); err != nil {
		return 0, err
	}
	if err := p.file.WritePage(newID, newPage); err != nil {
		return 0, err
	}
	p.cache[newID] = newPage

	if err := p.rewriteHeader(); err != nil {
		return 0, err
	}
	return newID, nil
}

func (p *Pager) allocatePage() (page.ID, error) {
	if p.pageCount == ^uint32(0) {
		return 0, invderr.OverflowErr("pager.allocate.page_count")
	}
	newID := page.ID(p.pageCount)
	p.pageCount++
	debugf(p.log, logrus.Fields{"page_id": newID}, "allocated page")
	return newID, nil
}

// SetRootPageID updates the tree root identifier and persists the
// header immediately.
func (p *Pager) SetRootPageID(newRoot page.ID) error {
	if newRoot == 0 || uint32(newRoot) >= p.pageCount {
		return invderr.Corrupt("header.root_page_id", "root %d invalid for page_count %d", newRoot, p.pageCount)
	}
	p.rootPageID = newRoot
	return p.rewriteHeader()
}

// ReadCatalog decodes the catalog page's current contents.
func (p *Pager) ReadCatalog() (catalog.Catalog, error) {
	catPage, err := p.GetPage(catalogPageID)
	if err != nil {
		return catalog.Catalog{}, err
	}
	if catPage.Kind() != page.KindCatalog {
		return catalog.Catalog{}, invderr.Corrupt("catalog.page_kind", "expected %d got %d", page.KindCatalog, catPage.Kind())
	}
	return catalog.Decode(catPage.Payload())
}

// WriteCatalog encodes cat into the catalog page and marks it dirty;
// Flush persists it.
func (p *Pager) WriteCatalog(cat catalog.Catalog) error {
	encoded, err := catalog.Encode(cat)
	if err != nil {
		return err
	}

	catPage, err := p.GetPageMut(catalogPageID)
	if err != nil {
		return err
	}
	if catPage.Kind() != page.KindCatalog {
		return invderr.Corrupt("catalog.page_kind", "wrong page kind for catalog")
	}

	payload := catPage.Payload()
	for i := range payload {
		payload[i] = 0
	}
	copy(payload, encoded)
	debugf(p.log, logrus.Fields{"tables": len(cat.Tables)}, "wrote catalog")
	return nil
}

func (p *Pager) rewriteHeader() error {
	header := encodeHeaderPage(p.version, p.rootPageID, p.pageCount)
	return p.file.WritePage(headerPageID, header)
}
