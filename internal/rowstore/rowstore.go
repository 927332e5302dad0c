package rowstore

import (
	"encoding/binary"

	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/page"
)

const pageSize = page.Size

// rowPageHeaderLen is the length of the row-page sub-header following
// the page's own 16-byte sub-header: "ROWP" magic, version, free_offset,
// two reserved u32s.
const rowPageHeaderLen = 16

// rowDataStart is the first byte offset (within the full page) row data
// may occupy: past both the page sub-header and the row-page sub-header.
const rowDataStart = page.HeaderLen + rowPageHeaderLen

var rowPageMagic = []byte("ROWP")

const rowPageVersion uint16 = 1

// Pager is the page-access surface row storage needs.
type Pager interface {
	GetPage(id page.ID) (*page.Page, error)
	GetPageMut(id page.ID) (*page.Page, error)
	AllocateRowPage() (page.ID, error)
}

// InitRowPage writes a fresh row-page sub-header into p, which must
// already carry a KindRow page header. free_offset starts at
// rowDataStart, the first byte past both sub-headers.
func InitRowPage(p *page.Page) error {
	if p.Kind() != page.KindRow {
		return invderr.Corrupt("rowpage.kind", "page header not marked as row page")
	}
	buf := p.Bytes()
	copy(buf[page.HeaderLen:page.HeaderLen+4], rowPageMagic)
	binary.LittleEndian.PutUint16(buf[page.HeaderLen+4:page.HeaderLen+6], rowPageVersion)
	binary.LittleEndian.PutUint16(buf[page.HeaderLen+6:page.HeaderLen+8], uint16(rowDataStart))
	binary.LittleEndian.PutUint32(buf[page.HeaderLen+8:page.HeaderLen+12], 0)
	binary.LittleEndian.PutUint32(buf[page.HeaderLen+12:page.HeaderLen+16], 0)
	return nil
}

func validateRowPageHeader(buf []byte) error {
	base := page.HeaderLen
	if len(buf) < base+rowPageHeaderLen {
		return invderr.Corrupt("rowpage.eof", "payload too small")
	}
	if string(buf[base:base+4]) != string(rowPageMagic) {
		return invderr.Corrupt("rowpage.magic", "invalid row page magic")
	}
	version := binary.LittleEndian.Uint16(buf[base+4 : base+6])
	if version != rowPageVersion {
		return invderr.NotSupported("rowpage.version")
	}
	reserved := binary.LittleEndian.Uint32(buf[base+8 : base+12])
	if reserved != 0 {
		return invderr.NotSupported("rowpage.reserved")
	}
	reserved2 := binary.LittleEndian.Uint32(buf[base+12 : base+16])
	if reserved2 != 0 {
		return invderr.NotSupported("rowpage.reserved2")
	}
	freeOffset := binary.LittleEndian.Uint16(buf[base+6 : base+8])
	if freeOffset < rowDataStart || int(freeOffset) > pageSize {
		return invderr.Corrupt("rowpage.free_offset", "invalid free_offset %d", freeOffset)
	}
	return nil
}

// ValidateRowPage checks that p carries a well-formed row-page
// sub-header. Used by the structural validator when walking tables
// whose last_row_page is nonzero.
func ValidateRowPage(p *page.Page) error {
	if p.Kind() != page.KindRow {
		return invderr.Corrupt("rowpage.kind", "expected %d got %d", page.KindRow, p.Kind())
	}
	if err := p.ValidateHeader(); err != nil {
		return err
	}
	return validateRowPageHeader(p.Bytes())
}

func readFreeOffset(pgr Pager, id page.ID) (uint16, error) {
	p, err := pgr.GetPage(id)
	if err != nil {
		return 0, err
	}
	buf := p.Bytes()
	if p.Kind() != page.KindRow {
		return 0, invderr.Corrupt("rowpage.kind", "expected %d got %d", page.KindRow, p.Kind())
	}
	if err := p.ValidateHeader(); err != nil {
		return 0, err
	}
	if err := validateRowPageHeader(buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[page.HeaderLen+6 : page.HeaderLen+8]), nil
}

func writeFreeOffset(p *page.Page, free uint16) error {
	if int(free) > pageSize {
		return invderr.Corrupt("rowpage.free_offset", "free offset beyond page")
	}
	buf := p.Bytes()
	binary.LittleEndian.PutUint16(buf[page.HeaderLen+6:page.HeaderLen+8], free)
	return nil
}

// AppendRow appends row_bytes to the table's current tail row page
// (tableLastRowPage, or a freshly allocated one if 0), allocating a new
// tail page if there isn't enough room. Returns the row's pointer and
// the (possibly new) tail page id the caller should persist.
func AppendRow(pgr Pager, tableLastRowPage uint32, rowBytes []byte) (RowPtr, uint32, error) {
	if len(rowBytes) > maxRowBytes {
		return RowPtr{}, 0, invderr.NotSupported("row.too_large")
	}

	targetPageID := page.ID(tableLastRowPage)
	if tableLastRowPage == 0 {
		id, err := pgr.AllocateRowPage()
		if err != nil {
			return RowPtr{}, 0, err
		}
		targetPageID = id
	}

	needed := 2 + len(rowBytes)

	freeOffset, err := readFreeOffset(pgr, targetPageID)
	if err != nil {
		return RowPtr{}, 0, err
	}
	if int(freeOffset)+needed > pageSize {
		id, err := pgr.AllocateRowPage()
		if err != nil {
			return RowPtr{}, 0, err
		}
		targetPageID = id
		freeOffset, err = readFreeOffset(pgr, targetPageID)
		if err != nil {
			return RowPtr{}, 0, err
		}
	}

	if int(freeOffset)+needed > pageSize {
		return RowPtr{}, 0, invderr.Corrupt("rowpage.free_offset", "insufficient space after allocation")
	}

	if len(rowBytes) > 0xFFFF {
		return RowPtr{}, 0, invderr.NotSupported("row.too_large")
	}
	lenU16 := uint16(len(rowBytes))

	p, err := pgr.GetPageMut(targetPageID)
	if err != nil {
		return RowPtr{}, 0, err
	}
	buf := p.Bytes()
	binary.LittleEndian.PutUint16(buf[freeOffset:freeOffset+2], lenU16)
	rowStart := int(freeOffset) + 2
	copy(buf[rowStart:rowStart+len(rowBytes)], rowBytes)

	newFree := int(freeOffset) + needed
	if err := writeFreeOffset(p, uint16(newFree)); err != nil {
		return RowPtr{}, 0, err
	}

	ptr := RowPtr{
		PageID: uint32(targetPageID),
		Offset: freeOffset + 2,
		Len:    lenU16,
	}
	return ptr, uint32(targetPageID), nil
}

// ReadRow reads the row bytes identified by ptr.
func ReadRow(pgr Pager, ptr RowPtr) ([]byte, error) {
	if err := ptr.Validate(); err != nil {
		return nil, err
	}

	p, err := pgr.GetPage(page.ID(ptr.PageID))
	if err != nil {
		return nil, err
	}
	buf := p.Bytes()
	if p.Kind() != page.KindRow {
		return nil, invderr.Corrupt("rowpage.kind", "expected %d got %d", page.KindRow, p.Kind())
	}
	if err := p.ValidateHeader(); err != nil {
		return nil, err
	}
	if err := validateRowPageHeader(buf); err != nil {
		return nil, err
	}

	if ptr.Offset < 2 {
		return nil, invderr.Corrupt("rowptr.invalid", "offset underflow")
	}
	lenOffset := int(ptr.Offset) - 2
	if lenOffset+2 > len(buf) {
		return nil, invderr.Corrupt("rowpage.len_mismatch", "length field out of bounds")
	}
	storedLen := binary.LittleEndian.Uint16(buf[lenOffset : lenOffset+2])
	if storedLen != ptr.Len {
		return nil, invderr.Corrupt("rowpage.len_mismatch", "stored %d != ptr %d", storedLen, ptr.Len)
	}

	start := int(ptr.Offset)
	end := start + int(ptr.Len)
	if end > len(buf) {
		return nil, invderr.Corrupt("rowptr.invalid", "row extends beyond page")
	}

	out := make([]byte, ptr.Len)
	copy(out, buf[start:end])
	return out, nil
}
