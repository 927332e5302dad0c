// Package rowstore implements append-only row storage: packing/unpacking
// the row pointer that a B+-tree leaf value carries, and appending/
// reading row bytes within row-kind pages.
package rowstore

import "github.com/invdb/invdb/internal/invderr"

// maxRowBytes bounds a single encoded row.
const maxRowBytes = 3500

// RowPtr locates a stored row: its page, the byte offset of its data
// (not its length prefix), and its length.
type RowPtr struct {
	PageID uint32
	Offset uint16
	Len    uint16
}

// Pack folds a RowPtr into the u64 a B+-tree leaf stores as its value:
// page_id in the high 32 bits, offset in the next 16, len in the low 16.
func (p RowPtr) Pack() uint64 {
	return (uint64(p.PageID) << 32) | (uint64(p.Offset) << 16) | uint64(p.Len)
}

// UnpackRowPtr reverses Pack.
func UnpackRowPtr(v uint64) RowPtr {
	return RowPtr{
		PageID: uint32(v >> 32),
		Offset: uint16((v >> 16) & 0xFFFF),
		Len:    uint16(v & 0xFFFF),
	}
}

// Validate checks a RowPtr's fields against the invariants a valid
// pointer must satisfy regardless of what page it names.
func (p RowPtr) Validate() error {
	if p.PageID == 0 {
		return invderr.Corrupt("rowptr.invalid", "page_id is 0")
	}
	if p.Offset < rowDataStart {
		return invderr.Corrupt("rowptr.invalid", "offset %d too small", p.Offset)
	}
	if p.Len == 0 {
		return invderr.Corrupt("rowptr.invalid", "len is 0")
	}
	end := uint32(p.Offset) + uint32(p.Len)
	if end > pageSize {
		return invderr.Corrupt("rowptr.invalid", "end %d exceeds page size", end)
	}
	return nil
}
