// Package page implements the fixed-size page buffer shared by every
// on-disk structure: the 4096-byte slot, its 16-byte sub-header, and the
// validation every page (other than the file header page) must pass
// before its payload is trusted.
package page

import (
	"encoding/binary"

	"github.com/invdb/invdb/internal/invderr"
)

// Size is the logical page size in bytes. Fixed for the life of the format.
const Size = 4096

// HeaderLen is the length of the per-page sub-header preceding the payload.
const HeaderLen = 16

// Kind discriminates what a page's payload holds.
type Kind byte

const (
	// KindBTree marks a B+-tree node page.
	KindBTree Kind = 2
	// KindCatalog marks the catalog/meta page.
	KindCatalog Kind = 3
	// KindRow marks a row storage page.
	KindRow Kind = 4
)

// ID identifies a page within the file. ID 0 is always the file header.
type ID uint32

// IsHeader reports whether id addresses the file header page.
func (id ID) IsHeader() bool {
	return id == 0
}

// Checked converts a uint64 page index into an ID, reporting Overflow
// rather than silently truncating. The engine's own page-count paths
// (pager allocation, dbfile.PageCount) do their own range checks and do
// not call it.
func Checked(i uint64) (ID, error) {
	if i > uint64(^uint32(0)) {
		return 0, invderr.OverflowErr("page index exceeds uint32 range")
	}
	return ID(i), nil
}

// Page is an in-memory buffer for exactly Size bytes plus its own id.
type Page struct {
	id  ID
	buf [Size]byte
}

// New returns a zeroed page buffer for id.
func New(id ID) *Page {
	return &Page{id: id}
}

// FromBytes wraps an existing Size-byte buffer as a Page, taking ownership
// of its contents by copying them in.
func FromBytes(id ID, data []byte) (*Page, error) {
	if len(data) != Size {
		return nil, invderr.Corrupt("page.size", "expected %d bytes, got %d", Size, len(data))
	}
	p := &Page{id: id}
	copy(p.buf[:], data)
	return p, nil
}

// ID returns the page's identifier.
func (p *Page) ID() ID {
	return p.id
}

// Bytes returns the full raw page buffer, header included.
func (p *Page) Bytes() []byte {
	return p.buf[:]
}

// Payload returns the mutable slice following the sub-header.
func (p *Page) Payload() []byte {
	return p.buf[HeaderLen:]
}

// InitHeader writes a fresh sub-header of the given kind: flags, reserved,
// and the CRC placeholder all zero, self-id populated at bytes 8..12.
func (p *Page) InitHeader(kind Kind) {
	p.buf[0] = byte(kind)
	p.buf[1] = 0
	binary.LittleEndian.PutUint16(p.buf[2:4], 0)
	binary.LittleEndian.PutUint32(p.buf[4:8], 0)
	binary.LittleEndian.PutUint32(p.buf[8:12], uint32(p.id))
	binary.LittleEndian.PutUint32(p.buf[12:16], 0)
}

// Kind reads the page kind discriminator byte.
func (p *Page) Kind() Kind {
	return Kind(p.buf[0])
}

// ValidateHeader checks the sub-header invariants for a non-header page:
// flags must be 0, both reserved fields must be 0, the CRC placeholder
// must be 0 (nonzero surfaces as Unsupported to reserve the field for a
// future format), and the self-id must match the page's own id.
func (p *Page) ValidateHeader() error {
	flags := p.buf[1]
	if flags != 0 {
		return invderr.NotSupported("page.flags")
	}

	reserved := binary.LittleEndian.Uint16(p.buf[2:4])
	if reserved != 0 {
		return invderr.Corrupt("page.reserved", "expected 0 got %d", reserved)
	}

	crc := binary.LittleEndian.Uint32(p.buf[4:8])
	if crc != 0 {
		return invderr.NotSupported("page.crc32")
	}

	selfID := binary.LittleEndian.Uint32(p.buf[8:12])
	if ID(selfID) != p.id {
		return invderr.Corrupt("page.page_id", "expected %d got %d", p.id, selfID)
	}

	reserved2 := binary.LittleEndian.Uint32(p.buf[12:16])
	if reserved2 != 0 {
		return invderr.Corrupt("page.reserved2", "expected 0 got %d", reserved2)
	}

	return nil
}
