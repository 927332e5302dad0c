// Package pager implements the page cache, dirty-set tracking, and file
// header/catalog management sitting beneath the B+-tree and row store.
// It is the concrete type satisfying btree.Pager and rowstore.Pager.
package pager

import (
	"encoding/binary"

	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/page"
)

// fileMagic identifies an INVDB database file.
var fileMagic = []byte("INVDB\x00\x00\x00")

const (
	fileFormatVersion   uint16 = 1
	minSupportedVersion uint16 = 1
	maxSupportedVersion uint16 = 1

	headerPageID  page.ID = 0
	rootPageID    page.ID = 1
	catalogPageID page.ID = 2

	headerPayloadLen = 24
)

func validateVersion(v uint16) error {
	if v >= minSupportedVersion && v <= maxSupportedVersion {
		return nil
	}
	return invderr.InvalidVersionErr(v, minSupportedVersion, maxSupportedVersion)
}

// encodeHeaderPage writes the 24-byte file header into a fresh page
// buffer: magic, version, page size, root page id, page count, reserved.
func encodeHeaderPage(version uint16, root page.ID, pageCount uint32) *page.Page {
	p := page.New(headerPageID)
	buf := p.Bytes()

	copy(buf[0:8], fileMagic)
	binary.LittleEndian.PutUint16(buf[8:10], version)
	binary.LittleEndian.PutUint16(buf[10:12], page.Size)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(root))
	binary.LittleEndian.PutUint32(buf[16:20], pageCount)
	binary.LittleEndian.PutUint32(buf[20:24], 0)

	return p
}

// decodeAndValidateHeaderPage parses the file header, checking magic,
// supported version range, declared page size, reserved bytes, and that
// page_count/root_page_id are mutually consistent.
func decodeAndValidateHeaderPage(p *page.Page) (version uint16, root page.ID, pageCount uint32, err error) {
	buf := p.Bytes()

	found := buf[0:8]
	if string(found) != string(fileMagic) {
		var foundCopy [8]byte
		copy(foundCopy[:], found)
		var expectedCopy [8]byte
		copy(expectedCopy[:], fileMagic)
		return 0, 0, 0, invderr.InvalidMagicErr(expectedCopy[:], foundCopy[:])
	}

	version = binary.LittleEndian.Uint16(buf[8:10])
	if err := validateVersion(version); err != nil {
		return 0, 0, 0, err
	}

	pageSize := binary.LittleEndian.Uint16(buf[10:12])
	if int(pageSize) != page.Size {
		return 0, 0, 0, invderr.Corrupt("header.page_size", "expected %d got %d", page.Size, pageSize)
	}

	rootRaw := binary.LittleEndian.Uint32(buf[12:16])
	pageCount = binary.LittleEndian.Uint32(buf[16:20])

	reserved := binary.LittleEndian.Uint32(buf[20:24])
	if reserved != 0 {
		return 0, 0, 0, invderr.NotSupported("header.reserved_nonzero")
	}

	if pageCount < 2 {
		return 0, 0, 0, invderr.Corrupt("header.page_count", "expected >=2 got %d", pageCount)
	}

	if rootRaw == 0 || rootRaw >= pageCount {
		return 0, 0, 0, invderr.Corrupt("header.root_page_id", "root_page_id %d invalid for page_count %d", rootRaw, pageCount)
	}

	return version, page.ID(rootRaw), pageCount, nil
}
