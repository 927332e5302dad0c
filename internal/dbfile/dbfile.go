// Package dbfile provides page-aligned read/write access to the backing
// file for an INVDB database.
package dbfile

import (
	"io"
	"os"

	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/page"
)

// File wraps the on-disk handle for page-aligned I/O.
type File struct {
	f    *os.File
	path string
}

// Create opens a new backing file, truncating any existing contents.
func Create(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return nil, invderr.IOErr("create", err)
	}
	return &File{f: f, path: path}, nil
}

// Open opens an existing backing file for read/write access.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, invderr.IOErr("open", err)
	}
	return &File{f: f, path: path}, nil
}

// Path returns the file's path.
func (f *File) Path() string {
	return f.path
}

// Close closes the backing file.
func (f *File) Close() error {
	if err := f.f.Close(); err != nil {
		return invderr.IOErr("close", err)
	}
	return nil
}

// Sync flushes the backing file's contents to stable storage.
func (f *File) Sync() error {
	if err := f.f.Sync(); err != nil {
		return invderr.IOErr("sync", err)
	}
	return nil
}

// ReadPage reads exactly page.Size bytes for id into a fresh Page.
// A short read (file shorter than expected) is reported as Corruption
// rather than a bare I/O error, since it reflects a torn/truncated file
// rather than a transient I/O condition.
func (f *File) ReadPage(id page.ID) (*page.Page, error) {
	buf := make([]byte, page.Size)
	offset := int64(id) * int64(page.Size)
	n, err := f.f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, invderr.IOErr("read_page", err)
	}
	if n != page.Size {
		return nil, invderr.Corrupt("file.short_read", "read %d of %d bytes for page %d", n, page.Size, id)
	}
	return page.FromBytes(id, buf)
}

// WritePage overwrites the full page slot for id.
func (f *File) WritePage(id page.ID, p *page.Page) error {
	offset := int64(id) * int64(page.Size)
	if _, err := f.f.WriteAt(p.Bytes(), offset); err != nil {
		return invderr.IOErr("write_page", err)
	}
	return nil
}

// Len returns the current file length in bytes.
func (f *File) Len() (int64, error) {
	info, err := f.f.Stat()
	if err != nil {
		return 0, invderr.IOErr("stat", err)
	}
	return info.Size(), nil
}

// PageCount returns the number of whole pages in the file, reporting
// Corruption if the file length isn't an exact multiple of page.Size.
func (f *File) PageCount() (uint32, error) {
	length, err := f.Len()
	if err != nil {
		return 0, err
	}
	if length%int64(page.Size) != 0 {
		return 0, invderr.Corrupt("file.len_alignment", "length %d not aligned to %d", length, page.Size)
	}
	count := length / int64(page.Size)
	if count > int64(^uint32(0)) {
		return 0, invderr.OverflowErr("file page count exceeds uint32 range")
	}
	return uint32(count), nil
}
