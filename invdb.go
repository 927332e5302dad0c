// Package invdb is the library surface over the paged storage engine:
// create/open a database file, manage tables through the catalog, and
// read/write rows or raw key-value pairs.
package invdb

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/invdb/invdb/internal/btree"
	"github.com/invdb/invdb/internal/catalog"
	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/pager"
	"github.com/invdb/invdb/internal/rowcodec"
	"github.com/invdb/invdb/internal/table"
)

// Db is a single open database file. Exactly one owner may hold a Db at
// a time; no method is safe to call concurrently or re-entrantly from
// another goroutine.
type Db struct {
	pgr *pager.Pager
	cat catalog.Catalog
	log *logrus.Logger
}

func validatePath(path string) error {
	if path == "" {
		return invderr.InvalidArg("path", "path must not be empty")
	}
	if strings.EqualFold(filepath.Ext(path), ".wal") {
		return invderr.NotSupported("path.wal_extension")
	}
	return nil
}

// Create initializes a new database file at path. Like NewBackend, a
// logger is always passed in explicitly rather than reached for via a
// package-global; pass nil to run silently.
func Create(path string, log *logrus.Logger) (*Db, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	pgr, err := pager.Create(path, log)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.WithField("path", path).Info("created database")
	}

	return &Db{pgr: pgr, cat: catalog.Empty(), log: log}, nil
}

// Open opens an existing database file at path and runs the structural
// validator before returning a handle, so a corrupted file fails here
// rather than lazily at the first bad read.
func Open(path string, log *logrus.Logger) (*Db, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	pgr, err := pager.Open(path, log)
	if err != nil {
		return nil, err
	}

	if err := Validate(pgr); err != nil {
		_ = pgr.Close()
		return nil, err
	}

	cat, err := pgr.ReadCatalog()
	if err != nil {
		_ = pgr.Close()
		return nil, err
	}
	if log != nil {
		log.WithField("path", path).Info("opened database")
	}

	return &Db{pgr: pgr, cat: cat, log: log}, nil
}

// Close flushes dirty state best-effort and closes the backing file.
// Go has no destructor INVDB can rely on for durability: callers that
// need writes to be durable must call Flush and check its error before
// Close, not rely on Close alone.
func (db *Db) Close() error {
	if err := db.Flush(); err != nil {
		_ = db.pgr.Close()
		return err
	}
	return db.pgr.Close()
}

// Flush persists the current catalog and every dirty page to disk.
func (db *Db) Flush() error {
	if err := db.pgr.WriteCatalog(db.cat); err != nil {
		return err
	}
	if err := db.pgr.Flush(); err != nil {
		return err
	}
	if db.log != nil {
		db.log.WithField("path", db.pgr.Path()).Info("flushed database")
	}
	return nil
}

// Version reports the on-disk format version.
func (db *Db) Version() uint16 {
	return db.pgr.Version()
}

// Path returns the database file's path.
func (db *Db) Path() string {
	return db.pgr.Path()
}

// CreateTable registers a new table with the given schema.
func (db *Db) CreateTable(name string, schema rowcodec.Schema) (catalog.TableID, error) {
	id, err := db.cat.CreateTable(name, schema)
	if err != nil {
		return 0, err
	}
	if db.log != nil {
		db.log.WithField("table", name).Debug("created table")
	}
	return id, nil
}

// GetTable looks up a table's definition by name.
func (db *Db) GetTable(name string) (catalog.TableDef, bool) {
	def, ok := db.cat.GetByName(name)
	if !ok {
		return catalog.TableDef{}, false
	}
	return *def, true
}

// ListTables returns every registered table definition.
func (db *Db) ListTables() []catalog.TableDef {
	return db.cat.List()
}

// InsertRow assigns a fresh pk to row and indexes it under tableName.
func (db *Db) InsertRow(tableName string, row rowcodec.Row) (uint32, error) {
	return table.InsertRow(db.pgr, &db.cat, tableName, row, db.log)
}

// GetRowByPk looks up a row by primary key.
func (db *Db) GetRowByPk(tableName string, pk uint32) (rowcodec.Row, bool, error) {
	return table.GetRowByPk(db.pgr, &db.cat, tableName, pk)
}

// ScanTable returns every present row in ascending pk order.
func (db *Db) ScanTable(tableName string) ([]table.ScannedRow, error) {
	return table.ScanTable(db.pgr, &db.cat, tableName)
}

// PutU64 writes a raw key-value pair directly into the tree, bypassing
// the table layer. Useful for tests and callers that don't need typed
// rows.
func (db *Db) PutU64(key uint32, value uint64) error {
	root := db.pgr.RootPageID()
	newRoot, err := btree.InsertU64(db.pgr, root, key, value)
	if err != nil {
		return err
	}
	if newRoot != root {
		return db.pgr.SetRootPageID(newRoot)
	}
	return nil
}

// GetU64 reads a raw key-value pair directly from the tree.
func (db *Db) GetU64(key uint32) (uint64, bool, error) {
	root := db.pgr.RootPageID()
	return btree.SearchU64(db.pgr, root, key)
}
