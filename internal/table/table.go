// Package table implements table-level row operations — insert, point
// lookup by primary key, and full scan — layered over the catalog,
// B+-tree, and row store.
package table

import (
	"github.com/sirupsen/logrus"

	"github.com/invdb/invdb/internal/btree"
	"github.com/invdb/invdb/internal/catalog"
	"github.com/invdb/invdb/internal/enc"
	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/page"
	"github.com/invdb/invdb/internal/rowcodec"
	"github.com/invdb/invdb/internal/rowstore"
)

// Pager is the page-access surface table operations need: everything
// btree and rowstore require, plus root-page bookkeeping.
type Pager interface {
	btree.Pager
	rowstore.Pager
	RootPageID() page.ID
	SetRootPageID(id page.ID) error
}

// compositeKey mixes a table id and primary key into the single u32 key
// space the global B+-tree is indexed by. The exact bit pattern is
// load-bearing: any on-disk composite key was produced by this formula,
// and changing it would silently corrupt every existing row lookup.
func compositeKey(tableID uint32, pk uint32) uint32 {
	x := tableID ^ 0x9E3779B9
	x = x * 0x85EBCA6B
	x ^= pk + 0xC2B2AE35
	x = x * 0x27D4EB2F
	return x ^ (x >> 16)
}

func findTable(cat *catalog.Catalog, name string) (*catalog.TableDef, error) {
	def, ok := cat.GetByName(name)
	if !ok {
		return nil, invderr.InvalidArg("table", "not found")
	}
	return def, nil
}

// InsertRow assigns the table's next primary key to row, appends its
// encoded bytes to the row store, and indexes it in the global B+-tree
// under the row's composite key. Returns the assigned pk. log is
// optional; pass nil to run silently.
func InsertRow(pgr Pager, cat *catalog.Catalog, tableName string, row rowcodec.Row, log *logrus.Logger) (uint32, error) {
	def, err := findTable(cat, tableName)
	if err != nil {
		return 0, err
	}

	pk := def.NextPK
	if pk == ^uint32(0) {
		return 0, invderr.OverflowErr("table.next_pk")
	}
	def.NextPK = pk + 1

	encodedRow, err := rowcodec.Encode(def.Schema, row)
	if err != nil {
		return 0, err
	}

	stored := make([]byte, 0, 4+len(encodedRow))
	stored = enc.PutUint32(stored, pk)
	stored = append(stored, encodedRow...)

	ptr, newLastPage, err := rowstore.AppendRow(pgr, def.LastRowPage, stored)
	if err != nil {
		return 0, err
	}
	def.LastRowPage = newLastPage

	composite := compositeKey(uint32(def.ID), pk)
	packed := ptr.Pack()
	root := pgr.RootPageID()
	newRoot, err := btree.InsertU64(pgr, root, composite, packed)
	if err != nil {
		return 0, err
	}
	if newRoot != root {
		if err := pgr.SetRootPageID(newRoot); err != nil {
			return 0, err
		}
		if log != nil {
			log.WithFields(logrus.Fields{"table": tableName, "old_root": root, "new_root": newRoot}).Debug("root split")
		}
	}

	if log != nil {
		log.WithFields(logrus.Fields{"table": tableName, "pk": pk}).Trace("inserted row")
	}

	return pk, nil
}

// GetRowByPk looks up a row by primary key, returning ok=false if no
// row is indexed under that key.
func GetRowByPk(pgr Pager, cat *catalog.Catalog, tableName string, pk uint32) (rowcodec.Row, bool, error) {
	def, err := findTable(cat, tableName)
	if err != nil {
		return rowcodec.Row{}, false, err
	}

	composite := compositeKey(uint32(def.ID), pk)
	root := pgr.RootPageID()
	packed, found, err := btree.SearchU64(pgr, root, composite)
	if err != nil {
		return rowcodec.Row{}, false, err
	}
	if !found {
		return rowcodec.Row{}, false, nil
	}

	ptr := rowstore.UnpackRowPtr(packed)
	if err := ptr.Validate(); err != nil {
		return rowcodec.Row{}, false, err
	}

	stored, err := rowstore.ReadRow(pgr, ptr)
	if err != nil {
		return rowcodec.Row{}, false, err
	}
	if len(stored) < 4 {
		return rowcodec.Row{}, false, invderr.Corrupt("table.pk_mismatch", "stored row too small")
	}

	storedPK, _, err := enc.Uint32(stored, 0)
	if err != nil {
		return rowcodec.Row{}, false, err
	}
	if storedPK != pk {
		return rowcodec.Row{}, false, invderr.Corrupt("table.pk_mismatch", "expected %d got %d", pk, storedPK)
	}

	row, err := rowcodec.Decode(def.Schema, stored[4:])
	if err != nil {
		return rowcodec.Row{}, false, err
	}
	return row, true, nil
}

// ScannedRow pairs a primary key with its decoded row.
type ScannedRow struct {
	PK  uint32
	Row rowcodec.Row
}

// ScanTable enumerates pk in [1, next_pk) and collects present rows in
// ascending pk order. Deliberately naive (one tree lookup per pk) rather
// than a leaf-chain walk — see compositeKey: the leaf chain is ordered
// by composite key, not by pk, so it cannot produce pk order directly.
func ScanTable(pgr Pager, cat *catalog.Catalog, tableName string) ([]ScannedRow, error) {
	def, err := findTable(cat, tableName)
	if err != nil {
		return nil, err
	}

	var rows []ScannedRow
	for pk := uint32(1); pk < def.NextPK; pk++ {
		row, found, err := GetRowByPk(pgr, cat, tableName, pk)
		if err != nil {
			return nil, err
		}
		if found {
			rows = append(rows, ScannedRow{PK: pk, Row: row})
		}
	}
	return rows, nil
}
