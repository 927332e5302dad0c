// Package catalog implements the in-memory table registry and its
// on-disk encoding, stored in the fixed catalog page (page id 2).
// It tracks every table's schema plus its next-primary-key and
// last-row-page counters.
package catalog

import (
	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/rowcodec"
)

// TableID identifies a table within a database.
type TableID uint32

// TableDef is one table's registered definition.
type TableDef struct {
	ID           TableID
	Name         string
	Schema       rowcodec.Schema
	NextPK       uint32
	LastRowPage  uint32
}

// Catalog is the full table registry.
type Catalog struct {
	NextTableID uint32
	Tables      []TableDef
}

// Empty returns a fresh catalog with no tables.
func Empty() Catalog {
	return Catalog{NextTableID: 1}
}

// GetByName looks up a table definition by name.
func (c *Catalog) GetByName(name string) (*TableDef, bool) {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i], true
		}
	}
	return nil, false
}

// GetByID looks up a table definition by id.
func (c *Catalog) GetByID(id TableID) (*TableDef, bool) {
	for i := range c.Tables {
		if c.Tables[i].ID == id {
			return &c.Tables[i], true
		}
	}
	return nil, false
}

// List returns every registered table definition.
func (c *Catalog) List() []TableDef {
	out := make([]TableDef, len(c.Tables))
	copy(out, c.Tables)
	return out
}

// CreateTable validates name and schema, assigns the next table id, and
// registers the table with fresh next_pk/last_row_page counters.
func (c *Catalog) CreateTable(name string, schema rowcodec.Schema) (TableID, error) {
	if err := rowcodec.ValidateTableName(name); err != nil {
		return 0, err
	}
	if _, exists := c.GetByName(name); exists {
		return 0, invderr.InvalidArg("table.name", "duplicate table name %q", name)
	}

	id := c.NextTableID
	if id == ^uint32(0) {
		return 0, invderr.OverflowErr("catalog.next_table_id")
	}
	c.NextTableID = id + 1

	c.Tables = append(c.Tables, TableDef{
		ID:          TableID(id),
		Name:        name,
		Schema:      schema,
		NextPK:      1,
		LastRowPage: 0,
	})

	return TableID(id), nil
}
