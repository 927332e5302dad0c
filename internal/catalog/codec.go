package catalog

import (
	"encoding/binary"

	"github.com/invdb/invdb/internal/enc"
	"github.com/invdb/invdb/internal/invderr"
	"github.com/invdb/invdb/internal/page"
	"github.com/invdb/invdb/internal/rowcodec"
)

var schemaMagic = []byte("SCH1")
var catalogMagic = []byte("CAT1")

const catalogVersion uint16 = 1

// maxNameLen bounds a column/table name decoded from disk.
const maxNameLen = 64

// maxSchemaBytes bounds one table's encoded schema.
const maxSchemaBytes = 64 * 1024

// EncodeSchema serializes a schema as: magic, uvarint column count, then
// per column a length-prefixed name, a type tag byte, and a nullable byte.
func EncodeSchema(schema rowcodec.Schema) ([]byte, error) {
	out := make([]byte, 0, 64)
	out = append(out, schemaMagic...)
	out = enc.PutUvarint(out, uint64(schema.Len()))

	for _, col := range schema.Columns {
		if len(col.Name) > maxNameLen {
			return nil, invderr.InvalidArg("column.name", "name too long")
		}
		out = enc.PutBytes(out, []byte(col.Name))
		out = append(out, byte(col.Type))
		if col.Nullable {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}

	return out, nil
}

// DecodeSchema parses schema bytes produced by EncodeSchema.
func DecodeSchema(raw []byte) (rowcodec.Schema, error) {
	if len(raw) < len(schemaMagic) || string(raw[:len(schemaMagic)]) != string(schemaMagic) {
		return rowcodec.Schema{}, invderr.Corrupt("schema.magic", "bad schema magic")
	}
	pos := len(schemaMagic)

	count, n, err := enc.Uvarint(raw, pos)
	if err != nil {
		return rowcodec.Schema{}, err
	}
	pos += n

	cols := make([]rowcodec.Column, 0, count)
	for i := uint64(0); i < count; i++ {
		nameBytes, next, err := enc.Bytes(raw, pos, maxNameLen)
		if err != nil {
			return rowcodec.Schema{}, err
		}
		pos = next

		if pos >= len(raw) {
			return rowcodec.Schema{}, invderr.Corrupt("schema.col_type", "missing tag")
		}
		tyTag := raw[pos]
		pos++
		ty, err := tagToColType(tyTag)
		if err != nil {
			return rowcodec.Schema{}, err
		}

		if pos >= len(raw) {
			return rowcodec.Schema{}, invderr.Corrupt("schema.nullable", "missing nullable byte")
		}
		nullableByte := raw[pos]
		pos++
		if nullableByte > 1 {
			return rowcodec.Schema{}, invderr.Corrupt("schema.nullable", "invalid nullable byte %d", nullableByte)
		}

		cols = append(cols, rowcodec.Column{
			Name:     string(nameBytes),
			Type:     ty,
			Nullable: nullableByte == 1,
		})
	}

	schema, err := rowcodec.NewSchema(cols)
	if err != nil {
		return rowcodec.Schema{}, invderr.Corrupt("schema.invalid", "%s", err.Error())
	}
	return schema, nil
}

func putUint16(out []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(out, b[:]...)
}

func tagToColType(tag byte) (rowcodec.ColType, error) {
	switch rowcodec.ColType(tag) {
	case rowcodec.ColU32, rowcodec.ColU64, rowcodec.ColI64, rowcodec.ColBool, rowcodec.ColBytes, rowcodec.ColString:
		return rowcodec.ColType(tag), nil
	default:
		return 0, invderr.Corrupt("schema.col_type", "unknown tag %d", tag)
	}
}

// Encode serializes a catalog into a page payload: magic, version,
// uint16 entry count, next_table_id, a reserved u32, then each table's
// id, name, encoded schema, next_pk and last_row_page.
func Encode(cat Catalog) ([]byte, error) {
	if len(cat.Tables) > 0xFFFF {
		return nil, invderr.NotSupported("catalog.page_overflow")
	}

	out := make([]byte, 0, page.Size-page.HeaderLen)
	out = append(out, catalogMagic...)
	out = putUint16(out, catalogVersion)
	out = putUint16(out, uint16(len(cat.Tables)))
	out = enc.PutUint32(out, cat.NextTableID)
	out = enc.PutUint32(out, 0)

	for _, table := range cat.Tables {
		out = enc.PutUint32(out, uint32(table.ID))
		out = enc.PutBytes(out, []byte(table.Name))

		schemaBytes, err := EncodeSchema(table.Schema)
		if err != nil {
			return nil, err
		}
		if len(schemaBytes) > maxSchemaBytes {
			return nil, invderr.Corrupt("catalog.schema.too_large", "schema bytes %d", len(schemaBytes))
		}
		out = enc.PutBytes(out, schemaBytes)

		out = enc.PutUint32(out, table.NextPK)
		out = enc.PutUint32(out, table.LastRowPage)
	}

	if len(out) > page.Size-page.HeaderLen {
		return nil, invderr.NotSupported("catalog.page_overflow")
	}

	return out, nil
}

// Decode parses a catalog page payload produced by Encode, rejecting a
// zero table id, duplicate table ids/names, and any next_pk of 0.
func Decode(payload []byte) (Catalog, error) {
	if len(payload) < 16 {
		return Catalog{}, invderr.Corrupt("catalog.eof", "payload too small")
	}
	if string(payload[0:4]) != string(catalogMagic) {
		return Catalog{}, invderr.Corrupt("catalog.magic", "invalid catalog magic")
	}

	version := binary.LittleEndian.Uint16(payload[4:6])
	if version != catalogVersion {
		return Catalog{}, invderr.NotSupported("catalog.version")
	}

	entryCount := int(binary.LittleEndian.Uint16(payload[6:8]))
	nextTableID := binary.LittleEndian.Uint32(payload[8:12])
	reserved := binary.LittleEndian.Uint32(payload[12:16])
	if reserved != 0 {
		return Catalog{}, invderr.NotSupported("catalog.reserved")
	}

	pos := 16
	tables := make([]TableDef, 0, entryCount)
	seenNames := make(map[string]struct{}, entryCount)
	seenIDs := make(map[uint32]struct{}, entryCount)

	for i := 0; i < entryCount; i++ {
		id, next, err := enc.Uint32(payload, pos)
		if err != nil {
			return Catalog{}, invderr.Corrupt("catalog.eof", "truncated table_id")
		}
		pos = next

		nameBytes, next, err := enc.Bytes(payload, pos, 256)
		if err != nil {
			return Catalog{}, err
		}
		pos = next
		name := string(nameBytes)
		if err := rowcodec.ValidateTableName(name); err != nil {
			return Catalog{}, invderr.Corrupt("catalog.name", "invalid table name on disk")
		}

		schemaBytes, next, err := enc.Bytes(payload, pos, maxSchemaBytes)
		if err != nil {
			return Catalog{}, err
		}
		pos = next

		schema, err := DecodeSchema(schemaBytes)
		if err != nil {
			return Catalog{}, err
		}

		nextPK, next, err := enc.Uint32(payload, pos)
		if err != nil {
			return Catalog{}, invderr.Corrupt("catalog.eof", "truncated table pk metadata")
		}
		pos = next

		lastRowPage, next, err := enc.Uint32(payload, pos)
		if err != nil {
			return Catalog{}, invderr.Corrupt("catalog.eof", "truncated table pk metadata")
		}
		pos = next

		if id == 0 {
			return Catalog{}, invderr.Corrupt("catalog.table_id", "table %q has id 0", name)
		}
		if nextPK < 1 {
			return Catalog{}, invderr.Corrupt("catalog.next_pk", "invalid next_pk %d", nextPK)
		}

		if _, dup := seenIDs[id]; dup {
			return Catalog{}, invderr.Corrupt("catalog.duplicate", "duplicate table id or name")
		}
		if _, dup := seenNames[name]; dup {
			return Catalog{}, invderr.Corrupt("catalog.duplicate", "duplicate table id or name")
		}
		seenIDs[id] = struct{}{}
		seenNames[name] = struct{}{}

		tables = append(tables, TableDef{
			ID:          TableID(id),
			Name:        name,
			Schema:      schema,
			NextPK:      nextPK,
			LastRowPage: lastRowPage,
		})
	}

	return Catalog{NextTableID: nextTableID, Tables: tables}, nil
}
