package rowcodec

import (
	"bytes"

	"github.com/invdb/invdb/internal/enc"
	"github.com/invdb/invdb/internal/invderr"
)

// rowMagic tags the start of every encoded row so a misreferenced page
// payload is caught immediately rather than silently misparsed.
var rowMagic = []byte("ROW1")

// Tag discriminates an encoded value's wire type. A value's Tag need not
// match its column's declared ColType only when Tag is TagNull.
type Tag byte

const (
	TagNull Tag = iota
	TagU32
	TagU64
	TagI64
	TagBool
	TagBytes
	TagString
)

// Value is one self-describing column value.
type Value struct {
	Tag    Tag
	u32    uint32
	u64    uint64
	i64    int64
	b      bool
	bytes  []byte
	str    string
}

func NullValue() Value            { return Value{Tag: TagNull} }
func U32Value(v uint32) Value     { return Value{Tag: TagU32, u32: v} }
func U64Value(v uint64) Value     { return Value{Tag: TagU64, u64: v} }
func I64Value(v int64) Value      { return Value{Tag: TagI64, i64: v} }
func BoolValue(v bool) Value      { return Value{Tag: TagBool, b: v} }
func BytesValue(v []byte) Value   { return Value{Tag: TagBytes, bytes: v} }
func StringValue(v string) Value  { return Value{Tag: TagString, str: v} }

func (v Value) IsNull() bool { return v.Tag == TagNull }
func (v Value) U32() uint32  { return v.u32 }
func (v Value) U64() uint64  { return v.u64 }
func (v Value) I64() int64   { return v.i64 }
func (v Value) Bool() bool   { return v.b }
func (v Value) Bytes() []byte { return v.bytes }
func (v Value) String() string { return v.str }

func (v Value) colType() ColType {
	switch v.Tag {
	case TagU32:
		return ColU32
	case TagU64:
		return ColU64
	case TagI64:
		return ColI64
	case TagBool:
		return ColBool
	case TagBytes:
		return ColBytes
	case TagString:
		return ColString
	default:
		return 0
	}
}

// Row is an ordered list of values, one per schema column.
type Row struct {
	Values []Value
}

// Validate checks a row against its schema: the value count must match
// the column count, each non-null value's tag must match its column's
// declared type, and a null value is only permitted for nullable columns.
func Validate(schema Schema, row Row) error {
	if len(row.Values) != schema.Len() {
		return invderr.InvalidArg("row.values", "expected %d values, got %d", schema.Len(), len(row.Values))
	}
	for i, col := range schema.Columns {
		v := row.Values[i]
		if v.IsNull() {
			if !col.Nullable {
				return invderr.InvalidArg("row.values", "column %q is not nullable", col.Name)
			}
			continue
		}
		if v.colType() != col.Type {
			return invderr.InvalidArg("row.values", "column %q expects %s, got %s", col.Name, colTypeName(col.Type), colTypeName(v.colType()))
		}
	}
	return nil
}

// Encode serializes a validated row as: magic, uvarint column count, then
// per column a tag byte followed by the tag-specific payload.
func Encode(schema Schema, row Row) ([]byte, error) {
	if err := Validate(schema, row); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, rowMagic...)
	buf = enc.PutUvarint(buf, uint64(len(row.Values)))

	for _, v := range row.Values {
		buf = append(buf, byte(v.Tag))
		switch v.Tag {
		case TagNull:
		case TagU32:
			buf = enc.PutUint32(buf, v.u32)
		case TagU64:
			buf = enc.PutUint64(buf, v.u64)
		case TagI64:
			buf = enc.PutUint64(buf, uint64(v.i64))
		case TagBool:
			if v.b {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case TagBytes:
			buf = enc.PutBytes(buf, v.bytes)
		case TagString:
			buf = enc.PutString(buf, v.str)
		default:
			return nil, invderr.Corrupt("row.tag", "unknown value tag %d", v.Tag)
		}
	}

	return buf, nil
}

// maxColumns bounds the uvarint column count read from a row buffer so a
// corrupted count can't drive an absurd decode loop.
const maxColumns = 4096

// Decode parses raw row bytes against schema, validating the magic,
// column count, each value's tag/type agreement, and that no trailing
// bytes remain after the last column.
func Decode(schema Schema, raw []byte) (Row, error) {
	if len(raw) < len(rowMagic) || !bytes.Equal(raw[:len(rowMagic)], rowMagic) {
		return Row{}, invderr.Corrupt("row.magic", "missing or mismatched row magic")
	}
	pos := len(rowMagic)

	count, n, err := enc.Uvarint(raw, pos)
	if err != nil {
		return Row{}, err
	}
	pos += n

	if count > maxColumns {
		return Row{}, invderr.Corrupt("row.column_count", "column count %d exceeds max %d", count, maxColumns)
	}
	if int(count) != schema.Len() {
		return Row{}, invderr.Corrupt("row.column_count", "expected %d columns, got %d", schema.Len(), count)
	}

	values := make([]Value, 0, count)
	for i := 0; i < int(count); i++ {
		if pos >= len(raw) {
			return Row{}, invderr.Corrupt("row.truncated", "ran out of bytes decoding column %d", i)
		}
		tag := Tag(raw[pos])
		pos++

		col := schema.Columns[i]

		var v Value
		switch tag {
		case TagNull:
			if !col.Nullable {
				return Row{}, invderr.Corrupt("row.null", "column %q is not nullable", col.Name)
			}
			v = NullValue()
		case TagU32:
			if col.Type != ColU32 {
				return Row{}, invderr.Corrupt("row.type", "column %q expects %s, got U32", col.Name, colTypeName(col.Type))
			}
			var val uint32
			val, pos, err = enc.Uint32(raw, pos)
			if err != nil {
				return Row{}, err
			}
			v = U32Value(val)
		case TagU64:
			if col.Type != ColU64 {
				return Row{}, invderr.Corrupt("row.type", "column %q expects %s, got U64", col.Name, colTypeName(col.Type))
			}
			var val uint64
			val, pos, err = enc.Uint64(raw, pos)
			if err != nil {
				return Row{}, err
			}
			v = U64Value(val)
		case TagI64:
			if col.Type != ColI64 {
				return Row{}, invderr.Corrupt("row.type", "column %q expects %s, got I64", col.Name, colTypeName(col.Type))
			}
			var val uint64
			val, pos, err = enc.Uint64(raw, pos)
			if err != nil {
				return Row{}, err
			}
			v = I64Value(int64(val))
		case TagBool:
			if col.Type != ColBool {
				return Row{}, invderr.Corrupt("row.type", "column %q expects %s, got Bool", col.Name, colTypeName(col.Type))
			}
			if pos >= len(raw) {
				return Row{}, invderr.Corrupt("row.truncated", "ran out of bytes decoding bool for %q", col.Name)
			}
			b := raw[pos]
			if b > 1 {
				return Row{}, invderr.Corrupt("row.bool", "invalid bool byte %d for %q", b, col.Name)
			}
			pos++
			v = BoolValue(b == 1)
		case TagBytes:
			if col.Type != ColBytes {
				return Row{}, invderr.Corrupt("row.type", "column %q expects %s, got Bytes", col.Name, colTypeName(col.Type))
			}
			var val []byte
			val, pos, err = enc.Bytes(raw, pos, maxValueLen)
			if err != nil {
				return Row{}, err
			}
			v = BytesValue(val)
		case TagString:
			if col.Type != ColString {
				return Row{}, invderr.Corrupt("row.type", "column %q expects %s, got String", col.Name, colTypeName(col.Type))
			}
			var val string
			val, pos, err = enc.String(raw, pos, maxValueLen)
			if err != nil {
				return Row{}, err
			}
			v = StringValue(val)
		default:
			return Row{}, invderr.Corrupt("row.tag", "unknown value tag %d for column %q", tag, col.Name)
		}

		values = append(values, v)
	}

	if pos != len(raw) {
		return Row{}, invderr.Corrupt("row.trailing_bytes", "%d unconsumed bytes after last column", len(raw)-pos)
	}

	return Row{Values: values}, nil
}

// maxValueLen bounds Bytes/String column payloads.
const maxValueLen = pagePayloadMax

// pagePayloadMax mirrors the largest a single row's variable-length
// field could plausibly be; rows themselves are additionally bounded by
// the row store's max-row-length check.
const pagePayloadMax = 1 << 20

