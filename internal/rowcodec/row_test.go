package rowcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSchema(r *require.Assertions) Schema {
	s, err := NewSchema([]Column{
		{Name: "id", Type: ColU32},
		{Name: "amount", Type: ColI64},
		{Name: "active", Type: ColBool},
		{Name: "tag", Type: ColBytes},
		{Name: "name", Type: ColString, Nullable: true},
	})
	r.NoError(err)
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := require.New(t)
	schema := testSchema(r)

	row := Row{Values: []Value{
		U32Value(7),
		I64Value(-42),
		BoolValue(true),
		BytesValue([]byte{1, 2, 3}),
		StringValue("hello"),
	}}

	raw, err := Encode(schema, row)
	r.NoError(err)

	got, err := Decode(schema, raw)
	r.NoError(err)
	r.Equal(row, got)
}

func TestEncodeDecodeNullableColumn(t *testing.T) {
	r := require.New(t)
	schema := testSchema(r)

	row := Row{Values: []Value{
		U32Value(1),
		I64Value(0),
		BoolValue(false),
		BytesValue(nil),
		NullValue(),
	}}

	raw, err := Encode(schema, row)
	r.NoError(err)

	got, err := Decode(schema, raw)
	r.NoError(err)
	r.True(got.Values[4].IsNull())
}

func TestValidateRejectsNullOnNonNullableColumn(t *testing.T) {
	r := require.New(t)
	schema := testSchema(r)

	row := Row{Values: []Value{
		NullValue(),
		I64Value(0),
		BoolValue(false),
		BytesValue(nil),
		NullValue(),
	}}

	_, err := Encode(schema, row)
	r.Error(err)
}

func TestValidateRejectsTypeMismatch(t *testing.T) {
	r := require.New(t)
	schema := testSchema(r)

	row := Row{Values: []Value{
		U64Value(1),
		I64Value(0),
		BoolValue(false),
		BytesValue(nil),
		NullValue(),
	}}

	_, err := Encode(schema, row)
	r.Error(err)
}

func TestValidateRejectsWrongColumnCount(t *testing.T) {
	r := require.New(t)
	schema := testSchema(r)

	row := Row{Values: []Value{U32Value(1)}}

	_, err := Encode(schema, row)
	r.Error(err)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	r := require.New(t)
	schema := testSchema(r)

	_, err := Decode(schema, []byte("XXXX"))
	r.Error(err)
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	r := require.New(t)
	schema := testSchema(r)

	row := Row{Values: []Value{
		U32Value(1),
		I64Value(0),
		BoolValue(false),
		BytesValue(nil),
		NullValue(),
	}}

	raw, err := Encode(schema, row)
	r.NoError(err)

	_, err = Decode(schema, append(raw, 0xFF))
	r.Error(err)
}

func TestDecodeRejectsTruncated(t *testing.T) {
	r := require.New(t)
	schema := testSchema(r)

	row := Row{Values: []Value{
		U32Value(1),
		I64Value(0),
		BoolValue(false),
		BytesValue(nil),
		NullValue(),
	}}

	raw, err := Encode(schema, row)
	r.NoError(err)

	_, err = Decode(schema, raw[:len(raw)-2])
	r.Error(err)
}

func TestDecodeRejectsColumnCountMismatch(t *testing.T) {
	r := require.New(t)
	schema := testSchema(r)

	other, err := NewSchema([]Column{{Name: "id", Type: ColU32}})
	r.NoError(err)

	row := Row{Values: []Value{U32Value(1)}}
	raw, err := Encode(other, row)
	r.NoError(err)

	_, err = Decode(schema, raw)
	r.Error(err)
}
