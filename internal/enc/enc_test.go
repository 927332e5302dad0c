package enc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUvarintRoundTrip(t *testing.T) {
	r := require.New(t)

	for i := 0; i < 2048; i++ {
		buf := PutUvarint(nil, uint64(i))
		v, n, err := Uvarint(buf, 0)
		r.NoError(err)
		r.Equal(uint64(i), v)
		r.Equal(len(buf), n)
	}
}

func TestUvarintLargeValues(t *testing.T) {
	r := require.New(t)

	values := []uint64{0, 1, 127, 128, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range values {
		buf := PutUvarint(nil, v)
		got, _, err := Uvarint(buf, 0)
		r.NoError(err)
		r.Equal(v, got)
	}
}

func TestUvarintTooLong(t *testing.T) {
	r := require.New(t)

	buf := make([]byte, 11)
	for i := range buf {
		buf[i] = 0x80
	}
	_, _, err := Uvarint(buf, 0)
	r.Error(err)
}

func TestUvarintTruncated(t *testing.T) {
	r := require.New(t)

	_, _, err := Uvarint([]byte{0x80, 0x80}, 0)
	r.Error(err)
}

func TestFixedWidthRoundTrip(t *testing.T) {
	r := require.New(t)

	buf := PutUint32(nil, 0xDEADBEEF)
	v, n, err := Uint32(buf, 0)
	r.NoError(err)
	r.Equal(uint32(0xDEADBEEF), v)
	r.Equal(4, n)

	buf = PutUint64(nil, 0x0102030405060708)
	v64, n, err := Uint64(buf, 0)
	r.NoError(err)
	r.Equal(uint64(0x0102030405060708), v64)
	r.Equal(8, n)
}

func TestBytesRoundTrip(t *testing.T) {
	r := require.New(t)

	payload := []byte("some row bytes")
	buf := PutBytes(nil, payload)
	got, n, err := Bytes(buf, 0, 1024)
	r.NoError(err)
	r.Equal(payload, got)
	r.Equal(len(buf), n)
}

func TestBytesRejectsOverMax(t *testing.T) {
	r := require.New(t)

	buf := PutBytes(nil, make([]byte, 100))
	_, _, err := Bytes(buf, 0, 10)
	r.Error(err)
}

func TestBytesRejectsTruncation(t *testing.T) {
	r := require.New(t)

	buf := PutBytes(nil, []byte("hello"))
	_, _, err := Bytes(buf[:len(buf)-2], 0, 1024)
	r.Error(err)
}

func TestStringRoundTrip(t *testing.T) {
	r := require.New(t)

	buf := PutString(nil, "hello, invdb")
	got, n, err := String(buf, 0, 1024)
	r.NoError(err)
	r.Equal("hello, invdb", got)
	r.Equal(len(buf), n)
}

func TestStringRejectsInvalidUTF8(t *testing.T) {
	r := require.New(t)

	buf := PutBytes(nil, []byte{0xff, 0xfe, 0xfd})
	_, _, err := String(buf, 0, 1024)
	r.Error(err)
}
