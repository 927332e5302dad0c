package invdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/invdb/invdb/internal/btree"
	"github.com/invdb/invdb/internal/page"
	"github.com/invdb/invdb/internal/rowcodec"
)

// tempDBPath names each test's database file with a fresh uuid so
// parallel runs within the same temp dir can never collide, the same
// role driver_test.go gives uuid when naming scratch connections.
func tempDBPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), uuid.New().String()+".invdb")
}

func TestCreateAndFlushFileLength(t *testing.T) {
	r := require.New(t)
	path := tempDBPath(t)

	db, err := Create(path, nil)
	r.NoError(err)
	r.NoError(db.Flush())
	r.NoError(db.Close())

	info, err := os.Stat(path)
	r.NoError(err)
	r.Equal(int64(3*page.Size), info.Size())

	reopened, err := Open(path, nil)
	r.NoError(err)
	r.NoError(reopened.Close())
}

func TestCreateRejectsEmptyAndWalPaths(t *testing.T) {
	r := require.New(t)

	_, err := Create("", nil)
	r.Error(err)

	_, err = Create(filepath.Join(t.TempDir(), "x.wal"), nil)
	r.Error(err)

	_, err = Open(filepath.Join(t.TempDir(), "x.wal"), nil)
	r.Error(err)
}

func TestTypedRoundTrip(t *testing.T) {
	r := require.New(t)
	db, err := Create(tempDBPath(t), nil)
	r.NoError(err)
	defer db.Close()

	schema, err := rowcodec.NewSchema([]rowcodec.Column{
		{Name: "age", Type: rowcodec.ColU32},
		{Name: "name", Type: rowcodec.ColString, Nullable: true},
	})
	r.NoError(err)

	_, err = db.CreateTable("users", schema)
	r.NoError(err)

	pk1, err := db.InsertRow("users", rowcodec.Row{Values: []rowcodec.Value{
		rowcodec.U32Value(20), rowcodec.StringValue("User1"),
	}})
	r.NoError(err)
	r.Equal(uint32(1), pk1)

	pk2, err := db.InsertRow("users", rowcodec.Row{Values: []rowcodec.Value{
		rowcodec.U32Value(25), rowcodec.StringValue("User2"),
	}})
	r.NoError(err)
	r.Equal(uint32(2), pk2)

	row, ok, err := db.GetRowByPk("users", 1)
	r.NoError(err)
	r.True(ok)
	r.Equal(uint32(20), row.Values[0].U32())
	r.Equal("User1", row.Values[1].String())

	rows, err := db.ScanTable("users")
	r.NoError(err)
	r.Len(rows, 2)
	r.Equal(uint32(1), rows[0].PK)
	r.Equal(uint32(2), rows[1].PK)
	r.Equal("User2", rows[1].Row.Values[1].String())
}

func TestPutU64SplitAndPersistence(t *testing.T) {
	r := require.New(t)
	path := tempDBPath(t)
	db, err := Create(path, nil)
	r.NoError(err)

	n := btree.MaxLeafKeys() + 5
	for k := 1; k <= n; k++ {
		r.NoError(db.PutU64(uint32(k), uint64(10*k)))
	}
	r.NoError(db.Flush())
	r.NoError(db.Close())

	reopened, err := Open(path, nil)
	r.NoError(err)
	defer reopened.Close()

	for k := 1; k <= n; k++ {
		v, ok, err := reopened.GetU64(uint32(k))
		r.NoError(err)
		r.True(ok)
		r.Equal(uint64(10*k), v)
	}
	r.Greater(reopened.pgr.PageCount(), uint32(2))
}

func TestPutU64RootSplit(t *testing.T) {
	r := require.New(t)
	db, err := Create(tempDBPath(t), nil)
	r.NoError(err)
	defer db.Close()

	n := 3 * btree.MaxLeafKeys()
	for k := 1; k <= n; k++ {
		r.NoError(db.PutU64(uint32(k), uint64(10*k)))
	}

	root := db.pgr.RootPageID()
	rootPage, err := db.pgr.GetPage(root)
	r.NoError(err)
	r.Equal(page.KindBTree, rootPage.Kind())

	node, err := btree.Decode(rootPage, db.pgr.PageCount())
	r.NoError(err)
	r.Equal(btree.KindInternal, node.Kind)
	r.Equal(len(node.Internal.Keys)+1, len(node.Internal.Children))
	for _, child := range node.Internal.Children {
		r.Greater(uint32(child), uint32(0))
		r.Less(uint32(child), db.pgr.PageCount())
	}

	for k := 1; k <= n; k++ {
		v, ok, err := db.GetU64(uint32(k))
		r.NoError(err)
		r.True(ok)
		r.Equal(uint64(10*k), v)
	}
}

// rowDataStart mirrors internal/rowstore's sub-header layout: the page's
// own 16-byte header, plus the row page's own 16-byte "ROWP" sub-header.
const rowDataStart = page.HeaderLen + 16

func TestGetRowByPkDetectsPkPrefixCorruption(t *testing.T) {
	r := require.New(t)
	path := tempDBPath(t)

	db, err := Create(path, nil)
	r.NoError(err)

	schema, err := rowcodec.NewSchema([]rowcodec.Column{{Name: "age", Type: rowcodec.ColU32}})
	r.NoError(err)
	_, err = db.CreateTable("users", schema)
	r.NoError(err)

	_, err = db.InsertRow("users", rowcodec.Row{Values: []rowcodec.Value{rowcodec.U32Value(20)}})
	r.NoError(err)

	def, ok := db.GetTable("users")
	r.True(ok)
	r.NotZero(def.LastRowPage)

	r.NoError(db.Flush())
	r.NoError(db.Close())

	// First row in a freshly allocated page: length prefix then pk
	// prefix start at rowDataStart+2.
	offset := int64(def.LastRowPage)*page.Size + int64(rowDataStart) + 2

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	r.NoError(err)
	var b [1]byte
	_, err = f.ReadAt(b[:], offset)
	r.NoError(err)
	b[0] ^= 0x01
	_, err = f.WriteAt(b[:], offset)
	r.NoError(err)
	r.NoError(f.Close())

	reopened, err := Open(path, nil)
	r.NoError(err)
	defer reopened.Close()

	_, _, err = reopened.GetRowByPk("users", 1)
	r.Error(err)
}

func TestOpenDetectsLeafCycle(t *testing.T) {
	r := require.New(t)
	path := tempDBPath(t)

	db, err := Create(path, nil)
	r.NoError(err)

	n := btree.MaxLeafKeys() + 5
	for k := 1; k <= n; k++ {
		r.NoError(db.PutU64(uint32(k), uint64(k)))
	}

	root := db.pgr.RootPageID()
	rootPage, err := db.pgr.GetPage(root)
	r.NoError(err)
	rootNode, err := btree.Decode(rootPage, db.pgr.PageCount())
	r.NoError(err)
	r.Equal(btree.KindInternal, rootNode.Kind)

	firstLeafID := rootNode.Internal.Children[0]
	firstLeafPage, err := db.pgr.GetPage(firstLeafID)
	r.NoError(err)
	firstLeaf, err := btree.Decode(firstLeafPage, db.pgr.PageCount())
	r.NoError(err)
	r.Equal(btree.KindLeaf, firstLeaf.Kind)
	secondLeafID := firstLeaf.Leaf.NextLeaf
	r.NotZero(secondLeafID)

	secondLeafPage, err := db.pgr.GetPageMut(secondLeafID)
	r.NoError(err)
	secondLeaf, err := btree.Decode(secondLeafPage, db.pgr.PageCount())
	r.NoError(err)
	secondLeaf.Leaf.NextLeaf = firstLeafID
	r.NoError(btree.EncodeInto(secondLeaf, secondLeafPage))

	r.NoError(db.pgr.Flush())
	r.NoError(db.pgr.Close())

	_, err = Open(path, nil)
	r.Error(err)
}
