package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/invdb/invdb/internal/btree"
	"github.com/invdb/invdb/internal/catalog"
	"github.com/invdb/invdb/internal/page"
	"github.com/invdb/invdb/internal/rowcodec"
	"github.com/invdb/invdb/internal/rowstore"
)

// fakePager is a minimal in-memory Pager satisfying everything table
// operations need, without a real file-backed pager.
type fakePager struct {
	pages []*page.Page
	root  page.ID
}

func newFakePager() *fakePager {
	fp := &fakePager{pages: []*page.Page{nil}, root: page.ID(1)}
	root := page.New(page.ID(1))
	root.InitHeader(page.KindBTree)
	if err := btree.EncodeInto(btree.EmptyLeaf(), root); err != nil {
		panic(err)
	}
	fp.pages = append(fp.pages, root)
	return fp
}

func (fp *fakePager) PageCount() uint32 { return uint32(len(fp.pages)) }

func (fp *fakePager) GetPage(id page.ID) (*page.Page, error)    { return fp.pages[id], nil }
func (fp *fakePager) GetPageMut(id page.ID) (*page.Page, error) { return fp.pages[id], nil }

func (fp *fakePager) AllocateBTreePage() (page.ID, error) {
	id := page.ID(len(fp.pages))
	p := page.New(id)
	p.InitHeader(page.KindBTree)
	fp.pages = append(fp.pages, p)
	return id, nil
}

func (fp *fakePager) AllocateRowPage() (page.ID, error) {
	id := page.ID(len(fp.pages))
	p := page.New(id)
	p.InitHeader(page.KindRow)
	if err := rowstore.InitRowPage(p); err != nil {
		return 0, err
	}
	fp.pages = append(fp.pages, p)
	return id, nil
}

func (fp *fakePager) RootPageID() page.ID { return fp.root }

func (fp *fakePager) SetRootPageID(id page.ID) error {
	fp.root = id
	return nil
}

func testCatalog(r *require.Assertions) (*catalog.Catalog, rowcodec.Schema) {
	schema, err := rowcodec.NewSchema([]rowcodec.Column{
		{Name: "age", Type: rowcodec.ColU32},
		{Name: "name", Type: rowcodec.ColString, Nullable: true},
	})
	r.NoError(err)

	cat := catalog.Empty()
	_, err = cat.CreateTable("users", schema)
	r.NoError(err)
	return &cat, schema
}

func TestInsertAndGetRowByPk(t *testing.T) {
	r := require.New(t)
	fp := newFakePager()
	cat, _ := testCatalog(r)

	pk1, err := InsertRow(fp, cat, "users", rowcodec.Row{Values: []rowcodec.Value{
		rowcodec.U32Value(20), rowcodec.StringValue("User1"),
	}}, nil)
	r.NoError(err)
	r.Equal(uint32(1), pk1)

	pk2, err := InsertRow(fp, cat, "users", rowcodec.Row{Values: []rowcodec.Value{
		rowcodec.U32Value(25), rowcodec.StringValue("User2"),
	}}, nil)
	r.NoError(err)
	r.Equal(uint32(2), pk2)

	row, ok, err := GetRowByPk(fp, cat, "users", 1)
	r.NoError(err)
	r.True(ok)
	r.Equal(uint32(20), row.Values[0].U32())
	r.Equal("User1", row.Values[1].String())

	row, ok, err = GetRowByPk(fp, cat, "users", 2)
	r.NoError(err)
	r.True(ok)
	r.Equal("User2", row.Values[1].String())

	_, ok, err = GetRowByPk(fp, cat, "users", 99)
	r.NoError(err)
	r.False(ok)
}

func TestScanTableReturnsAscendingPkOrder(t *testing.T) {
	r := require.New(t)
	fp := newFakePager()
	cat, _ := testCatalog(r)

	for i := 0; i < 5; i++ {
		_, err := InsertRow(fp, cat, "users", rowcodec.Row{Values: []rowcodec.Value{
			rowcodec.U32Value(uint32(i)), rowcodec.NullValue(),
		}}, nil)
		r.NoError(err)
	}

	rows, err := ScanTable(fp, cat, "users")
	r.NoError(err)
	r.Len(rows, 5)
	for i, sr := range rows {
		r.Equal(uint32(i+1), sr.PK)
		r.Equal(uint32(i), sr.Row.Values[0].U32())
	}
}

func TestInsertRowTriggersTreeGrowth(t *testing.T) {
	r := require.New(t)
	fp := newFakePager()
	cat, _ := testCatalog(r)

	n := btree.MaxLeafKeys() + 20
	for i := 0; i < n; i++ {
		_, err := InsertRow(fp, cat, "users", rowcodec.Row{Values: []rowcodec.Value{
			rowcodec.U32Value(uint32(i)), rowcodec.NullValue(),
		}}, nil)
		r.NoError(err)
	}

	rows, err := ScanTable(fp, cat, "users")
	r.NoError(err)
	r.Len(rows, n)
}

func TestInsertRowRejectsUnknownTable(t *testing.T) {
	r := require.New(t)
	fp := newFakePager()
	cat, _ := testCatalog(r)

	_, err := InsertRow(fp, cat, "missing", rowcodec.Row{}, nil)
	r.Error(err)
}

func TestCompositeKeyDistributesAcrossTables(t *testing.T) {
	r := require.New(t)
	a := compositeKey(1, 1)
	b := compositeKey(2, 1)
	r.NotEqual(a, b)
}
