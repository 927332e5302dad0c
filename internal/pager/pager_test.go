package pager

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/invdb/invdb/internal/page"
	"github.com/invdb/invdb/internal/rowcodec"
)

type PagerTestSuite struct {
	suite.Suite
	dir  string
	path string
}

func (s *PagerTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.path = filepath.Join(s.dir, "t.invdb")
}

func TestPagerTestSuite(t *testing.T) {
	suite.Run(t, &PagerTestSuite{})
}

func (s *PagerTestSuite) TestCreateInitializesThreePages() {
	p, err := Create(s.path, nil)
	s.Require().NoError(err)
	defer p.Close()

	s.Equal(uint32(3), p.PageCount())
	s.Equal(page.ID(1), p.RootPageID())
	s.Equal(uint16(1), p.Version())
}

func (s *PagerTestSuite) TestReopenAfterClosePreservesState() {
	p, err := Create(s.path, nil)
	s.Require().NoError(err)

	id, err := p.AllocateBTreePage()
	s.Require().NoError(err)
	s.Require().NoError(p.SetRootPageID(id))
	s.Require().NoError(p.Close())

	reopened, err := Open(s.path, nil)
	s.Require().NoError(err)
	defer reopened.Close()

	s.Equal(id, reopened.RootPageID())
	s.Equal(uint32(4), reopened.PageCount())
}

func (s *PagerTestSuite) TestAllocateBTreePageGrowsFile() {
	p, err := Create(s.path, nil)
	s.Require().NoError(err)
	defer p.Close()

	id, err := p.AllocateBTreePage()
	s.Require().NoError(err)
	s.Equal(page.ID(3), id)
	s.Equal(uint32(4), p.PageCount())

	got, err := p.GetPage(id)
	s.Require().NoError(err)
	s.Equal(page.KindBTree, got.Kind())
}

func (s *PagerTestSuite) TestAllocateRowPageGrowsFile() {
	p, err := Create(s.path, nil)
	s.Require().NoError(err)
	defer p.Close()

	id, err := p.AllocateRowPage()
	s.Require().NoError(err)

	got, err := p.GetPage(id)
	s.Require().NoError(err)
	s.Equal(page.KindRow, got.Kind())
}

func (s *PagerTestSuite) TestReadWriteCatalogRoundTrip() {
	p, err := Create(s.path, nil)
	s.Require().NoError(err)
	defer p.Close()

	cat, err := p.ReadCatalog()
	s.Require().NoError(err)
	s.Equal(uint32(1), cat.NextTableID)

	schema, err := rowcodec.NewSchema([]rowcodec.Column{
		{Name: "id", Type: rowcodec.ColU32},
	})
	s.Require().NoError(err)

	_, err = cat.CreateTable("users", schema)
	s.Require().NoError(err)

	s.Require().NoError(p.WriteCatalog(cat))
	s.Require().NoError(p.Flush())

	got, err := p.ReadCatalog()
	s.Require().NoError(err)
	s.Len(got.Tables, 1)
	s.Equal("users", got.Tables[0].Name)
}

func (s *PagerTestSuite) TestGetPageRejectsOutOfBounds() {
	p, err := Create(s.path, nil)
	s.Require().NoError(err)
	defer p.Close()

	_, err = p.GetPage(page.ID(999))
	s.Error(err)
}

func (s *PagerTestSuite) TestSetRootPageIDRejectsOutOfBounds() {
	p, err := Create(s.path, nil)
	s.Require().NoError(err)
	defer p.Close()

	s.Error(p.SetRootPageID(page.ID(999)))
	s.Error(p.SetRootPageID(page.ID(0)))
}

