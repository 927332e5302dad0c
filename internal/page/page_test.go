package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitHeaderRoundTrip(t *testing.T) {
	r := require.New(t)

	p := New(ID(7))
	p.InitHeader(KindBTree)

	r.Equal(KindBTree, p.Kind())
	r.NoError(p.ValidateHeader())
}

func TestValidateHeaderRejectsMismatchedSelfID(t *testing.T) {
	r := require.New(t)

	p := New(ID(3))
	p.InitHeader(KindRow)

	other, err := FromBytes(ID(4), p.Bytes())
	r.NoError(err)
	r.Error(other.ValidateHeader())
}

func TestValidateHeaderRejectsNonzeroCRC(t *testing.T) {
	r := require.New(t)

	p := New(ID(1))
	p.InitHeader(KindCatalog)
	p.Bytes()[4] = 1

	err := p.ValidateHeader()
	r.Error(err)
}

func TestValidateHeaderRejectsNonzeroFlags(t *testing.T) {
	r := require.New(t)

	p := New(ID(1))
	p.InitHeader(KindCatalog)
	p.Bytes()[1] = 1

	r.Error(p.ValidateHeader())
}

func TestFromBytesRejectsWrongSize(t *testing.T) {
	r := require.New(t)

	_, err := FromBytes(ID(0), make([]byte, 100))
	r.Error(err)
}

func TestCheckedPageIndexOverflow(t *testing.T) {
	r := require.New(t)

	_, err := Checked(^uint64(0))
	r.Error(err)

	id, err := Checked(42)
	r.NoError(err)
	r.Equal(ID(42), id)
}
