package rowcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSchemaRejectsEmpty(t *testing.T) {
	r := require.New(t)

	_, err := NewSchema(nil)
	r.Error(err)
}

func TestNewSchemaRejectsDuplicateNames(t *testing.T) {
	r := require.New(t)

	_, err := NewSchema([]Column{
		{Name: "id", Type: ColU32},
		{Name: "id", Type: ColU64},
	})
	r.Error(err)
}

func TestNewSchemaRejectsInvalidName(t *testing.T) {
	r := require.New(t)

	_, err := NewSchema([]Column{{Name: "has space", Type: ColU32}})
	r.Error(err)

	_, err = NewSchema([]Column{{Name: "", Type: ColU32}})
	r.Error(err)
}

func TestNewSchemaAccepts(t *testing.T) {
	r := require.New(t)

	s, err := NewSchema([]Column{
		{Name: "id", Type: ColU32},
		{Name: "name", Type: ColString, Nullable: true},
	})
	r.NoError(err)
	r.Equal(2, s.Len())
}

func TestValidateTableName(t *testing.T) {
	r := require.New(t)

	r.NoError(ValidateTableName("users"))
	r.Error(ValidateTableName(""))
	r.Error(ValidateTableName("bad name"))
}
