package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `validate:"required"`
	Code  string `validate:"required"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Email: "a@b.c", Code: "AB12"}))

	err := Struct(sample{Email: "a@b.c"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "field 'Code' failed 'required'")
}
