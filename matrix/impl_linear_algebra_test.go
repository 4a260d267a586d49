package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/leadfield/matrix"
	"github.com/stretchr/testify/require"
)

// wrapped hides the concrete *Dense to force the generic kernel paths.
type wrapped struct{ matrix.Matrix }

func TestTranspose(t *testing.T) {
	m, err := matrix.NewDenseFrom(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	tr, err := matrix.Transpose(m)
	require.NoError(t, err)
	require.Equal(t, 3, tr.Rows())
	require.Equal(t, 2, tr.Cols())
	require.Equal(t, []float64{1, 4, 2, 5, 3, 6}, tr.Values())

	// generic path must agree with the fast path
	tr2, err := matrix.Transpose(wrapped{m})
	require.NoError(t, err)
	require.Equal(t, tr.Values(), tr2.Values())

	_, err = matrix.Transpose(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestValidateFinite(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	require.NoError(t, matrix.ValidateFinite(m))

	row, _ := m.RawRow(1)
	row[0] = math.Inf(1)
	require.ErrorIs(t, matrix.ValidateFinite(m), matrix.ErrNaNInf)
	require.ErrorIs(t, matrix.ValidateFinite(wrapped{m}), matrix.ErrNaNInf)

	var nilDense *matrix.Dense
	require.ErrorIs(t, matrix.ValidateNotNil(nilDense), matrix.ErrNilMatrix)

	// NewDenseFrom reports the first bad entry with its coordinates.
	_, err = matrix.NewDenseFrom(2, 2, []float64{1, 2, math.NaN(), 4})
	require.ErrorIs(t, err, matrix.ErrNaNInf)
	require.Contains(t, err.Error(), "ValidateFinite(1,0)")
}
