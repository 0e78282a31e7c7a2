package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDotMatrix(t *testing.T) {
	a := Must(FromMatrix([][]float64{{1, 2, 3}, {4, 5, 6}}))
	b := Must(FromMatrix([][]float64{{7, 8}, {9, 10}, {11, 12}}))

	c, err := Dot(a, b)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 2}, c.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())
}

func TestDotMismatch(t *testing.T) {
	a := Must(Zeros[float64](Shape{2, 3}))
	b := Must(Zeros[float64](Shape{2, 3}))

	_, err := Dot(a, b)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Dot(a, Must(Zeros[float64](Shape{3})))
	assert.ErrorIs(t, err, ErrUnsupportedRank)
}

func TestDotMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := Must(NewRandom[float64](Shape{7, 5}, rng))
	b := Must(NewRandom[float64](Shape{5, 4}, rng))

	got, err := Dot(a, b)
	require.NoError(t, err)

	da, err := ToDense(a)
	require.NoError(t, err)
	db, err := ToDense(b)
	require.NoError(t, err)
	var want mat.Dense
	want.Mul(da, db)

	assert.True(t, got.AllClose(FromGonum(&want), 1e-12))
}

func TestGramMatrixIsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a := Must(NewRandom[float64](Shape{6, 4}, rng))

	at, err := a.Transpose()
	require.NoError(t, err)
	gram, err := Dot(at, a)
	require.NoError(t, err)

	gt, err := gram.Transpose()
	require.NoError(t, err)
	assert.True(t, gram.AllClose(gt, 1e-12))
}

func TestDotInteger(t *testing.T) {
	a := Must(FromMatrix([][]int64{{1, 2}, {3, 4}}))
	eye := Must(Eye[int64](2))

	c, err := Dot(a, eye)
	require.NoError(t, err)
	assert.True(t, c.Equal(a))
}

func TestTranspose(t *testing.T) {
	a := Must(FromMatrix([][]float64{{1, 2, 3}, {4, 5, 6}}))

	at, err := a.Transpose()
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, at.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, at.Data())

	da, err := ToDense(a)
	require.NoError(t, err)
	assert.True(t, at.Equal(FromGonum(da.T())))

	_, err = Must(Zeros[float64](Shape{3})).Transpose()
	assert.ErrorIs(t, err, ErrUnsupportedRank)
}

func TestToDenseRejectsOtherRanks(t *testing.T) {
	_, err := ToDense(Must(Zeros[float64](Shape{2, 2, 2})))
	assert.ErrorIs(t, err, ErrUnsupportedRank)

	_, err = ToDense(Must(Zeros[float64](Shape{0, 2})))
	assert.ErrorIs(t, err, ErrShape)
}
