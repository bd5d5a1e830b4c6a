package reference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var (
	trainX = []float64{
		1, 2, 3,
		2, 4, 1,
		4, 2, 2,
	}
	queryX = []float64{
		1, 3, 2,
		3, 2, 1,
	}
	invQt = []float64{1.9407565, 2.93451157, 3.95432381}
)

func TestPredictFixture(t *testing.T) {
	got, err := Model{}.Predict(trainX, queryX, []float64{0, 0, 0}, 0, invQt, 3, 2, 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.39538648, 1.73114001}, got, 1e-6)
}

func TestDistancesRowMajor(t *testing.T) {
	r := Model{}.Distances(trainX, queryX, []float64{0, 0, 0}, 3, 2, 3)
	rows, cols := r.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, 2, cols)
	// (1,2,3)-(1,3,2) and (4,2,2)-(3,2,1)
	assert.Equal(t, 2.0, r.At(0, 0))
	assert.Equal(t, 2.0, r.At(2, 1))
}

func TestSquaredExponentialAtZeroDistance(t *testing.T) {
	r := mat.NewDense(1, 2, []float64{0, 0})
	k := Model{}.SquaredExponential(r, 0.75)
	assert.InDelta(t, math.Exp(0.75), k.At(0, 1), 1e-12)
}

func TestReduceMatchesColumnLoop(t *testing.T) {
	k := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	got := Model{}.Reduce(k, []float64{0.5, -1})
	assert.Equal(t, []float64{-3.5, -4, -4.5}, got)
}

func TestPredictRejectsBadWeights(t *testing.T) {
	_, err := Model{}.Predict(trainX, queryX, []float64{0, 0, 0}, 0, invQt[:2], 3, 2, 3)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	d, ok, err := Compare([]float64{1, 2, 3}, []float64{1, 2.0000005, 3}, DefaultTolerance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 5e-7, d, 1e-12)

	d, ok, err = Compare([]float64{1, 2}, []float64{1.1, 2}, DefaultTolerance)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, 0.1, d, 1e-12)

	_, ok, err = Compare([]float64{1}, []float64{1, 2}, DefaultTolerance)
	assert.Error(t, err)
	assert.False(t, ok)
}
