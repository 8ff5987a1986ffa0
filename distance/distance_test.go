package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	assert.Equal(t, float32(11), Dot([]float32{1, 2, 3}, []float32{3, 1, 2}))
	assert.Equal(t, float32(0), Dot(nil, nil))
}

func TestSquaredL2(t *testing.T) {
	assert.Equal(t, float32(0), SquaredL2([]float32{1, 2}, []float32{1, 2}))
	assert.Equal(t, float32(8), SquaredL2([]float32{0, 0}, []float32{2, 2}))
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical direction", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 0}, []float32{5, 0})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-6)
	})

	t.Run("orthogonal", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-6)
	})

	t.Run("opposite", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 1}, []float32{-1, -1})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-6)
	})

	t.Run("zero vector", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
		require.NoError(t, err)
		assert.Zero(t, sim)
	})

	t.Run("size mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
}

func TestNormalizeL2InPlace(t *testing.T) {
	v := []float32{3, 4}
	require.True(t, NormalizeL2InPlace(v))
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, Magnitude(v), 1e-6)

	assert.False(t, NormalizeL2InPlace([]float32{0, 0}))
}
