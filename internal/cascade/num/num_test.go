package num

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-2, 0, 1))
	assert.Equal(t, 1.0, Clamp(7, 0, 1))
}

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 0.001)
	assert.InDelta(t, 1.0, Sigmoid(10), 0.001)
	assert.InDelta(t, 0.0, Sigmoid(-10), 0.001)
	assert.InDelta(t, 1.0, Sigmoid(2)+Sigmoid(-2), 0.001, "symmetric around the midpoint")
}

func TestBell(t *testing.T) {
	assert.InDelta(t, 1.0, Bell(0, 1.1), 0.001)
	assert.InDelta(t, Bell(0.7, 1.1), Bell(-0.7, 1.1), 0.001)
	assert.Less(t, Bell(2, 1.1), Bell(1, 1.1))
	assert.Zero(t, Bell(1, 0))
}

func TestMedian(t *testing.T) {
	assert.Zero(t, Median(nil))
	assert.Equal(t, 3.0, Median([]float64{5, 3, 1}))
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}), "even count averages the middle pair")

	// The input slice is left untouched.
	in := []float64{9, 1, 5}
	Median(in)
	assert.Equal(t, []float64{9, 1, 5}, in)
}

func TestMeanAndStdev(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))

	assert.Zero(t, Stdev([]float64{5}))
	assert.Zero(t, Stdev([]float64{4, 4, 4, 4}))
	assert.InDelta(t, 2.0, Stdev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 0.001)
}
