package roi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foamline/foamline/pkg/image"
)

func TestProject(t *testing.T) {
	img := image.Image{Data: []float64{1, 2, 3, 4, 5, 6}, H: 2, W: 3}

	px, err := Project(img, DirectionX)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, px)

	py, err := Project(img, DirectionY)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 15}, py)

	_, err = Project(img, Direction("diagonal"))
	assert.Error(t, err)
}

func TestSliceCurve(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{10, 11, 12, 13, 14}

	xs, ys := SliceCurve(x, y, Range{Lo: 1, Hi: 3})
	assert.Equal(t, []float64{1, 2, 3}, xs)
	assert.Equal(t, []float64{11, 12, 13}, ys)

	xs, ys = SliceCurve(x, y, Range{Lo: 10, Hi: 20})
	assert.Empty(t, xs)
	assert.Empty(t, ys)
}

func TestNormalizeAuc(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{1, 1, 1}

	got, err := NormalizeAuc(y, x, Range{Lo: 0, Hi: math.Inf(1)})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, got)

	_, err = NormalizeAuc([]float64{0, 0, 0}, x, Range{Lo: 0, Hi: 2})
	assert.Error(t, err, "zero area cannot normalize")

	_, err = NormalizeAuc(y, x, Range{Lo: 5, Hi: 6})
	assert.Error(t, err, "empty range cannot normalize")
}

func TestNormalizeProfile(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{2, 4, 6}

	got, err := NormalizeProfile(NormUndefined, y, x, Range{}, nil)
	require.NoError(t, err)
	assert.Equal(t, y, got)

	norm := 2.0
	got, err = NormalizeProfile(NormRoi, y, x, Range{}, &norm)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	_, err = NormalizeProfile(NormRoi, y, x, Range{}, nil)
	assert.Error(t, err, "missing ROI normalizer is reported")

	zero := 0.0
	_, err = NormalizeProfile(NormRoi, y, x, Range{}, &zero)
	assert.Error(t, err)

	_, err = NormalizeProfile(Normalizer(9), y, x, Range{}, nil)
	assert.Error(t, err)
}
