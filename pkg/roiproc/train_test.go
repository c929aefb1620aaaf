package roiproc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foamline/foamline/pkg/config"
	"github.com/foamline/foamline/pkg/image"
	"github.com/foamline/foamline/pkg/pipeline"
	"github.com/foamline/foamline/pkg/record"
	"github.com/foamline/foamline/pkg/roi"
)

func frame(h, w int, vals ...float64) *image.Image {
	return &image.Image{Data: vals, H: h, W: w}
}

// trainRecord builds a record whose geometries are already clipped, as the
// pulse processor would have left them.
func trainRecord(mean *image.Image, geoms ...roi.Geom) *record.Train {
	tr := &record.Train{MaskedMean: mean}
	for i := range tr.Roi.Geoms {
		tr.Roi.Geoms[i] = roi.InvalidGeom
	}
	copy(tr.Roi.Geoms[:], geoms)
	return tr
}

func TestTrainFom(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{"geom1": "0,0,2,1"})))

	tr := trainRecord(frame(1, 2, 10, 20), roi.Geom{X: 0, Y: 0, W: 2, H: 1})
	require.NoError(t, p.Process(tr))

	require.NotNil(t, tr.Roi.Fom)
	assert.Equal(t, 30.0, *tr.Roi.Fom)
	assert.Nil(t, tr.Roi.Norm, "normalizer regions unconfigured")
}

func TestTrainFomCombination(t *testing.T) {
	store := roiStore(map[string]string{
		"geom1":     "0,0,1,1",
		"geom2":     "1,0,1,1",
		"fom:combo": "4",
	})
	p := NewTrain()
	require.NoError(t, p.Update(store))

	tr := trainRecord(frame(1, 2, 10, 4),
		roi.Geom{X: 0, Y: 0, W: 1, H: 1}, roi.Geom{X: 1, Y: 0, W: 1, H: 1})
	require.NoError(t, p.Process(tr))

	require.NotNil(t, tr.Roi.Fom)
	assert.Equal(t, 14.0, *tr.Roi.Fom)
}

func TestTrainFomMissingOperandIsUnset(t *testing.T) {
	store := roiStore(map[string]string{
		"geom1":     "0,0,1,1",
		"fom:combo": "3",
	})
	p := NewTrain()
	require.NoError(t, p.Update(store))

	tr := trainRecord(frame(1, 2, 10, 4), roi.Geom{X: 0, Y: 0, W: 1, H: 1})
	require.NoError(t, p.Process(tr))
	assert.Nil(t, tr.Roi.Fom, "ROI2 missing, difference undefined")
}

func TestTrainNorm(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{"geom3": "0,0,1,1"})))

	tr := trainRecord(frame(1, 2, 7, 0))
	tr.Roi.Geoms[2] = roi.Geom{X: 0, Y: 0, W: 1, H: 1}
	require.NoError(t, p.Process(tr))

	require.NotNil(t, tr.Roi.Norm)
	assert.Equal(t, 7.0, *tr.Roi.Norm)
}

func TestTrainMovingAverageWindow(t *testing.T) {
	store := roiStore(map[string]string{"geom1": "0,0,1,1"})
	store.Set(config.SectionGlobal, "ma_window", "2")
	p := NewTrain()
	require.NoError(t, p.Update(store))

	g := roi.Geom{X: 0, Y: 0, W: 1, H: 1}

	tr := trainRecord(frame(1, 1, 10), g)
	require.NoError(t, p.Process(tr))
	assert.Equal(t, 10.0, *tr.Roi.Fom)

	tr = trainRecord(frame(1, 1, 15), g)
	require.NoError(t, p.Process(tr))
	assert.Equal(t, 12.5, *tr.Roi.Fom, "cumulative average while filling the window")

	tr = trainRecord(frame(1, 1, 22.5), g)
	require.NoError(t, p.Process(tr))
	assert.Equal(t, 17.5, *tr.Roi.Fom, "exponential step once the window is full")
}

func TestTrainGeometryChangeRestartsAverage(t *testing.T) {
	store := roiStore(map[string]string{"geom1": "0,0,2,1"})
	store.Set(config.SectionGlobal, "ma_window", "2")
	p := NewTrain()
	require.NoError(t, p.Update(store))

	g := roi.Geom{X: 0, Y: 0, W: 2, H: 1}
	require.NoError(t, p.Process(trainRecord(frame(1, 2, 10, 20), g)))
	tr := trainRecord(frame(1, 2, 20, 30), g)
	require.NoError(t, p.Process(tr))
	assert.Equal(t, 40.0, *tr.Roi.Fom)

	// Shrinking the region changes the crop shape; the accumulator restarts
	// from the new crop instead of blending mismatched shapes.
	tr = trainRecord(frame(1, 2, 100, 1), roi.Geom{X: 0, Y: 0, W: 1, H: 1})
	require.NoError(t, p.Process(tr))
	assert.Equal(t, 100.0, *tr.Roi.Fom)
}

func TestTrainResetMaRoiIsOneShot(t *testing.T) {
	store := roiStore(map[string]string{"geom1": "0,0,1,1"})
	store.Set(config.SectionGlobal, "ma_window", "2")
	p := NewTrain()
	require.NoError(t, p.Update(store))

	g := roi.Geom{X: 0, Y: 0, W: 1, H: 1}
	require.NoError(t, p.Process(trainRecord(frame(1, 1, 10), g)))

	store.Set(config.SectionGlobal, "reset_ma_roi", "1")
	require.NoError(t, p.Update(store))
	tr := trainRecord(frame(1, 1, 20), g)
	require.NoError(t, p.Process(tr))
	assert.Equal(t, 20.0, *tr.Roi.Fom, "history dropped")

	require.NoError(t, p.Update(store))
	tr = trainRecord(frame(1, 1, 30), g)
	require.NoError(t, p.Process(tr))
	assert.Equal(t, 25.0, *tr.Roi.Fom, "flag consumed, averaging resumes")
}

func TestTrainProjection(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{"geom1": "0,0,2,2"})))

	tr := trainRecord(frame(2, 2, 1, 2, 3, 4), roi.Geom{X: 0, Y: 0, W: 2, H: 2})
	require.NoError(t, p.Process(tr))

	assert.Equal(t, []float64{0, 1}, tr.Roi.Proj.X)
	assert.Equal(t, []float64{4, 6}, tr.Roi.Proj.Y, "column sums")
	require.NotNil(t, tr.Roi.Proj.Fom)
	assert.Equal(t, 10.0, *tr.Roi.Proj.Fom)
}

func TestTrainProjectionIntegRange(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{
		"geom1":                "0,0,2,2",
		"proj:fom_integ_range": "1,1",
	})))

	tr := trainRecord(frame(2, 2, 1, 2, 3, 4), roi.Geom{X: 0, Y: 0, W: 2, H: 2})
	require.NoError(t, p.Process(tr))

	require.NotNil(t, tr.Roi.Proj.Fom)
	assert.Equal(t, 6.0, *tr.Roi.Proj.Fom, "only the second column integrated")
}

func TestTrainProjectionShapeMismatchIsSkipped(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{
		"geom1":      "0,0,2,1",
		"geom2":      "0,1,1,1",
		"proj:combo": "3",
	})))

	tr := trainRecord(frame(2, 2, 1, 2, 3, 4),
		roi.Geom{X: 0, Y: 0, W: 2, H: 1}, roi.Geom{X: 0, Y: 1, W: 1, H: 1})
	require.NoError(t, p.Process(tr), "mismatch is recoverable")
	assert.Nil(t, tr.Roi.Proj.Fom)
}

func TestTrainProjectionRoiNormalization(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{
		"geom1":     "0,0,2,1",
		"geom3":     "0,1,1,1",
		"proj:norm": "2",
	})))

	tr := trainRecord(frame(2, 2, 4, 6, 2, 0),
		roi.Geom{X: 0, Y: 0, W: 2, H: 1})
	tr.Roi.Geoms[2] = roi.Geom{X: 0, Y: 1, W: 1, H: 1}
	require.NoError(t, p.Process(tr))

	assert.Equal(t, []float64{2, 3}, tr.Roi.Proj.Y, "profile divided by the ROI3 normalizer")
}

func TestTrainProjectionMissingNormalizerIsRecoverable(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{
		"geom1":     "0,0,2,1",
		"proj:norm": "2",
	})))

	tr := trainRecord(frame(2, 2, 4, 6, 2, 0), roi.Geom{X: 0, Y: 0, W: 2, H: 1})
	err := p.Process(tr)
	var procErr *pipeline.ProcessingError
	assert.True(t, errors.As(err, &procErr))
}

func TestTrainPumpProbeFom(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{"geom1": "0,0,1,1"})))

	tr := trainRecord(frame(1, 1, 0), roi.Geom{X: 0, Y: 0, W: 1, H: 1})
	tr.Pp.AnalysisType = record.AnalysisRoiFom
	tr.Pp.ImageOn = frame(1, 1, 8)
	tr.Pp.ImageOff = frame(1, 1, 5)
	require.NoError(t, p.Process(tr))

	require.NotNil(t, tr.Pp.Fom)
	assert.Equal(t, 3.0, *tr.Pp.Fom, "on minus off")
}

func TestTrainPumpProbeProjection(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{"geom1": "0,0,2,1"})))

	tr := trainRecord(frame(1, 2, 0, 0), roi.Geom{X: 0, Y: 0, W: 2, H: 1})
	tr.Pp.AnalysisType = record.AnalysisRoiProj
	tr.Pp.ImageOn = frame(1, 2, 5, 7)
	tr.Pp.ImageOff = frame(1, 2, 2, 3)
	require.NoError(t, p.Process(tr))

	assert.Equal(t, []float64{5, 7}, tr.Pp.YOn)
	assert.Equal(t, []float64{2, 3}, tr.Pp.YOff)
	assert.Equal(t, []float64{3, 4}, tr.Pp.Y)
	require.NotNil(t, tr.Pp.Fom)
	assert.Equal(t, 7.0, *tr.Pp.Fom)
}

func TestTrainPumpProbeAbsDifference(t *testing.T) {
	p := NewTrain()
	require.NoError(t, p.Update(roiStore(map[string]string{"geom1": "0,0,2,1"})))

	tr := trainRecord(frame(1, 2, 0, 0), roi.Geom{X: 0, Y: 0, W: 2, H: 1})
	tr.Pp.AnalysisType = record.AnalysisRoiProj
	tr.Pp.AbsDifference = true
	tr.Pp.ImageOn = frame(1, 2, 5, 1)
	tr.Pp.ImageOff = frame(1, 2, 2, 3)
	require.NoError(t, p.Process(tr))

	assert.Equal(t, []float64{3, -2}, tr.Pp.Y)
	require.NotNil(t, tr.Pp.Fom)
	assert.Equal(t, 5.0, *tr.Pp.Fom, "magnitudes summed")
}

func TestTrainMissingMaskedMean(t *testing.T) {
	p := NewTrain()
	err := p.Process(&record.Train{})
	var procErr *pipeline.ProcessingError
	assert.True(t, errors.As(err, &procErr))
}
