package config

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foamline/foamline/pkg/record"
	"github.com/foamline/foamline/pkg/roi"
)

func TestParseRoiDefaults(t *testing.T) {
	cfg, err := ParseRoi(nil)
	require.NoError(t, err)

	for _, g := range cfg.Geoms {
		assert.False(t, g.Valid())
	}
	assert.Equal(t, roi.Roi1, cfg.FomCombo)
	assert.Equal(t, roi.FomSum, cfg.FomType)
	assert.Equal(t, roi.Roi3, cfg.NormCombo)
	assert.Equal(t, roi.DirectionX, cfg.ProjDirection)
	assert.True(t, math.IsInf(cfg.ProjAucRange.Hi, 1))
}

func TestParseRoiFull(t *testing.T) {
	cfg, err := ParseRoi(map[string]string{
		"geom1":                "1,2,3,4",
		"geom2":                "5, 6, 7, 8",
		"fom:combo":            "3",
		"fom:type":             "2",
		"norm:combo":           "13",
		"proj:direct":          "y",
		"proj:auc_range":       "0,100",
		"proj:fom_integ_range": "10,inf",
	})
	require.NoError(t, err)

	assert.Equal(t, roi.Geom{X: 1, Y: 2, W: 3, H: 4}, cfg.Geoms[0])
	assert.Equal(t, roi.Geom{X: 5, Y: 6, W: 7, H: 8}, cfg.Geoms[1])
	assert.False(t, cfg.Geoms[2].Valid())
	assert.Equal(t, roi.Roi1SubRoi2, cfg.FomCombo)
	assert.Equal(t, roi.FomMean, cfg.FomType)
	assert.Equal(t, roi.Roi3SubRoi4, cfg.NormCombo)
	assert.Equal(t, roi.DirectionY, cfg.ProjDirection)
	assert.Equal(t, roi.Range{Lo: 0, Hi: 100}, cfg.ProjAucRange)
	assert.Equal(t, 10.0, cfg.ProjFomIntegRange.Lo)
	assert.True(t, math.IsInf(cfg.ProjFomIntegRange.Hi, 1))
}

func TestParseRoiBadValues(t *testing.T) {
	_, err := ParseRoi(map[string]string{"geom1": "1,2,3"})
	assert.Error(t, err)

	_, err = ParseRoi(map[string]string{"fom:combo": "bogus"})
	assert.Error(t, err)

	_, err = ParseRoi(map[string]string{"proj:auc_range": "1"})
	assert.Error(t, err)
}

func TestParseCorrelationConsumesReset(t *testing.T) {
	s := NewMemStore()
	s.Set(SectionCorrelation, "analysis_type", "2")
	s.Set(SectionCorrelation, "source1", "motor/actual_position")
	s.Set(SectionCorrelation, "resolution1", "0.5")
	s.Set(SectionCorrelation, "reset1", "1")

	cfg, err := ParseCorrelation(s, 1)
	require.NoError(t, err)
	assert.Equal(t, record.AnalysisRoiFom, cfg.AnalysisType)
	assert.Equal(t, "motor/actual_position", cfg.Source)
	assert.Equal(t, 0.5, cfg.Resolution)
	assert.True(t, cfg.Reset)

	// One-shot: the flag is gone on the next poll.
	cfg, err = ParseCorrelation(s, 1)
	require.NoError(t, err)
	assert.False(t, cfg.Reset)
}

func TestParseCorrelationPerIndex(t *testing.T) {
	s := NewMemStore()
	s.Set(SectionCorrelation, "source1", "a")
	s.Set(SectionCorrelation, "source2", "b")
	s.Set(SectionCorrelation, "resolution2", "2")

	cfg1, err := ParseCorrelation(s, 1)
	require.NoError(t, err)
	cfg2, err := ParseCorrelation(s, 2)
	require.NoError(t, err)

	assert.Equal(t, "a", cfg1.Source)
	assert.Equal(t, 0.0, cfg1.Resolution)
	assert.Equal(t, "b", cfg2.Source)
	assert.Equal(t, 2.0, cfg2.Resolution)
}

func TestParseGlobal(t *testing.T) {
	s := NewMemStore()
	s.Set(SectionGlobal, "ma_window", "5")
	s.Set(SectionGlobal, "reset_ma_roi", "1")

	cfg, err := ParseGlobal(s)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaWindow)
	assert.True(t, cfg.ResetMaRoi)

	cfg, err = ParseGlobal(s)
	require.NoError(t, err)
	assert.False(t, cfg.ResetMaRoi)

	s.Set(SectionGlobal, "ma_window", "0")
	_, err = ParseGlobal(s)
	assert.Error(t, err)
}
