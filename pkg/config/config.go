package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/foamline/foamline/pkg/record"
	"github.com/foamline/foamline/pkg/roi"
)

// RoiConfig is the typed snapshot of the ROI processor parameters.
type RoiConfig struct {
	Geoms [4]roi.Geom

	FomCombo roi.Combo
	FomType  roi.FomType
	FomNorm  roi.Normalizer

	NormCombo roi.Combo
	NormType  roi.FomType

	ProjCombo         roi.Combo
	ProjDirection     roi.Direction
	ProjNorm          roi.Normalizer
	ProjAucRange      roi.Range
	ProjFomIntegRange roi.Range
}

// CorrelationConfig is the typed snapshot of one correlator's parameters.
type CorrelationConfig struct {
	AnalysisType record.AnalysisType
	Source       string
	Resolution   float64
	// Reset reports that a one-shot reset flag was observed and consumed.
	Reset bool
}

// GlobalConfig carries parameters shared across processors.
type GlobalConfig struct {
	MaWindow int
	// ResetMaRoi reports that the one-shot ROI moving-average reset flag was
	// observed and consumed.
	ResetMaRoi bool
}

// ParseRoi builds an ROI snapshot from the store's "roi" section. Missing
// geometry keys leave the region unconfigured; missing enum keys keep a
// usable default rather than failing, matching how partially filled stores
// behave during setup.
func ParseRoi(cfg map[string]string) (RoiConfig, error) {
	out := RoiConfig{
		FomCombo:          roi.Roi1,
		FomType:           roi.FomSum,
		NormCombo:         roi.Roi3,
		NormType:          roi.FomSum,
		ProjCombo:         roi.Roi1,
		ProjDirection:     roi.DirectionX,
		ProjAucRange:      roi.Range{Lo: 0, Hi: math.Inf(1)},
		ProjFomIntegRange: roi.Range{Lo: 0, Hi: math.Inf(1)},
	}
	for i := range out.Geoms {
		out.Geoms[i] = roi.InvalidGeom
		key := fmt.Sprintf("geom%d", i+1)
		if v, ok := cfg[key]; ok {
			g, err := parseGeom(v)
			if err != nil {
				return out, fmt.Errorf("%s: %w", key, err)
			}
			out.Geoms[i] = g
		}
	}
	var err error
	if err = parseEnum(cfg, "fom:combo", &out.FomCombo); err != nil {
		return out, err
	}
	if err = parseEnum(cfg, "fom:type", &out.FomType); err != nil {
		return out, err
	}
	if err = parseEnum(cfg, "fom:norm", &out.FomNorm); err != nil {
		return out, err
	}
	if err = parseEnum(cfg, "norm:combo", &out.NormCombo); err != nil {
		return out, err
	}
	if err = parseEnum(cfg, "norm:type", &out.NormType); err != nil {
		return out, err
	}
	if err = parseEnum(cfg, "proj:combo", &out.ProjCombo); err != nil {
		return out, err
	}
	if err = parseEnum(cfg, "proj:norm", &out.ProjNorm); err != nil {
		return out, err
	}
	if v, ok := cfg["proj:direct"]; ok {
		out.ProjDirection = roi.Direction(v)
	}
	if out.ProjAucRange, err = parseRange(cfg, "proj:auc_range", out.ProjAucRange); err != nil {
		return out, err
	}
	if out.ProjFomIntegRange, err = parseRange(cfg, "proj:fom_integ_range", out.ProjFomIntegRange); err != nil {
		return out, err
	}
	return out, nil
}

// ParseCorrelation builds a correlator snapshot for the correlator with the
// given index. The per-index reset flag is one-shot: once observed it is
// deleted from the store.
func ParseCorrelation(s Store, idx int) (CorrelationConfig, error) {
	cfg := s.Section(SectionCorrelation)
	out := CorrelationConfig{}
	if v, ok := cfg["analysis_type"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return out, fmt.Errorf("analysis_type: %w", err)
		}
		out.AnalysisType = record.AnalysisType(n)
	}
	out.Source = cfg[fmt.Sprintf("source%d", idx)]
	if v, ok := cfg[fmt.Sprintf("resolution%d", idx)]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return out, fmt.Errorf("resolution%d: %w", idx, err)
		}
		out.Resolution = f
	}
	resetKey := fmt.Sprintf("reset%d", idx)
	if _, ok := cfg[resetKey]; ok {
		s.Delete(SectionCorrelation, resetKey)
		out.Reset = true
	}
	return out, nil
}

// ParseGlobal builds the shared snapshot. The ROI moving-average reset flag
// is one-shot.
func ParseGlobal(s Store) (GlobalConfig, error) {
	cfg := s.Section(SectionGlobal)
	out := GlobalConfig{MaWindow: 1}
	if v, ok := cfg["ma_window"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return out, fmt.Errorf("ma_window: %w", err)
		}
		if n < 1 {
			return out, fmt.Errorf("ma_window must be >= 1, got %d", n)
		}
		out.MaWindow = n
	}
	if _, ok := cfg["reset_ma_roi"]; ok {
		s.Delete(SectionGlobal, "reset_ma_roi")
		out.ResetMaRoi = true
	}
	return out, nil
}

// parseGeom parses "x,y,w,h".
func parseGeom(v string) (roi.Geom, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return roi.InvalidGeom, fmt.Errorf("expected 4 comma-separated integers, got %q", v)
	}
	n := make([]int, 4)
	for i, p := range parts {
		x, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return roi.InvalidGeom, fmt.Errorf("bad geometry component %q: %w", p, err)
		}
		n[i] = x
	}
	return roi.Geom{X: n[0], Y: n[1], W: n[2], H: n[3]}, nil
}

// parseRange parses "lo,hi" where either bound may be "inf" or "-inf".
func parseRange(cfg map[string]string, key string, def roi.Range) (roi.Range, error) {
	v, ok := cfg[key]
	if !ok {
		return def, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return def, fmt.Errorf("%s: expected 2 comma-separated numbers, got %q", key, v)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return roi.Range{Lo: lo, Hi: hi}, nil
}

func parseEnum[T ~int](cfg map[string]string, key string, dst *T) error {
	v, ok := cfg[key]
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = T(n)
	return nil
}
