// Package record defines the shared per-train output record. One record is
// created upstream per train, filled by the processors and handed to the
// rendering/publishing layer; the processors never own its lifecycle.
package record

import (
	"github.com/foamline/foamline/pkg/image"
	"github.com/foamline/foamline/pkg/roi"
)

// AnalysisType enumerates the analysis driving a correlation or pump-probe
// stream.
type AnalysisType int

const (
	AnalysisUndefined AnalysisType = iota
	AnalysisPumpProbe
	AnalysisRoiFom
	AnalysisRoiProj
	AnalysisAzimuthalInteg
)

func (t AnalysisType) String() string {
	switch t {
	case AnalysisUndefined:
		return "undefined"
	case AnalysisPumpProbe:
		return "pump-probe"
	case AnalysisRoiFom:
		return "roi-fom"
	case AnalysisRoiProj:
		return "roi-proj"
	case AnalysisAzimuthalInteg:
		return "azimuthal-integ"
	}
	return "unknown"
}

// ProjData is a 1-D projection profile with its integrated FOM.
type ProjData struct {
	X   []float64
	Y   []float64
	Fom *float64
}

// RoiData carries the train-resolved ROI results.
type RoiData struct {
	// Geometries after intersection with the image bounds, in order
	// ROI1..ROI4. Invalid entries mark unconfigured regions.
	Geoms [4]roi.Geom

	Fom      *float64
	FomSlave *float64
	Norm     *float64
	Proj     ProjData
}

// PulseRoiData carries the pulse-resolved ROI results, one entry per pulse.
type PulseRoiData struct {
	Fom  []float64
	Norm []float64
}

// PumpProbeData is the pump-probe substructure supplied partly upstream
// (images, reset flag, analysis type) and partly by the ROI processors.
type PumpProbeData struct {
	AnalysisType  AnalysisType
	ImageOn       *image.Image
	ImageOff      *image.Image
	Reset         bool
	AbsDifference bool

	OnRoiNorm  *float64
	OffRoiNorm *float64

	X    []float64
	Y    []float64
	YOn  []float64
	YOff []float64
	Fom  *float64
}

// CorrelationData is one correlator's history snapshot for rendering.
type CorrelationData struct {
	X      []float64
	Y      []float64
	Count  []int
	YMin   []float64
	YMax   []float64
	XSlave []float64
	YSlave []float64

	Source     string
	Resolution float64
}

// PumpProbeCorrelation is the decoupled (train ID, pump-probe FOM) history.
type PumpProbeCorrelation struct {
	X []float64
	Y []float64
}

// Train is the processed record for one train.
type Train struct {
	ID uint64

	// Assembled is the sliced pulse-resolved stack; MaskedMean the
	// train-resolved masked average frame. Either may be absent.
	Assembled  *image.Stack
	MaskedMean *image.Image

	ImageMask     *image.Mask
	ThresholdMask *roi.Threshold

	// Slow holds the named slow-data scalars delivered with the train.
	Slow map[string]float64

	Roi      RoiData
	PulseRoi PulseRoiData
	Pp       PumpProbeData

	// AzimuthalFom is filled by the upstream azimuthal-integration stage.
	AzimuthalFom *float64

	Corr   []CorrelationData
	CorrPp PumpProbeCorrelation
}

// Scalar is a convenience for optional float fields.
func Scalar(v float64) *float64 {
	return &v
}

// ImageBounds returns the frame bounds of whichever image input is present.
func (t *Train) ImageBounds() (roi.Geom, bool) {
	if t.Assembled != nil {
		return roi.ImageBounds(t.Assembled.H, t.Assembled.W), true
	}
	if t.MaskedMean != nil {
		return roi.ImageBounds(t.MaskedMean.H, t.MaskedMean.W), true
	}
	return roi.InvalidGeom, false
}
