package roiproc

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/foamline/foamline/pkg/config"
	"github.com/foamline/foamline/pkg/image"
	"github.com/foamline/foamline/pkg/movavg"
	"github.com/foamline/foamline/pkg/pipeline"
	"github.com/foamline/foamline/pkg/record"
	"github.com/foamline/foamline/pkg/roi"
)

// Train computes train-resolved ROI results over moving-averaged region
// crops: FOM, normalizer, projection, and their pump-probe variants. Each
// instance owns its moving-average accumulators; the configured window is
// applied to all of them in one step.
type Train struct {
	cfg      config.RoiConfig
	maWindow int

	ma    [4]*movavg.Array
	maOn  [4]*movavg.Array
	maOff [4]*movavg.Array
}

func NewTrain() *Train {
	cfg, _ := config.ParseRoi(nil)
	t := &Train{cfg: cfg, maWindow: 1}
	for i := 0; i < 4; i++ {
		t.ma[i], _ = movavg.NewArray(1)
		t.maOn[i], _ = movavg.NewArray(1)
		t.maOff[i], _ = movavg.NewArray(1)
	}
	return t
}

func (p *Train) Name() string {
	return "roi-train"
}

func (p *Train) Update(store config.Store) error {
	g, err := config.ParseGlobal(store)
	if err != nil {
		return pipeline.Parameter("global", err)
	}
	if g.ResetMaRoi {
		p.resetMovingAverages()
	}
	if g.MaWindow != p.maWindow {
		p.setMovingAverageWindow(g.MaWindow)
		p.maWindow = g.MaWindow
	}

	cfg, err := config.ParseRoi(store.Section(config.SectionRoi))
	if err != nil {
		return pipeline.Parameter("roi", err)
	}
	p.cfg = cfg
	return nil
}

func (p *Train) resetMovingAverages() {
	for i := 0; i < 4; i++ {
		p.ma[i].Reset()
		p.maOn[i].Reset()
		p.maOff[i].Reset()
	}
}

func (p *Train) setMovingAverageWindow(w int) {
	for i := 0; i < 4; i++ {
		p.ma[i].SetWindow(w)
		p.maOn[i].SetWindow(w)
		p.maOff[i].SetWindow(w)
	}
}

// updateMa folds the region crop into its accumulator. A changed geometry
// changes the crop shape, which restarts that accumulator; an unconfigured
// region leaves it absent.
func updateMa(a *movavg.Array, img image.Image, ok bool) {
	if !ok {
		a.Reset()
		return
	}
	if err := a.Set(img); err != nil {
		a.Reset()
		a.Set(img)
	}
}

func (p *Train) Process(t *record.Train) error {
	if t.MaskedMean == nil {
		return pipeline.Processingf("masked mean image is not available")
	}

	for i := 0; i < 4; i++ {
		img, ok := t.Roi.Geoms[i].Crop(*t.MaskedMean)
		updateMa(p.ma[i], img, ok)
	}

	if err := p.processNorm(t); err != nil {
		return err
	}
	if err := p.processFom(t); err != nil {
		return err
	}
	if err := p.processProj(t); err != nil {
		return err
	}

	if t.Pp.ImageOn == nil || t.Pp.ImageOff == nil {
		return nil
	}
	for i := 0; i < 4; i++ {
		on, okOn := t.Roi.Geoms[i].Crop(*t.Pp.ImageOn)
		updateMa(p.maOn[i], on, okOn)
		off, okOff := t.Roi.Geoms[i].Crop(*t.Pp.ImageOff)
		updateMa(p.maOff[i], off, okOff)
	}

	if t.Pp.AnalysisType == record.AnalysisUndefined {
		return nil
	}
	if err := p.processNormPumpProbe(t); err != nil {
		return err
	}
	switch t.Pp.AnalysisType {
	case record.AnalysisRoiFom:
		return p.processFomPumpProbe(t)
	case record.AnalysisRoiProj:
		return p.processProjPumpProbe(t)
	}
	return nil
}

// maOperand lazily reduces one moving-averaged region crop to a scalar.
// Masking is already folded into the masked mean upstream.
func maOperand(a *movavg.Array, fomType roi.FomType) roi.Operand {
	return func() (*float64, error) {
		img, ok := a.Image()
		if !ok {
			return nil, nil
		}
		v, err := roi.Reduce(fomType, img, nil, nil)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
}

func (p *Train) processNorm(t *record.Train) error {
	norm, err := roi.Combine(p.cfg.NormCombo,
		maOperand(p.ma[2], p.cfg.NormType),
		maOperand(p.ma[3], p.cfg.NormType))
	if err != nil {
		return pipeline.Parameter("ROI normalizer", err)
	}
	t.Roi.Norm = norm
	return nil
}

func (p *Train) processFom(t *record.Train) error {
	fom, err := roi.Combine(p.cfg.FomCombo,
		maOperand(p.ma[0], p.cfg.FomType),
		maOperand(p.ma[1], p.cfg.FomType))
	if err != nil {
		return pipeline.Parameter("ROI FOM", err)
	}
	t.Roi.Fom = fom
	return nil
}

// combineProjections composes the ROI1/ROI2 projections of two accumulators.
// A shape mismatch between combined regions is recoverable: it is logged and
// the projection step is skipped for the train.
func (p *Train) combineProjections(a1, a2 *movavg.Array, logMismatch bool) ([]float64, error) {
	proj := func(a *movavg.Array) ([]float64, error) {
		img, ok := a.Image()
		if !ok {
			return nil, nil
		}
		return roi.Project(img, p.cfg.ProjDirection)
	}

	switch p.cfg.ProjCombo {
	case roi.Roi1:
		return proj(a1)
	case roi.Roi2:
		return proj(a2)
	case roi.Roi1SubRoi2, roi.Roi1AddRoi2:
	default:
		return nil, pipeline.Parameterf("unknown ROI projection combo: %v", p.cfg.ProjCombo)
	}

	img1, ok1 := a1.Image()
	img2, ok2 := a2.Image()
	if !ok1 || !ok2 {
		return nil, nil
	}
	if !img1.SameShape(img2) {
		if logMismatch {
			slog.Error("combined projection regions must have the same shape",
				"roi1", [2]int{img1.H, img1.W}, "roi2", [2]int{img2.H, img2.W})
		}
		return nil, nil
	}
	p1, err := roi.Project(img1, p.cfg.ProjDirection)
	if err != nil {
		return nil, err
	}
	p2, err := roi.Project(img2, p.cfg.ProjDirection)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(p1))
	for i := range p1 {
		if p.cfg.ProjCombo == roi.Roi1SubRoi2 {
			out[i] = p1[i] - p2[i]
		} else {
			out[i] = p1[i] + p2[i]
		}
	}
	return out, nil
}

func (p *Train) checkNormalizer() error {
	switch p.cfg.ProjNorm {
	case roi.NormUndefined, roi.NormAuc, roi.NormRoi:
		return nil
	}
	return pipeline.Parameterf("unknown projection normalizer: %v", p.cfg.ProjNorm)
}

func (p *Train) processProj(t *record.Train) error {
	proj, err := p.combineProjections(p.ma[0], p.ma[1], true)
	if err != nil {
		return wrapProjErr(err)
	}
	if proj == nil {
		return nil
	}
	if err := p.checkNormalizer(); err != nil {
		return err
	}

	x := indexAxis(len(proj))
	normalized, err := roi.NormalizeProfile(p.cfg.ProjNorm, proj, x, p.cfg.ProjAucRange, t.Roi.Norm)
	if err != nil {
		return pipeline.Processingf("ROI projection: %v", err)
	}
	_, ys := roi.SliceCurve(x, normalized, p.cfg.ProjFomIntegRange)

	t.Roi.Proj.X = x
	t.Roi.Proj.Y = normalized
	t.Roi.Proj.Fom = record.Scalar(floats.Sum(ys))
	return nil
}

func (p *Train) processNormPumpProbe(t *record.Train) error {
	normOn, err := roi.Combine(p.cfg.NormCombo,
		maOperand(p.maOn[2], p.cfg.NormType),
		maOperand(p.maOn[3], p.cfg.NormType))
	if err != nil {
		return pipeline.Parameter("pump-probe ROI normalizer", err)
	}
	normOff, err := roi.Combine(p.cfg.NormCombo,
		maOperand(p.maOff[2], p.cfg.NormType),
		maOperand(p.maOff[3], p.cfg.NormType))
	if err != nil {
		return pipeline.Parameter("pump-probe ROI normalizer", err)
	}
	if normOn == nil || normOff == nil {
		return nil
	}
	t.Pp.OnRoiNorm = normOn
	t.Pp.OffRoiNorm = normOff
	return nil
}

func (p *Train) processFomPumpProbe(t *record.Train) error {
	fomOn, err := roi.Combine(p.cfg.FomCombo,
		maOperand(p.maOn[0], p.cfg.FomType),
		maOperand(p.maOn[1], p.cfg.FomType))
	if err != nil {
		return pipeline.Parameter("pump-probe ROI FOM", err)
	}
	fomOff, err := roi.Combine(p.cfg.FomCombo,
		maOperand(p.maOff[0], p.cfg.FomType),
		maOperand(p.maOff[1], p.cfg.FomType))
	if err != nil {
		return pipeline.Parameter("pump-probe ROI FOM", err)
	}
	if fomOn == nil || fomOff == nil {
		return nil
	}
	t.Pp.Fom = record.Scalar(*fomOn - *fomOff)
	return nil
}

func (p *Train) processProjPumpProbe(t *record.Train) error {
	// The shape-mismatch log, if any, is already published by processProj.
	yOn, err := p.combineProjections(p.maOn[0], p.maOn[1], false)
	if err != nil {
		return wrapProjErr(err)
	}
	yOff, err := p.combineProjections(p.maOff[0], p.maOff[1], false)
	if err != nil {
		return wrapProjErr(err)
	}
	if yOn == nil || yOff == nil {
		return nil
	}
	if err := p.checkNormalizer(); err != nil {
		return err
	}

	x := indexAxis(len(yOn))
	normOn, err := roi.NormalizeProfile(p.cfg.ProjNorm, yOn, x, p.cfg.ProjAucRange, t.Pp.OnRoiNorm)
	if err != nil {
		return pipeline.Processingf("pump-probe ROI projection: %v", err)
	}
	normOff, err := roi.NormalizeProfile(p.cfg.ProjNorm, yOff, x, p.cfg.ProjAucRange, t.Pp.OffRoiNorm)
	if err != nil {
		return pipeline.Processingf("pump-probe ROI projection: %v", err)
	}
	if len(normOn) != len(normOff) {
		return pipeline.Processingf("pump-probe on/off projections have different lengths")
	}

	diff := make([]float64, len(normOn))
	for i := range normOn {
		diff[i] = normOn[i] - normOff[i]
	}
	_, ys := roi.SliceCurve(x, diff, p.cfg.ProjFomIntegRange)
	fom := 0.0
	for _, v := range ys {
		if t.Pp.AbsDifference {
			fom += math.Abs(v)
		} else {
			fom += v
		}
	}

	t.Pp.X = x
	t.Pp.Y = diff
	t.Pp.YOn = normOn
	t.Pp.YOff = normOff
	t.Pp.Fom = record.Scalar(fom)
	return nil
}

func indexAxis(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}

// wrapProjErr keeps already-classified errors intact and treats the rest as
// configuration mistakes (unknown projection axis).
func wrapProjErr(err error) error {
	if _, ok := err.(*pipeline.ParameterError); ok {
		return err
	}
	return pipeline.Parameter("ROI projection", err)
}
