// Package roiproc derives per-pulse and per-train ROI figures of merit,
// normalizers and projections from the assembled detector data.
package roiproc

import (
	"github.com/foamline/foamline/pkg/config"
	"github.com/foamline/foamline/pkg/image"
	"github.com/foamline/foamline/pkg/pipeline"
	"github.com/foamline/foamline/pkg/record"
	"github.com/foamline/foamline/pkg/roi"
)

// Pulse computes pulse-resolved ROI normalizers and FOMs. It also clips the
// configured geometries against the current image bounds and records them for
// every downstream consumer.
type Pulse struct {
	cfg config.RoiConfig
}

func NewPulse() *Pulse {
	cfg, _ := config.ParseRoi(nil)
	return &Pulse{cfg: cfg}
}

func (p *Pulse) Name() string {
	return "roi-pulse"
}

func (p *Pulse) Update(store config.Store) error {
	cfg, err := config.ParseRoi(store.Section(config.SectionRoi))
	if err != nil {
		return pipeline.Parameter("roi", err)
	}
	p.cfg = cfg
	return nil
}

func (p *Pulse) Process(t *record.Train) error {
	bounds, ok := t.ImageBounds()
	if !ok {
		return pipeline.Processingf("no image data in train")
	}
	for i := range p.cfg.Geoms {
		t.Roi.Geoms[i] = p.cfg.Geoms[i].Intersect(bounds)
	}

	if t.Assembled == nil {
		// Train-resolved input; nothing pulse-resolved to compute.
		return nil
	}

	if err := p.processNorm(t); err != nil {
		return err
	}
	return p.processFom(t)
}

// stackOperand lazily reduces one region of the pulse stack to a per-pulse
// vector. An unconfigured region yields no result and no error.
func (p *Pulse) stackOperand(t *record.Train, region int, fomType roi.FomType) roi.VecOperand {
	return func() ([]float64, error) {
		g := t.Roi.Geoms[region]
		if !g.Valid() {
			return nil, nil
		}
		sub, ok := g.CropStack(*t.Assembled)
		if !ok {
			return nil, nil
		}
		var mask *image.Mask
		if t.ImageMask != nil {
			if m, cropped := g.CropMask(*t.ImageMask); cropped {
				mask = &m
			}
		}
		return roi.ReduceStack(fomType, sub, mask, t.ThresholdMask)
	}
}

// processNorm always computes the pulse-resolved normalizer from ROI3/ROI4.
// A missing region leaves the normalizer unset; users are responsible for
// configuring the regions their analysis needs.
func (p *Pulse) processNorm(t *record.Train) error {
	norm, err := roi.CombineVec(p.cfg.NormCombo,
		p.stackOperand(t, 2, p.cfg.NormType),
		p.stackOperand(t, 3, p.cfg.NormType))
	if err != nil {
		return pipeline.Parameter("pulse ROI normalizer", err)
	}
	t.PulseRoi.Norm = norm
	return nil
}

// processFom computes the pulse-resolved FOM vector from ROI1/ROI2.
func (p *Pulse) processFom(t *record.Train) error {
	fom, err := roi.CombineVec(p.cfg.FomCombo,
		p.stackOperand(t, 0, p.cfg.FomType),
		p.stackOperand(t, 1, p.cfg.FomType))
	if err != nil {
		return pipeline.Parameter("pulse ROI FOM", err)
	}
	t.PulseRoi.Fom = fom
	return nil
}
