// Package correlation maintains the (correlator, FOM) histories that drive
// the correlation plots: a general stream selected by analysis type and a
// decoupled pump-probe stream keyed by train ID.
package correlation

import (
	"log/slog"

	"github.com/foamline/foamline/pkg/config"
	"github.com/foamline/foamline/pkg/pairseq"
	"github.com/foamline/foamline/pkg/pipeline"
	"github.com/foamline/foamline/pkg/record"
)

// 10 pulses/train * 60 seconds * 5 minutes.
const maxPoints = 10 * 60 * 5

// Processor correlates a configurable slow-data source against the FOM chosen
// by the analysis type. Indices start at 1; only the first instance maintains
// the pump-probe stream so it runs once per train.
type Processor struct {
	idx int

	analysisType   record.AnalysisType
	ppAnalysisType record.AnalysisType

	corr      pairseq.Sequence
	corrSlave pairseq.Sequence

	source       string
	resolution   float64
	resetPending bool

	corrPp      *pairseq.Simple
	ppFailCount int
}

func New(idx int) *Processor {
	return &Processor{
		idx:       idx,
		corr:      pairseq.NewSimple(maxPoints),
		corrSlave: pairseq.NewSimple(maxPoints),
		corrPp:    pairseq.NewSimple(maxPoints),
	}
}

func (p *Processor) Name() string {
	return "correlation"
}

// Update refreshes the configuration snapshot. Changing the analysis type or
// source marks the history for reset. A resolution transition between zero
// and nonzero replaces the containers with the appropriate type instead of
// resetting, so no stale binning state is carried over; a change between two
// nonzero resolutions keeps the container type but marks a reset.
func (p *Processor) Update(store config.Store) error {
	cfg, err := config.ParseCorrelation(store, p.idx)
	if err != nil {
		return pipeline.Parameter("correlation", err)
	}

	if cfg.AnalysisType != p.analysisType {
		p.analysisType = cfg.AnalysisType
		p.resetPending = true
	}
	if cfg.Source != p.source {
		p.source = cfg.Source
		p.resetPending = true
	}

	switch {
	case p.resolution != 0 && cfg.Resolution == 0:
		p.corr = pairseq.NewSimple(maxPoints)
		p.corrSlave = pairseq.NewSimple(maxPoints)
	case p.resolution == 0 && cfg.Resolution != 0:
		binned, err := pairseq.NewBinned(cfg.Resolution, maxPoints)
		if err != nil {
			return pipeline.Parameter("correlation resolution", err)
		}
		slave, _ := pairseq.NewBinned(cfg.Resolution, maxPoints)
		p.corr = binned
		p.corrSlave = slave
	case p.resolution != cfg.Resolution:
		binned, err := pairseq.NewBinned(cfg.Resolution, maxPoints)
		if err != nil {
			return pipeline.Parameter("correlation resolution", err)
		}
		slave, _ := pairseq.NewBinned(cfg.Resolution, maxPoints)
		p.corr = binned
		p.corrSlave = slave
		p.resetPending = true
	}
	p.resolution = cfg.Resolution

	if cfg.Reset {
		p.resetPending = true
	}
	return nil
}

func (p *Processor) Process(t *record.Train) error {
	err := p.processGeneral(t)
	if p.idx == 1 {
		// Runs once per train regardless of how many correlators exist.
		p.processPumpProbe(t)
	}
	return err
}

func (p *Processor) processGeneral(t *record.Train) error {
	if p.analysisType == record.AnalysisUndefined {
		return nil
	}

	if p.analysisType == record.AnalysisPumpProbe && t.Pp.AnalysisType != p.ppAnalysisType {
		p.resetPending = true
		p.ppAnalysisType = t.Pp.AnalysisType
	}

	if p.resetPending {
		p.corr.Reset()
		p.corrSlave.Reset()
		p.resetPending = false
	}

	err := p.appendDataPoint(t)

	out := p.output(t)
	out.X, out.Y = p.corr.Data()
	if binned, ok := p.corr.(*pairseq.Binned); ok {
		_, st := binned.Snapshot()
		out.Count, out.YMin, out.YMax = st.Count, st.Min, st.Max
	} else {
		out.Count, out.YMin, out.YMax = nil, nil, nil
	}
	out.XSlave, out.YSlave = p.corrSlave.Data()
	out.Source = p.source
	out.Resolution = p.resolution
	return err
}

// output returns this correlator's slot in the outgoing record, growing the
// slice if upstream allocated fewer slots.
func (p *Processor) output(t *record.Train) *record.CorrelationData {
	for len(t.Corr) < p.idx {
		t.Corr = append(t.Corr, record.CorrelationData{})
	}
	return &t.Corr[p.idx-1]
}

// appendDataPoint fetches the FOM for the configured analysis type and the
// correlator value from the slow data, appending to the history when both are
// available.
func (p *Processor) appendDataPoint(t *record.Train) error {
	var fom *float64
	var fomSlave *float64

	switch p.analysisType {
	case record.AnalysisPumpProbe:
		fom = t.Pp.Fom
		if fom == nil {
			p.ppFailCount++
			// When on/off pulses live in different trains the pump-probe FOM
			// arrives only every other train, so a single miss is tolerated.
			if p.ppFailCount == 2 {
				p.ppFailCount = 0
				return pipeline.Processingf("pump-probe FOM is not available")
			}
			return nil
		}
		p.ppFailCount = 0
	case record.AnalysisRoiFom:
		fom = t.Roi.Fom
		fomSlave = t.Roi.FomSlave
		if fom == nil {
			return pipeline.Processingf("ROI FOM is not available")
		}
	case record.AnalysisRoiProj:
		fom = t.Roi.Proj.Fom
		if fom == nil {
			return pipeline.Processingf("ROI projection FOM is not available")
		}
	case record.AnalysisAzimuthalInteg:
		fom = t.AzimuthalFom
		if fom == nil {
			return pipeline.Processingf("azimuthal integration FOM is not available")
		}
	default:
		return pipeline.Parameterf("unknown analysis type: %v", p.analysisType)
	}

	v, ok := t.Slow[p.source]
	if !ok {
		slog.Error("correlator value is not available", "source", p.source, "train", t.ID)
		return nil
	}

	p.corr.Append(v, *fom)
	if fomSlave != nil {
		p.corrSlave.Append(v, *fomSlave)
	}
	return nil
}

// processPumpProbe feeds the decoupled (train ID, pump-probe FOM) history.
func (p *Processor) processPumpProbe(t *record.Train) {
	if t.Pp.Reset {
		p.corrPp.Reset()
	}
	if t.Pp.Fom != nil {
		p.corrPp.Append(float64(t.ID), *t.Pp.Fom)
	}
	t.CorrPp.X, t.CorrPp.Y = p.corrPp.Data()
}
