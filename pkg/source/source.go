// Package source emits synthetic pulsed-detector trains for the demo binary:
// a scattering peak plus noise per pulse, a scanned motor position in the
// slow data, and alternating pump-probe on/off frames.
package source

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/foamline/foamline/pkg/image"
	"github.com/foamline/foamline/pkg/record"
)

// Options shape the generated trains.
type Options struct {
	Pulses   int
	Height   int
	Width    int
	Interval time.Duration
	// Correlators is the number of correlation output slots allocated per
	// train record.
	Correlators int
}

// TrainChannel returns a channel of train records and the producer function
// driving it. The producer stops when the context is cancelled.
func TrainChannel(ctx context.Context, opts Options) (<-chan *record.Train, func() error) {
	c := make(chan *record.Train, 1)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return c, func() error {
		defer close(c)
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		var tid uint64 = 1
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				c <- generate(tid, opts, rng)
				tid++
			}
		}
	}
}

func generate(tid uint64, opts Options, rng *rand.Rand) *record.Train {
	stack := image.NewStack(opts.Pulses, opts.Height, opts.Width)
	// Peak drifts slowly with the scan so correlations have structure.
	scan := 10 * math.Sin(float64(tid)/50)
	cx := float64(opts.Width)/2 + scan
	cy := float64(opts.Height) / 2
	sigma := float64(opts.Width) / 8

	for i := 0; i < opts.Pulses; i++ {
		amp := 100 * (1 + 0.05*rng.NormFloat64())
		fillPeak(stack.Pulse(i), cx, cy, sigma, amp, rng)
	}
	mean := stack.MeanImage()

	on := stack.Pulse(0).Clone()
	var off image.Image
	if opts.Pulses > 1 {
		off = stack.Pulse(1).Clone()
	} else {
		off = stack.Pulse(0).Clone()
	}

	t := &record.Train{
		ID:         tid,
		Assembled:  &stack,
		MaskedMean: &mean,
		Slow: map[string]float64{
			"motor/actual_position": scan,
			"xgm/intensity":         1000 + 50*rng.NormFloat64(),
		},
		Pp: record.PumpProbeData{
			AnalysisType: record.AnalysisRoiFom,
			ImageOn:      &on,
			ImageOff:     &off,
		},
		Corr: make([]record.CorrelationData, opts.Correlators),
	}
	return t
}

func fillPeak(img image.Image, cx, cy, sigma, amp float64, rng *rand.Rand) {
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			v := amp*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)) + rng.NormFloat64()
			img.Set(y, x, v)
		}
	}
}
