package foamline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/foamline/foamline/pkg/config"
	"github.com/foamline/foamline/pkg/correlation"
	"github.com/foamline/foamline/pkg/mqtt"
	"github.com/foamline/foamline/pkg/pipeline"
	"github.com/foamline/foamline/pkg/record"
	"github.com/foamline/foamline/pkg/roiproc"
	"github.com/foamline/foamline/pkg/router"
	"github.com/foamline/foamline/pkg/source"
	"github.com/foamline/foamline/pkg/watchdog"
)

const correlators = 2

func Root() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		slogOpts := slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if viper.GetBool("debug") {
			slogOpts.Level = slog.LevelDebug
		}
		log := slog.New(slog.NewTextHandler(os.Stderr, &slogOpts))
		slog.SetDefault(log)

		ctx, cancelFunc := context.WithCancel(context.Background())
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(-1)

		store := seedStore()

		trainCh, trainFn := source.TrainChannel(ctx, source.Options{
			Pulses:      viper.GetInt("pulses"),
			Height:      viper.GetInt("height"),
			Width:       viper.GetInt("width"),
			Interval:    viper.GetDuration("train-interval"),
			Correlators: correlators,
		})
		slog.Debug("starting train source")
		g.Go(trainFn)

		procs := []pipeline.Processor{
			roiproc.NewPulse(),
			roiproc.NewTrain(),
		}
		for i := 1; i <= correlators; i++ {
			procs = append(procs, correlation.New(i))
		}
		chain := pipeline.NewChain(procs...)

		processedCh := make(chan *record.Train, 1)
		g.Go(func() error {
			defer close(processedCh)
			for t := range trainCh {
				chain.Run(store, t)
				processedCh <- t
			}
			return nil
		})

		fan := router.NewFan[*record.Train]("processed", processedCh)

		// MQTT
		if broker := viper.GetString("mqtt-broker"); broker != "" {
			mqttURL, err := url.Parse(broker)
			errChk(err)
			mc := mqtt.NewClient(mqttURL, viper.GetInt("mqtt-sample-interval"))
			errChk(mc.Connect())
			g.Go(mc.GetPublisher(fan.Subscribe("mqtt")))
		}

		// Watchdog
		watchdogTimeout := viper.GetDuration("watchdog-timeout")
		g.Go(watchdog.NewWatchdog(watchdogTimeout, func() error {
			cancelFunc()
			return nil
		}, fan.Subscribe("watchdog")))

		g.Go(trendLogger(fan.Subscribe("trend")))

		g.Go(fan.Run)

		// Signal handling
		chanSignal := make(chan os.Signal, 1)
		signal.Notify(chanSignal, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)

		g.Go(func() error {
			defer cancelFunc()
			select {
			case <-ctx.Done():
			case <-chanSignal:
			}
			slog.Info("shutting down...")
			return nil
		})

		slog.Debug("waiting for goroutines to finish")
		err := g.Wait()
		errChk(err)
	}
}

// trendLogger reports a compact per-train summary so a headless run still
// shows the derived figures of merit.
func trendLogger(trains <-chan *record.Train) func() error {
	return func() error {
		for t := range trains {
			attrs := []any{"train", t.ID}
			if t.Roi.Fom != nil {
				attrs = append(attrs, "roiFom", fmt.Sprintf("%0.3f", *t.Roi.Fom))
			}
			if t.Roi.Proj.Fom != nil {
				attrs = append(attrs, "projFom", fmt.Sprintf("%0.3f", *t.Roi.Proj.Fom))
			}
			if t.Pp.Fom != nil {
				attrs = append(attrs, "ppFom", fmt.Sprintf("%0.3f", *t.Pp.Fom))
			}
			for i := range t.Corr {
				attrs = append(attrs, fmt.Sprintf("corr%dPoints", i+1), len(t.Corr[i].X))
			}
			slog.Info("train processed", attrs...)
		}
		return nil
	}
}

// seedStore loads the processor parameter store from the CLI/file
// configuration. A live deployment would share this store with the control
// GUI instead.
func seedStore() *config.MemStore {
	store := config.NewMemStore()

	for i := 1; i <= 4; i++ {
		if v := viper.GetString(fmt.Sprintf("roi%d", i)); v != "" {
			store.Set(config.SectionRoi, fmt.Sprintf("geom%d", i), v)
		}
	}
	setInt := func(section, key, flag string) {
		if viper.IsSet(flag) {
			store.Set(section, key, strconv.Itoa(viper.GetInt(flag)))
		}
	}
	setInt(config.SectionRoi, "fom:combo", "fom-combo")
	setInt(config.SectionRoi, "fom:type", "fom-type")
	setInt(config.SectionRoi, "fom:norm", "fom-norm")
	setInt(config.SectionRoi, "norm:combo", "norm-combo")
	setInt(config.SectionRoi, "norm:type", "norm-type")
	setInt(config.SectionRoi, "proj:combo", "proj-combo")
	setInt(config.SectionRoi, "proj:norm", "proj-norm")
	store.Set(config.SectionRoi, "proj:direct", viper.GetString("proj-direct"))
	if v := viper.GetString("proj-auc-range"); v != "" {
		store.Set(config.SectionRoi, "proj:auc_range", v)
	}
	if v := viper.GetString("proj-fom-integ-range"); v != "" {
		store.Set(config.SectionRoi, "proj:fom_integ_range", v)
	}

	store.Set(config.SectionGlobal, "ma_window", strconv.Itoa(viper.GetInt("ma-window")))

	setInt(config.SectionCorrelation, "analysis_type", "analysis-type")
	for i := 1; i <= correlators; i++ {
		if v := viper.GetString(fmt.Sprintf("corr-source%d", i)); v != "" {
			store.Set(config.SectionCorrelation, fmt.Sprintf("source%d", i), v)
		}
		store.Set(config.SectionCorrelation, fmt.Sprintf("resolution%d", i),
			strconv.FormatFloat(viper.GetFloat64(fmt.Sprintf("corr-resolution%d", i)), 'f', -1, 64))
	}

	return store
}

func errChk(err error) {
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
