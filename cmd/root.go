package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/foamline/foamline/pkg/foamline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "foamline",
	Short: "Streaming FOM aggregation pipeline for pulsed detector trains",
	Long: `foamline runs the stateful streaming aggregation stage of a pulsed
X-ray detector analysis chain: per-pulse and per-train region-of-interest
figures of merit, moving-averaged region crops, projection profiles and
bounded-memory correlation histories, published live over MQTT.

Without a broker configured it processes a synthetic train stream and logs
the derived figures of merit.`,
	Run: foamline.Root(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.foamline.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.PersistentFlags().Duration("train-interval", 100*time.Millisecond, "Interval between generated trains")
	rootCmd.PersistentFlags().Int("pulses", 10, "Pulses per train")
	rootCmd.PersistentFlags().Int("height", 128, "Detector frame height")
	rootCmd.PersistentFlags().Int("width", 128, "Detector frame width")
	rootCmd.PersistentFlags().Duration("watchdog-timeout", 10*time.Second, "Pipeline shutdown timeout without trains")

	rootCmd.PersistentFlags().String("mqtt-broker", "", "mqtt broker url")
	rootCmd.PersistentFlags().Int("mqtt-sample-interval", 10, "Publish every Nth train")

	rootCmd.PersistentFlags().String("roi1", "32,32,64,64", "ROI1 geometry as x,y,w,h")
	rootCmd.PersistentFlags().String("roi2", "", "ROI2 geometry as x,y,w,h")
	rootCmd.PersistentFlags().String("roi3", "", "ROI3 geometry as x,y,w,h")
	rootCmd.PersistentFlags().String("roi4", "", "ROI4 geometry as x,y,w,h")
	rootCmd.PersistentFlags().Int("fom-combo", 1, "ROI FOM combination mode")
	rootCmd.PersistentFlags().Int("fom-type", 1, "ROI FOM reduction (1=sum 2=mean 3=median 4=max 5=min)")
	rootCmd.PersistentFlags().Int("fom-norm", 0, "ROI FOM normalizer")
	rootCmd.PersistentFlags().Int("norm-combo", 11, "ROI normalizer combination mode")
	rootCmd.PersistentFlags().Int("norm-type", 1, "ROI normalizer reduction")
	rootCmd.PersistentFlags().Int("proj-combo", 1, "ROI projection combination mode")
	rootCmd.PersistentFlags().String("proj-direct", "x", "ROI projection direction (x or y)")
	rootCmd.PersistentFlags().Int("proj-norm", 0, "ROI projection normalizer")
	rootCmd.PersistentFlags().String("proj-auc-range", "", "Projection AUC range as lo,hi")
	rootCmd.PersistentFlags().String("proj-fom-integ-range", "", "Projection FOM integration range as lo,hi")
	rootCmd.PersistentFlags().Int("ma-window", 1, "ROI moving average window")

	rootCmd.PersistentFlags().Int("analysis-type", 2, "Correlation analysis type (1=pump-probe 2=roi-fom 3=roi-proj 4=azimuthal)")
	rootCmd.PersistentFlags().String("corr-source1", "motor/actual_position", "Correlator 1 slow-data source")
	rootCmd.PersistentFlags().Float64("corr-resolution1", 0, "Correlator 1 bin resolution (0 disables binning)")
	rootCmd.PersistentFlags().String("corr-source2", "xgm/intensity", "Correlator 2 slow-data source")
	rootCmd.PersistentFlags().Float64("corr-resolution2", 0, "Correlator 2 bin resolution (0 disables binning)")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".foamline" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".foamline")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
