// Command mprviewer loads a stack of 2D slices and exports synchronized
// sagittal, coronal and transverse views of the resulting volume.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mprviewer/internal/logger"
	"mprviewer/pkg/config"
)

var version = "0.1.0"

var (
	cfgPath  string
	cfg      *config.Config
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "mprviewer",
	Short: "Multi-planar reconstruction of image stacks",
	Long: `mprviewer stacks a directory of 2D grayscale slices into a volume and renders
three orthogonal views (sagittal, coronal, transverse) that share one cursor.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeLog()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "mprviewer.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Set log level (debug|info|warn|error) [default: from config]")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to file instead of stderr")

	for _, name := range []string{"log-level", "log-file"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}
	viper.SetEnvPrefix("MPRVIEWER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("mprviewer v%s\n", version)
		},
	})
}

// initConfig loads the config file and sets up logging. Flags and
// MPRVIEWER_* environment variables take precedence over the file.
func initConfig() error {
	var err error
	cfg, err = config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	viper.SetDefault("log-level", cfg.Logging.Level)
	viper.SetDefault("log-file", cfg.Logging.File)
	cfg.Logging.Level = viper.GetString("log-level")
	cfg.Logging.File = viper.GetString("log-file")

	closeLog, err = logger.Configure(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("error configuring logger: %w", err)
	}
	return nil
}
