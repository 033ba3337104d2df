package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vlogtools/vlog/internal/config"
	"github.com/vlogtools/vlog/internal/logging"
)

var (
	verbose    bool
	configFile string
	envFile    string
	projectDir string

	logger *logging.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vlog",
	Short: "Cut, preview and render talking-head vlogs",
	Long: `vlog turns raw camera takes into a finished vlog.

split cuts synced takes into voiced clips, conf transcribes them into an
editable render.conf, render assembles the edit list into a video and
play previews a single recording with its silences skipped or sped up.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Load(config.LoadOptions{
			File:    configFile,
			Dirs:    []string{projectDir, "."},
			EnvFile: envFile,
		})
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

// Execute runs the command line; an interrupt cancels running ffmpeg and
// API calls.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "Config file (default vlog.yaml in the project or working directory)")
	rootCmd.PersistentFlags().
		StringVar(&envFile, "env-file", "", "Load environment variables from this file (default .env)")
	rootCmd.PersistentFlags().
		StringVarP(&projectDir, "project", "d", ".", "Project directory")
	rootCmd.PersistentFlags().
		Int("workers", 0, "Parallel workers (default from config: number of CPUs)")
}
