package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vlogtools/vlog/internal/config"
	"github.com/vlogtools/vlog/internal/media"
	"github.com/vlogtools/vlog/internal/splitter"
	"github.com/vlogtools/vlog/internal/vad"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Cut camera takes into voiced clips",
	Long: `Split processes every input_0*.mp4 in the project directory.

The sound track (input_N.wav from an external recorder, or the camera's
left channel) is synced to the camera, speech is detected and each voiced
part is written as <clip>_<subclip>_<rotation>.mp4.

Examples:
  vlog split -d trip/
  vlog split -d trip/ -r 0 --sync-command ""`,
	Args: cobra.NoArgs,
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)
	addSplitFlags(splitCmd.Flags())
}

func addSplitFlags(flags *pflag.FlagSet) {
	flags.IntP("rotation", "r", 90, "Rotation tag written into clip names")
	flags.Float64P("aggressiveness", "a", 0.4, "VAD aggressiveness between 0 and 1")
	flags.Float64P("min-pause", "P", 2, "Minimum pause that splits two clips")
	flags.String("sync-command", "sync-audio-tracks.sh", "Command that syncs the sound track to the camera, empty to skip")
}

func splitOptions(flags *pflag.FlagSet, c *config.Config) (splitter.Options, string) {
	sc := c.Split
	overrideInt(flags, "rotation", &sc.Rotation)
	overrideFloat(flags, "aggressiveness", &sc.Aggressiveness)
	overrideFloat(flags, "min-pause", &sc.MinPauseBetweenShots)
	overrideString(flags, "sync-command", &sc.SyncCommand)

	return splitter.Options{
		MinPauseBetweenShots: sc.MinPauseBetweenShots,
		Aggressiveness:       sc.Aggressiveness,
		MinShotSize:          c.VAD.MinShotSize,
		SpeechPad:            c.VAD.SpeechPad,
		StartCorrection:      c.VAD.StartCorrection,
		EndCorrection:        c.VAD.EndCorrection,
		Rotation:             sc.Rotation,
		Workers:              workers(flags, c),
	}, sc.SyncCommand
}

func newSyncer(command string) splitter.Syncer {
	if command == "" {
		return splitter.CopySyncer{}
	}
	return splitter.CommandSyncer{Command: command}
}

func runSplit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, syncCommand := splitOptions(cmd.Flags(), cfg)

	logger.Infow("Starting split",
		"project", projectDir,
		"rotation", opts.Rotation,
		"workers", opts.Workers,
	)

	runner := media.NewExecRunner(logger)
	detector := vad.NewDetector(cfg.VAD.Script, runner, logger)
	s := splitter.New(runner, detector, newSyncer(syncCommand), nil, logger)

	results, err := s.Split(ctx, projectDir, opts)
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}

	var written, skipped int
	for _, r := range results {
		if r.Skipped {
			skipped++
		}
		written += len(r.Outputs)
	}
	logger.Infow("Split complete",
		"clips", len(results),
		"skipped", skipped,
		"subclips", written,
	)
	return nil
}
