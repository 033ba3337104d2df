package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vlogtools/vlog/internal/config"
	"github.com/vlogtools/vlog/internal/media"
	"github.com/vlogtools/vlog/internal/playback"
	"github.com/vlogtools/vlog/internal/player"
	"github.com/vlogtools/vlog/internal/timeline"
	"github.com/vlogtools/vlog/internal/vad"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play only the voiced (or silent) parts of a recording",
	Long: `Play detects speech in a recording and plays it through mpv.

Modes:
  voice    play the speech, skip the pauses
  silence  play the pauses, longest first
  both     play everything, with pauses sped up

Examples:
  vlog play -i take.mp4
  vlog play -i take.mp4 -m both -S 1.3
  vlog play -i take.mp4 -m silence -w 0.5`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	addPlayFlags(playCmd.Flags())
}

func addPlayFlags(flags *pflag.FlagSet) {
	flags.StringP("input", "i", "", "Recording to play (required)")
	flags.Float64P("speed", "S", 1.5, "Playback speed")
	flags.StringP("mode", "m", "silence", "Playback mode (voice, silence, both)")
	flags.Float64P("min-pause", "P", 0.5, "Minimum pause between shots in seconds")
	flags.Float64P("window", "w", 0, "Widen every played part by this many seconds")
	flags.Float64P("aggressiveness", "a", 0.5, "VAD aggressiveness between 0 and 1")
	flags.Bool("dry-run", false, "Print the playlist instead of playing it")
}

func playOptions(flags *pflag.FlagSet, c *config.Config) (playback.Options, error) {
	pc := c.Play
	overrideFloat(flags, "speed", &pc.Speed)
	overrideString(flags, "mode", &pc.Mode)
	overrideFloat(flags, "min-pause", &pc.MinPauseBetweenShots)
	overrideFloat(flags, "window", &pc.Window)
	overrideFloat(flags, "aggressiveness", &pc.Aggressiveness)

	mode, err := timeline.ParseMode(pc.Mode)
	if err != nil {
		return playback.Options{}, err
	}
	if pc.Speed <= 0 {
		return playback.Options{}, fmt.Errorf("speed must be positive, got %v", pc.Speed)
	}
	if pc.Aggressiveness < 0 || pc.Aggressiveness > 1 {
		return playback.Options{}, fmt.Errorf("aggressiveness must be between 0 and 1, got %v", pc.Aggressiveness)
	}

	return playback.Options{
		Mode:                 mode,
		Speed:                pc.Speed,
		PauseSpeedFactor:     pc.PauseSpeedFactor,
		MinPauseBetweenShots: pc.MinPauseBetweenShots,
		Window:               pc.Window,
		Aggressiveness:       pc.Aggressiveness,
		MinShotSize:          c.VAD.MinShotSize,
		SpeechPad:            c.VAD.SpeechPad,
		StartCorrection:      c.VAD.StartCorrection,
		EndCorrection:        c.VAD.EndCorrection,
	}, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	input, _ := cmd.Flags().GetString("input")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	if _, err := os.Stat(input); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", input)
	}
	if !media.IsVideoFile(input) {
		logger.Warnw("input does not look like a video file", "input", input)
	}

	opts, err := playOptions(cmd.Flags(), cfg)
	if err != nil {
		return err
	}

	detector := vad.NewDetector(cfg.VAD.Script, media.NewExecRunner(logger), logger)
	mpv := player.NewMPV(logger, nil)
	service := playback.New(detector, nil, mpv, logger)

	if dryRun {
		report, err := service.Plan(ctx, input, opts)
		if err != nil {
			return err
		}
		for _, e := range report.Entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%.3f\t%.3f\t%.2f\n", e.Start, e.End, e.Speed)
		}
		return nil
	}

	report, err := service.Play(ctx, input, opts)
	if err != nil {
		return err
	}
	logger.Infow("Playback finished",
		"parts", len(report.Entries),
		"pause_percentage", report.PausePercentage,
	)
	return nil
}
