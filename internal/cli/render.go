package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vlogtools/vlog/internal/config"
	"github.com/vlogtools/vlog/internal/editlist"
	"github.com/vlogtools/vlog/internal/media"
	"github.com/vlogtools/vlog/internal/player"
	"github.com/vlogtools/vlog/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the project's render.conf into a video",
	Long: `Render assembles the segments listed in render.conf into output.mp4.

Each row names a clip, a speed and the start/end of the kept part. Rows
starting with # are skipped. Short pauses between segments of the same clip
are merged away and every segment is sped up by the row speed times --speed.

In preview mode a low resolution output_preview.mp4 is written with the
clip name and line number burnt in, and mpv starts at --line.

When render.conf does not exist yet it is generated first (see vlog conf).

Examples:
  vlog render -d trip/
  vlog render -d trip/ -P=false -S 1.3
  vlog render -d trip/ -L 42`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addRenderFlags(renderCmd.Flags())
	addTranscribeFlags(renderCmd.Flags())
}

func addRenderFlags(flags *pflag.FlagSet) {
	flags.IntP("line", "L", 1, "render.conf line to start the preview player at")
	flags.BoolP("preview", "P", true, "Render a low resolution preview and play it")
	flags.IntP("fps", "f", 30, "Output frame rate")
	flags.Float64P("speed", "S", 1.2, "Global speed multiplier")
	flags.StringP("video-filters", "V", "hqdn3d,hflip,vignette", "ffmpeg video filters applied to every segment")
	flags.BoolP("cleanup", "c", false, "Render every segment again instead of reusing existing files")
	flags.Bool("subtitles", true, "Write output.srt timed to the rendered video")
	flags.Bool("no-play", false, "Do not launch the player after a preview render")
	flags.Float64("min-pause", 0.1, "Merge pauses shorter than this between segments of the same clip")
}

// renderOptions layers the render flags over the loaded config.
func renderOptions(flags *pflag.FlagSet, c *config.Config) (render.Options, error) {
	rc := c.Render
	overrideFloat(flags, "speed", &rc.Speed)
	overrideInt(flags, "fps", &rc.FPS)
	overrideString(flags, "video-filters", &rc.VideoFilters)
	overrideFloat(flags, "min-pause", &rc.MinPauseBetweenShots)
	overrideBool(flags, "preview", &rc.Preview)
	overrideBool(flags, "cleanup", &rc.Cleanup)
	overrideBool(flags, "subtitles", &rc.Subtitles)

	if rc.Speed <= 0 {
		return render.Options{}, fmt.Errorf("speed must be positive, got %v", rc.Speed)
	}
	if rc.FPS <= 0 {
		return render.Options{}, fmt.Errorf("fps must be positive, got %d", rc.FPS)
	}

	line, _ := flags.GetInt("line")
	noPlay, _ := flags.GetBool("no-play")

	return render.Options{
		Speed:                rc.Speed,
		FPS:                  rc.FPS,
		VideoFilters:         rc.VideoFilters,
		MinPauseBetweenShots: rc.MinPauseBetweenShots,
		Preview:              rc.Preview,
		PreviewWidth:         rc.PreviewWidth,
		Cleanup:              rc.Cleanup,
		Subtitles:            rc.Subtitles,
		Line:                 line,
		Play:                 rc.Preview && !noPlay,
		Workers:              workers(flags, c),
	}, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts, err := renderOptions(cmd.Flags(), cfg)
	if err != nil {
		return err
	}

	runner := media.NewExecRunner(logger)

	if _, err := os.Stat(editlist.Path(projectDir)); os.IsNotExist(err) {
		logger.Infow("render.conf not found, generating it", "project", projectDir)
		if err := generateConf(cmd, runner); err != nil {
			return err
		}
	}

	logger.Infow("Starting render",
		"project", projectDir,
		"speed", opts.Speed,
		"fps", opts.FPS,
		"preview", opts.Preview,
		"workers", opts.Workers,
	)

	renderer := render.New(runner, logger, render.WithPlayer(player.NewMPV(logger, nil)))
	summary, err := renderer.Render(ctx, projectDir, opts)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	logger.Infow("Render complete",
		"output", summary.Output,
		"segments", summary.Segments,
		"reused", summary.Reused,
	)
	fmt.Fprintln(cmd.OutOrStdout(), summary.Output)
	return nil
}
