package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vlogtools/vlog/internal/conf"
	"github.com/vlogtools/vlog/internal/config"
	"github.com/vlogtools/vlog/internal/media"
	"github.com/vlogtools/vlog/internal/transcribe"
)

var confCmd = &cobra.Command{
	Use:   "conf",
	Short: "Transcribe clips into render.conf",
	Long: `Conf transcribes every 0*.mp4 clip of the project and appends one
render.conf row per caption:

  <clip>	1.0	<start>	<end>	<text>

An existing render.conf is extended with the clips after the last one it
lists, so conf can be rerun after splitting new takes.

Examples:
  vlog conf -d trip/
  vlog conf -d trip/ --provider gemini --language de`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateConf(cmd, media.NewExecRunner(logger))
	},
}

func init() {
	rootCmd.AddCommand(confCmd)
	addTranscribeFlags(confCmd.Flags())
}

func addTranscribeFlags(flags *pflag.FlagSet) {
	flags.String("provider", "openai", "Transcription provider (openai, gemini)")
	flags.StringP("api-key", "k", "", "Provider API key (or set OPENAI_API_KEY / GEMINI_API_KEY env var)")
	flags.String("model", "", "Transcription model (provider default when empty)")
	flags.StringP("language", "l", "", "Spoken language code, empty to detect")
	flags.String("transcript-language", "native", "Caption language ('native' keeps the spoken one)")
	flags.Int("concurrency", 3, "Parallel transcription requests")
}

// whisper only translates into English
func isValidOpenAITranscriptLanguage(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	return lang == "" || lang == "native" || lang == "english" || lang == "en"
}

type transcribeSettings struct {
	provider    transcribe.Provider
	envVar      string
	options     transcribe.Options
	concurrency int
}

func transcribeOptions(flags *pflag.FlagSet, c *config.Config) (transcribeSettings, error) {
	tc := c.Transcribe
	overrideString(flags, "provider", &tc.Provider)
	overrideString(flags, "model", &tc.Model)
	overrideString(flags, "language", &tc.Language)
	overrideInt(flags, "concurrency", &tc.Concurrency)
	transcriptLang, _ := flags.GetString("transcript-language")

	s := transcribeSettings{
		provider:    transcribe.Provider(strings.ToLower(tc.Provider)),
		concurrency: tc.Concurrency,
		options: transcribe.Options{
			Language:           tc.Language,
			TranscriptLanguage: transcriptLang,
			Model:              tc.Model,
		},
	}

	switch s.provider {
	case transcribe.ProviderOpenAI:
		s.envVar = "OPENAI_API_KEY"
		if !isValidOpenAITranscriptLanguage(transcriptLang) {
			return s, fmt.Errorf("openai can only transcribe natively or into english, got %q", transcriptLang)
		}
	case transcribe.ProviderGemini:
		s.envVar = "GEMINI_API_KEY"
	default:
		return s, fmt.Errorf("unsupported provider %q: use openai or gemini", tc.Provider)
	}
	return s, nil
}

func generateConf(cmd *cobra.Command, runner media.Runner) error {
	ctx := cmd.Context()

	settings, err := transcribeOptions(cmd.Flags(), cfg)
	if err != nil {
		return err
	}
	flagKey, _ := cmd.Flags().GetString("api-key")
	key, err := apiKey(flagKey, settings.envVar, string(settings.provider))
	if err != nil {
		return err
	}

	transcriber, err := transcribe.Factory(ctx, settings.provider, key, settings.options)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	logger.Infow("Generating render.conf",
		"project", projectDir,
		"provider", settings.provider,
		"concurrency", settings.concurrency,
	)

	summary, err := conf.NewGenerator(runner, transcriber, logger).
		Generate(ctx, projectDir, settings.concurrency)
	if err != nil {
		return fmt.Errorf("conf generation failed: %w", err)
	}

	logger.Infow("render.conf updated",
		"path", summary.Path,
		"clips", summary.Clips,
		"failed", summary.Failed,
		"rows", summary.Entries,
	)
	return nil
}
