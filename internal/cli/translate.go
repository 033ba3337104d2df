package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vlogtools/vlog/internal/config"
	"github.com/vlogtools/vlog/internal/editlist"
	"github.com/vlogtools/vlog/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate the captions of render.conf",
	Long: `Translate rewrites the text column of render.conf into another
language with Anthropic Claude. Comments, timings and blank rows are kept.

The result is written to render.<language>.conf unless --output is given.

Examples:
  vlog translate -d trip/ -t spanish
  vlog translate -d trip/ -t de -s en -o render.conf`,
	Args: cobra.NoArgs,
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	addTranslateFlags(translateCmd.Flags())
}

func addTranslateFlags(flags *pflag.FlagSet) {
	flags.StringP("target-language", "t", "", "Target language (required)")
	flags.StringP("source-language", "s", "", "Source language, empty to detect")
	flags.StringP("api-key", "k", "", "Anthropic API key (or set ANTHROPIC_API_KEY env var)")
	flags.StringP("output", "o", "", "Output edit list (default render.<language>.conf)")
	flags.String("model", "", "Claude model (default claude-haiku-4-5)")
	flags.Int("batch-size", 50, "Captions per request")
	flags.Int("concurrency", 3, "Parallel translation requests")
}

func translateOptions(flags *pflag.FlagSet, c *config.Config) (translate.Options, error) {
	tc := c.Translate
	overrideString(flags, "model", &tc.Model)
	overrideInt(flags, "batch-size", &tc.BatchSize)
	overrideInt(flags, "concurrency", &tc.Concurrency)

	target, _ := flags.GetString("target-language")
	source, _ := flags.GetString("source-language")
	if strings.TrimSpace(target) == "" {
		return translate.Options{}, fmt.Errorf("--target-language is required")
	}

	return translate.Options{
		InputLanguage:  source,
		TargetLanguage: target,
		Model:          tc.Model,
		BatchSize:      tc.BatchSize,
		Concurrency:    tc.Concurrency,
	}, nil
}

func translatedPath(projectDir, target string) string {
	lang := strings.ToLower(strings.Join(strings.Fields(target), "_"))
	return filepath.Join(projectDir, "render."+lang+".conf")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts, err := translateOptions(cmd.Flags(), cfg)
	if err != nil {
		return err
	}
	flagKey, _ := cmd.Flags().GetString("api-key")
	key, err := apiKey(flagKey, "ANTHROPIC_API_KEY", "Anthropic")
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = translatedPath(projectDir, opts.TargetLanguage)
	} else if !filepath.IsAbs(output) && filepath.Dir(output) == "." {
		output = filepath.Join(projectDir, output)
	}

	translator, err := translate.NewAnthropicTranslator(key, opts)
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	input := editlist.Path(projectDir)
	logger.Infow("Translating captions",
		"input", input,
		"output", output,
		"target", opts.TargetLanguage,
		"batch_size", opts.BatchSize,
	)

	n, err := translate.File(ctx, translator, input, output)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	logger.Infow("Translation complete", "captions", n, "output", output)
	return nil
}
