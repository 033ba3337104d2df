package cli

import (
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/vlogtools/vlog/internal/config"
	"github.com/vlogtools/vlog/internal/splitter"
	"github.com/vlogtools/vlog/internal/timeline"
	"github.com/vlogtools/vlog/internal/transcribe"
)

func newFlags(t *testing.T, add func(*pflag.FlagSet), args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("workers", 0, "")
	add(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return fs
}

func TestIsValidOpenAITranscriptLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want bool
	}{
		{"", true},
		{"native", true},
		{" Native ", true},
		{"english", true},
		{"ENGLISH", true},
		{"en", true},

		{"spanish", false},
		{"french", false},
		{"es", false},
		{"ja", false},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			if got := isValidOpenAITranscriptLanguage(tt.lang); got != tt.want {
				t.Errorf("isValidOpenAITranscriptLanguage(%q) = %v, want %v", tt.lang, got, tt.want)
			}
		})
	}
}

func TestRenderOptionsUsesConfig(t *testing.T) {
	c := config.Default()
	c.Render.Speed = 1.4
	c.Workers = 3

	opts, err := renderOptions(newFlags(t, addRenderFlags), c)
	if err != nil {
		t.Fatalf("renderOptions() error = %v", err)
	}
	if opts.Speed != 1.4 {
		t.Errorf("Speed = %v, want config value 1.4", opts.Speed)
	}
	if opts.Workers != 3 {
		t.Errorf("Workers = %d, want 3", opts.Workers)
	}
	if opts.VideoFilters != "hqdn3d,hflip,vignette" || opts.FPS != 30 {
		t.Errorf("defaults not carried: %+v", opts)
	}
	if !opts.Preview || !opts.Play || opts.Line != 1 {
		t.Errorf("preview defaults = %+v", opts)
	}
}

func TestRenderOptionsFlagsOverride(t *testing.T) {
	c := config.Default()
	flags := newFlags(t, addRenderFlags,
		"-S", "2", "-f", "60", "-V", "hflip", "-P=false", "-c", "-L", "7", "--workers", "5")

	opts, err := renderOptions(flags, c)
	if err != nil {
		t.Fatalf("renderOptions() error = %v", err)
	}
	if opts.Speed != 2 || opts.FPS != 60 || opts.VideoFilters != "hflip" {
		t.Errorf("overrides not applied: %+v", opts)
	}
	if opts.Preview || opts.Play || !opts.Cleanup || opts.Line != 7 || opts.Workers != 5 {
		t.Errorf("overrides not applied: %+v", opts)
	}
}

func TestRenderOptionsRejectsBadSpeed(t *testing.T) {
	flags := newFlags(t, addRenderFlags, "-S", "0")
	if _, err := renderOptions(flags, config.Default()); err == nil {
		t.Error("renderOptions() error = nil, want error for zero speed")
	}
}

func TestPlayOptions(t *testing.T) {
	c := config.Default()

	opts, err := playOptions(newFlags(t, addPlayFlags, "-m", "both", "-w", "0.25"), c)
	if err != nil {
		t.Fatalf("playOptions() error = %v", err)
	}
	if opts.Mode != timeline.ModeBoth || opts.Window != 0.25 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Speed != c.Play.Speed || opts.PauseSpeedFactor != c.Play.PauseSpeedFactor {
		t.Errorf("config values not carried: %+v", opts)
	}
	if opts.MinShotSize != c.VAD.MinShotSize || opts.SpeechPad != c.VAD.SpeechPad {
		t.Errorf("vad values not carried: %+v", opts)
	}

	if _, err := playOptions(newFlags(t, addPlayFlags, "-m", "loud"), c); err == nil {
		t.Error("playOptions() error = nil, want unknown mode")
	}
	if _, err := playOptions(newFlags(t, addPlayFlags, "-a", "2"), c); err == nil {
		t.Error("playOptions() error = nil, want aggressiveness range error")
	}
}

func TestSplitOptions(t *testing.T) {
	c := config.Default()
	opts, syncCommand := splitOptions(newFlags(t, addSplitFlags, "-r", "0", "--sync-command", ""), c)

	if opts.Rotation != 0 {
		t.Errorf("Rotation = %d, want 0", opts.Rotation)
	}
	if syncCommand != "" {
		t.Errorf("sync command = %q, want empty", syncCommand)
	}
	if opts.MinPauseBetweenShots != c.Split.MinPauseBetweenShots {
		t.Errorf("MinPauseBetweenShots = %v", opts.MinPauseBetweenShots)
	}
	if _, ok := newSyncer(syncCommand).(splitter.CopySyncer); !ok {
		t.Error("empty sync command should copy the sound track")
	}
	if _, ok := newSyncer("sync.sh").(splitter.CommandSyncer); !ok {
		t.Error("sync command should run the command")
	}
}

func TestTranscribeOptions(t *testing.T) {
	c := config.Default()

	s, err := transcribeOptions(newFlags(t, addTranscribeFlags), c)
	if err != nil {
		t.Fatalf("transcribeOptions() error = %v", err)
	}
	if s.provider != transcribe.ProviderOpenAI || s.envVar != "OPENAI_API_KEY" {
		t.Errorf("settings = %+v", s)
	}

	s, err = transcribeOptions(newFlags(t, addTranscribeFlags, "--provider", "Gemini", "--transcript-language", "spanish"), c)
	if err != nil {
		t.Fatalf("transcribeOptions() error = %v", err)
	}
	if s.provider != transcribe.ProviderGemini || s.options.TranscriptLanguage != "spanish" {
		t.Errorf("settings = %+v", s)
	}

	if _, err := transcribeOptions(newFlags(t, addTranscribeFlags, "--transcript-language", "spanish"), c); err == nil {
		t.Error("openai into spanish should be rejected")
	}
	if _, err := transcribeOptions(newFlags(t, addTranscribeFlags, "--provider", "whisper.cpp"), c); err == nil {
		t.Error("unknown provider should be rejected")
	}
}

func TestTranslateOptions(t *testing.T) {
	c := config.Default()

	if _, err := translateOptions(newFlags(t, addTranslateFlags), c); err == nil {
		t.Error("missing target language should be rejected")
	}

	opts, err := translateOptions(newFlags(t, addTranslateFlags, "-t", "german", "--batch-size", "10"), c)
	if err != nil {
		t.Fatalf("translateOptions() error = %v", err)
	}
	if opts.TargetLanguage != "german" || opts.BatchSize != 10 || opts.Concurrency != c.Translate.Concurrency {
		t.Errorf("opts = %+v", opts)
	}
}

func TestTranslatedPath(t *testing.T) {
	got := translatedPath("trip", "Brazilian Portuguese")
	if want := filepath.Join("trip", "render.brazilian_portuguese.conf"); got != want {
		t.Errorf("translatedPath() = %q, want %q", got, want)
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("VLOG_TEST_KEY", "from-env")

	if got, _ := apiKey("from-flag", "VLOG_TEST_KEY", "test"); got != "from-flag" {
		t.Errorf("apiKey() = %q, want flag value", got)
	}
	if got, _ := apiKey("", "VLOG_TEST_KEY", "test"); got != "from-env" {
		t.Errorf("apiKey() = %q, want env value", got)
	}

	t.Setenv("VLOG_TEST_KEY", "")
	if _, err := apiKey("", "VLOG_TEST_KEY", "test"); err == nil {
		t.Error("apiKey() error = nil, want missing key error")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"render": false, "play": false, "split": false, "conf": false, "translate": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
