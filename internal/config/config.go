// Package config holds every recognised option of the vlog commands with
// its default. Values come from an optional vlog.yaml, VLOG_* environment
// variables and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	fileName  = "vlog"
	envPrefix = "VLOG"
)

type Config struct {
	// Workers bounds every worker pool (segment renders, duration probes, clips).
	Workers int `mapstructure:"workers" validate:"min=1"`

	Render     RenderConfig     `mapstructure:"render"`
	Play       PlayConfig       `mapstructure:"play"`
	Split      SplitConfig      `mapstructure:"split"`
	VAD        VADConfig        `mapstructure:"vad"`
	Transcribe TranscribeConfig `mapstructure:"transcribe"`
	Translate  TranslateConfig  `mapstructure:"translate"`
}

type RenderConfig struct {
	Speed                float64 `mapstructure:"speed" validate:"gt=0"`
	FPS                  int     `mapstructure:"fps" validate:"min=1"`
	VideoFilters         string  `mapstructure:"video_filters"`
	MinPauseBetweenShots float64 `mapstructure:"min_pause_between_shots" validate:"gte=0"`
	Preview              bool    `mapstructure:"preview"`
	PreviewWidth         int     `mapstructure:"preview_width" validate:"min=16"`
	Cleanup              bool    `mapstructure:"cleanup"`
	Subtitles            bool    `mapstructure:"subtitles"`
}

type PlayConfig struct {
	Speed                float64 `mapstructure:"speed" validate:"gt=0"`
	Mode                 string  `mapstructure:"mode" validate:"oneof=voice silence both"`
	MinPauseBetweenShots float64 `mapstructure:"min_pause_between_shots" validate:"gte=0"`
	Window               float64 `mapstructure:"window" validate:"gte=0"`
	Aggressiveness       float64 `mapstructure:"aggressiveness" validate:"gte=0,lte=1"`
	// PauseSpeedFactor multiplies Speed for pauses in both mode.
	PauseSpeedFactor float64 `mapstructure:"pause_speed_factor" validate:"gt=0"`
}

type SplitConfig struct {
	MinPauseBetweenShots float64 `mapstructure:"min_pause_between_shots" validate:"gte=0"`
	Aggressiveness       float64 `mapstructure:"aggressiveness" validate:"gte=0,lte=1"`
	Rotation             int     `mapstructure:"rotation" validate:"oneof=0 90 180 270"`
	SyncCommand          string  `mapstructure:"sync_command"`
}

type VADConfig struct {
	Script          string  `mapstructure:"script" validate:"required"`
	MinShotSize     float64 `mapstructure:"min_shot_size" validate:"gt=0"`
	SpeechPad       float64 `mapstructure:"speech_pad" validate:"gte=0"`
	StartCorrection float64 `mapstructure:"start_correction" validate:"gte=0"`
	EndCorrection   float64 `mapstructure:"end_correction" validate:"gte=0"`
}

type TranscribeConfig struct {
	Provider    string `mapstructure:"provider" validate:"oneof=openai gemini"`
	Model       string `mapstructure:"model"`
	Language    string `mapstructure:"language"`
	Concurrency int    `mapstructure:"concurrency" validate:"min=1"`
}

type TranslateConfig struct {
	Model       string `mapstructure:"model"`
	BatchSize   int    `mapstructure:"batch_size" validate:"min=1"`
	Concurrency int    `mapstructure:"concurrency" validate:"min=1"`
}

// LoadOptions locate the config file. An explicit File must exist; otherwise
// vlog.yaml is searched in Dirs and its absence is not an error.
type LoadOptions struct {
	File    string
	Dirs    []string
	EnvFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", runtime.NumCPU())

	v.SetDefault("render.speed", 1.2)
	v.SetDefault("render.fps", 30)
	v.SetDefault("render.video_filters", "hqdn3d,hflip,vignette")
	v.SetDefault("render.min_pause_between_shots", 0.1)
	v.SetDefault("render.preview", true)
	v.SetDefault("render.preview_width", 320)
	v.SetDefault("render.cleanup", false)
	v.SetDefault("render.subtitles", true)

	v.SetDefault("play.speed", 1.5)
	v.SetDefault("play.mode", "silence")
	v.SetDefault("play.min_pause_between_shots", 0.5)
	v.SetDefault("play.window", 0.0)
	v.SetDefault("play.aggressiveness", 0.5)
	v.SetDefault("play.pause_speed_factor", 4.0)

	v.SetDefault("split.min_pause_between_shots", 2.0)
	v.SetDefault("split.aggressiveness", 0.4)
	v.SetDefault("split.rotation", 90)
	v.SetDefault("split.sync_command", "sync-audio-tracks.sh")

	v.SetDefault("vad.script", "detect_voice.py")
	v.SetDefault("vad.min_shot_size", 1.0)
	v.SetDefault("vad.speech_pad", 0.1)
	v.SetDefault("vad.start_correction", 0.1)
	v.SetDefault("vad.end_correction", 0.1)

	v.SetDefault("transcribe.provider", "openai")
	v.SetDefault("transcribe.model", "")
	v.SetDefault("transcribe.language", "")
	v.SetDefault("transcribe.concurrency", 3)

	v.SetDefault("translate.model", "")
	v.SetDefault("translate.batch_size", 50)
	v.SetDefault("translate.concurrency", 3)
}

// Load resolves the configuration. Keys that do not map to a Config field
// are rejected.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load() // best-effort: .env in the working directory
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		for _, dir := range opts.Dirs {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without consulting files or
// the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s must satisfy %s=%s, got %v",
				fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
