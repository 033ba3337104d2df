package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/vlogtools/vlog/internal/config"
)

// workers returns the --workers flag when set, the config value otherwise.
func workers(flags *pflag.FlagSet, c *config.Config) int {
	if flags.Changed("workers") {
		if n, _ := flags.GetInt("workers"); n > 0 {
			return n
		}
	}
	return c.Workers
}

func overrideFloat(flags *pflag.FlagSet, name string, dst *float64) {
	if flags.Changed(name) {
		*dst, _ = flags.GetFloat64(name)
	}
}

func overrideInt(flags *pflag.FlagSet, name string, dst *int) {
	if flags.Changed(name) {
		*dst, _ = flags.GetInt(name)
	}
}

func overrideString(flags *pflag.FlagSet, name string, dst *string) {
	if flags.Changed(name) {
		*dst, _ = flags.GetString(name)
	}
}

func overrideBool(flags *pflag.FlagSet, name string, dst *bool) {
	if flags.Changed(name) {
		*dst, _ = flags.GetBool(name)
	}
}

// apiKey prefers the flag value and falls back to the environment.
func apiKey(flagValue, envVar, provider string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s API key is required: use --api-key flag or set %s environment variable", provider, envVar)
}
