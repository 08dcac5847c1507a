// File: lixenwraith/cascade/cmd/cascade/main.go
// Command cascade inspects cascading configuration from the command line
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lixenwraith/cascade"
)

var rootCmd = &cobra.Command{
	Use:   "cascade",
	Short: "Inspect cascading configuration",
	Long: `Resolve, merge and print configuration assembled from overlay files.

Load paths come from --path, or from CONFIG_PATH when the flag is unset.
Every flag can also be set through a CASCADE_ prefixed environment variable,
e.g. CASCADE_OVERLAY=gb.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("path", "p", "", "Load paths, ';' or ':' delimited, earliest first")
	flags.String("overlay", "", "Overlay token (defaults to CONFIG_OVERLAY)")
	flags.String("tier", "", "Deployment tier (defaults to TIER or production)")
	flags.String("hostname", "", "Host name used in suffixes (defaults to CONFIG_HOSTNAME or the OS host name)")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")

	_ = viper.BindPFlags(flags)
	viper.SetEnvPrefix("CASCADE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(getCmd, filesCmd, dumpCmd, queryCmd, namesCmd, suffixesCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRegistry builds a Registry from the persistent flags
func newRegistry() (*cascade.Registry, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", viper.GetString("log-level"), err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	b := cascade.NewBuilder().WithLogger(logger)
	if path := viper.GetString("path"); path != "" {
		b.WithLoadPathString(path)
	} else {
		b.WithEnvLoadPaths()
	}
	if overlay := viper.GetString("overlay"); overlay != "" {
		b.WithOverlay(overlay)
	}
	if tier := viper.GetString("tier"); tier != "" {
		b.WithTier(tier)
	}
	if host := viper.GetString("hostname"); host != "" {
		b.WithHostname(host)
	}

	r, err := b.Build()
	if err != nil {
		return nil, err
	}
	if len(r.LoadPaths()) == 0 {
		return nil, cascade.ErrNoLoadPaths
	}
	return r, nil
}

// parseFormat maps a --format flag value to an output format
func parseFormat(s string) (cascade.Format, error) {
	format, ok := cascade.FormatForExtension(s)
	if !ok {
		return "", fmt.Errorf("%w '%s'", cascade.ErrUnknownFileType, s)
	}
	switch format {
	case cascade.FormatYAML, cascade.FormatJSON, cascade.FormatTOML:
		return format, nil
	default:
		return "", fmt.Errorf("output format '%s' is not supported", s)
	}
}
