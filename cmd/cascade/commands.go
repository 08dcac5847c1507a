// File: lixenwraith/cascade/cmd/cascade/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/cascade"
)

var getCmd = &cobra.Command{
	Use:   "get NAME [PATH]",
	Short: "Print a merged config or the value at a dot path",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGet,
}

var filesCmd = &cobra.Command{
	Use:   "files NAME",
	Short: "List the files contributing to a config, in merge order",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiles,
}

var dumpCmd = &cobra.Command{
	Use:   "dump NAME",
	Short: "Write a merged config to stdout or a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

var queryCmd = &cobra.Command{
	Use:   "query NAME FILTER",
	Short: "Run a jq filter over a merged config",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuery,
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List the config names available in the load paths",
	Args:  cobra.NoArgs,
	RunE:  runNames,
}

var suffixesCmd = &cobra.Command{
	Use:   "suffixes NAME",
	Short: "Show the file names searched for a config, lowest precedence first",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuffixes,
}

var watchCmd = &cobra.Command{
	Use:   "watch NAME...",
	Short: "Load configs and report when their files change",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	getCmd.Flags().StringP("format", "f", "yaml", "Output format (yaml, json, toml)")

	dumpCmd.Flags().StringP("format", "f", "yaml", "Output format (yaml, json, toml)")
	dumpCmd.Flags().StringP("output", "o", "", "Output file; the format follows its extension")

	queryCmd.Flags().BoolP("raw-output", "r", false, "Print strings without quotes")
	queryCmd.Flags().BoolP("compact-output", "c", false, "Print compact JSON")

	watchCmd.Flags().Duration("debounce", cascade.DefaultDebounce, "Coalesce file events within this period")
}

func runGet(cmd *cobra.Command, args []string) error {
	r, err := newRegistry()
	if err != nil {
		return err
	}
	format, err := parseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}

	root, err := r.Config(args[0])
	if err != nil {
		return err
	}

	value := root
	if len(args) == 2 {
		v, found := root.Lookup(args[1])
		if !found {
			return fmt.Errorf("path '%s' not found in config '%s'", args[1], args[0])
		}
		value = v
	}

	data, err := cascade.Marshal(value, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runFiles(cmd *cobra.Command, args []string) error {
	r, err := newRegistry()
	if err != nil {
		return err
	}

	name := args[0]
	if _, err := r.Config(name); err != nil {
		return err
	}

	files := r.LoadedFiles(name)
	if len(files) == 0 {
		cmd.Println(color.New(color.FgHiBlack).Sprintf("no files found for '%s'", name))
		return nil
	}

	rank := color.New(color.FgCyan)
	suffix := color.New(color.FgYellow)
	dim := color.New(color.FgHiBlack)
	slices.SortStableFunc(files, func(a, b cascade.CandidateFile) int {
		return a.Rank - b.Rank
	})
	for _, f := range files {
		cmd.Printf("%s %s %s\n",
			rank.Sprintf("[%2d]", f.Rank),
			f.Path,
			dim.Sprintf("(%s, %s)", suffix.Sprint(f.SuffixedName), f.ModTime.Format("2006-01-02 15:04:05")),
		)
	}
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	r, err := newRegistry()
	if err != nil {
		return err
	}

	if output := mustString(cmd, "output"); output != "" {
		if err := r.Save(args[0], output); err != nil {
			return err
		}
		cmd.Printf("Saved '%s' to %s\n", args[0], output)
		return nil
	}

	format, err := parseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	data, err := r.Dump(args[0], format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runQuery(cmd *cobra.Command, args []string) error {
	r, err := newRegistry()
	if err != nil {
		return err
	}
	rawOutput, _ := cmd.Flags().GetBool("raw-output")
	compact, _ := cmd.Flags().GetBool("compact-output")

	root, err := r.Config(args[0])
	if err != nil {
		return err
	}
	input, err := jqInput(root)
	if err != nil {
		return err
	}

	query, err := gojq.Parse(args[1])
	if err != nil {
		return fmt.Errorf("jq: filter parse error: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("jq: compile error: %w", err)
	}

	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("jq: execution error: %w", err)
		}

		if s, ok := v.(string); ok && rawOutput {
			fmt.Fprintln(cmd.OutOrStdout(), s)
			continue
		}

		var out []byte
		if compact {
			out, err = json.Marshal(v)
		} else {
			out, err = json.MarshalIndent(v, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("jq: marshal error: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	return nil
}

// jqInput converts a Value into the plain JSON types gojq accepts
func jqInput(v cascade.Value) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return input, nil
}

func runNames(cmd *cobra.Command, args []string) error {
	r, err := newRegistry()
	if err != nil {
		return err
	}
	names, err := r.Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runSuffixes(cmd *cobra.Command, args []string) error {
	r, err := newRegistry()
	if err != nil {
		return err
	}

	base, suffixes := r.SuffixesFor(args[0])
	exts := r.FileTypes()
	rank := color.New(color.FgCyan)
	for i, s := range suffixes {
		cmd.Printf("%s %s.{%s}\n", rank.Sprintf("[%2d]", i), s.Join(base), strings.Join(exts, ","))
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	r, err := newRegistry()
	if err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	for _, name := range args {
		if _, err := r.Config(name); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := r.Watch(ctx, cascade.WatchOptions{Debounce: debounce})
	if err != nil {
		return err
	}
	defer w.Stop()

	changes := w.Subscribe()
	cmd.Printf("Watching %v in %v. Press Ctrl+C to exit.\n", args, r.LoadPaths())

	changed := color.New(color.FgGreen, color.Bold)
	for {
		select {
		case <-ctx.Done():
			return nil
		case names, ok := <-changes:
			if !ok {
				return nil
			}
			for _, name := range names {
				cmd.Println(changed.Sprintf("changed: %s", name))
				for _, f := range r.LoadedFiles(name) {
					cmd.Printf("  %s\n", f.Path)
				}
			}
		}
	}
}

func mustString(cmd *cobra.Command, flag string) string {
	s, _ := cmd.Flags().GetString(flag)
	return s
}
