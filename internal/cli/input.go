package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/pipeline"
)

// loadFlags are the graph-selection flags shared by every command that loads
// a graph.
type loadFlags struct {
	kind     string
	payload  string
	maxNodes int
	refresh  bool
	noCache  bool
	gapX     float64
	gapY     float64
	padding  float64
}

func (f *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "", "diagram kind: ast, cfg, dfg (default from config)")
	cmd.Flags().StringVar(&f.payload, "payload", "", "read a JSON graph payload instead of calling the analysis service")
	cmd.Flags().IntVar(&f.maxNodes, "max-nodes", 0, "node cap sent to the analysis service (default from config)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass the payload cache")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&f.gapX, "gap-x", 0, "horizontal gap between nodes")
	cmd.Flags().Float64Var(&f.gapY, "gap-y", 0, "vertical gap between levels")
	cmd.Flags().Float64Var(&f.padding, "padding", 0, "canvas padding")
}

// options builds load options. input is the source file, "-" for stdin, or
// empty when --payload is used.
func (f *loadFlags) options(c *CLI, input string, stdin io.Reader) (pipeline.Options, error) {
	opts := pipeline.Options{
		Kind:     f.kind,
		MaxNodes: f.maxNodes,
		Refresh:  f.refresh,
		GapX:     f.gapX,
		GapY:     f.gapY,
		Padding:  f.padding,
		Logger:   c.Logger,
	}
	if opts.Kind == "" {
		opts.Kind = c.Config.View.Kind
	}
	if opts.MaxNodes == 0 {
		opts.MaxNodes = c.Config.Source.MaxNodes
	}

	switch {
	case f.payload != "":
		data, err := os.ReadFile(f.payload)
		if err != nil {
			return opts, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "read payload %s", f.payload)
		}
		opts.Payload = data
	case input == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return opts, fmt.Errorf("read stdin: %w", err)
		}
		opts.Code = string(data)
	case input != "":
		data, err := os.ReadFile(input)
		if err != nil {
			return opts, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "read source %s", input)
		}
		opts.Code = string(data)
	default:
		return opts, ferrors.New(ferrors.ErrCodeInvalidInput, "a source file or --payload is required")
	}
	return opts, opts.ValidateForLoad()
}

// inputArgs accepts one source file, or none when --payload is set.
func inputArgs(f *loadFlags) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if f.payload != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// basePath derives the output base path from the output flag and the input
// file. Known format extensions are stripped from output.
func basePath(output, input, fallback string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if err := pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")); err == nil {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if input == "" || input == "-" {
		return fallback
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}
