package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/pipeline"
)

// renderFlags holds the render-only flags.
type renderFlags struct {
	output      string
	formats     string
	engine      string
	theme       string
	active      int
	detailed    bool
	interactive bool
	scale       float64
}

// renderCommand creates the render command: load a graph and write static
// artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		lf loadFlags
		rf renderFlags
	)

	cmd := &cobra.Command{
		Use:   "render [source-file]",
		Short: "Render a program graph to SVG, PNG, DOT, JSON or text",
		Long: `Render a program graph to static files.

The source file is sent to the analysis service for the chosen diagram kind;
use --payload to render a graph JSON file instead. Pass "-" to read the
source from stdin.

With a single format the output goes to --output (or <source>.<format>).
With several formats --output is a base path and each format gets its own
extension. Use -o - to write a single artifact to stdout.`,
		Example: `  flowlens render main.py
  flowlens render main.py -k dfg -f svg,png --theme dark
  flowlens render --payload graph.json -f dot --engine graphviz
  cat main.py | flowlens render - -f txt -o -`,
		Args: inputArgs(&lf),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := lf.options(c, firstArg(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			rf.apply(&opts, cmd.Flags().Changed("active"), c.Config.View.Theme)
			if err := opts.ValidateForRender(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, lf.noCache, rf.output, firstArg(args), cmd.OutOrStdout(), newStatus(cmd.ErrOrStderr()))
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVarP(&rf.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&rf.formats, "format", "f", "", "output format(s): svg (default), png, dot, json, txt (comma-separated)")
	cmd.Flags().StringVar(&rf.engine, "engine", pipeline.DefaultEngine, "render engine: native, graphviz")
	cmd.Flags().StringVar(&rf.theme, "theme", "", "color theme: light, dark (default from config)")
	cmd.Flags().IntVar(&rf.active, "active", 0, "highlight node id")
	cmd.Flags().BoolVar(&rf.detailed, "detailed", false, "include kind and line in graphviz labels")
	cmd.Flags().BoolVar(&rf.interactive, "interactive", false, "embed hover highlighting in SVG output")
	cmd.Flags().Float64Var(&rf.scale, "scale", pipeline.DefaultScale, "PNG pixel scale")

	return cmd
}

func (rf *renderFlags) apply(opts *pipeline.Options, hasActive bool, defaultTheme string) {
	opts.Formats = parseFormats(rf.formats)
	opts.Engine = rf.engine
	opts.Theme = rf.theme
	if opts.Theme == "" {
		opts.Theme = defaultTheme
	}
	if hasActive {
		id := rf.active
		opts.Active = &id
	}
	opts.Detailed = rf.detailed
	opts.Interactive = rf.interactive
	opts.Scale = rf.scale
}

// runRender loads, renders and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, noCache bool, output, input string, stdout io.Writer, st status) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx), "render")
	spinner := newSpinner(ctx, st.w, fmt.Sprintf("Loading %s...", opts.Kind))
	spinner.Start()
	res, err := runner.Load(ctx, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return err
	}
	spinner.Stop()

	artifacts, cacheHit, err := runner.Render(ctx, res, opts)
	if err != nil {
		return err
	}
	prog.done("rendered graph", "kind", res.Kind, "formats", strings.Join(opts.Formats, ","), "cached", cacheHit)

	if output == "-" {
		if len(opts.Formats) != 1 {
			return fmt.Errorf("-o - needs exactly one format, got %d", len(opts.Formats))
		}
		_, err := stdout.Write(artifacts[opts.Formats[0]])
		return err
	}

	paths, err := writeArtifacts(artifacts, opts.Formats, basePath(output, input, string(res.Kind)), output)
	if err != nil {
		return err
	}

	st.success("Rendered %s", res.Kind.Title())
	for _, p := range paths {
		st.file(p)
	}
	st.graph(res, res.CacheInfo.PayloadHit && cacheHit)
	return nil
}

// writeArtifacts writes one file per format and returns the paths written.
// A single format honors output verbatim.
func writeArtifacts(artifacts map[string][]byte, formats []string, base, output string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := writeFile(path, artifacts[format]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
