package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		lf     loadFlags
		output string
		full   bool
	)

	cmd := &cobra.Command{
		Use:   "layout [source-file]",
		Short: "Compute the layered layout of a program graph",
		Long: `Compute the layered layout of a program graph.

Writes a layout.json holding the canvas size, the number of levels and one
position per node. With --full the positioned graph is written as well, in
the same format as 'render -f json'.

Layouts are cached locally for faster subsequent runs.`,
		Args: inputArgs(&lf),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := lf.options(c, firstArg(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), opts, lf.noCache, output, firstArg(args), full, cmd.OutOrStdout(), newStatus(cmd.ErrOrStderr()))
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <source>.layout.json, - for stdout)")
	cmd.Flags().BoolVar(&full, "full", false, "include the positioned graph")

	return cmd
}

// runLayout loads the graph and writes its layout.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, noCache bool, output, input string, full bool, stdout io.Writer, st status) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx), "layout")
	spinner := newSpinner(ctx, st.w, fmt.Sprintf("Computing %s layout...", opts.Kind))
	spinner.Start()
	res, err := runner.Load(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done("laid out graph", "kind", res.Kind, "nodes", res.Stats.NodeCount, "levels", res.Layout.Levels, "cached", res.CacheInfo.LayoutHit)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var data []byte
	if full {
		data, err = json.MarshalIndent(pipeline.Document{Kind: res.Kind, Hash: res.GraphHash, Graph: res.Graph, Layout: res.Layout}, "", "  ")
	} else {
		data, err = graph.MarshalLayout(res.Layout)
	}
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	if output == "-" {
		_, err := stdout.Write(append(data, '\n'))
		return err
	}
	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input, string(res.Kind)) + ".layout.json"
	}
	if err := writeFile(outputPath, data); err != nil {
		return err
	}

	st.success("Laid out %s", res.Kind.Title())
	st.file(outputPath)
	st.graph(res, res.CacheInfo.LayoutHit)
	st.field("Canvas", fmt.Sprintf("%.0f x %.0f", res.Layout.Width, res.Layout.Height))
	st.next("Render it", appName+" render "+input)
	return nil
}
