package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/animation"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
)

// sequenceCommand prints the playback order of a graph.
func (c *CLI) sequenceCommand() *cobra.Command {
	var (
		lf     loadFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "sequence [source-file]",
		Short: "Print the animation sequence of a graph",
		Long: `Print the order in which playback visits the nodes of a graph.

For control-flow graphs every loop body is repeated so the animation shows the
loop running. When the back-edges cannot be unrolled the payload node order is
printed and a warning explains why. Structure and data-flow graphs play back
in payload node order.`,
		Args: inputArgs(&lf),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := lf.options(c, firstArg(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.runSequence(cmd.Context(), opts, lf.noCache, asJSON, cmd.OutOrStdout(), newStatus(cmd.ErrOrStderr()))
		},
	}

	lf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the sequence as JSON")

	return cmd
}

type sequenceDoc struct {
	Kind     graph.Diagram `json:"kind"`
	Steps    []int         `json:"steps"`
	Fallback bool          `json:"fallback,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func (c *CLI) runSequence(ctx context.Context, opts pipeline.Options, noCache, asJSON bool, w io.Writer, st status) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	tr := animation.TraceFor(res.Kind, res.Graph, res.Layout.Order())
	if asJSON {
		doc := sequenceDoc{Kind: res.Kind, Steps: tr.Steps, Fallback: tr.Fallback}
		if tr.Err != nil {
			doc.Error = tr.Err.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	if tr.Fallback {
		st.warn("Using raw node order: %v", tr.Err)
	}
	for i, id := range tr.Steps {
		label := ""
		if n, ok := res.Graph.Node(id); ok {
			label = n.Label
			if n.HasLine() {
				label += StyleDim.Render(fmt.Sprintf("  line %d", n.Line))
			}
		}
		fmt.Fprintf(w, "%s %s %s\n",
			StyleDim.Render(fmt.Sprintf("%4d", i+1)),
			StyleNumber.Render(fmt.Sprintf("#%-4d", id)),
			strings.TrimSpace(label))
	}
	return nil
}
