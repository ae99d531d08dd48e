package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/render/styles"
)

// flagValues lists the fixed choices of the enumerated flags. Completion is
// registered on every subcommand that defines one of them.
var flagValues = map[string][]string{
	"kind":   {string(graph.DiagramAST), string(graph.DiagramCFG), string(graph.DiagramDFG)},
	"theme":  styles.Themes,
	"format": {pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatDOT, pipeline.FormatJSON, pipeline.FormatText},
	"engine": {pipeline.EngineNative, pipeline.EngineGraphviz},
}

// registerFlagCompletions walks the tree under root and attaches value
// completion to the enumerated flags.
func registerFlagCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		for name, values := range flagValues {
			if cmd.Flags().Lookup(name) == nil {
				continue
			}
			_ = cmd.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
		}
		registerFlagCompletions(cmd)
	}
}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for flowlens. Besides subcommands it completes
--kind, --theme, --format and --engine values.

  $ source <(flowlens completion bash)
  $ flowlens completion zsh > "${fpath[1]}/_flowlens"
  $ flowlens completion fish > ~/.config/fish/completions/flowlens.fish
  PS> flowlens completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
}
