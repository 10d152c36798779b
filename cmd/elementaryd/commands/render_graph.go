package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/b00lduck/elementary/internal/transport"
	"github.com/b00lduck/elementary/pkg/signalgraph/node"
	"github.com/b00lduck/elementary/pkg/signalgraph/reconcile"
)

// renderGraphEnvelope is the on-disk shape accepted by render-graph: just
// the graph roots, reusing the wire directive's node schema so the same
// files a client submits over WebSocket can be fed to this command.
type renderGraphEnvelope struct {
	Graph []renderGraphNode `json:"graph"`
}

type renderGraphNode struct {
	Kind          string            `json:"kind"`
	Props         map[string]any    `json:"props,omitempty"`
	Children      []renderGraphNode `json:"children,omitempty"`
	OutputChannel uint32            `json:"output_channel,omitempty"`
}

// toNodeRepr builds the raw tree shape without computing hashes; the
// caller runs node.RecomputeHash once over the finished roots.
func (n renderGraphNode) toNodeRepr() node.NodeRepr {
	children := make([]node.NodeRepr, len(n.Children))
	for i, c := range n.Children {
		children[i] = c.toNodeRepr().WithOutputChannel(c.OutputChannel)
	}

	return node.NodeRepr{Kind: n.Kind, Props: n.Props, Children: children}
}

// NewRenderGraphCommand creates the `render-graph` command: it reconciles
// a directive file's graph against a fresh NodeMap and prints the emitted
// instruction batch as JSON, a bench/debugging tool for inspecting what a
// given graph would cause the runtime to do without a live connection.
func NewRenderGraphCommand() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:           "render-graph",
		Short:         "Reconcile a directive file against an empty graph and print the emitted instructions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRenderGraph(inputPath)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to a JSON directive file (validated against the same schema as the WebSocket endpoint)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runRenderGraph(inputPath string) error {
	raw, err := os.ReadFile(inputPath) //nolint:gosec // operator-supplied CLI path, not an HTTP-facing input
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if err := transport.ValidateDirectiveDocument(raw); err != nil {
		return fmt.Errorf("validate directive: %w", err)
	}

	var env renderGraphEnvelope

	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode directive: %w", err)
	}

	roots := make([]node.NodeRepr, len(env.Graph))
	for i, n := range env.Graph {
		roots[i] = node.RecomputeHash(n.toNodeRepr())
	}

	nodeMap := reconcile.NewNodeMap()
	batch := reconcile.Reconcile(nodeMap, roots)

	encoded, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("encode instructions: %w", err)
	}

	fmt.Println(string(encoded))

	return nil
}
