package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/aicore/internal/cfg"
)

var cfgSimplify bool

var cfgCmd = &cobra.Command{
	Use:   "cfg <fixture.yaml> <method>",
	Short: "Print a fixture method's control flow graph in dot-like text form",
	Args:  cobra.ExactArgs(2),
	RunE:  runCFG,
}

func init() {
	rootCmd.AddCommand(cfgCmd)
	cfgCmd.Flags().BoolVar(&cfgSimplify, "simplify", false, "apply the peephole simplifier before printing")
}

func runCFG(_ *cobra.Command, args []string) error {
	method, hierarchy, err := loadMethod(args[0], args[1])
	if err != nil {
		exitWithError("%v", err)
	}

	if cfgSimplify {
		cfg.SimplifyBytecode(method)
	}
	g := cfg.Build(method, hierarchy)
	if cfgSimplify {
		cfg.Simplify(g)
	}

	fmt.Printf("digraph %s_%s {\n", method.Owner, method.Name)
	for _, n := range g.Nodes {
		fmt.Printf("  n%d [label=%q];\n", n.ID, nodeLabel(n))
	}
	for _, n := range g.Nodes {
		for _, succ := range g.Successors(n.ID) {
			fmt.Printf("  n%d -> n%d;\n", n.ID, succ)
		}
	}
	fmt.Println("}")
	return nil
}

func nodeLabel(n *cfg.Node) string {
	switch n.Kind {
	case cfg.Block:
		return fmt.Sprintf("block [%d,%d)", n.StartPC, n.EndPC)
	case cfg.Catch:
		return fmt.Sprintf("catch @%d", n.StartPC)
	case cfg.NormalReturn:
		return "normal-return"
	case cfg.AbnormalReturn:
		return "abnormal-return"
	default:
		return n.Kind.String()
	}
}
