package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cwbudde/aicore/internal/cfg"
	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/domain"
	"github.com/cwbudde/aicore/internal/domain/numeric"
	"github.com/cwbudde/aicore/internal/domain/refval"
	"github.com/cwbudde/aicore/internal/interp"
	"github.com/cwbudde/aicore/internal/resultio"
	"github.com/cwbudde/aicore/internal/typesys"
)

var (
	runDomainKind string
	runJSON       bool
	runQuery      string
)

var runCmd = &cobra.Command{
	Use:   "run <fixture.yaml> <method>",
	Short: "Run the abstract interpreter on a fixture method to a fixpoint",
	Args:  cobra.ExactArgs(2),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDomainKind, "domain", "refs", "seed local 0 as a reference (refs) or an abstract int (ints)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "render the result as JSON")
	runCmd.Flags().StringVar(&runQuery, "query", "", "gjson path to extract from the JSON result (implies --json)")
}

func runRun(_ *cobra.Command, args []string) error {
	method, hierarchy, err := loadMethod(args[0], args[1])
	if err != nil {
		exitWithError("%v", err)
	}

	opts := interp.DefaultOptions()
	if opts.SimplifyControlFlow {
		cfg.SimplifyBytecode(method)
	}
	g := cfg.Build(method, hierarchy)
	cfg.Simplify(g)

	d := domain.New(hierarchy)
	locals := seedLocals(method, d)

	in := interp.New(method, g, d, opts)
	result, err := in.Run(locals)
	if err != nil {
		exitWithError("%v", err)
	}

	if runQuery != "" {
		v, ok := resultio.Query(result, runQuery)
		if !ok {
			exitWithError("query %q matched nothing", runQuery)
		}
		fmt.Println(v)
		return nil
	}

	if runJSON {
		out, err := resultio.MarshalJSON(result)
		if err != nil {
			exitWithError("%v", err)
		}
		fmt.Println(string(out))
		return nil
	}

	printResult(result)
	return nil
}

func seedLocals(m *code.Method, d *domain.Domain) domain.Registers {
	regs := make(domain.Registers, m.MaxLocals)
	if m.MaxLocals == 0 {
		return regs
	}
	switch runDomainKind {
	case "ints":
		regs[0] = numeric.AnyInt
	default:
		regs[0] = d.Refs.NonNullObjectValue(-1, typesys.ObjectObject)
	}
	return regs
}

func printResult(r *interp.AIResult) {
	fmt.Printf("wasAborted: %v\n", r.WasAborted)
	pcs := make([]int, 0, len(r.OperandsAt))
	for pc := range r.OperandsAt {
		pcs = append(pcs, pc)
	}
	sort.Ints(pcs)
	for _, pc := range pcs {
		fmt.Printf("pc %d:\n", pc)
		fmt.Printf("  operands: %v\n", describeSlots(r.OperandsAt[pc]))
		fmt.Printf("  locals:   %v\n", describeSlots(r.LocalsAt[pc]))
	}
	if len(r.ReturnValues) > 0 {
		fmt.Println("returns:")
		for pc, v := range r.ReturnValues {
			fmt.Printf("  pc %d -> %v\n", pc, describeValue(v))
		}
	}
	if len(r.ThrownValues) > 0 {
		fmt.Println("thrown:")
		for pc, vs := range r.ThrownValues {
			for _, v := range vs {
				fmt.Printf("  pc %d -> %v\n", pc, describeValue(v))
			}
		}
	}
}

func describeSlots(vs []domain.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = describeValue(v)
	}
	return out
}

func describeValue(v domain.Value) string {
	if v == nil {
		return "<empty>"
	}
	if rv, ok := v.(refval.Value); ok {
		return fmt.Sprintf("%s(null=%s,utb=%s)", describeRefKind(rv), rv.IsNull(), rv.UTB())
	}
	return fmt.Sprintf("%v", v)
}

func describeRefKind(v refval.Value) string {
	switch v.(type) {
	case *refval.Null:
		return "Null"
	case *refval.Array:
		return "Array"
	case *refval.SObject:
		return "SObject"
	case *refval.MObject:
		return "MObject"
	case *refval.Multi:
		return "Multi"
	default:
		return "Value"
	}
}
