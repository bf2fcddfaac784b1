package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/aicore/internal/cfg"
	"github.com/cwbudde/aicore/internal/instr"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <fixture.yaml> <method>",
	Short: "Disassemble a fixture method's instructions, grouped by basic block",
	Args:  cobra.ExactArgs(2),
	RunE:  runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func runDisasm(_ *cobra.Command, args []string) error {
	method, hierarchy, err := loadMethod(args[0], args[1])
	if err != nil {
		exitWithError("%v", err)
	}

	g := cfg.Build(method, hierarchy)
	for _, n := range g.Nodes {
		if n.Kind != cfg.Block {
			continue
		}
		fmt.Printf("block %d [%d, %d):\n", n.ID, n.StartPC, n.EndPC)
		for _, pc := range n.PCs(g) {
			inst, ok := method.At(pc)
			if !ok {
				continue
			}
			fmt.Printf("  %4d: %s\n", pc, describeInstruction(inst))
		}
	}
	return nil
}

func describeInstruction(i instr.Instruction) string {
	switch v := i.(type) {
	case instr.LocalVar:
		return fmt.Sprintf("%s %d", v.Op, v.ResolvedIndex())
	case instr.IincInsn:
		return fmt.Sprintf("iinc %d, %d", v.Index, v.Const)
	case instr.RetInsn:
		return fmt.Sprintf("ret %d", v.Index)
	case instr.Push:
		switch v.Kind {
		case instr.ConstClass:
			return fmt.Sprintf("%s #%s", v.Op, v.ClassName)
		case instr.ConstString:
			return fmt.Sprintf("%s <string>", v.Op)
		default:
			return fmt.Sprintf("%s %d", v.Op, v.IntValue)
		}
	case instr.Conditional:
		return fmt.Sprintf("%s -> %d", v.Op, v.Target)
	case instr.GotoInsn:
		return fmt.Sprintf("%s -> %d", v.Op, v.Target)
	case instr.JsrInsn:
		return fmt.Sprintf("%s -> %d", v.Op, v.Target)
	case instr.Switch:
		return fmt.Sprintf("%s default=%d cases=%d", v.Op, v.Default, len(v.Cases))
	case instr.FieldRef:
		return fmt.Sprintf("%s %s.%s", v.Op, v.Owner, v.Name)
	case instr.MethodRef:
		return fmt.Sprintf("%s %s.%s", v.Op, v.Owner, v.Name)
	case instr.NewInsn:
		return fmt.Sprintf("new %s", v.Class)
	case instr.NewArray:
		return v.Op.String()
	case instr.TypeCheck:
		return fmt.Sprintf("%s %s", v.Op, v.Target)
	default:
		return i.OpCode().String()
	}
}
