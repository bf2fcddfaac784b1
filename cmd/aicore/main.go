// Command aicore is the debug/demo entry point for the abstract
// interpretation core: it loads a fixture YAML file and disassembles,
// graphs, or runs one of its methods.
package main

import (
	"os"

	"github.com/cwbudde/aicore/cmd/aicore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
