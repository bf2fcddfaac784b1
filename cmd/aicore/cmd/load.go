package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/fixture"
	"github.com/cwbudde/aicore/internal/typesys"
)

func loadMethod(path, methodName string) (*code.Method, typesys.Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	methods, hierarchy, err := fixture.Load(data)
	if err != nil {
		return nil, nil, err
	}
	m, ok := methods[methodName]
	if !ok {
		return nil, nil, fmt.Errorf("fixture %s has no method %q", path, methodName)
	}
	return m, hierarchy, nil
}
