package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// RunToolContractTests runs the standard contract tests that ALL tools
// must pass. Call this in each tool's test file.
func RunToolContractTests(t *testing.T, tool Tool) {
	t.Helper()

	t.Run("Contract/Name_NonEmpty", func(t *testing.T) {
		assert.NotEmpty(t, tool.Name(), "Tool.Name() must return non-empty string")
	})

	t.Run("Contract/Description_NonEmpty", func(t *testing.T) {
		assert.NotEmpty(t, tool.Description(), "Tool.Description() must return non-empty string")
	})

	t.Run("Contract/Parameters_TypedSpecs", func(t *testing.T) {
		for name, spec := range tool.Parameters() {
			assert.NotEmpty(t, spec.Type, "parameter %q must declare a type", name)
		}
	})

	t.Run("Contract/Describe_Format", func(t *testing.T) {
		desc := Describe(tool)
		assert.Equal(t, tool.Name(), desc.Name)
		assert.Equal(t, tool.Description(), desc.Description)
		assert.NotNil(t, desc.Parameters)
	})
}
