package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistryEmbedded(t *testing.T) {
	reg, err := LoadRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{"search_videos", "get_videos", "get_transcript"}, reg.Names())

	for _, name := range reg.Names() {
		c := reg.Contract(name)
		require.NotNil(t, c, name)
		assert.NotEmpty(t, c.Description, name)
		require.NotNil(t, c.InputSchema, name)
		assert.Equal(t, "object", c.InputSchema.Type, name)
		require.NotNil(t, c.OutputSchema, name)
	}

	defs := reg.Definitions()
	for _, want := range []string{"pageInfo", "searchItem", "videoSnippet", "videoResource", "transcriptCue"} {
		assert.Contains(t, defs, want)
	}
}

func TestEmbeddedContractsValidateOwnRefs(t *testing.T) {
	// Every $ref in the embedded output schemas must resolve, otherwise
	// output validation would reject every result at runtime.
	reg, err := LoadRegistry()
	require.NoError(t, err)

	var check func(node *SchemaNode)
	check = func(node *SchemaNode) {
		if node == nil {
			return
		}
		if node.Ref != "" {
			_, ok := resolveRef(node.Ref, reg.Definitions())
			assert.True(t, ok, "unresolved %s", node.Ref)
			return
		}
		for _, p := range node.Properties {
			check(p)
		}
		check(node.Items)
	}
	for _, c := range reg.Tools() {
		check(c.OutputSchema)
	}
	for _, d := range reg.Definitions() {
		check(d)
	}
}

func TestLoadRegistryBytesErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"malformed JSON", `{"tools": [`, "unexpected end"},
		{"no tools", `{"tools": [], "definitions": {}}`, "no tools declared"},
		{"empty name", `{"tools": [{"name": "", "inputSchema": {}, "outputSchema": {}}]}`, "empty name"},
		{
			"duplicate name",
			`{"tools": [
				{"name": "a", "inputSchema": {}, "outputSchema": {}},
				{"name": "a", "inputSchema": {}, "outputSchema": {}}
			]}`,
			`duplicate tool "a"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadRegistryBytes([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRegistryBytesMissingSchemasAreOptional(t *testing.T) {
	reg, err := loadRegistryBytes([]byte(`{"tools": [{"name": "raw", "description": "no schemas"}]}`))
	require.NoError(t, err)

	c := reg.Contract("raw")
	require.NotNil(t, c)
	assert.Nil(t, c.InputSchema)
	assert.Nil(t, c.OutputSchema)
}

func TestRegistryNamesIsACopy(t *testing.T) {
	reg, err := LoadRegistry()
	require.NoError(t, err)

	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, "search_videos", reg.Names()[0])
}
