package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *cobra.Command {
	root := &cobra.Command{Use: "ragask", Short: "root"}
	root.PersistentFlags().String("api-url", "", "API base URL")
	AddHelpJSONFlag(root)

	ask := &cobra.Command{Use: "ask <question>", Short: "Ask a question", Args: cobra.ExactArgs(1), RunE: func(*cobra.Command, []string) error { return nil }}
	ask.Flags().StringP("output", "o", "text", "Output format")
	ask.Flags().String("request-id", "", "Request ID")
	_ = ask.MarkFlagRequired("request-id")

	hidden := &cobra.Command{Use: "secret", Hidden: true, Run: func(*cobra.Command, []string) {}}

	root.AddCommand(ask, hidden)
	return root
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(testTree())

	assert.Equal(t, "ragask", schema.Name)
	require.Len(t, schema.Subcommands, 1)

	ask := schema.Subcommands[0]
	assert.Equal(t, "ask", ask.Name)
	assert.Equal(t, 1, ask.Args)
	require.Len(t, ask.Flags, 3)
	assert.Equal(t, FlagSchema{Name: "output", Shorthand: "o", Type: "string", Default: "text", Description: "Output format"}, ask.Flags[0])
	assert.Equal(t, "request-id", ask.Flags[1].Name)
	assert.True(t, ask.Flags[1].Required)
	assert.Equal(t, "api-url", ask.Flags[2].Name)
	assert.True(t, ask.Flags[2].Inherited)

	for _, f := range schema.Flags {
		assert.NotEqual(t, helpJSONFlag, f.Name)
	}
}

func TestHandleHelpJSON_Subcommand(t *testing.T) {
	var buf bytes.Buffer

	handled, err := HandleHelpJSON(testTree(), []string{"ask", "--help-json"}, &buf)

	require.NoError(t, err)
	assert.True(t, handled)

	var schema CommandSchema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))
	assert.Equal(t, "ask", schema.Name)
}

func TestHandleHelpJSON_SkipsFlagsBeforeCommand(t *testing.T) {
	var buf bytes.Buffer

	handled, err := HandleHelpJSON(testTree(), []string{"--api-url=http://x", "ask", "--help-json"}, &buf)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Contains(t, buf.String(), `"name": "ask"`)
}

func TestHandleHelpJSON_NotRequested(t *testing.T) {
	var buf bytes.Buffer

	handled, err := HandleHelpJSON(testTree(), []string{"ask", "why?"}, &buf)

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, buf.String())
}
