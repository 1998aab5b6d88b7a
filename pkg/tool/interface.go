package tool

import (
	"context"

	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// Tool represents an external capability that can be called by the LLM
type Tool interface {
	// Spec returns the tool specification for Gemini function calling.
	// The declaration description is the contract the model relies on to
	// format calls: it must state which fields are required, which are
	// optional and that absent fields are simply omitted.
	Spec() *genai.Tool

	// Execute runs the tool with the given function call and returns the
	// observation. Incomplete input yields a "please provide X" observation;
	// errors are reserved for invalid or unreachable conditions.
	Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error)

	// Prompt returns additional policy to be added to the system prompt
	// Returns empty string if no additional prompt is needed
	Prompt(ctx context.Context) string

	// Flags returns CLI flags for this tool
	// Returns nil if no flags are needed
	Flags() []cli.Flag

	// Init prepares the tool with shared resources. Returning false
	// disables the tool for this run without failing startup.
	Init(ctx context.Context, client *Client) (bool, error)
}
