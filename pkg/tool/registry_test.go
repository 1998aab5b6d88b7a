package tool_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// stubTool is a configurable Tool implementation for registry tests.
type stubTool struct {
	name    string
	enabled bool
	prompt  string
	flags   []cli.Flag
	result  string

	executed int
}

func (x *stubTool) Flags() []cli.Flag { return x.flags }

func (x *stubTool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	return x.enabled, nil
}

func (x *stubTool) Prompt(ctx context.Context) string { return x.prompt }

func (x *stubTool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{Name: x.name, Description: "stub tool"},
		},
	}
}

func (x *stubTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	x.executed++
	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": x.result},
	}, nil
}

func TestRegistryInit(t *testing.T) {
	ctx := context.Background()

	active := &stubTool{name: "active_tool", enabled: true, prompt: "use active_tool wisely"}
	dormant := &stubTool{name: "dormant_tool", enabled: false, prompt: "never seen"}

	registry := tool.New(active, dormant)
	gt.NoError(t, registry.Init(ctx, &tool.Client{}))

	gt.V(t, len(registry.Specs())).Equal(1)
	gt.V(t, registry.EnabledTools()).Equal([]string{"active_tool"})
}

func TestRegistryExecute(t *testing.T) {
	ctx := context.Background()

	stub := &stubTool{name: "echo", enabled: true, result: "done"}
	registry := tool.New(stub)
	gt.NoError(t, registry.Init(ctx, &tool.Client{}))

	t.Run("dispatches by function name", func(t *testing.T) {
		resp, err := registry.Execute(ctx, genai.FunctionCall{Name: "echo"})
		gt.NoError(t, err)
		gt.V(t, resp.Response["result"]).Equal("done")
		gt.V(t, stub.executed).Equal(1)
	})

	t.Run("unknown tool is an error", func(t *testing.T) {
		_, err := registry.Execute(ctx, genai.FunctionCall{Name: "missing"})
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("unknown tool")
	})
}

func TestRegistryPrompts(t *testing.T) {
	ctx := context.Background()

	a := &stubTool{name: "a", enabled: true, prompt: "policy A"}
	b := &stubTool{name: "b", enabled: true, prompt: "policy B"}
	c := &stubTool{name: "c", enabled: false, prompt: "policy C"}

	registry := tool.New(a, b, c)
	gt.NoError(t, registry.Init(ctx, &tool.Client{}))

	prompts := registry.Prompts(ctx)
	gt.V(t, prompts).Equal("policy A\n\npolicy B")
}

func TestRegistryFlags(t *testing.T) {
	a := &stubTool{name: "a", flags: []cli.Flag{&cli.StringFlag{Name: "a-key"}}}
	b := &stubTool{name: "b"}

	registry := tool.New(a, b)
	flags := registry.Flags()
	gt.V(t, len(flags)).Equal(1)
}
