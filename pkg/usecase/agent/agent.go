package agent

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/adapter"
	"github.com/m-otsuka/wren/pkg/model"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/m-otsuka/wren/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/system.md
var systemPromptRaw string

var systemPromptTmpl = template.Must(template.New("system").Parse(systemPromptRaw))

const (
	// DefaultMaxIterations bounds the think/act/observe loop per request.
	DefaultMaxIterations = 8

	exhaustedReply = "I was unable to complete the request within the allowed number of steps."
)

// Agent runs the think/act/observe loop: the model either produces a final
// answer or selects a tool; tool observations are fed back until the model
// finishes or the iteration bound is reached.
type Agent struct {
	gemini        adapter.Gemini
	registry      *tool.Registry
	maxIterations int
}

type Option func(*Agent)

// WithMaxIterations overrides the loop bound.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

func New(gemini adapter.Gemini, registry *tool.Registry, opts ...Option) *Agent {
	a := &Agent{
		gemini:        gemini,
		registry:      registry,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input carries the client transcript. The final turn must be a user turn
// with content; it is the active query and is not replayed into memory.
type Input struct {
	Transcript model.Transcript
}

// Output is the terminal result of one loop run.
type Output struct {
	Reply string
	// Turn is the assistant turn the client appends to its transcript
	Turn model.Message
	// Scratchpad is the trace of this request, for logging and tests
	Scratchpad Scratchpad
}

// Run executes the loop for one request. Tool failures become observations
// the model can react to; only transcript validation and completion-service
// failures are returned as errors. Exhausting the iteration bound yields a
// best-effort reply, not an error.
func (a *Agent) Run(ctx context.Context, input Input) (*Output, error) {
	logger := logging.From(ctx)

	history, active, err := input.Transcript.Split()
	if err != nil {
		return nil, err
	}

	memory := model.RebuildMemory(ctx, history)

	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, map[string]any{
		"ToolPolicies": a.registry.Prompts(ctx),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute system prompt template")
	}

	temperature := float32(0.0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buf.String(), ""),
		Temperature:       &temperature,
		Tools:             a.registry.Specs(),
	}

	contents := append(memory.Contents(), genai.NewContentFromText(active, genai.RoleUser))

	var pad Scratchpad
	for i := 0; i < a.maxIterations; i++ {
		resp, err := a.gemini.GenerateContent(ctx, contents, config)
		if err != nil {
			return nil, goerr.Wrap(err, "agent completion failed")
		}

		content := candidateContent(resp)
		if content == nil {
			// Malformed model output: record it and re-enter the loop
			// instead of aborting the request.
			obs := "The previous response could not be parsed. Reply with either a final answer or a tool call."
			pad.add(Step{Observation: "parsing error: empty or malformed model response"})
			logger.Warn("malformed model response", "iteration", i)
			contents = append(contents, genai.NewContentFromText(obs, genai.RoleUser))
			continue
		}
		contents = append(contents, content)

		thought, calls := splitParts(content)
		if len(calls) == 0 {
			reply := strings.TrimSpace(thought)
			if reply == "" {
				pad.add(Step{Observation: "parsing error: response carried neither text nor a tool call"})
				contents = append(contents, genai.NewContentFromText(
					"The previous response was empty. Reply with either a final answer or a tool call.", genai.RoleUser))
				continue
			}

			return &Output{
				Reply:      reply,
				Turn:       model.Message{Role: model.RoleAssistant, Content: reply},
				Scratchpad: pad,
			}, nil
		}

		var responses []*genai.Part
		var chained bool
		for _, fc := range calls {
			obs, funcResp := a.act(ctx, *fc)
			pad.add(Step{
				Thought:     strings.TrimSpace(thought),
				Action:      fc.Name,
				ActionInput: fc.Args,
				Observation: obs,
			})
			responses = append(responses, &genai.Part{FunctionResponse: funcResp})

			if _, ok := model.ParseChained(obs); ok {
				chained = true
			}
		}

		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: responses,
		})

		// Fast-path nudge for the chained observation contract. The model
		// still makes the call; this just restates the policy in-band.
		if chained {
			contents = append(contents, genai.NewContentFromText(
				"The observation contains PATH= and QUESTION= lines. Unless the conversation history already answers the question, call retrieval_qa now with that exact text as its input field.",
				genai.RoleUser))
		}
	}

	logger.Warn("iteration bound exceeded", "max_iterations", a.maxIterations)
	reply := a.concludeBestEffort(ctx, contents)

	return &Output{
		Reply:      reply,
		Turn:       model.Message{Role: model.RoleAssistant, Content: reply},
		Scratchpad: pad,
	}, nil
}

// act dispatches one tool call. Unknown tools and tool failures become
// textual observations so the loop continues.
func (a *Agent) act(ctx context.Context, fc genai.FunctionCall) (string, *genai.FunctionResponse) {
	logger := logging.From(ctx)

	funcResp, err := a.registry.Execute(ctx, fc)
	if err != nil {
		logger.Warn("tool execution failed", "tool", fc.Name, "error", err)
		obs := "tool error: " + err.Error()
		return obs, &genai.FunctionResponse{
			Name:     fc.Name,
			Response: map[string]any{"error": err.Error()},
		}
	}

	obs := ""
	if s, ok := funcResp.Response["result"].(string); ok {
		obs = s
	}
	logger.Debug("tool executed", "tool", fc.Name, "observation", obs)
	return obs, funcResp
}

// concludeBestEffort asks for a final answer without tools after the loop
// bound is hit. A failure here degrades to a fixed reply; it never turns
// into a request error.
func (a *Agent) concludeBestEffort(ctx context.Context, contents []*genai.Content) string {
	temperature := float32(0.0)
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}

	contents = append(contents, genai.NewContentFromText(
		"You have used all available tool steps. Give your best final answer from what you have learned so far, or say that you could not complete the request.",
		genai.RoleUser))

	resp, err := a.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		logging.From(ctx).Warn("best-effort conclusion failed", "error", err)
		return exhaustedReply
	}

	content := candidateContent(resp)
	if content == nil {
		return exhaustedReply
	}
	text, _ := splitParts(content)
	if strings.TrimSpace(text) == "" {
		return exhaustedReply
	}
	return strings.TrimSpace(text)
}

func candidateContent(resp *genai.GenerateContentResponse) *genai.Content {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil
	}
	return resp.Candidates[0].Content
}

func splitParts(content *genai.Content) (string, []*genai.FunctionCall) {
	var texts []string
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return strings.Join(texts, "\n"), calls
}
