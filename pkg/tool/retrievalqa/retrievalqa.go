package retrievalqa

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/model"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// DontKnow is returned when the answerer produced no answer text.
const DontKnow = "I don't know based on the provided documents."

// qaInput accepts either structured path/question fields or the raw
// two-line PATH=/QUESTION= observation handed over by the weather tool.
type qaInput struct {
	Path     *string `json:"path"`
	Question *string `json:"question"`
	Input    string  `json:"input"`
}

type qa struct {
	defaultIndex string
	client       *tool.Client
}

// New creates the retrieval QA tool
func New() *qa {
	return &qa{}
}

func (x *qa) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "default-index",
			Sources:     cli.EnvVars("WREN_DEFAULT_INDEX"),
			Usage:       "Index path used when retrieval_qa is called without one",
			Destination: &x.defaultIndex,
		},
	}
}

func (x *qa) Init(ctx context.Context, client *tool.Client) (bool, error) {
	x.client = client
	return true, nil
}

func (x *qa) Prompt(ctx context.Context) string {
	return `Use retrieval_qa for informational questions that must be answered from indexed documents. If it answers "I don't know", report that to the user instead of inventing an answer.`
}

func (x *qa) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name: "retrieval_qa",
				Description: "Answer a question strictly from an indexed document collection. " +
					"Provide 'path' (the index path) and 'question'; both are optional in the schema but the tool will ask for whichever is missing, so omit a field rather than inventing a value. " +
					"Alternatively pass a tool observation containing PATH= and QUESTION= lines verbatim in 'input'.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"path": {
							Type:        genai.TypeString,
							Description: "Vector index path returned by ingestion or another tool. Omit if not known.",
						},
						"question": {
							Type:        genai.TypeString,
							Description: "The question to answer from the indexed documents. Omit if not known.",
						},
						"input": {
							Type:        genai.TypeString,
							Description: "A raw observation containing PATH= and QUESTION= lines, passed through unchanged.",
						},
					},
				},
			},
		},
	}
}

func (x *qa) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input qaInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters",
			goerr.T(model.TagValidation))
	}

	var indexPath, question string
	if obs, ok := model.ParseChained(input.Input); ok {
		indexPath = obs.Path
		question = obs.Question
	}
	if input.Path != nil && strings.TrimSpace(*input.Path) != "" {
		indexPath = strings.TrimSpace(*input.Path)
	}
	if input.Question != nil && strings.TrimSpace(*input.Question) != "" {
		question = strings.TrimSpace(*input.Question)
	}

	if indexPath == "" {
		indexPath = x.defaultIndex
	}

	// Path is checked before question so the model asks for one thing at
	// a time in a stable order.
	if indexPath == "" {
		return result(fc, "The index path is missing. Please ask the user which document index to search."), nil
	}
	if question == "" {
		return result(fc, "The question is missing. Please ask the user what they want to know."), nil
	}

	answer, err := x.client.Answerer.Answer(ctx, indexPath, question)
	if err != nil {
		return nil, goerr.Wrap(err, "retrieval QA failed")
	}

	if answer == "" {
		answer = DontKnow
	}
	return result(fc, answer), nil
}

func result(fc genai.FunctionCall, text string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": text},
	}
}
