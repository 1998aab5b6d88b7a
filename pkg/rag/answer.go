package rag

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/adapter"
	"github.com/m-otsuka/wren/pkg/index"
	"github.com/m-otsuka/wren/pkg/model"
	"google.golang.org/genai"
)

//go:embed prompt/answer.md
var answerPromptRaw string

var answerPromptTmpl = template.Must(template.New("answer").Parse(answerPromptRaw))

// DontKnow is the contractual "no answer in context" reply. Callers compare
// against it to detect and display the unknown case.
const DontKnow = "I don't know."

// Answerer retrieves relevant chunks from a persisted index and synthesizes
// a grounded answer from them.
type Answerer struct {
	gemini adapter.Gemini
	idx    *index.Index
	topK   int
}

type Option func(*Answerer)

// WithTopK overrides the number of retrieved chunks.
func WithTopK(k int) Option {
	return func(a *Answerer) {
		a.topK = k
	}
}

func New(gemini adapter.Gemini, idx *index.Index, opts ...Option) *Answerer {
	a := &Answerer{
		gemini: gemini,
		idx:    idx,
		topK:   index.DefaultTopK,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer retrieves the top-k chunks for the question and asks the model to
// answer only from them. Fact questions outside the retrieved context must
// yield the DontKnow reply; greetings may be answered without context.
func (a *Answerer) Answer(ctx context.Context, indexPath, question string) (string, error) {
	if strings.TrimSpace(indexPath) == "" {
		return "", goerr.Wrap(model.ErrIndexNotFound, "index path is empty")
	}
	if strings.TrimSpace(question) == "" {
		return "", goerr.Wrap(model.ErrEmptyQuestion, "cannot answer")
	}

	chunks, err := a.idx.Query(ctx, indexPath, question, a.topK)
	if err != nil {
		return "", err
	}

	contextTexts := make([]string, len(chunks))
	for i, c := range chunks {
		contextTexts[i] = c.Text
	}

	var buf bytes.Buffer
	if err := answerPromptTmpl.Execute(&buf, map[string]any{
		"Context":  strings.Join(contextTexts, "\n\n"),
		"Question": question,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute answer prompt template")
	}

	temperature := float32(0.1)
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	resp, err := a.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate grounded answer")
	}

	return strings.TrimSpace(responseText(resp)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}
