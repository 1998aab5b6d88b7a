package model

import (
	"context"

	"github.com/m-otsuka/wren/pkg/utils/logging"
	"google.golang.org/genai"
)

// Exchange is one completed user/assistant round trip.
type Exchange struct {
	UserInput       string
	AssistantOutput string
}

// Memory is the working conversational memory for a single request. It is
// rebuilt from the client transcript on every call and discarded afterwards.
type Memory struct {
	Exchanges []Exchange
}

// RebuildMemory replays a transcript (excluding the active query) into a
// Memory by pairing consecutive user→assistant turns.
//
// System turns are skipped. A user turn overwrites any pending unpaired user
// turn (last one wins); assistant turns without a pending user turn are
// dropped. This is deliberate best-effort reconstruction: malformed or
// interleaved transcripts degrade gracefully instead of failing, at the cost
// of silently losing turns that cannot be paired.
func RebuildMemory(ctx context.Context, history Transcript) *Memory {
	logger := logging.From(ctx)
	mem := &Memory{}

	var pending string
	var hasPending bool

	for _, msg := range history {
		switch msg.Role {
		case RoleUser:
			if hasPending {
				logger.Debug("dropping unpaired user turn", "content", pending)
			}
			pending = msg.Content
			hasPending = true

		case RoleAssistant:
			if !hasPending {
				logger.Debug("dropping unmatched assistant turn", "content", msg.Content)
				continue
			}
			mem.Exchanges = append(mem.Exchanges, Exchange{
				UserInput:       pending,
				AssistantOutput: msg.Content,
			})
			hasPending = false

		default:
			// system turns are not replayed
		}
	}

	if hasPending {
		logger.Debug("dropping dangling user turn", "content", pending)
	}

	return mem
}

// Contents renders the memory as Gemini chat history.
func (m *Memory) Contents() []*genai.Content {
	contents := make([]*genai.Content, 0, len(m.Exchanges)*2)
	for _, ex := range m.Exchanges {
		contents = append(contents,
			genai.NewContentFromText(ex.UserInput, genai.RoleUser),
			genai.NewContentFromText(ex.AssistantOutput, genai.RoleModel),
		)
	}
	return contents
}
