package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation turn supplied by the client.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the ordered conversation as the client saw it. The server
// keeps no session state; every request carries the full transcript.
type Transcript []Message

// Split validates the transcript and separates the active query (the final
// user turn) from the history that precedes it.
func (t Transcript) Split() (history Transcript, active string, err error) {
	if len(t) == 0 {
		return nil, "", ErrEmptyTranscr
	}

	last := t[len(t)-1]
	if last.Role != RoleUser || strings.TrimSpace(last.Content) == "" {
		return nil, "", goerr.Wrap(ErrNoActiveQuery, "invalid active turn",
			goerr.V("role", last.Role))
	}

	return t[:len(t)-1], last.Content, nil
}
