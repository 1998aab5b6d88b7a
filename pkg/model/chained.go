package model

import "strings"

// ChainedObservation is the hand-off contract between the weather tool and
// the retrieval tool: a two-line observation of the literal form
//
//	PATH=<index path>
//	QUESTION=<original query>
//
// Any observation matching this shape should be followed by a retrieval_qa
// call carrying the same values. The markers are the wire contract; keep
// them stable.
type ChainedObservation struct {
	Path     string
	Question string
}

func (c ChainedObservation) String() string {
	return "PATH=" + c.Path + "\nQUESTION=" + c.Question
}

// ParseChained extracts a ChainedObservation from free text. The second
// return value is false unless both markers are present with values.
func ParseChained(text string) (ChainedObservation, bool) {
	var obs ChainedObservation
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "PATH="):
			obs.Path = strings.TrimSpace(line[len("PATH="):])
		case strings.HasPrefix(upper, "QUESTION="):
			obs.Question = strings.TrimSpace(line[len("QUESTION="):])
		}
	}
	return obs, obs.Path != "" && obs.Question != ""
}
