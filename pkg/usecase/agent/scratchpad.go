package agent

// Step is one think/act/observe cycle. Action is empty when the cycle
// recorded a model parsing failure instead of a tool call.
type Step struct {
	Thought     string         `json:"thought,omitempty"`
	Action      string         `json:"action,omitempty"`
	ActionInput map[string]any `json:"action_input,omitempty"`
	Observation string         `json:"observation"`
}

// Scratchpad is the running trace of one request. It lives only for the
// duration of the request and is returned to the caller for observability.
type Scratchpad struct {
	Steps []Step
}

func (s *Scratchpad) add(step Step) {
	s.Steps = append(s.Steps, step)
}
