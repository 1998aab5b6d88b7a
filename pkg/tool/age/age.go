package age

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/model"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// ageInput uses pointer fields so an omitted date component is a real
// absence, not a magic placeholder value.
type ageInput struct {
	Day   *int `json:"day"`
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

type calculator struct {
	now func() time.Time
}

type Option func(*calculator)

// WithClock fixes "today" for deterministic age computation in tests.
func WithClock(now func() time.Time) Option {
	return func(c *calculator) {
		c.now = now
	}
}

// New creates the age calculator tool
func New(opts ...Option) *calculator {
	c := &calculator{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (x *calculator) Flags() []cli.Flag {
	return nil
}

func (x *calculator) Init(ctx context.Context, client *tool.Client) (bool, error) {
	return true, nil
}

func (x *calculator) Prompt(ctx context.Context) string {
	return `Only call calculate_age when the user asks for an age and has provided at least part of a date of birth. If the tool reports that a component is missing, ask the user for exactly that component and make the request your final answer; do not try other tools.`
}

func (x *calculator) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name: "calculate_age",
				Description: "Calculate a person's age from their date of birth. " +
					"All three fields (day, month, year) are optional: pass the components the user provided and simply omit any the user did not provide. " +
					"Never guess or fabricate a missing component.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"day": {
							Type:        genai.TypeInteger,
							Description: "Day of birth (1-31). Omit if the user did not provide it.",
						},
						"month": {
							Type:        genai.TypeInteger,
							Description: "Month of birth (1-12). Omit if the user did not provide it.",
						},
						"year": {
							Type:        genai.TypeInteger,
							Description: "Four-digit year of birth. Omit if the user did not provide it.",
						},
					},
				},
			},
		},
	}
}

func (x *calculator) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input ageInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters",
			goerr.T(model.TagValidation))
	}

	// Missing components are reported in a fixed order: day, month, year.
	switch {
	case input.Day == nil:
		return result(fc, "The day of birth is missing. Please ask the user for the day of birth."), nil
	case input.Month == nil:
		return result(fc, "The month of birth is missing. Please ask the user for the month of birth."), nil
	case input.Year == nil:
		return result(fc, "The year of birth is missing. Please ask the user for the year of birth."), nil
	}

	born, err := parseDate(*input.Year, *input.Month, *input.Day)
	if err != nil {
		return nil, err
	}

	today := x.now()
	if born.After(today) {
		return nil, goerr.New("date of birth is in the future",
			goerr.T(model.TagValidation),
			goerr.V("dob", born.Format("2006-01-02")))
	}

	years := age(born, today)
	months := (today.Year()-born.Year())*12 + int(today.Month()) - int(born.Month())
	if today.Day() < born.Day() {
		months--
	}
	days := int(today.Sub(born).Hours() / 24)

	text := fmt.Sprintf("You are %d years old. (~%d months, %d days)", years, months, days)
	return result(fc, text), nil
}

// parseDate rejects impossible calendar dates such as February 30, which
// time.Date would silently normalize.
func parseDate(year, month, day int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, goerr.New("invalid date of birth",
			goerr.T(model.TagValidation),
			goerr.V("year", year), goerr.V("month", month), goerr.V("day", day))
	}
	return t, nil
}

// age applies the anniversary rule: one year less until the birthday has
// passed in the current year.
func age(born, today time.Time) int {
	years := today.Year() - born.Year()
	if int(today.Month())*100+today.Day() < int(born.Month())*100+born.Day() {
		years--
	}
	return years
}

func result(fc genai.FunctionCall, text string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": text},
	}
}
