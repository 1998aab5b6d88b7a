package age_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-otsuka/wren/pkg/model"
	"github.com/m-otsuka/wren/pkg/tool/age"
	"google.golang.org/genai"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
}

func execute(t *testing.T, args map[string]any) (string, error) {
	t.Helper()

	calc := age.New(age.WithClock(fixedClock()))
	ok, err := calc.Init(context.Background(), nil)
	gt.NoError(t, err)
	gt.V(t, ok).Equal(true)

	resp, err := calc.Execute(context.Background(), genai.FunctionCall{
		Name: "calculate_age",
		Args: args,
	})
	if err != nil {
		return "", err
	}

	result, _ := resp.Response["result"].(string)
	return result, nil
}

func TestCalculateAgeSchema(t *testing.T) {
	calc := age.New()

	spec := calc.Spec()
	gt.V(t, len(spec.FunctionDeclarations)).Equal(1)

	decl := spec.FunctionDeclarations[0]
	gt.Equal(t, decl.Name, "calculate_age")

	// All components are optional so the model can omit what the user
	// did not provide instead of inventing values.
	gt.V(t, len(decl.Parameters.Required)).Equal(0)
	gt.Map(t, decl.Parameters.Properties).HasKey("day")
	gt.Map(t, decl.Parameters.Properties).HasKey("month")
	gt.Map(t, decl.Parameters.Properties).HasKey("year")
}

func TestCalculateAge(t *testing.T) {
	t.Run("birthday already passed this year", func(t *testing.T) {
		result, err := execute(t, map[string]any{"day": 1, "month": 3, "year": 1990})
		gt.NoError(t, err)
		gt.S(t, result).Contains("You are 35 years old.")
	})

	t.Run("birthday is today", func(t *testing.T) {
		result, err := execute(t, map[string]any{"day": 15, "month": 6, "year": 1990})
		gt.NoError(t, err)
		gt.S(t, result).Contains("You are 35 years old.")
	})

	t.Run("birthday not yet reached this year", func(t *testing.T) {
		result, err := execute(t, map[string]any{"day": 31, "month": 12, "year": 1990})
		gt.NoError(t, err)
		gt.S(t, result).Contains("You are 34 years old.")
	})
}

func TestCalculateAgeMissingComponents(t *testing.T) {
	t.Run("missing day", func(t *testing.T) {
		result, err := execute(t, map[string]any{"month": 6, "year": 1990})
		gt.NoError(t, err)
		gt.V(t, result).Equal("The day of birth is missing. Please ask the user for the day of birth.")
	})

	t.Run("missing month", func(t *testing.T) {
		result, err := execute(t, map[string]any{"day": 15, "year": 1990})
		gt.NoError(t, err)
		gt.V(t, result).Equal("The month of birth is missing. Please ask the user for the month of birth.")
	})

	t.Run("missing year", func(t *testing.T) {
		result, err := execute(t, map[string]any{"day": 15, "month": 6})
		gt.NoError(t, err)
		gt.V(t, result).Equal("The year of birth is missing. Please ask the user for the year of birth.")
	})

	t.Run("all missing reports day first", func(t *testing.T) {
		result, err := execute(t, map[string]any{})
		gt.NoError(t, err)
		gt.S(t, result).Contains("day of birth is missing")
	})
}

func TestCalculateAgeInvalidDates(t *testing.T) {
	t.Run("impossible calendar date", func(t *testing.T) {
		_, err := execute(t, map[string]any{"day": 30, "month": 2, "year": 1990})
		gt.Error(t, err)
		gt.V(t, model.IsValidation(err)).Equal(true)
	})

	t.Run("date of birth in the future", func(t *testing.T) {
		_, err := execute(t, map[string]any{"day": 1, "month": 1, "year": 2030})
		gt.Error(t, err)
		gt.V(t, model.IsValidation(err)).Equal(true)
	})

	t.Run("leap day is a valid date", func(t *testing.T) {
		result, err := execute(t, map[string]any{"day": 29, "month": 2, "year": 2000})
		gt.NoError(t, err)
		gt.S(t, result).Contains("You are 25 years old.")
	})
}
