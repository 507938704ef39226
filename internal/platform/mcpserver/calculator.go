package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medref/medref/internal/domain/calculator"
)

// CalculatorTools holds the instrument registry used by the scoring tools.
type CalculatorTools struct {
	Registry *calculator.Registry
}

type ListCalculatorsInput struct {
	Category string `json:"category,omitempty" jsonschema:"Only instruments in this category (e.g. Depression, Anxiety)"`
}

type ScoreCalculatorInput struct {
	ID        string    `json:"id" jsonschema:"Instrument id (e.g. phq9, gad7, audit)"`
	Responses []float64 `json:"responses" jsonschema:"One numeric response per item, in item order"`
}

type CalculateBMIInput struct {
	Weight float64 `json:"weight" jsonschema:"Weight in kilograms (metric) or pounds (imperial)"`
	Height float64 `json:"height" jsonschema:"Height in centimetres (metric) or inches (imperial)"`
	Units  string  `json:"units,omitempty" jsonschema:"metric (default) or imperial"`
}

func (t *CalculatorTools) ListCalculators(_ context.Context, _ *mcp.CallToolRequest, input ListCalculatorsInput) (*mcp.CallToolResult, any, error) {
	return toolJSON(t.Registry.List(input.Category))
}

func (t *CalculatorTools) ScoreCalculator(_ context.Context, _ *mcp.CallToolRequest, input ScoreCalculatorInput) (*mcp.CallToolResult, any, error) {
	res, err := t.Registry.Score(input.ID, input.Responses)
	if err != nil {
		return toolError("%v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *CalculatorTools) CalculateBMI(_ context.Context, _ *mcp.CallToolRequest, input CalculateBMIInput) (*mcp.CallToolResult, any, error) {
	res, err := calculator.CalculateBMI(calculator.BMIInput{
		Weight: input.Weight,
		Height: input.Height,
		Units:  calculator.Units(input.Units),
	})
	if err != nil {
		return toolError("%v", err), nil, nil
	}
	return toolJSON(res)
}
