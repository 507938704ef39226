// Package mcpserver exposes the read-only reference API as Model Context
// Protocol tools.
package mcpserver

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/medref/medref/internal/domain/calculator"
	"github.com/medref/medref/internal/domain/catalog"
)

// New creates an MCP server with every reference tool registered.
func New(svc *catalog.Service, reg *calculator.Registry, version string, logger zerolog.Logger) *mcp.Server {
	ct := &CatalogTools{Service: svc, Logger: logger}
	kt := &CalculatorTools{Registry: reg}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "medref",
		Version: version,
	}, nil)

	// Reference corpus
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_medications",
		Description: "Fuzzy search medications by name, generic name, class, indication or tag, optionally narrowed by class and quick flag",
	}, ct.SearchMedications)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_guidelines",
		Description: "Fuzzy search clinical practice guidelines, optionally narrowed by organization, condition and publication year",
	}, ct.SearchGuidelines)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_criteria",
		Description: "Fuzzy search diagnostic criteria by disorder, code or category",
	}, ct.SearchCriteria)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_entity",
		Description: "Get the full record of a medication, guideline or diagnostic criteria set by id",
	}, ct.GetEntity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "check_interactions",
		Description: "List the declared interactions among two or more selected medications, most severe first",
	}, ct.CheckInteractions)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "walk_algorithm",
		Description: "Follow a guideline treatment algorithm with yes/no answers to its decision steps",
	}, ct.WalkAlgorithm)

	// Calculators
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_calculators",
		Description: "List the scoring instruments with their items and interpretation bands",
	}, kt.ListCalculators)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "score_calculator",
		Description: "Score an instrument from one response per item and return the total and interpretation",
	}, kt.ScoreCalculator)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "calculate_bmi",
		Description: "Compute body mass index from weight and height in metric (kg, cm) or imperial (lb, in) units",
	}, kt.CalculateBMI)

	return srv
}

// HTTPHandler serves srv over the streamable HTTP transport.
func HTTPHandler(srv *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil)
}
