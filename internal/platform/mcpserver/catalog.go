package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/medref/medref/internal/domain/catalog"
)

// CatalogTools holds the references needed by the reference corpus tools.
type CatalogTools struct {
	Service *catalog.Service
	Logger  zerolog.Logger
}

// --- Input types ---

type SearchMedicationsInput struct {
	Query       string   `json:"query,omitempty" jsonschema:"Free-text query; empty lists every medication that passes the filters"`
	Classes     []string `json:"classes,omitempty" jsonschema:"Drug classes to include (e.g. SSRI, SNRI, Mood Stabilizer)"`
	Flags       []string `json:"flags,omitempty" jsonschema:"Quick flags to include (e.g. First-line, QT-caution)"`
	Indications []string `json:"indications,omitempty" jsonschema:"Indication substrings to include"`
	Limit       int      `json:"limit,omitempty" jsonschema:"Maximum results (default 20, max 100)"`
}

type SearchGuidelinesInput struct {
	Query         string   `json:"query,omitempty" jsonschema:"Free-text query"`
	Organizations []string `json:"organizations,omitempty" jsonschema:"Publishing organizations (e.g. APA, CANMAT, NICE)"`
	Conditions    []string `json:"conditions,omitempty" jsonschema:"Condition substrings"`
	YearFrom      int      `json:"year_from,omitempty" jsonschema:"Earliest publication year"`
	YearTo        int      `json:"year_to,omitempty" jsonschema:"Latest publication year"`
	Limit         int      `json:"limit,omitempty" jsonschema:"Maximum results (default 20, max 100)"`
}

type SearchCriteriaInput struct {
	Query      string   `json:"query,omitempty" jsonschema:"Free-text query"`
	Categories []string `json:"categories,omitempty" jsonschema:"Criteria categories (e.g. Depressive, Anxiety)"`
	CodePrefix string   `json:"code_prefix,omitempty" jsonschema:"ICD code prefix (e.g. F41)"`
	Limit      int      `json:"limit,omitempty" jsonschema:"Maximum results (default 20, max 100)"`
}

type GetEntityInput struct {
	Kind string `json:"kind" jsonschema:"medication, guideline or criteria"`
	ID   string `json:"id" jsonschema:"Entity id"`
}

type CheckInteractionsInput struct {
	Drugs []string `json:"drugs" jsonschema:"Medication names, generic names or ids"`
}

type WalkAlgorithmInput struct {
	GuidelineID string   `json:"guideline_id" jsonschema:"Guideline id"`
	AlgorithmID string   `json:"algorithm_id" jsonschema:"Algorithm id within the guideline"`
	Answers     []string `json:"answers,omitempty" jsonschema:"yes/no answers for the decision steps in order"`
}

// --- Summaries ---

type medicationSummary struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	GenericName string              `json:"genericName"`
	Class       catalog.DrugClass   `json:"class"`
	QuickFlags  []catalog.QuickFlag `json:"quickFlags"`
	Indications []string            `json:"indications"`
}

type guidelineSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Organization string   `json:"organization"`
	Year         int      `json:"year"`
	Conditions   []string `json:"conditions"`
	Algorithms   []string `json:"algorithms,omitempty"`
}

type criteriaSummary struct {
	ID       string           `json:"id"`
	Disorder string           `json:"disorder"`
	Code     string           `json:"code"`
	Category catalog.Category `json:"category"`
}

func toEnum[T ~string](values []string) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}

// --- Handlers ---

func (t *CatalogTools) SearchMedications(ctx context.Context, _ *mcp.CallToolRequest, input SearchMedicationsInput) (*mcp.CallToolResult, any, error) {
	meds, err := t.Service.SearchMedications(ctx, input.Query, catalog.MedicationFilter{
		Classes:     toEnum[catalog.DrugClass](input.Classes),
		Flags:       toEnum[catalog.QuickFlag](input.Flags),
		Indications: input.Indications,
	})
	if err != nil {
		return toolError("Search failed: %v", err), nil, nil
	}
	out := make([]medicationSummary, len(meds))
	for i, m := range meds {
		out[i] = medicationSummary{
			ID:          m.ID,
			Name:        m.Name,
			GenericName: m.GenericName,
			Class:       m.Class,
			QuickFlags:  m.QuickFlags,
			Indications: m.Indications,
		}
	}
	return toolJSON(firstN(out, input.Limit))
}

func (t *CatalogTools) SearchGuidelines(ctx context.Context, _ *mcp.CallToolRequest, input SearchGuidelinesInput) (*mcp.CallToolResult, any, error) {
	guidelines, err := t.Service.SearchGuidelines(ctx, input.Query, catalog.GuidelineFilter{
		Organizations: input.Organizations,
		Conditions:    input.Conditions,
		YearFrom:      input.YearFrom,
		YearTo:        input.YearTo,
	})
	if err != nil {
		return toolError("Search failed: %v", err), nil, nil
	}
	out := make([]guidelineSummary, len(guidelines))
	for i, g := range guidelines {
		s := guidelineSummary{
			ID:           g.ID,
			Title:        g.Title,
			Organization: g.Organization,
			Year:         g.Year,
			Conditions:   g.Conditions,
		}
		for _, alg := range g.Algorithms {
			s.Algorithms = append(s.Algorithms, alg.ID)
		}
		out[i] = s
	}
	return toolJSON(firstN(out, input.Limit))
}

func (t *CatalogTools) SearchCriteria(ctx context.Context, _ *mcp.CallToolRequest, input SearchCriteriaInput) (*mcp.CallToolResult, any, error) {
	criteria, err := t.Service.SearchCriteria(ctx, input.Query, catalog.CriteriaFilter{
		Categories: toEnum[catalog.Category](input.Categories),
		CodePrefix: input.CodePrefix,
	})
	if err != nil {
		return toolError("Search failed: %v", err), nil, nil
	}
	out := make([]criteriaSummary, len(criteria))
	for i, d := range criteria {
		out[i] = criteriaSummary{ID: d.ID, Disorder: d.Disorder, Code: d.Code, Category: d.Category}
	}
	return toolJSON(firstN(out, input.Limit))
}

func (t *CatalogTools) GetEntity(ctx context.Context, _ *mcp.CallToolRequest, input GetEntityInput) (*mcp.CallToolResult, any, error) {
	kind, err := catalog.ParseKind(input.Kind)
	if err != nil {
		return toolError("%v", err), nil, nil
	}
	e, err := t.Service.GetByID(ctx, kind, input.ID)
	if err != nil {
		return toolError("%v", err), nil, nil
	}
	return toolJSON(e.Value())
}

func (t *CatalogTools) CheckInteractions(ctx context.Context, _ *mcp.CallToolRequest, input CheckInteractionsInput) (*mcp.CallToolResult, any, error) {
	if len(input.Drugs) < 2 {
		return toolError("Select at least two medications"), nil, nil
	}
	results, err := t.Service.CheckInteractions(ctx, input.Drugs)
	if err != nil {
		t.Logger.Warn().Err(err).Strs("drugs", input.Drugs).Msg("interaction check failed")
		return toolError("Interaction check failed: %v", err), nil, nil
	}
	return toolJSON(map[string]any{
		"drugs":        input.Drugs,
		"interactions": results,
	})
}

func (t *CatalogTools) WalkAlgorithm(ctx context.Context, _ *mcp.CallToolRequest, input WalkAlgorithmInput) (*mcp.CallToolResult, any, error) {
	w, err := t.Service.WalkAlgorithm(ctx, input.GuidelineID, input.AlgorithmID, input.Answers)
	if err != nil {
		return toolError("%v", err), nil, nil
	}
	return toolJSON(w)
}
