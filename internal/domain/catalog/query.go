package catalog

import (
	"sort"
	"strings"

	"github.com/medref/medref/internal/platform/filter"
	"github.com/medref/medref/internal/platform/search"
)

var medicationFields = []search.Field[*Medication]{
	{Name: "name", Weight: 2, Values: func(m *Medication) []string { return []string{m.Name} }},
	{Name: "genericName", Weight: 1.5, Values: func(m *Medication) []string { return []string{m.GenericName} }},
	{Name: "class", Weight: 1, Values: func(m *Medication) []string { return []string{string(m.Class)} }},
	{Name: "tags", Weight: 1, Values: func(m *Medication) []string { return m.Tags }},
	{Name: "indications", Weight: 1, Values: func(m *Medication) []string { return m.Indications }},
}

var guidelineFields = []search.Field[*Guideline]{
	{Name: "title", Weight: 2, Values: func(g *Guideline) []string { return []string{g.Title} }},
	{Name: "conditions", Weight: 1.5, Values: func(g *Guideline) []string { return g.Conditions }},
	{Name: "organization", Weight: 1, Values: func(g *Guideline) []string { return []string{g.Organization} }},
	{Name: "content.heading", Weight: 1, Values: func(g *Guideline) []string {
		out := make([]string, 0, len(g.Sections))
		for _, s := range g.Sections {
			out = append(out, s.Heading)
		}
		return out
	}},
	{Name: "content.content", Weight: 0.5, Values: func(g *Guideline) []string {
		out := make([]string, 0, len(g.Sections))
		for _, s := range g.Sections {
			out = append(out, s.Body)
			for _, r := range s.Recommendations {
				out = append(out, r.Text)
			}
		}
		return out
	}},
}

var criteriaFields = []search.Field[*DiagnosticCriteria]{
	{Name: "disorder", Weight: 2, Values: func(d *DiagnosticCriteria) []string { return []string{d.Disorder} }},
	{Name: "code", Weight: 1, Values: func(d *DiagnosticCriteria) []string { return []string{d.Code} }},
	{Name: "category", Weight: 1, Values: func(d *DiagnosticCriteria) []string { return []string{string(d.Category)} }},
}

// MedicationFilter selects medications. Values within one field are
// alternatives; populated fields must all hold.
type MedicationFilter struct {
	Classes             []DrugClass
	Flags               []QuickFlag
	Indications         []string
	PregnancyCategories []PregnancyCategory
	QTRisks             []QTRisk
}

func (f MedicationFilter) Criteria() filter.Criteria[*Medication] {
	var c filter.Criteria[*Medication]
	if len(f.Classes) > 0 {
		c = append(c, filter.NewGroup("class", filter.OneOf(func(m *Medication) DrugClass { return m.Class }, f.Classes...)...))
	}
	if len(f.Flags) > 0 {
		c = append(c, filter.NewGroup("quickFlags", filter.AnyOf(func(m *Medication) []QuickFlag { return m.QuickFlags }, f.Flags...)...))
	}
	if len(f.Indications) > 0 {
		preds := make([]filter.Predicate[*Medication], 0, len(f.Indications))
		for _, want := range f.Indications {
			want := strings.ToLower(strings.TrimSpace(want))
			if want == "" {
				continue
			}
			preds = append(preds, func(m *Medication) bool {
				for _, ind := range m.Indications {
					if strings.Contains(strings.ToLower(ind), want) {
						return true
					}
				}
				return false
			})
		}
		c = append(c, filter.NewGroup("indications", preds...))
	}
	if len(f.PregnancyCategories) > 0 {
		c = append(c, filter.NewGroup("pregnancyCategory", filter.OneOf(func(m *Medication) PregnancyCategory { return m.PregnancyCategory }, f.PregnancyCategories...)...))
	}
	if len(f.QTRisks) > 0 {
		c = append(c, filter.NewGroup("qtRisk", filter.OneOf(func(m *Medication) QTRisk { return m.QTRisk }, f.QTRisks...)...))
	}
	return c
}

// GuidelineFilter selects guidelines. Year bounds are inclusive; zero
// leaves a bound open.
type GuidelineFilter struct {
	Organizations []string
	Conditions    []string
	YearFrom      int
	YearTo        int
}

func (f GuidelineFilter) Criteria() filter.Criteria[*Guideline] {
	var c filter.Criteria[*Guideline]
	if len(f.Organizations) > 0 {
		preds := make([]filter.Predicate[*Guideline], 0, len(f.Organizations))
		for _, org := range f.Organizations {
			org := org
			preds = append(preds, func(g *Guideline) bool { return strings.EqualFold(g.Organization, org) })
		}
		c = append(c, filter.NewGroup("organization", preds...))
	}
	if len(f.Conditions) > 0 {
		preds := make([]filter.Predicate[*Guideline], 0, len(f.Conditions))
		for _, cond := range f.Conditions {
			cond := strings.ToLower(strings.TrimSpace(cond))
			if cond == "" {
				continue
			}
			preds = append(preds, func(g *Guideline) bool {
				for _, gc := range g.Conditions {
					if strings.Contains(strings.ToLower(gc), cond) {
						return true
					}
				}
				return false
			})
		}
		c = append(c, filter.NewGroup("conditions", preds...))
	}
	if f.YearFrom > 0 || f.YearTo > 0 {
		from, to := f.YearFrom, f.YearTo
		c = append(c, filter.NewGroup("year", func(g *Guideline) bool {
			return (from == 0 || g.Year >= from) && (to == 0 || g.Year <= to)
		}))
	}
	return c
}

// CriteriaFilter selects diagnostic criteria.
type CriteriaFilter struct {
	Categories []Category
	CodePrefix string
}

func (f CriteriaFilter) Criteria() filter.Criteria[*DiagnosticCriteria] {
	var c filter.Criteria[*DiagnosticCriteria]
	if len(f.Categories) > 0 {
		c = append(c, filter.NewGroup("category", filter.OneOf(func(d *DiagnosticCriteria) Category { return d.Category }, f.Categories...)...))
	}
	if prefix := strings.ToUpper(strings.TrimSpace(f.CodePrefix)); prefix != "" {
		c = append(c, filter.NewGroup("code", func(d *DiagnosticCriteria) bool {
			return strings.HasPrefix(strings.ToUpper(d.Code), prefix)
		}))
	}
	return c
}

// Result is one ranked entity.
type Result struct {
	Entity
	Score float64 `json:"score"`
	Field string  `json:"matchedField,omitempty"`
}

// SearchMedications applies f and then ranks the survivors against query.
func (s *Store) SearchMedications(query string, f MedicationFilter) []search.Hit[*Medication] {
	return search.Run(s.current().medIndex, query, f.Criteria())
}

func (s *Store) SearchGuidelines(query string, f GuidelineFilter) []search.Hit[*Guideline] {
	return search.Run(s.current().guidelineIndex, query, f.Criteria())
}

func (s *Store) SearchCriteria(query string, f CriteriaFilter) []search.Hit[*DiagnosticCriteria] {
	return search.Run(s.current().criteriaIndex, query, f.Criteria())
}

// SearchAll ranks every kind against query and merges the results by
// score. Equal scores keep kind load order and then collection order. A
// blank query yields nothing.
func (s *Store) SearchAll(query string, kinds ...Kind) []Result {
	if search.IsBlank(query) {
		return []Result{}
	}
	if len(kinds) == 0 {
		kinds = Kinds
	}
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	snap := s.current()
	out := make([]Result, 0)
	if want[KindMedication] {
		for _, h := range snap.medIndex.Search(query) {
			out = append(out, Result{Entity: MedicationEntity(h.Item), Score: h.Score, Field: h.Field})
		}
	}
	if want[KindGuideline] {
		for _, h := range snap.guidelineIndex.Search(query) {
			out = append(out, Result{Entity: GuidelineEntity(h.Item), Score: h.Score, Field: h.Field})
		}
	}
	if want[KindCriteria] {
		for _, h := range snap.criteriaIndex.Search(query) {
			out = append(out, Result{Entity: CriteriaEntity(h.Item), Score: h.Score, Field: h.Field})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
