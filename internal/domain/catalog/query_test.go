package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medref/medref/internal/platform/filter"
	"github.com/medref/medref/internal/platform/search"
)

func medIDs(hits []search.Hit[*Medication]) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Item.ID
	}
	return out
}

func TestMedicationFilter(t *testing.T) {
	s := newFixtureStore(t)

	tests := []struct {
		name   string
		filter MedicationFilter
		want   []string
	}{
		{"empty is identity", MedicationFilter{}, []string{"lithium", "phenelzine", "quetiapine", "sertraline"}},
		{"class", MedicationFilter{Classes: []DrugClass{ClassSSRI}}, []string{"sertraline"}},
		{"classes are alternatives", MedicationFilter{Classes: []DrugClass{ClassSSRI, ClassMAOI}}, []string{"phenelzine", "sertraline"}},
		{"flag", MedicationFilter{Flags: []QuickFlag{FlagFirstLine}}, []string{"lithium", "sertraline"}},
		{"groups are conjunctive", MedicationFilter{Flags: []QuickFlag{FlagFirstLine}, Classes: []DrugClass{ClassMAOI}}, []string{}},
		{"indication substring", MedicationFilter{Indications: []string{"bipolar"}}, []string{"lithium", "quetiapine"}},
		{"pregnancy", MedicationFilter{PregnancyCategories: []PregnancyCategory{"D"}}, []string{"lithium"}},
		{"qt risk", MedicationFilter{QTRisks: []QTRisk{QTRiskModerate, QTRiskHigh}}, []string{"quetiapine"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, medIDs(s.SearchMedications("", tt.filter)))
		})
	}
}

func TestMedicationFilter_CompositionMatchesConjunction(t *testing.T) {
	s := newFixtureStore(t)
	f1 := MedicationFilter{Flags: []QuickFlag{FlagFirstLine, FlagSedating}}
	f2 := MedicationFilter{Indications: []string{"disorder"}}

	sequential := filter.Apply(filter.Apply(s.Medications(), f1.Criteria()), f2.Criteria())
	combined := filter.Apply(s.Medications(), f1.Criteria().And(f2.Criteria()))
	reversed := filter.Apply(s.Medications(), f2.Criteria().And(f1.Criteria()))

	assert.Equal(t, combined, sequential)
	assert.Equal(t, combined, reversed)
}

func TestSearchMedications_BlankQueryEqualsFilter(t *testing.T) {
	s := newFixtureStore(t)
	f := MedicationFilter{Flags: []QuickFlag{FlagFirstLine}}

	got := search.Items(s.SearchMedications("   ", f))
	assert.Equal(t, filter.Apply(s.Medications(), f.Criteria()), got)
}

func TestSearchMedications_TypoStillMatches(t *testing.T) {
	s := newFixtureStore(t)

	hits := s.SearchMedications("setraline", MedicationFilter{})
	require.NotEmpty(t, hits)
	assert.Equal(t, "sertraline", hits[0].Item.ID)
	assert.Equal(t, "name", hits[0].Field)

	assert.Empty(t, s.SearchMedications("qqxzvbnm", MedicationFilter{}))
}

func TestSearchMedications_FiltersRunFirst(t *testing.T) {
	s := newFixtureStore(t)

	assert.Empty(t, s.SearchMedications("Sertraline", MedicationFilter{Classes: []DrugClass{ClassMAOI}}))
	assert.Equal(t, []string{"sertraline"}, medIDs(s.SearchMedications("Sertraline", MedicationFilter{Classes: []DrugClass{ClassSSRI}})))
}

func TestSearchMedications_GenericName(t *testing.T) {
	s := newFixtureStore(t)

	hits := s.SearchMedications("Seroquel", MedicationFilter{})
	require.NotEmpty(t, hits)
	assert.Equal(t, "quetiapine", hits[0].Item.ID)
	assert.Equal(t, "genericName", hits[0].Field)
}

func TestGuidelineFilter(t *testing.T) {
	s := newFixtureStore(t)

	ids := func(f GuidelineFilter) []string {
		var out []string
		for _, h := range s.SearchGuidelines("", f) {
			out = append(out, h.Item.ID)
		}
		return out
	}
	assert.Equal(t, []string{"canmat-mdd"}, ids(GuidelineFilter{Organizations: []string{"canmat"}}))
	assert.Equal(t, []string{"apa-schizophrenia-2020"}, ids(GuidelineFilter{Conditions: []string{"schizo"}}))
	assert.Equal(t, []string{"apa-schizophrenia-2020"}, ids(GuidelineFilter{YearFrom: 2018}))
	assert.Equal(t, []string{"canmat-mdd"}, ids(GuidelineFilter{YearTo: 2016}))
	assert.Nil(t, ids(GuidelineFilter{YearFrom: 2017, YearTo: 2019}))
}

func TestSearchGuidelines(t *testing.T) {
	s := newFixtureStore(t)

	hits := s.SearchGuidelines("depressive", GuidelineFilter{})
	require.NotEmpty(t, hits)
	assert.Equal(t, "canmat-mdd", hits[0].Item.ID)

	hits = s.SearchGuidelines("Antipsychotic Selection", GuidelineFilter{})
	require.NotEmpty(t, hits)
	assert.Equal(t, "apa-schizophrenia-2020", hits[0].Item.ID)
	assert.Equal(t, "content.heading", hits[0].Field)
}

func TestCriteriaFilterAndSearch(t *testing.T) {
	s := newFixtureStore(t)

	hits := s.SearchCriteria("", CriteriaFilter{Categories: []Category{"Anxiety"}})
	require.Len(t, hits, 1)
	assert.Equal(t, "gad", hits[0].Item.ID)

	hits = s.SearchCriteria("", CriteriaFilter{CodePrefix: "f3"})
	require.Len(t, hits, 1)
	assert.Equal(t, "mdd", hits[0].Item.ID)

	hits = s.SearchCriteria("generalised anxiety", CriteriaFilter{})
	require.NotEmpty(t, hits)
	assert.Equal(t, "gad", hits[0].Item.ID)
}

func TestSearchAll(t *testing.T) {
	s := newFixtureStore(t)

	assert.Empty(t, s.SearchAll(""))

	results := s.SearchAll("lithium")
	require.NotEmpty(t, results)
	assert.Equal(t, KindMedication, results[0].Kind)
	assert.Equal(t, "lithium", results[0].ID())
	assert.Equal(t, 1.0, results[0].Score)

	results = s.SearchAll("depressive", KindCriteria)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, KindCriteria, r.Kind)
	}
}
