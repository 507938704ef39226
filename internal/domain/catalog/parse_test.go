package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantHeader string
		wantBody   string
		wantErr    bool
	}{
		{"basic", "---\ntitle: X\n---\nbody\n", "title: X", "body\n", false},
		{"crlf and bom", "\xef\xbb\xbf---\r\ntitle: X\r\n---\r\nbody", "title: X", "body", false},
		{"empty header", "---\n---\nbody", "", "body", false},
		{"no body", "---\ntitle: X\n---", "title: X", "", false},
		{"missing", "# title\n", "", "", true},
		{"unterminated", "---\ntitle: X\n", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body, err := splitFrontMatter([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, header)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestParseGuideline(t *testing.T) {
	g, err := parseGuideline(Record{Kind: KindGuideline, Name: "canmat-mdd.md", Data: []byte(mddGuideline)})
	require.NoError(t, err)

	assert.Equal(t, "canmat-mdd", g.ID)
	assert.Equal(t, "CANMAT", g.Organization)
	assert.Equal(t, 2016, g.Year)
	assert.Equal(t, []string{"Major Depressive Disorder"}, g.Conditions)

	require.Len(t, g.Sections, 2)
	first := g.Sections[0]
	assert.Equal(t, "First-line Pharmacotherapy", first.Heading)
	assert.Equal(t, "SSRIs and SNRIs are first-line.", first.Body)
	require.Len(t, first.Recommendations, 2)
	assert.Equal(t, Recommendation{Grade: "A", Text: "Escitalopram, sertraline", Evidence: "Multiple RCTs"}, first.Recommendations[0])
	assert.Equal(t, Recommendation{Grade: "B", Text: "Quetiapine (300mg)", Evidence: "Adjunct evidence"}, first.Recommendations[1])
	assert.Equal(t, "Continue treatment.", g.Sections[1].Body)

	alg, ok := g.Algorithm("mdd")
	require.True(t, ok)
	require.Len(t, alg.Steps, 6)
	assert.Equal(t, "3", alg.Steps[1].Yes)
	assert.Equal(t, "4", alg.Steps[1].No)
	assert.Equal(t, "2", alg.Steps[3].Next)
	assert.True(t, alg.Steps[1].IsDecision())
	assert.False(t, alg.Steps[0].IsDecision())
}

func TestParseGuideline_IDFromFileName(t *testing.T) {
	g, err := parseGuideline(Record{Name: "apa-schizophrenia-2020.md", Data: []byte(schizophreniaGuideline)})
	require.NoError(t, err)
	assert.Equal(t, "apa-schizophrenia-2020", g.ID)
}

func TestParseGuideline_LeadingTextBecomesOverview(t *testing.T) {
	doc := "---\nid: g\ntitle: G\n---\nIntro paragraph.\n\n## Details\n\nMore.\n"
	g, err := parseGuideline(Record{Name: "g.md", Data: []byte(doc)})
	require.NoError(t, err)
	require.Len(t, g.Sections, 2)
	assert.Equal(t, "Overview", g.Sections[0].Heading)
	assert.Equal(t, "Intro paragraph.", g.Sections[0].Body)
}

func TestParseGuideline_Rejects(t *testing.T) {
	tests := map[string]string{
		"no title":       "---\nid: g\n---\n",
		"bad yaml":       "---\ntitle: [unclosed\n---\n",
		"unknown step":   "---\ntitle: G\nalgorithms:\n  - id: a\n    steps:\n      - id: \"1\"\n        text: Q\n        yes: \"9\"\n---\n",
		"duplicate step": "---\ntitle: G\nalgorithms:\n  - id: a\n    steps:\n      - {id: \"1\", text: A}\n      - {id: \"1\", text: B}\n---\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseGuideline(Record{Name: "g.md", Data: []byte(doc)})
			assert.Error(t, err)
		})
	}
}

func TestParseMedications_ArraySkipsBadElements(t *testing.T) {
	meds, issues := parseMedications(Record{Name: "more.json", Data: []byte(medsArrayJSON)})

	require.Len(t, meds, 3)
	assert.Equal(t, "lithium", meds[0].ID)
	require.Len(t, issues, 1)
	assert.Equal(t, "more.json[1]", issues[0].Name)
	assert.Contains(t, issues[0].Reason, "unknown drug class")
}

func TestParseMedications_RejectsUnknownEnums(t *testing.T) {
	tests := map[string]string{
		"flag":      `{"id": "x", "name": "X", "class": "SSRI", "quickFlags": ["Cheap"]}`,
		"severity":  `{"id": "x", "name": "X", "class": "SSRI", "interactions": [{"drug": "Y", "severity": "fatal"}]}`,
		"frequency": `{"id": "x", "name": "X", "class": "SSRI", "sideEffects": [{"effect": "Y", "frequency": "often"}]}`,
		"missing":   `{"name": "X", "class": "SSRI"}`,
		"empty":     ``,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			meds, issues := parseMedications(Record{Name: "x.json", Data: []byte(doc)})
			assert.Empty(t, meds)
			assert.Len(t, issues, 1)
		})
	}
}

func TestParseCriteria(t *testing.T) {
	criteria, issues := parseCriteria(Record{Name: "all.json", Data: []byte(criteriaJSON)})
	require.Len(t, criteria, 2)
	assert.Equal(t, Category("Anxiety"), criteria[1].Category)
	require.Len(t, issues, 1)
	assert.Equal(t, "all.json[2]", issues[0].Name)
}
