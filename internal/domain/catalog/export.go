package catalog

import (
	"strconv"

	"github.com/medref/medref/internal/platform/export"
)

func flagStrings(flags []QuickFlag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}

// MedicationTables lays out medications and their declared interactions.
func MedicationTables(meds []*Medication) []export.Table {
	main := export.Table{
		Name: "Medications",
		Columns: []export.Column{
			{Header: "ID", Width: 18}, {Header: "Name", Width: 20}, {Header: "Generic Name", Width: 20},
			{Header: "Class", Width: 22}, {Header: "Indications", Width: 40}, {Header: "Quick Flags", Width: 40},
			{Header: "Adult Start", Width: 18}, {Header: "Adult Max", Width: 18},
			{Header: "Pregnancy", Width: 10}, {Header: "QT Risk", Width: 10}, {Header: "Updated", Width: 12},
		},
	}
	interactions := export.Table{
		Name: "Interactions",
		Columns: []export.Column{
			{Header: "Medication", Width: 20}, {Header: "Interacts With", Width: 22}, {Header: "Severity", Width: 16},
			{Header: "Mechanism", Width: 40}, {Header: "Recommendation", Width: 40},
		},
	}
	for _, m := range meds {
		main.Rows = append(main.Rows, []any{
			m.ID, m.Name, m.GenericName, string(m.Class), export.Join(m.Indications), export.Join(flagStrings(m.QuickFlags)),
			m.Dosing.Adult.Start, m.Dosing.Adult.Max, string(m.PregnancyCategory), string(m.QTRisk), m.UpdatedAt,
		})
		for _, in := range m.Interactions {
			interactions.Rows = append(interactions.Rows, []any{m.Name, in.Drug, string(in.Severity), in.Mechanism, in.Recommendation})
		}
	}
	return []export.Table{main, interactions}
}

// GuidelineTables lays out guidelines and their graded recommendations.
func GuidelineTables(guidelines []*Guideline) []export.Table {
	main := export.Table{
		Name: "Guidelines",
		Columns: []export.Column{
			{Header: "ID", Width: 22}, {Header: "Title", Width: 50}, {Header: "Organization", Width: 18},
			{Header: "Year", Width: 8}, {Header: "Conditions", Width: 30}, {Header: "Sections", Width: 10},
			{Header: "Algorithms", Width: 10}, {Header: "URL", Width: 40},
		},
	}
	recs := export.Table{
		Name: "Recommendations",
		Columns: []export.Column{
			{Header: "Guideline", Width: 22}, {Header: "Section", Width: 30}, {Header: "Grade", Width: 8},
			{Header: "Recommendation", Width: 60}, {Header: "Evidence", Width: 20},
		},
	}
	for _, g := range guidelines {
		year := ""
		if g.Year > 0 {
			year = strconv.Itoa(g.Year)
		}
		main.Rows = append(main.Rows, []any{
			g.ID, g.Title, g.Organization, year, export.Join(g.Conditions), len(g.Sections), len(g.Algorithms), g.URL,
		})
		for _, s := range g.Sections {
			for _, r := range s.Recommendations {
				recs.Rows = append(recs.Rows, []any{g.ID, s.Heading, string(r.Grade), r.Text, r.Evidence})
			}
		}
	}
	return []export.Table{main, recs}
}

// CriteriaTables lays out diagnostic criteria, one row per criterion.
func CriteriaTables(criteria []*DiagnosticCriteria) []export.Table {
	main := export.Table{
		Name: "Criteria",
		Columns: []export.Column{
			{Header: "ID", Width: 16}, {Header: "Disorder", Width: 36}, {Header: "Code", Width: 10},
			{Header: "Category", Width: 20}, {Header: "Differential", Width: 40},
		},
	}
	items := export.Table{
		Name: "Criterion Items",
		Columns: []export.Column{
			{Header: "Disorder", Width: 36}, {Header: "Letter", Width: 8}, {Header: "Criterion", Width: 70},
			{Header: "Required", Width: 10},
		},
	}
	for _, d := range criteria {
		main.Rows = append(main.Rows, []any{d.ID, d.Disorder, d.Code, string(d.Category), export.Join(d.DifferentialDx)})
		for _, c := range d.Criteria {
			required := "No"
			if c.Required {
				required = "Yes"
			}
			items.Rows = append(items.Rows, []any{d.Disorder, c.Letter, c.Text, required})
		}
	}
	return []export.Table{main, items}
}
