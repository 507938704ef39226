package catalog

import (
	"sort"
	"strings"
)

// InteractionResult is a declared interaction between two selected drugs.
// It is derived on demand and never stored.
type InteractionResult struct {
	Drug1          string   `json:"drug1"`
	Drug2          string   `json:"drug2"`
	Severity       Severity `json:"severity"`
	Mechanism      string   `json:"mechanism"`
	Recommendation string   `json:"recommendation"`
}

type selectedDrug struct {
	label string
	med   *Medication
	names []string
}

// partnerMatches reports whether a declared partner name and a selected
// drug name refer to each other: case-insensitive substring either way.
func partnerMatches(partner string, names []string) bool {
	p := strings.ToLower(strings.TrimSpace(partner))
	if p == "" {
		return false
	}
	for _, n := range names {
		if n == "" {
			continue
		}
		if strings.Contains(p, n) || strings.Contains(n, p) {
			return true
		}
	}
	return false
}

// resolveMedication finds a medication by id, name or generic name,
// ignoring case.
func (s *Store) resolveMedication(name string) *Medication {
	snap := s.current()
	if m, ok := snap.medByID[name]; ok {
		return m
	}
	for _, m := range snap.meds {
		if strings.EqualFold(m.Name, name) || strings.EqualFold(m.GenericName, name) || strings.EqualFold(m.ID, name) {
			return m
		}
	}
	return nil
}

// CheckInteractions cross-references the declared interaction lists of the
// selected drugs. Fewer than two distinct names yield an empty result.
// Each unordered pair appears at most once; when both drugs declare the
// other, the more severe declaration is kept. Severities are reported
// exactly as declared.
func (s *Store) CheckInteractions(names []string) []InteractionResult {
	var drugs []selectedDrug
	seen := make(map[string]bool)
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		d := selectedDrug{label: name, med: s.resolveMedication(name), names: []string{key}}
		if d.med != nil {
			d.label = d.med.Name
			d.names = append(d.names, strings.ToLower(d.med.Name))
			if d.med.GenericName != "" {
				d.names = append(d.names, strings.ToLower(d.med.GenericName))
			}
		}
		drugs = append(drugs, d)
	}
	if len(drugs) < 2 {
		return []InteractionResult{}
	}

	type pair struct{ i, j int }
	found := make(map[pair]int)
	out := make([]InteractionResult, 0)
	record := func(i, j int, in Interaction) {
		key := pair{i, j}
		if i > j {
			key = pair{j, i}
		}
		res := InteractionResult{
			Drug1:          drugs[i].label,
			Drug2:          drugs[j].label,
			Severity:       in.Severity,
			Mechanism:      in.Mechanism,
			Recommendation: in.Recommendation,
		}
		if at, ok := found[key]; ok {
			if in.Severity.Rank() < out[at].Severity.Rank() {
				out[at] = res
			}
			return
		}
		found[key] = len(out)
		out = append(out, res)
	}

	for i, a := range drugs {
		if a.med == nil {
			continue
		}
		for _, in := range a.med.Interactions {
			for j, b := range drugs {
				if i == j || a.med == b.med {
					continue
				}
				if partnerMatches(in.Drug, b.names) {
					record(i, j, in)
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}
