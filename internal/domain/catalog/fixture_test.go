package catalog

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const sertralineJSON = `{
  "id": "sertraline", "name": "Sertraline", "genericName": "Zoloft", "class": "SSRI",
  "tags": ["antidepressant"], "indications": ["Major Depressive Disorder", "Panic Disorder"],
  "quickFlags": ["First-line", "Pregnancy-safe"], "pregnancyCategory": "C", "qtRisk": "low",
  "interactions": [
    {"drug": "Phenelzine", "severity": "contraindicated", "mechanism": "Serotonin syndrome", "recommendation": "Do not combine"},
    {"drug": "Tramadol", "severity": "major", "mechanism": "Serotonin toxicity", "recommendation": "Avoid"}
  ]
}`

const medsArrayJSON = `[
  {"id": "lithium", "name": "Lithium", "genericName": "Lithobid", "class": "Mood Stabilizer",
   "indications": ["Bipolar Disorder"], "quickFlags": ["First-line", "Pregnancy-avoid"], "pregnancyCategory": "D",
   "interactions": [{"drug": "Ibuprofen", "severity": "major", "mechanism": "Reduced clearance", "recommendation": "Monitor levels"},
                    {"drug": "Quetiapine", "severity": "minor", "mechanism": "Additive sedation", "recommendation": "Usually fine"}]},
  {"id": "bad-class", "name": "Mystery", "class": "Herbal"},
  {"id": "phenelzine", "name": "Phenelzine", "genericName": "Nardil", "class": "MAOI",
   "indications": ["Treatment-Resistant Depression"], "quickFlags": ["Third-line"],
   "interactions": [{"drug": "Sertraline", "severity": "contraindicated", "mechanism": "Serotonin syndrome", "recommendation": "Washout 14 days"}]},
  {"id": "quetiapine", "name": "Quetiapine", "genericName": "Seroquel", "class": "Atypical Antipsychotic",
   "indications": ["Schizophrenia", "Bipolar Depression"], "quickFlags": ["Sedating", "QT-caution"], "qtRisk": "moderate",
   "interactions": [{"drug": "Escitalopram", "severity": "moderate", "mechanism": "QT prolongation", "recommendation": "ECG"}]}
]`

const mddGuideline = `---
id: canmat-mdd
title: Major Depressive Disorder - CANMAT 2016
organization: CANMAT
year: 2016
conditions: [Major Depressive Disorder]
algorithms:
  - id: mdd
    name: MDD Algorithm
    steps:
      - id: "1"
        text: Start SSRI
        action: Start medication
      - id: "2"
        text: Adequate trial?
        yes: "3"
        no: "4"
      - id: "3"
        text: Response?
        yes: "5"
        no: "6"
      - id: "4"
        text: Optimize dose
        action: Increase dose
        next: "2"
      - id: "5"
        text: Continue
        action: Maintenance
      - id: "6"
        text: Switch or augment
        action: Second-line
---
# Major Depressive Disorder

## First-line Pharmacotherapy

SSRIs and SNRIs are first-line.

- [A] Escitalopram, sertraline (Multiple RCTs)
- [B] Quetiapine (300mg) (Adjunct evidence)

## Duration

Continue treatment.
`

const schizophreniaGuideline = `---
title: Schizophrenia - APA 2020
organization: APA
year: 2020
conditions: [Schizophrenia]
---
## Antipsychotic Selection

- [A] Second-generation agents preferred (CATIE)
`

const criteriaJSON = `[
  {"id": "mdd", "disorder": "Major Depressive Disorder", "code": "F32", "category": "Depressive",
   "criteria": [{"letter": "A", "text": "Five or more symptoms", "required": true}]},
  {"id": "gad", "disorder": "Generalized Anxiety Disorder", "code": "F41.1", "category": "Anxiety",
   "criteria": [{"letter": "A", "text": "Excessive worry"}]},
  {"id": "broken", "disorder": "", "category": "Anxiety"}
]`

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"meds/sertraline.json":                 {Data: []byte(sertralineJSON)},
		"meds/more.json":                       {Data: []byte(medsArrayJSON)},
		"meds/garbage.json":                    {Data: []byte(`{"id": `)},
		"meds/readme.txt":                      {Data: []byte("ignored")},
		"guidelines/canmat-mdd.md":             {Data: []byte(mddGuideline)},
		"guidelines/apa-schizophrenia-2020.md": {Data: []byte(schizophreniaGuideline)},
		"guidelines/no-header.md":              {Data: []byte("# Just a title\n")},
		"criteria/all.json":                    {Data: []byte(criteriaJSON)},
	}
}

func newFixtureStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(NewFSSource(fixtureFS(), "fixture"), DefaultOptions(), zerolog.Nop())
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	return s
}
