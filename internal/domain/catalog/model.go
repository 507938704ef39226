package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an id does not resolve to a loaded entity.
var ErrNotFound = errors.New("not found")

// Kind discriminates the three reference entity kinds.
type Kind string

const (
	KindMedication Kind = "medication"
	KindGuideline  Kind = "guideline"
	KindCriteria   Kind = "criteria"
)

// Kinds lists every entity kind in load order.
var Kinds = []Kind{KindMedication, KindGuideline, KindCriteria}

// ParseKind accepts singular and plural spellings.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medication", "medications", "med", "meds":
		return KindMedication, nil
	case "guideline", "guidelines":
		return KindGuideline, nil
	case "criteria", "criterion", "diagnostic-criteria":
		return KindCriteria, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// =========== Medication ===========

type DrugClass string

const (
	ClassSSRI                 DrugClass = "SSRI"
	ClassSNRI                 DrugClass = "SNRI"
	ClassTCA                  DrugClass = "TCA"
	ClassMAOI                 DrugClass = "MAOI"
	ClassAtypicalAntidep      DrugClass = "Atypical Antidepressant"
	ClassTypicalAntipsychotic DrugClass = "Typical Antipsychotic"
	ClassAtypicalAntipsych    DrugClass = "Atypical Antipsychotic"
	ClassMoodStabilizer       DrugClass = "Mood Stabilizer"
	ClassBenzodiazepine       DrugClass = "Benzodiazepine"
	ClassAnxiolytic           DrugClass = "Anxiolytic"
	ClassStimulant            DrugClass = "Stimulant"
	ClassCognitiveEnhancer    DrugClass = "Cognitive Enhancer"
	ClassSleepAid             DrugClass = "Sleep Aid"
	ClassOther                DrugClass = "Other"
)

var drugClasses = []DrugClass{
	ClassSSRI, ClassSNRI, ClassTCA, ClassMAOI, ClassAtypicalAntidep,
	ClassTypicalAntipsychotic, ClassAtypicalAntipsych, ClassMoodStabilizer,
	ClassBenzodiazepine, ClassAnxiolytic, ClassStimulant, ClassCognitiveEnhancer,
	ClassSleepAid, ClassOther,
}

type QuickFlag string

const (
	FlagFirstLine        QuickFlag = "First-line"
	FlagSecondLine       QuickFlag = "Second-line"
	FlagThirdLine        QuickFlag = "Third-line"
	FlagPregnancySafe    QuickFlag = "Pregnancy-safe"
	FlagPregnancyCaution QuickFlag = "Pregnancy-caution"
	FlagPregnancyAvoid   QuickFlag = "Pregnancy-avoid"
	FlagQTSafe           QuickFlag = "QT-safe"
	FlagQTCaution        QuickFlag = "QT-caution"
	FlagQTRisk           QuickFlag = "QT-risk"
	FlagWeightNeutral    QuickFlag = "Weight-neutral"
	FlagWeightLoss       QuickFlag = "Weight-loss"
	FlagWeightGain       QuickFlag = "Weight-gain"
	FlagActivating       QuickFlag = "Activating"
	FlagSedating         QuickFlag = "Sedating"
	FlagSexualSE         QuickFlag = "Sexual-side-effects"
)

var quickFlags = []QuickFlag{
	FlagFirstLine, FlagSecondLine, FlagThirdLine,
	FlagPregnancySafe, FlagPregnancyCaution, FlagPregnancyAvoid,
	FlagQTSafe, FlagQTCaution, FlagQTRisk,
	FlagWeightNeutral, FlagWeightLoss, FlagWeightGain,
	FlagActivating, FlagSedating, FlagSexualSE,
}

type Frequency string

const (
	FrequencyVeryCommon Frequency = "very-common"
	FrequencyCommon     Frequency = "common"
	FrequencyUncommon   Frequency = "uncommon"
	FrequencyRare       Frequency = "rare"
)

var frequencies = []Frequency{FrequencyVeryCommon, FrequencyCommon, FrequencyUncommon, FrequencyRare}

// Severity is the declared severity of a drug interaction. Lower rank is
// more severe.
type Severity string

const (
	SeverityContraindicated Severity = "contraindicated"
	SeverityMajor           Severity = "major"
	SeverityModerate        Severity = "moderate"
	SeverityMinor           Severity = "minor"
)

var severities = []Severity{SeverityContraindicated, SeverityMajor, SeverityModerate, SeverityMinor}

// Rank orders severities from most (0) to least severe.
func (s Severity) Rank() int {
	for i, v := range severities {
		if v == s {
			return i
		}
	}
	return len(severities)
}

type PregnancyCategory string

var pregnancyCategories = []PregnancyCategory{"A", "B", "C", "D", "X", "L1", "L2", "L3", "L4", "L5"}

type QTRisk string

const (
	QTRiskNone     QTRisk = "none"
	QTRiskLow      QTRisk = "low"
	QTRiskModerate QTRisk = "moderate"
	QTRiskHigh     QTRisk = "high"
)

var qtRisks = []QTRisk{QTRiskNone, QTRiskLow, QTRiskModerate, QTRiskHigh}

type AdultDosing struct {
	Start       string `json:"start"`
	Titration   string `json:"titration"`
	Maintenance string `json:"maintenance"`
	Max         string `json:"max"`
}

type PediatricDosing struct {
	Start       string `json:"start"`
	Maintenance string `json:"maintenance"`
	Max         string `json:"max"`
}

type GeriatricDosing struct {
	Start       string `json:"start"`
	Maintenance string `json:"maintenance"`
	Notes       string `json:"notes"`
}

type Dosing struct {
	Adult     AdultDosing      `json:"adult"`
	Pediatric *PediatricDosing `json:"pediatric,omitempty"`
	Geriatric *GeriatricDosing `json:"geriatric,omitempty"`
	Renal     string           `json:"renal,omitempty"`
	Hepatic   string           `json:"hepatic,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

type SideEffect struct {
	Effect     string    `json:"effect"`
	Frequency  Frequency `json:"frequency"`
	Management string    `json:"management,omitempty"`
}

type Cautions struct {
	Renal   string   `json:"renal,omitempty"`
	Hepatic string   `json:"hepatic,omitempty"`
	Cardiac string   `json:"cardiac,omitempty"`
	Seizure string   `json:"seizure,omitempty"`
	Bipolar string   `json:"bipolar,omitempty"`
	Other   []string `json:"other,omitempty"`
}

// Interaction is a partner drug declared by a medication record.
type Interaction struct {
	Drug           string   `json:"drug"`
	Severity       Severity `json:"severity"`
	Mechanism      string   `json:"mechanism"`
	Recommendation string   `json:"recommendation"`
}

type MonitoringItem struct {
	Parameter string `json:"parameter"`
	Baseline  bool   `json:"baseline"`
	FollowUp  string `json:"followUp"`
	Frequency string `json:"frequency"`
}

type TitrationStep struct {
	Week  int    `json:"week"`
	Dose  string `json:"dose"`
	Notes string `json:"notes,omitempty"`
}

type EquivalentDose struct {
	FromDrug string `json:"fromDrug"`
	FromDose string `json:"fromDose"`
	ToDose   string `json:"toDose"`
}

type Medication struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	GenericName       string            `json:"genericName"`
	Tags              []string          `json:"tags"`
	Class             DrugClass         `json:"class"`
	Indications       []string          `json:"indications"`
	QuickFlags        []QuickFlag       `json:"quickFlags"`
	Dosing            Dosing            `json:"dosing"`
	Warnings          []string          `json:"warnings"`
	SideEffects       []SideEffect      `json:"sideEffects"`
	Cautions          Cautions          `json:"cautions"`
	Interactions      []Interaction     `json:"interactions"`
	ClinicalPearls    []string          `json:"clinicalPearls"`
	Monitoring        []MonitoringItem  `json:"monitoring"`
	TitrationSchedule []TitrationStep   `json:"titrationSchedule,omitempty"`
	Equivalents       []EquivalentDose  `json:"equivalents,omitempty"`
	PregnancyCategory PregnancyCategory `json:"pregnancyCategory,omitempty"`
	QTRisk            QTRisk            `json:"qtRisk,omitempty"`
	Citations         []string          `json:"citations"`
	UpdatedAt         string            `json:"updatedAt"`
}

// HasFlag reports whether the medication carries flag.
func (m *Medication) HasFlag(flag QuickFlag) bool {
	for _, f := range m.QuickFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Validate checks identity fields and every closed enumeration.
func (m *Medication) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !oneOf(m.Class, drugClasses) {
		return fmt.Errorf("unknown drug class %q", m.Class)
	}
	for _, f := range m.QuickFlags {
		if !oneOf(f, quickFlags) {
			return fmt.Errorf("unknown quick flag %q", f)
		}
	}
	for _, se := range m.SideEffects {
		if !oneOf(se.Frequency, frequencies) {
			return fmt.Errorf("side effect %q: unknown frequency %q", se.Effect, se.Frequency)
		}
	}
	for _, in := range m.Interactions {
		if strings.TrimSpace(in.Drug) == "" {
			return fmt.Errorf("interaction without partner drug")
		}
		if !oneOf(in.Severity, severities) {
			return fmt.Errorf("interaction with %q: unknown severity %q", in.Drug, in.Severity)
		}
	}
	if m.PregnancyCategory != "" && !oneOf(m.PregnancyCategory, pregnancyCategories) {
		return fmt.Errorf("unknown pregnancy category %q", m.PregnancyCategory)
	}
	if m.QTRisk != "" && !oneOf(m.QTRisk, qtRisks) {
		return fmt.Errorf("unknown QT risk %q", m.QTRisk)
	}
	return nil
}

// =========== Guideline ===========

type Grade string

var grades = []Grade{"A", "B", "C", "D", "I"}

type Recommendation struct {
	Grade    Grade  `json:"grade" yaml:"grade"`
	Text     string `json:"text" yaml:"text"`
	Evidence string `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

type Section struct {
	Heading         string           `json:"heading"`
	Body            string           `json:"content"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// AlgorithmStep is one node of a treatment decision tree. A decision step
// carries Yes and No; an action step may carry Next or fall through to the
// following step.
type AlgorithmStep struct {
	ID          string   `json:"id" yaml:"id"`
	Text        string   `json:"text" yaml:"text"`
	Yes         string   `json:"yesStep,omitempty" yaml:"yes,omitempty"`
	No          string   `json:"noStep,omitempty" yaml:"no,omitempty"`
	Next        string   `json:"nextStep,omitempty" yaml:"next,omitempty"`
	Action      string   `json:"action,omitempty" yaml:"action,omitempty"`
	Medications []string `json:"medications,omitempty" yaml:"medications,omitempty"`
}

// IsDecision reports whether the step branches on a yes/no answer.
func (s AlgorithmStep) IsDecision() bool {
	return s.Yes != "" || s.No != ""
}

type Algorithm struct {
	ID    string          `json:"id" yaml:"id"`
	Name  string          `json:"name" yaml:"name"`
	Steps []AlgorithmStep `json:"steps" yaml:"steps"`
}

type Guideline struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Organization string      `json:"organization"`
	Year         int         `json:"year"`
	Version      string      `json:"version,omitempty"`
	Conditions   []string    `json:"conditions"`
	Sections     []Section   `json:"content"`
	Algorithms   []Algorithm `json:"algorithms,omitempty"`
	Citation     string      `json:"citation,omitempty"`
	URL          string      `json:"url,omitempty"`
	UpdatedAt    string      `json:"updatedAt"`
}

// Algorithm returns the algorithm with the given id.
func (g *Guideline) Algorithm(id string) (*Algorithm, bool) {
	for i := range g.Algorithms {
		if g.Algorithms[i].ID == id {
			return &g.Algorithms[i], true
		}
	}
	return nil, false
}

func (g *Guideline) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("title is required")
	}
	for _, s := range g.Sections {
		for _, r := range s.Recommendations {
			if !oneOf(r.Grade, grades) {
				return fmt.Errorf("section %q: unknown recommendation grade %q", s.Heading, r.Grade)
			}
		}
	}
	for _, a := range g.Algorithms {
		if a.ID == "" {
			return fmt.Errorf("algorithm without id")
		}
		ids := make(map[string]bool, len(a.Steps))
		for _, st := range a.Steps {
			if st.ID == "" {
				return fmt.Errorf("algorithm %q: step without id", a.ID)
			}
			if ids[st.ID] {
				return fmt.Errorf("algorithm %q: duplicate step %q", a.ID, st.ID)
			}
			ids[st.ID] = true
		}
		for _, st := range a.Steps {
			for _, ref := range []string{st.Yes, st.No, st.Next} {
				if ref != "" && !ids[ref] {
					return fmt.Errorf("algorithm %q: step %q references unknown step %q", a.ID, st.ID, ref)
				}
			}
		}
	}
	return nil
}

// =========== Diagnostic criteria ===========

type Category string

var categories = []Category{
	"Depressive", "Bipolar", "Anxiety", "Psychotic", "Trauma",
	"Obsessive-Compulsive", "Neurodevelopmental", "Substance", "Other",
}

type Criterion struct {
	Letter      string   `json:"letter"`
	Text        string   `json:"text"`
	Subcriteria []string `json:"subcriteria,omitempty"`
	Required    bool     `json:"required,omitempty"`
}

type Specifier struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ScreeningQuestion struct {
	Question          string `json:"question"`
	PositiveIndicator string `json:"positiveIndicator"`
}

type DiagnosticCriteria struct {
	ID                 string              `json:"id"`
	Disorder           string              `json:"disorder"`
	Code               string              `json:"code"`
	Category           Category            `json:"category"`
	Criteria           []Criterion         `json:"criteria"`
	Specifiers         []Specifier         `json:"specifiers,omitempty"`
	DifferentialDx     []string            `json:"differentialDx,omitempty"`
	ScreeningQuestions []ScreeningQuestion `json:"screeningQuestions,omitempty"`
	Notes              string              `json:"notes,omitempty"`
}

func (d *DiagnosticCriteria) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(d.Disorder) == "" {
		return fmt.Errorf("disorder is required")
	}
	if !oneOf(d.Category, categories) {
		return fmt.Errorf("unknown category %q", d.Category)
	}
	for _, c := range d.Criteria {
		if c.Letter == "" || c.Text == "" {
			return fmt.Errorf("criterion requires letter and text")
		}
	}
	return nil
}

// =========== Entity ===========

// Entity is the tagged union of the three reference kinds. Exactly the
// field named by Kind is set.
type Entity struct {
	Kind       Kind                `json:"kind"`
	Medication *Medication         `json:"medication,omitempty"`
	Guideline  *Guideline          `json:"guideline,omitempty"`
	Criteria   *DiagnosticCriteria `json:"criteria,omitempty"`
}

func (e Entity) ID() string {
	switch e.Kind {
	case KindMedication:
		return e.Medication.ID
	case KindGuideline:
		return e.Guideline.ID
	case KindCriteria:
		return e.Criteria.ID
	}
	return ""
}

// DisplayName is the primary label shown for the entity.
func (e Entity) DisplayName() string {
	switch e.Kind {
	case KindMedication:
		return e.Medication.Name
	case KindGuideline:
		return e.Guideline.Title
	case KindCriteria:
		return e.Criteria.Disorder
	}
	return ""
}

// Value returns the concrete record for JSON rendering.
func (e Entity) Value() any {
	switch e.Kind {
	case KindMedication:
		return e.Medication
	case KindGuideline:
		return e.Guideline
	case KindCriteria:
		return e.Criteria
	}
	return nil
}

func MedicationEntity(m *Medication) Entity { return Entity{Kind: KindMedication, Medication: m} }
func GuidelineEntity(g *Guideline) Entity   { return Entity{Kind: KindGuideline, Guideline: g} }
func CriteriaEntity(d *DiagnosticCriteria) Entity {
	return Entity{Kind: KindCriteria, Criteria: d}
}

func oneOf[T comparable](v T, allowed []T) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
