package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/medref/medref/internal/platform/search"
)

// Options configures search tolerance per kind.
type Options struct {
	MedicationThreshold float64
	GuidelineThreshold  float64
	CriteriaThreshold   float64
}

func DefaultOptions() Options {
	return Options{MedicationThreshold: 0.4, GuidelineThreshold: 0.4, CriteriaThreshold: 0.3}
}

// Skipped is one record left out of the corpus.
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// KindReport summarises the load of one entity kind.
type KindReport struct {
	Loaded  int       `json:"loaded"`
	Skipped []Skipped `json:"skipped"`
	Error   string    `json:"error,omitempty"`
}

// LoadReport summarises a corpus load.
type LoadReport struct {
	Source   string               `json:"source"`
	LoadedAt time.Time            `json:"loadedAt"`
	Kinds    map[Kind]*KindReport `json:"kinds"`
}

// Total returns the number of entities loaded across kinds.
func (r LoadReport) Total() int {
	n := 0
	for _, k := range r.Kinds {
		n += k.Loaded
	}
	return n
}

// SkippedCount returns the number of records skipped across kinds.
func (r LoadReport) SkippedCount() int {
	n := 0
	for _, k := range r.Kinds {
		n += len(k.Skipped)
	}
	return n
}

// snapshot is one immutable generation of the corpus and its indexes.
type snapshot struct {
	meds       []*Medication
	guidelines []*Guideline
	criteria   []*DiagnosticCriteria

	medIndex       *search.Index[*Medication]
	guidelineIndex *search.Index[*Guideline]
	criteriaIndex  *search.Index[*DiagnosticCriteria]

	medByID       map[string]*Medication
	guidelineByID map[string]*Guideline
	criteriaByID  map[string]*DiagnosticCriteria

	report LoadReport
}

// Store holds the read-only reference corpus. Load populates it once;
// Reload replaces the whole generation, indexes included, in one atomic
// swap so readers never see a collection paired with a stale index.
type Store struct {
	source Source
	opts   Options
	logger zerolog.Logger

	loadMu sync.Mutex
	snap   atomic.Pointer[snapshot]
}

func NewStore(source Source, opts Options, logger zerolog.Logger) *Store {
	s := &Store{source: source, opts: opts, logger: logger}
	s.snap.Store(s.build(nil, nil, nil, LoadReport{Kinds: map[Kind]*KindReport{}}))
	return s
}

// Loaded reports whether a load has completed.
func (s *Store) Loaded() bool {
	return !s.snap.Load().report.LoadedAt.IsZero()
}

// Load populates the store from its source. Calls after the first
// successful load are no-ops returning the existing report.
func (s *Store) Load(ctx context.Context) (LoadReport, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.Loaded() {
		return s.snap.Load().report, nil
	}
	return s.load(ctx)
}

// Reload reads the source again and swaps in the new generation.
func (s *Store) Reload(ctx context.Context) (LoadReport, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.load(ctx)
}

// Report returns the report of the current generation.
func (s *Store) Report() LoadReport {
	return s.snap.Load().report
}

func (s *Store) load(ctx context.Context) (LoadReport, error) {
	report := LoadReport{Source: s.source.Name(), Kinds: make(map[Kind]*KindReport, len(Kinds))}
	var (
		meds       []*Medication
		guidelines []*Guideline
		criteria   []*DiagnosticCriteria
	)

	for _, kind := range Kinds {
		kr := &KindReport{Skipped: []Skipped{}}
		report.Kinds[kind] = kr

		records, err := s.source.Read(ctx, kind)
		if err != nil {
			if ctx.Err() != nil {
				return LoadReport{}, ctx.Err()
			}
			kr.Error = err.Error()
			s.logger.Error().Err(err).Str("kind", string(kind)).Str("source", report.Source).Msg("corpus kind unavailable")
			continue
		}

		seen := make(map[string]bool)
		skip := func(name, reason string) {
			kr.Skipped = append(kr.Skipped, Skipped{Name: name, Reason: reason})
			s.logger.Warn().Str("kind", string(kind)).Str("record", name).Str("reason", reason).Msg("skipping record")
		}
		dup := func(name, id string) bool {
			if seen[id] {
				skip(name, "duplicate id "+id)
				return true
			}
			seen[id] = true
			return false
		}

		for _, rec := range records {
			if rec.Err != nil {
				skip(rec.Name, rec.Err.Error())
				continue
			}
			switch kind {
			case KindMedication:
				parsed, issues := parseMedications(rec)
				for _, is := range issues {
					skip(is.Name, is.Reason)
				}
				for _, m := range parsed {
					if !dup(rec.Name, m.ID) {
						meds = append(meds, m)
					}
				}
			case KindGuideline:
				g, err := parseGuideline(rec)
				if err != nil {
					skip(rec.Name, err.Error())
					continue
				}
				if !dup(rec.Name, g.ID) {
					guidelines = append(guidelines, g)
				}
			case KindCriteria:
				parsed, issues := parseCriteria(rec)
				for _, is := range issues {
					skip(is.Name, is.Reason)
				}
				for _, d := range parsed {
					if !dup(rec.Name, d.ID) {
						criteria = append(criteria, d)
					}
				}
			}
		}
	}

	report.Kinds[KindMedication].Loaded = len(meds)
	report.Kinds[KindGuideline].Loaded = len(guidelines)
	report.Kinds[KindCriteria].Loaded = len(criteria)
	report.LoadedAt = time.Now().UTC()

	s.snap.Store(s.build(meds, guidelines, criteria, report))
	s.logger.Info().
		Str("source", report.Source).
		Int("medications", len(meds)).
		Int("guidelines", len(guidelines)).
		Int("criteria", len(criteria)).
		Int("skipped", report.SkippedCount()).
		Msg("corpus loaded")
	return report, nil
}

func (s *Store) build(meds []*Medication, guidelines []*Guideline, criteria []*DiagnosticCriteria, report LoadReport) *snapshot {
	if meds == nil {
		meds = []*Medication{}
	}
	if guidelines == nil {
		guidelines = []*Guideline{}
	}
	if criteria == nil {
		criteria = []*DiagnosticCriteria{}
	}
	snap := &snapshot{
		meds:           meds,
		guidelines:     guidelines,
		criteria:       criteria,
		medIndex:       search.NewIndex(meds, medicationFields, search.Options{Threshold: s.opts.MedicationThreshold}),
		guidelineIndex: search.NewIndex(guidelines, guidelineFields, search.Options{Threshold: s.opts.GuidelineThreshold}),
		criteriaIndex:  search.NewIndex(criteria, criteriaFields, search.Options{Threshold: s.opts.CriteriaThreshold}),
		medByID:        make(map[string]*Medication, len(meds)),
		guidelineByID:  make(map[string]*Guideline, len(guidelines)),
		criteriaByID:   make(map[string]*DiagnosticCriteria, len(criteria)),
		report:         report,
	}
	for _, m := range meds {
		snap.medByID[m.ID] = m
	}
	for _, g := range guidelines {
		snap.guidelineByID[g.ID] = g
	}
	for _, d := range criteria {
		snap.criteriaByID[d.ID] = d
	}
	return snap
}

// Medications returns the loaded medications in corpus order.
func (s *Store) Medications() []*Medication { return s.snap.Load().meds }

// Guidelines returns the loaded guidelines in corpus order.
func (s *Store) Guidelines() []*Guideline { return s.snap.Load().guidelines }

// Criteria returns the loaded diagnostic criteria in corpus order.
func (s *Store) Criteria() []*DiagnosticCriteria { return s.snap.Load().criteria }

// GetAll returns every entity of kind as tagged entities.
func (s *Store) GetAll(kind Kind) []Entity {
	snap := s.snap.Load()
	var out []Entity
	switch kind {
	case KindMedication:
		out = make([]Entity, 0, len(snap.meds))
		for _, m := range snap.meds {
			out = append(out, MedicationEntity(m))
		}
	case KindGuideline:
		out = make([]Entity, 0, len(snap.guidelines))
		for _, g := range snap.guidelines {
			out = append(out, GuidelineEntity(g))
		}
	case KindCriteria:
		out = make([]Entity, 0, len(snap.criteria))
		for _, d := range snap.criteria {
			out = append(out, CriteriaEntity(d))
		}
	}
	return out
}

// GetByID looks up one entity. A miss is reported with ok=false.
func (s *Store) GetByID(kind Kind, id string) (Entity, bool) {
	snap := s.snap.Load()
	switch kind {
	case KindMedication:
		if m, ok := snap.medByID[id]; ok {
			return MedicationEntity(m), true
		}
	case KindGuideline:
		if g, ok := snap.guidelineByID[id]; ok {
			return GuidelineEntity(g), true
		}
	case KindCriteria:
		if d, ok := snap.criteriaByID[id]; ok {
			return CriteriaEntity(d), true
		}
	}
	return Entity{}, false
}

func (s *Store) current() *snapshot { return s.snap.Load() }
