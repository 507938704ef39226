package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying corpus for components that search it directly.
func (s *Service) Store() *Store { return s.store }

func (s *Service) GetAll(ctx context.Context, kind Kind) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetAll(kind), nil
}

func (s *Service) GetByID(ctx context.Context, kind Kind, id string) (Entity, error) {
	if err := ctx.Err(); err != nil {
		return Entity{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Entity{}, fmt.Errorf("id is required")
	}
	e, ok := s.store.GetByID(kind, id)
	if !ok {
		return Entity{}, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return e, nil
}

func (s *Service) GetMedication(ctx context.Context, id string) (*Medication, error) {
	e, err := s.GetByID(ctx, KindMedication, id)
	if err != nil {
		return nil, err
	}
	return e.Medication, nil
}

func (s *Service) GetGuideline(ctx context.Context, id string) (*Guideline, error) {
	e, err := s.GetByID(ctx, KindGuideline, id)
	if err != nil {
		return nil, err
	}
	return e.Guideline, nil
}

func (s *Service) GetCriteria(ctx context.Context, id string) (*DiagnosticCriteria, error) {
	e, err := s.GetByID(ctx, KindCriteria, id)
	if err != nil {
		return nil, err
	}
	return e.Criteria, nil
}

// SearchMedications returns medications passing f ranked against query.
func (s *Service) SearchMedications(ctx context.Context, query string, f MedicationFilter) ([]*Medication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := s.store.SearchMedications(query, f)
	out := make([]*Medication, len(hits))
	for i, h := range hits {
		out[i] = h.Item
	}
	return out, nil
}

func (s *Service) SearchGuidelines(ctx context.Context, query string, f GuidelineFilter) ([]*Guideline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := s.store.SearchGuidelines(query, f)
	out := make([]*Guideline, len(hits))
	for i, h := range hits {
		out[i] = h.Item
	}
	return out, nil
}

func (s *Service) SearchCriteria(ctx context.Context, query string, f CriteriaFilter) ([]*DiagnosticCriteria, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := s.store.SearchCriteria(query, f)
	out := make([]*DiagnosticCriteria, len(hits))
	for i, h := range hits {
		out[i] = h.Item
	}
	return out, nil
}

// Search ranks every requested kind against query.
func (s *Service) Search(ctx context.Context, query string, kinds ...Kind) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.SearchAll(query, kinds...), nil
}

func (s *Service) CheckInteractions(ctx context.Context, drugs []string) ([]InteractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.CheckInteractions(drugs), nil
}

// MedicationsByCondition returns medications with an indication containing
// condition.
func (s *Service) MedicationsByCondition(ctx context.Context, condition string) ([]*Medication, error) {
	if strings.TrimSpace(condition) == "" {
		return nil, fmt.Errorf("condition is required")
	}
	return s.SearchMedications(ctx, "", MedicationFilter{Indications: []string{condition}})
}

// Compare returns two or three medications side by side, in request order.
func (s *Service) Compare(ctx context.Context, ids []string) ([]*Medication, error) {
	var unique []string
	seen := make(map[string]bool)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) < 2 || len(unique) > 3 {
		return nil, fmt.Errorf("compare requires 2 or 3 distinct medication ids, got %d", len(unique))
	}
	out := make([]*Medication, 0, len(unique))
	for _, id := range unique {
		m, err := s.GetMedication(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Service) WalkAlgorithm(ctx context.Context, guidelineID, algorithmID string, answers []string) (*Walk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.WalkAlgorithm(guidelineID, algorithmID, answers)
}

// Facet is one distinct value of a field with the number of entities
// carrying it.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Organizations lists guideline organizations alphabetically.
func (s *Service) Organizations(ctx context.Context) ([]Facet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, g := range s.store.Guidelines() {
		if g.Organization != "" {
			counts[g.Organization]++
		}
	}
	out := make([]Facet, 0, len(counts))
	for v, n := range counts {
		out = append(out, Facet{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

// Categories lists every criteria category in declaration order, including
// those with no loaded entries.
func (s *Service) Categories(ctx context.Context) ([]Facet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[Category]int)
	for _, d := range s.store.Criteria() {
		counts[d.Category]++
	}
	out := make([]Facet, 0, len(categories))
	for _, c := range categories {
		out = append(out, Facet{Value: string(c), Count: counts[c]})
	}
	return out, nil
}

// Classes lists every drug class in declaration order.
func (s *Service) Classes(ctx context.Context) ([]Facet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[DrugClass]int)
	for _, m := range s.store.Medications() {
		counts[m.Class]++
	}
	out := make([]Facet, 0, len(drugClasses))
	for _, c := range drugClasses {
		out = append(out, Facet{Value: string(c), Count: counts[c]})
	}
	return out, nil
}
