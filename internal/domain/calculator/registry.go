package calculator

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Options holds the setting-dependent cutoffs.
type Options struct {
	AuditCutoff   int
	PCPTSD5Cutoff int
}

func DefaultOptions() Options {
	return Options{AuditCutoff: 8, PCPTSD5Cutoff: 3}
}

func (o Options) validate() error {
	if o.AuditCutoff < 1 || o.AuditCutoff > 14 {
		return fmt.Errorf("AUDIT cutoff must be between 1 and 14, got %d", o.AuditCutoff)
	}
	if o.PCPTSD5Cutoff < 1 || o.PCPTSD5Cutoff > 5 {
		return fmt.Errorf("PC-PTSD-5 cutoff must be between 1 and 5, got %d", o.PCPTSD5Cutoff)
	}
	return nil
}

// Registry is the immutable set of available instruments.
type Registry struct {
	order []*Instrument
	byID  map[string]*Instrument
}

func NewRegistry(opts Options) (*Registry, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	r := &Registry{byID: make(map[string]*Instrument)}
	for _, inst := range instruments(opts) {
		if err := prepare(inst); err != nil {
			return nil, err
		}
		if _, dup := r.byID[inst.ID]; dup {
			return nil, fmt.Errorf("duplicate instrument id %q", inst.ID)
		}
		r.byID[inst.ID] = inst
		r.order = append(r.order, inst)
	}
	return r, nil
}

// prepare derives the score range of an item instrument and checks that
// its bands are ordered, contiguous and cover that range exactly. An
// instrument without bands gets one band spanning the range.
func prepare(inst *Instrument) error {
	if inst.Type != TypeItems {
		return nil
	}
	if len(inst.Items) == 0 {
		return fmt.Errorf("instrument %s has no items", inst.ID)
	}
	inst.MinScore, inst.MaxScore = 0, 0
	for i := range inst.Items {
		it := &inst.Items[i]
		if len(it.Options) > 0 {
			it.Min, it.Max = it.Options[0].Value, it.Options[0].Value
			for _, o := range it.Options {
				it.Min = min(it.Min, o.Value)
				it.Max = max(it.Max, o.Value)
			}
		}
		if it.Min > it.Max {
			return fmt.Errorf("instrument %s item %d has min %d above max %d", inst.ID, i+1, it.Min, it.Max)
		}
		inst.MinScore += it.Min
		inst.MaxScore += it.Max
	}
	if len(inst.Bands) == 0 {
		inst.Bands = []Band{{Min: inst.MinScore, Max: inst.MaxScore, Label: "Total score"}}
		return nil
	}
	want := inst.MinScore
	for i, b := range inst.Bands {
		if b.Min != want {
			return fmt.Errorf("instrument %s band %d starts at %d, want %d", inst.ID, i+1, b.Min, want)
		}
		if b.Max < b.Min {
			return fmt.Errorf("instrument %s band %d is empty", inst.ID, i+1)
		}
		want = b.Max + 1
	}
	if last := inst.Bands[len(inst.Bands)-1].Max; last != inst.MaxScore {
		return fmt.Errorf("instrument %s bands end at %d, want %d", inst.ID, last, inst.MaxScore)
	}
	return nil
}

// List returns instruments in catalog order, optionally narrowed to one
// category (case-insensitive).
func (r *Registry) List(category string) []*Instrument {
	out := make([]*Instrument, 0, len(r.order))
	for _, inst := range r.order {
		if category == "" || strings.EqualFold(inst.Category, category) {
			out = append(out, inst)
		}
	}
	return out
}

// Categories returns the distinct instrument categories, sorted.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, inst := range r.order {
		if !seen[inst.Category] {
			seen[inst.Category] = true
			out = append(out, inst.Category)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Get(id string) (*Instrument, error) {
	inst, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownInstrument)
	}
	return inst, nil
}

// Score validates and scores responses for the instrument id.
func (r *Registry) Score(id string, responses []float64) (*Result, error) {
	inst, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return inst.Score(responses)
}

// Score sums responses after validating every one of them, and maps the
// total to its band. Invalid input is rejected, never clamped.
func (inst *Instrument) Score(responses []float64) (*Result, error) {
	switch inst.Type {
	case TypeExternal:
		return nil, fmt.Errorf("%s: %w", inst.ID, ErrExternalInstrument)
	case TypeFormula:
		return nil, fmt.Errorf("%s: %w", inst.ID, ErrFormulaInstrument)
	}
	if len(responses) != len(inst.Items) {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("%s expects %d responses, got %d", inst.Name, len(inst.Items), len(responses)),
		}
	}
	values := make([]int, len(responses))
	for i, v := range responses {
		n, err := inst.Items[i].check(i, v)
		if err != nil {
			return nil, err
		}
		values[i] = n
	}

	total := 0
	for _, n := range values {
		total += n
	}
	res := &Result{InstrumentID: inst.ID, Total: total, MaxScore: inst.MaxScore, Note: inst.Note}
	if b, ok := inst.band(total); ok {
		res.Interpretation, res.Action = b.Label, b.Action
	}
	if inst.riskItem > 0 && values[inst.riskItem-1] > 0 {
		res.RiskFlag, res.RiskNote = true, inst.riskNote
	}
	return res, nil
}

func (it Item) check(i int, v float64) (int, error) {
	verr := func(reason string) error {
		return &ValidationError{Item: i + 1, Label: it.Label, Value: v, Reason: reason}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, verr("must be a number")
	}
	if v != math.Trunc(v) {
		return 0, verr("must be a whole number")
	}
	if v < float64(it.Min) || v > float64(it.Max) {
		return 0, verr(fmt.Sprintf("must be between %d and %d", it.Min, it.Max))
	}
	n := int(v)
	if !it.accepts(n) {
		vals := make([]string, len(it.Options))
		for j, o := range it.Options {
			vals[j] = fmt.Sprint(o.Value)
		}
		return 0, verr(fmt.Sprintf("must be one of %s", strings.Join(vals, ", ")))
	}
	return n, nil
}

func (inst *Instrument) band(total int) (Band, bool) {
	for _, b := range inst.Bands {
		if total >= b.Min && total <= b.Max {
			return b, true
		}
	}
	return Band{}, false
}
