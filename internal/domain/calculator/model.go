package calculator

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnknownInstrument is returned for an id that names no instrument.
	ErrUnknownInstrument = errors.New("unknown instrument")
	// ErrExternalInstrument is returned when scoring an instrument that is
	// administered with an external licensed tool.
	ErrExternalInstrument = errors.New("instrument is scored with an external tool")
	// ErrFormulaInstrument is returned when item scoring is requested for a
	// formula calculator such as BMI.
	ErrFormulaInstrument = errors.New("instrument is computed from a formula, not item responses")
)

// Type tells how an instrument produces its result.
type Type string

const (
	TypeItems    Type = "items"
	TypeFormula  Type = "formula"
	TypeExternal Type = "external"
)

// Option is one selectable answer of an item.
type Option struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Item is one scored question. When Options is set a response must equal
// one of the option values; otherwise any whole number in [Min, Max].
type Item struct {
	Label   string   `json:"label"`
	Min     int      `json:"min"`
	Max     int      `json:"max"`
	Options []Option `json:"options,omitempty"`
}

func (it Item) accepts(v int) bool {
	if len(it.Options) == 0 {
		return v >= it.Min && v <= it.Max
	}
	for _, o := range it.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Band maps an inclusive total range to an interpretation.
type Band struct {
	Min    int    `json:"min"`
	Max    int    `json:"max"`
	Label  string `json:"label"`
	Action string `json:"action,omitempty"`
}

type Instrument struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Type        Type   `json:"type"`
	Items       []Item `json:"items,omitempty"`
	Bands       []Band `json:"bands,omitempty"`
	MinScore    int    `json:"minScore"`
	MaxScore    int    `json:"maxScore"`
	// RestrictedText marks instruments whose item wording is licensed; their
	// labels are placeholders.
	RestrictedText bool   `json:"restrictedText"`
	URL            string `json:"url,omitempty"`
	Note           string `json:"note,omitempty"`
	Citation       string `json:"citation,omitempty"`

	// riskItem is the 1-based item whose positive response raises RiskFlag.
	riskItem int
	riskNote string
}

// Result is the outcome of scoring one set of responses.
type Result struct {
	InstrumentID   string `json:"instrumentId"`
	Total          int    `json:"total"`
	MaxScore       int    `json:"maxScore"`
	Interpretation string `json:"interpretation"`
	Action         string `json:"action,omitempty"`
	RiskFlag       bool   `json:"riskFlag"`
	RiskNote       string `json:"riskNote,omitempty"`
	Note           string `json:"note,omitempty"`
}

// ValidationError rejects one response. Item is 1-based; 0 means the
// response set as a whole.
type ValidationError struct {
	Item   int     `json:"item"`
	Label  string  `json:"label,omitempty"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Item == 0 {
		return e.Reason
	}
	if e.Label == "" {
		return fmt.Sprintf("item %d: %s", e.Item, e.Reason)
	}
	return fmt.Sprintf("item %d (%s): %s", e.Item, strconv.Quote(e.Label), e.Reason)
}
