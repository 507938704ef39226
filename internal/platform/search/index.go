// Package search provides a weighted approximate-match index over
// in-memory collections and the query orchestration that combines it with
// structural filters.
package search

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

const (
	// Substring matches score in [substringFloor, 1).
	substringFloor = 0.9
	// Token-level fuzzy matches never reach substring scores.
	fuzzyCeiling = 0.89
	// Query tokens shorter than this do not earn prefix credit.
	minPrefixLen = 3
)

// Field describes one weighted text field of T.
type Field[T any] struct {
	Name   string
	Weight float64
	Values func(T) []string
}

// Options tunes an index. Threshold is the tolerated dissimilarity in
// (0,1]: an item matches when its best field similarity is at least
// 1 - Threshold.
type Options struct {
	Threshold float64
}

// Hit is one ranked search result.
type Hit[T any] struct {
	Item     T
	Score    float64
	Field    string
	Position int
}

// Index is an immutable weighted index over a snapshot of a collection.
// A changed collection requires a new Index.
type Index[T any] struct {
	items     []T
	fields    []Field[T]
	docs      [][][]text
	minSim    float64
	threshold float64
	maxWeight float64
}

// NewIndex normalizes every field value of every item once.
func NewIndex[T any](items []T, fields []Field[T], opts Options) *Index[T] {
	threshold := opts.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.4
	}
	idx := &Index[T]{
		items:     items,
		fields:    fields,
		docs:      make([][][]text, len(items)),
		minSim:    1 - threshold,
		threshold: threshold,
	}
	for _, f := range fields {
		if f.Weight > idx.maxWeight {
			idx.maxWeight = f.Weight
		}
	}
	for i, item := range items {
		perField := make([][]text, len(fields))
		for j, f := range fields {
			for _, v := range f.Values(item) {
				if t := newText(v); t.norm != "" {
					perField[j] = append(perField[j], t)
				}
			}
		}
		idx.docs[i] = perField
	}
	return idx
}

// Items returns the indexed collection in its original order.
func (x *Index[T]) Items() []T { return x.items }

// Len returns the number of indexed items.
func (x *Index[T]) Len() int { return len(x.items) }

// Threshold returns the configured dissimilarity tolerance.
func (x *Index[T]) Threshold() float64 { return x.threshold }

// Search ranks the whole collection against query.
func (x *Index[T]) Search(query string) []Hit[T] {
	positions := make([]int, len(x.items))
	for i := range positions {
		positions[i] = i
	}
	return x.SearchWithin(query, positions)
}

// SearchWithin ranks only the items at the given positions. A blank query
// returns every candidate in the given order with a zero score.
func (x *Index[T]) SearchWithin(query string, positions []int) []Hit[T] {
	q := newText(query)
	if q.norm == "" {
		hits := make([]Hit[T], 0, len(positions))
		for _, p := range positions {
			hits = append(hits, Hit[T]{Item: x.items[p], Position: p})
		}
		return hits
	}

	hits := make([]Hit[T], 0)
	for _, p := range positions {
		score, field, ok := x.score(q, p)
		if !ok {
			continue
		}
		hits = append(hits, Hit[T]{Item: x.items[p], Score: score, Field: field, Position: p})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
	return hits
}

func (x *Index[T]) score(q text, pos int) (float64, string, bool) {
	best, bestField, matched := 0.0, "", false
	for j, f := range x.fields {
		fieldBest := 0.0
		for _, v := range x.docs[pos][j] {
			if s := similarity(q, v); s > fieldBest {
				fieldBest = s
			}
		}
		if fieldBest < x.minSim {
			continue
		}
		matched = true
		weighted := fieldBest * f.Weight
		if x.maxWeight > 0 {
			weighted /= x.maxWeight
		}
		if weighted > best {
			best, bestField = weighted, f.Name
		}
	}
	return best, bestField, matched
}

// similarity scores how well q matches one field value, in [0,1].
func similarity(q, v text) float64 {
	if q.norm == "" || v.norm == "" {
		return 0
	}
	if q.norm == v.norm {
		return 1
	}
	if strings.Contains(v.norm, q.norm) {
		coverage := float64(len(q.norm)) / float64(len(v.norm))
		return substringFloor + (1-substringFloor)*coverage*0.99
	}

	var total float64
	for _, qt := range q.tokens {
		best := 0.0
		for _, vt := range v.tokens {
			if s := tokenSimilarity(qt, vt); s > best {
				best = s
			}
		}
		total += best
	}
	return fuzzyCeiling * total / float64(len(q.tokens))
}

func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) >= minPrefixLen && strings.HasPrefix(b, a) {
		return substringFloor
	}
	s, err := edlib.StringsSimilarity(a, b, edlib.OSADamerauLevenshtein)
	if err != nil {
		return 0
	}
	return float64(s)
}
