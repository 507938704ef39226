package search

import "github.com/medref/medref/internal/platform/filter"

// Run narrows the indexed collection with c and then ranks the surviving
// candidates against query. Items rejected by c are never scored, so a
// loose text match cannot bring them back.
func Run[T any](idx *Index[T], query string, c filter.Criteria[T]) []Hit[T] {
	positions := filter.Indices(idx.Items(), c)
	return idx.SearchWithin(query, positions)
}

// Items strips scores from hits.
func Items[T any](hits []Hit[T]) []T {
	out := make([]T, len(hits))
	for i, h := range hits {
		out[i] = h.Item
	}
	return out
}
