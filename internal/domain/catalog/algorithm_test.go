package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepIDs(w *Walk) []string {
	out := make([]string, len(w.Path))
	for i, s := range w.Path {
		out[i] = s.ID
	}
	return out
}

func TestWalkAlgorithm(t *testing.T) {
	s := newFixtureStore(t)

	tests := []struct {
		name     string
		answers  []string
		path     []string
		complete bool
	}{
		{"no answers stops at first decision", nil, []string{"1", "2"}, false},
		{"responder", []string{"yes", "yes"}, []string{"1", "2", "3", "5"}, true},
		{"non-responder", []string{"Y", "n"}, []string{"1", "2", "3", "6"}, true},
		{"optimize loops back", []string{"no"}, []string{"1", "2", "4", "2"}, false},
		{"optimize then respond", []string{"no", "yes", "yes"}, []string{"1", "2", "4", "2", "3", "5"}, true},
		{"extra answers are ignored", []string{"yes", "yes", "no"}, []string{"1", "2", "3", "5"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := s.WalkAlgorithm("canmat-mdd", "mdd", tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.path, stepIDs(w))
			assert.Equal(t, tt.complete, w.Complete)
		})
	}
}

func TestWalkAlgorithm_RecordsAnswers(t *testing.T) {
	s := newFixtureStore(t)

	w, err := s.WalkAlgorithm("canmat-mdd", "mdd", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "", w.Path[0].Answer)
	assert.Equal(t, "yes", w.Path[1].Answer)
	assert.Equal(t, "no", w.Path[2].Answer)
	assert.Equal(t, "Second-line", w.Current().Action)
}

func TestWalkAlgorithm_Errors(t *testing.T) {
	s := newFixtureStore(t)

	_, err := s.WalkAlgorithm("missing", "mdd", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.WalkAlgorithm("canmat-mdd", "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.WalkAlgorithm("canmat-mdd", "mdd", []string{"maybe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be yes or no")
}

func TestWalk_LoopWithoutDecision(t *testing.T) {
	alg := &Algorithm{ID: "loop", Steps: []AlgorithmStep{
		{ID: "a", Text: "A", Next: "b"},
		{ID: "b", Text: "B", Next: "a"},
	}}
	_, err := walk("g", alg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loops without a decision")
}

func TestWalk_FallsThroughPlainSteps(t *testing.T) {
	alg := &Algorithm{ID: "linear", Steps: []AlgorithmStep{
		{ID: "a", Text: "Assess"},
		{ID: "b", Text: "Treat", Action: "Start"},
		{ID: "c", Text: "Review"},
	}}
	w, err := walk("g", alg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, stepIDs(w))
	assert.True(t, w.Complete)
}
