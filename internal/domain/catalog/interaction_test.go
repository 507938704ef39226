package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInteractions_FewerThanTwoDrugs(t *testing.T) {
	s := newFixtureStore(t)

	assert.Empty(t, s.CheckInteractions(nil))
	assert.Empty(t, s.CheckInteractions([]string{"Sertraline"}))
	assert.Empty(t, s.CheckInteractions([]string{"Sertraline", "sertraline", "  "}))
	assert.NotNil(t, s.CheckInteractions([]string{"Sertraline"}))
}

func TestCheckInteractions_PairEmittedOnce(t *testing.T) {
	s := newFixtureStore(t)

	// Both drugs declare each other.
	got := s.CheckInteractions([]string{"Sertraline", "Phenelzine"})
	require.Len(t, got, 1)
	assert.Equal(t, InteractionResult{
		Drug1:          "Sertraline",
		Drug2:          "Phenelzine",
		Severity:       SeverityContraindicated,
		Mechanism:      "Serotonin syndrome",
		Recommendation: "Do not combine",
	}, got[0])

	// Selection order does not change the outcome.
	rev := s.CheckInteractions([]string{"Phenelzine", "Sertraline"})
	require.Len(t, rev, 1)
	assert.Equal(t, SeverityContraindicated, rev[0].Severity)
}

func TestCheckInteractions_OneSidedDeclaration(t *testing.T) {
	s := newFixtureStore(t)

	got := s.CheckInteractions([]string{"Quetiapine", "Lithium"})
	require.Len(t, got, 1)
	assert.Equal(t, "Lithium", got[0].Drug1)
	assert.Equal(t, "Quetiapine", got[0].Drug2)
	assert.Equal(t, SeverityMinor, got[0].Severity)
}

func TestCheckInteractions_DrugOutsideCorpus(t *testing.T) {
	s := newFixtureStore(t)

	got := s.CheckInteractions([]string{"lithium", "ibuprofen"})
	require.Len(t, got, 1)
	assert.Equal(t, "Lithium", got[0].Drug1)
	assert.Equal(t, "ibuprofen", got[0].Drug2)
	assert.Equal(t, SeverityMajor, got[0].Severity)
}

func TestCheckInteractions_ResolvesGenericNames(t *testing.T) {
	s := newFixtureStore(t)

	got := s.CheckInteractions([]string{"Zoloft", "Nardil"})
	require.Len(t, got, 1)
	assert.Equal(t, "Sertraline", got[0].Drug1)
	assert.Equal(t, "Phenelzine", got[0].Drug2)
}

func TestCheckInteractions_OrderedBySeverity(t *testing.T) {
	s := newFixtureStore(t)

	got := s.CheckInteractions([]string{"Lithium", "Quetiapine", "Sertraline", "Phenelzine"})
	require.Len(t, got, 2)
	assert.Equal(t, SeverityContraindicated, got[0].Severity)
	assert.Equal(t, SeverityMinor, got[1].Severity)
}

func TestCheckInteractions_NoDeclaredInteraction(t *testing.T) {
	s := newFixtureStore(t)

	assert.Empty(t, s.CheckInteractions([]string{"Quetiapine", "Sertraline"}))
}
