package userstate

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestService(t *testing.T) (*Service, Repository) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := NewService(repo, testLogger())
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, repo
}

func TestService_DefaultsForNewUser(t *testing.T) {
	svc, _ := newTestService(t)

	snap, err := svc.Get(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, ThemeSystem, snap.Theme)
	assert.Empty(t, snap.Favorites)
	assert.Empty(t, snap.RecentItems)
	assert.Equal(t, DefaultSettings(), snap.Settings)
}

func TestService_MutationsPersist(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetTheme(ctx, "ana", ThemeDark)
	require.NoError(t, err)
	_, err = svc.AddFavorite(ctx, "ana", "sertraline")
	require.NoError(t, err)
	_, err = svc.AddFavorite(ctx, "ana", "sertraline")
	require.NoError(t, err)
	_, err = svc.SetNote(ctx, "ana", "sertraline", "start 25 mg")
	require.NoError(t, err)
	size := FontSmall
	st, err := svc.UpdateSettings(ctx, "ana", SettingsPatch{FontSize: &size})
	require.NoError(t, err)

	assert.Equal(t, ThemeDark, st.Theme)
	assert.Equal(t, []string{"sertraline"}, st.Favorites)
	assert.Equal(t, "start 25 mg", st.Notes["sertraline"])
	assert.Equal(t, FontSmall, st.Settings.FontSize)

	blob, err := repo.Load(ctx, StateKey("ana"))
	require.NoError(t, err)
	stored, err := Unmarshal(blob)
	require.NoError(t, err)
	assert.Equal(t, st, stored)

	other, err := svc.Get(ctx, "ben")
	require.NoError(t, err)
	assert.Empty(t, other.Favorites)
}

func TestService_FailedMutationWritesNothing(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetTheme(ctx, "ana", "sepia")
	require.Error(t, err)
	_, err = repo.Load(ctx, StateKey("ana"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ToggleAndReset(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	st, err := svc.ToggleTheme(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, st.Theme)

	_, err = svc.AddRecent(ctx, "ana", RecentItem{ID: "lithium", Type: RecentMedication, Name: "Lithium"})
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx, "ana"))

	snap, err := svc.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, ThemeSystem, snap.Theme)
	assert.Empty(t, snap.RecentItems)
}

func TestService_Recent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "a"} {
		_, err := svc.AddRecent(ctx, "ana", RecentItem{ID: id, Type: RecentGuideline, Name: id})
		require.NoError(t, err)
	}
	rs, err := svc.Recent(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "a", rs[0].ID)
	assert.True(t, rs[0].AccessedAt.After(rs[1].AccessedAt))

	_, err = svc.AddRecent(ctx, "ana", RecentItem{ID: "x", Type: "page"})
	assert.Error(t, err)

	require.NoError(t, svc.ClearRecent(ctx, "ana"))
	rs, err = svc.Recent(ctx, "ana")
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestService_UnreadableBlobFallsBackToDefaults(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, StateKey("ana"), []byte(`{"theme":`)))

	snap, err := svc.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, ThemeSystem, snap.Theme)

	st, err := svc.AddFavorite(ctx, "ana", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, st.Favorites)
}

func TestService_RequiresUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "")
	assert.Error(t, err)
	_, err = svc.AddFavorite(ctx, " ", "x")
	assert.Error(t, err)
	assert.Error(t, svc.Reset(ctx, ""))
}

type failingRepo struct{ Repository }

func (failingRepo) Save(context.Context, string, []byte) error { return errors.New("disk full") }

func TestService_SaveErrorPropagates(t *testing.T) {
	svc := NewService(failingRepo{NewMemoryRepo()}, testLogger())

	_, err := svc.AddFavorite(context.Background(), "ana", "x")
	assert.EqualError(t, err, "disk full")
}
