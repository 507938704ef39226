package userstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is the whole state of one user as served to clients.
type Snapshot struct {
	State
	RecentItems Recents `json:"recentItems"`
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func checkUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("user is required")
	}
	return nil
}

// loadState returns the stored state or defaults. An unreadable blob is
// logged and replaced by defaults on the next write.
func (s *Service) loadState(ctx context.Context, user string) (*State, error) {
	blob, err := s.repo.Load(ctx, StateKey(user))
	if errors.Is(err, ErrNotFound) {
		return NewState(), nil
	}
	if err != nil {
		return nil, err
	}
	st, err := Unmarshal(blob)
	if err != nil {
		s.logger.Warn().Err(err).Str("user", user).Msg("discarding unreadable user state")
		return NewState(), nil
	}
	return st, nil
}

func (s *Service) loadRecents(ctx context.Context, user string) (Recents, error) {
	blob, err := s.repo.Load(ctx, RecentKey(user))
	if errors.Is(err, ErrNotFound) {
		return Recents{}, nil
	}
	if err != nil {
		return nil, err
	}
	rs, err := UnmarshalRecents(blob)
	if err != nil {
		s.logger.Warn().Err(err).Str("user", user).Msg("discarding unreadable recent items")
		return Recents{}, nil
	}
	return rs, nil
}

// update applies fn to the user's state and persists the result. Nothing is
// written when fn fails.
func (s *Service) update(ctx context.Context, user string, fn func(*State) error) (*State, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadState(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	blob, err := Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	if err := s.repo.Save(ctx, StateKey(user), blob); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) Get(ctx context.Context, user string) (*Snapshot, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	st, err := s.loadState(ctx, user)
	if err != nil {
		return nil, err
	}
	rs, err := s.loadRecents(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Snapshot{State: *st, RecentItems: rs}, nil
}

func (s *Service) SetTheme(ctx context.Context, user string, t Theme) (*State, error) {
	return s.update(ctx, user, func(st *State) error { return st.SetTheme(t) })
}

func (s *Service) ToggleTheme(ctx context.Context, user string) (*State, error) {
	return s.update(ctx, user, func(st *State) error {
		st.ToggleTheme()
		return nil
	})
}

func (s *Service) AddFavorite(ctx context.Context, user, id string) (*State, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id is required")
	}
	return s.update(ctx, user, func(st *State) error {
		st.AddFavorite(id)
		return nil
	})
}

func (s *Service) RemoveFavorite(ctx context.Context, user, id string) (*State, error) {
	return s.update(ctx, user, func(st *State) error {
		st.RemoveFavorite(id)
		return nil
	})
}

func (s *Service) SetNote(ctx context.Context, user, id, note string) (*State, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id is required")
	}
	return s.update(ctx, user, func(st *State) error {
		st.SetNote(id, note)
		return nil
	})
}

func (s *Service) DeleteNote(ctx context.Context, user, id string) (*State, error) {
	return s.update(ctx, user, func(st *State) error {
		st.DeleteNote(id)
		return nil
	})
}

func (s *Service) UpdateSettings(ctx context.Context, user string, p SettingsPatch) (*State, error) {
	return s.update(ctx, user, func(st *State) error { return st.UpdateSettings(p) })
}

func (s *Service) ResetSettings(ctx context.Context, user string) (*State, error) {
	return s.update(ctx, user, func(st *State) error {
		st.ResetSettings()
		return nil
	})
}

func (s *Service) Recent(ctx context.Context, user string) (Recents, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	return s.loadRecents(ctx, user)
}

// AddRecent records a view of item, stamped with the current time.
func (s *Service) AddRecent(ctx context.Context, user string, item RecentItem) (Recents, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.AccessedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	rs, err := s.loadRecents(ctx, user)
	if err != nil {
		return nil, err
	}
	rs = rs.Add(item)
	blob, err := MarshalRecents(rs)
	if err != nil {
		return nil, fmt.Errorf("encode recent items: %w", err)
	}
	if err := s.repo.Save(ctx, RecentKey(user), blob); err != nil {
		return nil, err
	}
	return rs, nil
}

func (s *Service) ClearRecent(ctx context.Context, user string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Delete(ctx, RecentKey(user))
}

// Reset deletes everything stored for user.
func (s *Service) Reset(ctx context.Context, user string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Delete(ctx, StateKey(user), RecentKey(user)); err != nil {
		return err
	}
	s.logger.Info().Str("user", user).Msg("user state reset")
	return nil
}
