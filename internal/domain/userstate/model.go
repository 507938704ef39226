package userstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrNotFound is returned by repositories for a key that holds no blob.
var ErrNotFound = errors.New("state not found")

// MaxRecent bounds the recently viewed log.
const MaxRecent = 50

// StateKey and RecentKey name the two blobs persisted per user.
func StateKey(user string) string  { return "medref-storage:" + user }
func RecentKey(user string) string { return "medref-recent:" + user }

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var themeCycle = []Theme{ThemeLight, ThemeDark, ThemeSystem}

func (t Theme) valid() bool { return slices.Contains(themeCycle, t) }

// Next returns the following theme in the light, dark, system cycle.
func (t Theme) Next() Theme {
	i := slices.Index(themeCycle, t)
	return themeCycle[(i+1)%len(themeCycle)]
}

type View string

const (
	ViewGrid View = "grid"
	ViewList View = "list"
)

type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)

type Settings struct {
	DefaultView    View     `json:"defaultView"`
	ShowQuickFlags bool     `json:"showQuickFlags"`
	CompactMode    bool     `json:"compactMode"`
	FontSize       FontSize `json:"fontSize"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultView:    ViewGrid,
		ShowQuickFlags: true,
		CompactMode:    false,
		FontSize:       FontMedium,
	}
}

func (s Settings) validate() error {
	if s.DefaultView != ViewGrid && s.DefaultView != ViewList {
		return fmt.Errorf("defaultView must be grid or list, got %q", s.DefaultView)
	}
	switch s.FontSize {
	case FontSmall, FontMedium, FontLarge:
	default:
		return fmt.Errorf("fontSize must be small, medium or large, got %q", s.FontSize)
	}
	return nil
}

// SettingsPatch is a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	DefaultView    *View     `json:"defaultView,omitempty"`
	ShowQuickFlags *bool     `json:"showQuickFlags,omitempty"`
	CompactMode    *bool     `json:"compactMode,omitempty"`
	FontSize       *FontSize `json:"fontSize,omitempty"`
}

// State is the persisted per-user blob.
type State struct {
	Theme     Theme             `json:"theme"`
	Favorites []string          `json:"favorites"`
	Notes     map[string]string `json:"notes"`
	Settings  Settings          `json:"settings"`
}

func NewState() *State {
	return &State{
		Theme:     ThemeSystem,
		Favorites: []string{},
		Notes:     map[string]string{},
		Settings:  DefaultSettings(),
	}
}

func (s *State) SetTheme(t Theme) error {
	if !t.valid() {
		return fmt.Errorf("theme must be light, dark or system, got %q", t)
	}
	s.Theme = t
	return nil
}

func (s *State) ToggleTheme() Theme {
	s.Theme = s.Theme.Next()
	return s.Theme
}

// AddFavorite appends id unless already present and reports whether it was
// added.
func (s *State) AddFavorite(id string) bool {
	if s.IsFavorite(id) {
		return false
	}
	s.Favorites = append(s.Favorites, id)
	return true
}

func (s *State) RemoveFavorite(id string) bool {
	i := slices.Index(s.Favorites, id)
	if i < 0 {
		return false
	}
	s.Favorites = slices.Delete(s.Favorites, i, i+1)
	return true
}

func (s *State) IsFavorite(id string) bool {
	return slices.Contains(s.Favorites, id)
}

// SetNote stores note for id. An empty note removes the entry, the same
// outcome as DeleteNote.
func (s *State) SetNote(id, note string) {
	if note == "" {
		delete(s.Notes, id)
		return
	}
	s.Notes[id] = note
}

func (s *State) DeleteNote(id string) {
	delete(s.Notes, id)
}

// UpdateSettings merges p into the settings. Nothing changes if the merged
// settings are invalid.
func (s *State) UpdateSettings(p SettingsPatch) error {
	next := s.Settings
	if p.DefaultView != nil {
		next.DefaultView = *p.DefaultView
	}
	if p.ShowQuickFlags != nil {
		next.ShowQuickFlags = *p.ShowQuickFlags
	}
	if p.CompactMode != nil {
		next.CompactMode = *p.CompactMode
	}
	if p.FontSize != nil {
		next.FontSize = *p.FontSize
	}
	if err := next.validate(); err != nil {
		return err
	}
	s.Settings = next
	return nil
}

func (s *State) ResetSettings() {
	s.Settings = DefaultSettings()
}

// Marshal encodes the state blob.
func Marshal(s *State) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a state blob. Missing fields take their defaults so a
// blob written by an older build still loads.
func Unmarshal(data []byte) (*State, error) {
	s := NewState()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if s.Theme == "" {
		s.Theme = ThemeSystem
	}
	if !s.Theme.valid() {
		return nil, fmt.Errorf("decode state: unknown theme %q", s.Theme)
	}
	if s.Favorites == nil {
		s.Favorites = []string{}
	}
	if s.Notes == nil {
		s.Notes = map[string]string{}
	}
	def := DefaultSettings()
	if s.Settings.DefaultView == "" {
		s.Settings.DefaultView = def.DefaultView
	}
	if s.Settings.FontSize == "" {
		s.Settings.FontSize = def.FontSize
	}
	if err := s.Settings.validate(); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}

// =========== Recent items ===========

type RecentType string

const (
	RecentMedication RecentType = "medication"
	RecentGuideline  RecentType = "guideline"
	RecentCriteria   RecentType = "criteria"
	RecentCalculator RecentType = "calculator"
)

func (t RecentType) valid() bool {
	switch t {
	case RecentMedication, RecentGuideline, RecentCriteria, RecentCalculator:
		return true
	}
	return false
}

type RecentItem struct {
	ID         string     `json:"id"`
	Type       RecentType `json:"type"`
	Name       string     `json:"name"`
	AccessedAt time.Time  `json:"accessedAt"`
}

func (r RecentItem) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !r.Type.valid() {
		return fmt.Errorf("type must be medication, guideline, criteria or calculator, got %q", r.Type)
	}
	return nil
}

// Recents is the recently viewed log, newest first.
type Recents []RecentItem

// Add puts item at the front, dropping an earlier entry with the same id
// and anything beyond MaxRecent.
func (rs Recents) Add(item RecentItem) Recents {
	out := make(Recents, 0, min(len(rs)+1, MaxRecent))
	out = append(out, item)
	for _, r := range rs {
		if len(out) == MaxRecent {
			break
		}
		if r.ID == item.ID {
			continue
		}
		out = append(out, r)
	}
	return out
}

func MarshalRecents(rs Recents) ([]byte, error) {
	if rs == nil {
		rs = Recents{}
	}
	return json.Marshal(rs)
}

func UnmarshalRecents(data []byte) (Recents, error) {
	rs := Recents{}
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode recent items: %w", err)
	}
	if len(rs) > MaxRecent {
		rs = rs[:MaxRecent]
	}
	return rs, nil
}
