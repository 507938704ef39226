package userstate

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medref/medref/internal/platform/auth"
	"github.com/medref/medref/internal/platform/middleware"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the state routes on a group that already carries
// the authentication middleware.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/state", h.GetState)
	api.DELETE("/state", h.ResetState)

	api.PUT("/state/theme", h.SetTheme)
	api.POST("/state/theme/toggle", h.ToggleTheme)

	api.PUT("/state/favorites/:id", h.AddFavorite)
	api.DELETE("/state/favorites/:id", h.RemoveFavorite)

	api.PUT("/state/notes/:id", h.SetNote)
	api.DELETE("/state/notes/:id", h.DeleteNote)

	api.PATCH("/state/settings", h.UpdateSettings)
	api.DELETE("/state/settings", h.ResetSettings)

	api.GET("/state/recent", h.ListRecent)
	api.POST("/state/recent", h.AddRecent)
	api.DELETE("/state/recent", h.ClearRecent)
}

func userID(c echo.Context) (string, error) {
	uid := auth.UserIDFromContext(c.Request().Context())
	if uid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "no authenticated user")
	}
	return uid, nil
}

// RecordView adds item to the requesting user's recent log. Anonymous
// requests are ignored and failures are only logged.
func (h *Handler) RecordView(c echo.Context, item RecentItem) {
	uid := auth.UserIDFromContext(c.Request().Context())
	if uid == "" {
		return
	}
	if _, err := h.svc.AddRecent(c.Request().Context(), uid, item); err != nil {
		h.logger.Warn().Err(err).Str("user", uid).Str("item", item.ID).Msg("failed to record recent item")
	}
}

func (h *Handler) GetState(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	snap, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) ResetState(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Reset(c.Request().Context(), uid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// mutate runs one state operation for the current user and renders the
// resulting state.
func (h *Handler) mutate(c echo.Context, fn func(uid string) (*State, error)) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	st, err := fn(uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

type themeRequest struct {
	Theme Theme `json:"theme"`
}

func (h *Handler) SetTheme(c echo.Context) error {
	var req themeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.mutate(c, func(uid string) (*State, error) {
		return h.svc.SetTheme(c.Request().Context(), uid, req.Theme)
	})
}

func (h *Handler) ToggleTheme(c echo.Context) error {
	return h.mutate(c, func(uid string) (*State, error) {
		return h.svc.ToggleTheme(c.Request().Context(), uid)
	})
}

func (h *Handler) AddFavorite(c echo.Context) error {
	return h.mutate(c, func(uid string) (*State, error) {
		return h.svc.AddFavorite(c.Request().Context(), uid, c.Param("id"))
	})
}

func (h *Handler) RemoveFavorite(c echo.Context) error {
	return h.mutate(c, func(uid string) (*State, error) {
		return h.svc.RemoveFavorite(c.Request().Context(), uid, c.Param("id"))
	})
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) SetNote(c echo.Context) error {
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.mutate(c, func(uid string) (*State, error) {
		return h.svc.SetNote(c.Request().Context(), uid, c.Param("id"), middleware.SanitizeString(req.Note))
	})
}

func (h *Handler) DeleteNote(c echo.Context) error {
	return h.mutate(c, func(uid string) (*State, error) {
		return h.svc.DeleteNote(c.Request().Context(), uid, c.Param("id"))
	})
}

func (h *Handler) UpdateSettings(c echo.Context) error {
	var p SettingsPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.mutate(c, func(uid string) (*State, error) {
		return h.svc.UpdateSettings(c.Request().Context(), uid, p)
	})
}

func (h *Handler) ResetSettings(c echo.Context) error {
	return h.mutate(c, func(uid string) (*State, error) {
		return h.svc.ResetSettings(c.Request().Context(), uid)
	})
}

func (h *Handler) ListRecent(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	rs, err := h.svc.Recent(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *Handler) AddRecent(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var item RecentItem
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rs, err := h.svc.AddRecent(c.Request().Context(), uid, item)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rs)
}

func (h *Handler) ClearRecent(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.svc.ClearRecent(c.Request().Context(), uid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
