package calculator

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medref/medref/pkg/pagination"
)

type Handler struct {
	reg    *Registry
	onView func(c echo.Context, inst *Instrument)
}

func NewHandler(reg *Registry) *Handler {
	return &Handler{reg: reg}
}

// OnView registers a hook run after an instrument has been served.
func (h *Handler) OnView(fn func(c echo.Context, inst *Instrument)) {
	h.onView = fn
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/calculators", h.ListInstruments)
	api.GET("/calculators/categories", h.ListCategories)
	api.POST("/calculators/bmi", h.CalculateBMI)
	api.GET("/calculators/:id", h.GetInstrument)
	api.POST("/calculators/:id/score", h.Score)
}

func httpError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrUnknownInstrument):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrExternalInstrument), errors.Is(err, ErrFormulaInstrument):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) ListInstruments(c echo.Context) error {
	return c.JSON(http.StatusOK, pagination.Of(c, h.reg.List(c.QueryParam("category"))))
}

func (h *Handler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.reg.Categories())
}

func (h *Handler) GetInstrument(c echo.Context) error {
	inst, err := h.reg.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if h.onView != nil {
		h.onView(c, inst)
	}
	return c.JSON(http.StatusOK, inst)
}

type scoreRequest struct {
	Responses []json.RawMessage `json:"responses"`
}

// Score accepts {"responses": [...]} with one number per item. Responses are
// decoded one by one so a non-numeric entry is reported against its item.
func (h *Handler) Score(c echo.Context) error {
	inst, err := h.reg.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	var req scoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	values, err := decodeResponses(inst, req.Responses)
	if err != nil {
		return httpError(err)
	}
	res, err := inst.Score(values)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func decodeResponses(inst *Instrument, raw []json.RawMessage) ([]float64, error) {
	values := make([]float64, len(raw))
	for i, r := range raw {
		var v any
		if err := json.Unmarshal(r, &v); err == nil {
			if f, ok := v.(float64); ok {
				values[i] = f
				continue
			}
		}
		verr := &ValidationError{Item: i + 1, Reason: "must be a number"}
		if i < len(inst.Items) {
			verr.Label = inst.Items[i].Label
		}
		return nil, verr
	}
	return values, nil
}

func (h *Handler) CalculateBMI(c echo.Context) error {
	var in BMIInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := CalculateBMI(in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}
