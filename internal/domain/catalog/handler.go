package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medref/medref/internal/platform/export"
	"github.com/medref/medref/pkg/pagination"
)

// ViewHook is notified after a single entity has been served.
type ViewHook func(c echo.Context, e Entity)

type Handler struct {
	svc    *Service
	onView ViewHook
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// OnView registers a hook run after each successful single-entity read.
func (h *Handler) OnView(fn ViewHook) {
	h.onView = fn
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/search", h.Search)

	api.GET("/medications", h.ListMedications)
	api.GET("/medications/export.xlsx", h.ExportMedications)
	api.GET("/medications/by-condition", h.MedicationsByCondition)
	api.GET("/medications/compare", h.CompareMedications)
	api.GET("/medications/classes", h.ListClasses)
	api.GET("/medications/:id", h.GetMedication)

	api.GET("/guidelines", h.ListGuidelines)
	api.GET("/guidelines/export.xlsx", h.ExportGuidelines)
	api.GET("/guidelines/organizations", h.ListOrganizations)
	api.GET("/guidelines/:id", h.GetGuideline)
	api.POST("/guidelines/:id/algorithms/:algorithmId/walk", h.WalkAlgorithm)

	api.GET("/criteria", h.ListCriteria)
	api.GET("/criteria/export.xlsx", h.ExportCriteria)
	api.GET("/criteria/categories", h.ListCategories)
	api.GET("/criteria/:id", h.GetCriteria)

	api.POST("/interactions", h.CheckInteractions)
}

// listParam collects a multi-valued query parameter given either as
// repeated keys or as one comma-separated value.
func listParam(c echo.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryParams()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func toEnum[T ~string](values []string) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}

func intParam(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return n, nil
}

func httpError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) viewed(c echo.Context, e Entity) {
	if h.onView != nil {
		h.onView(c, e)
	}
}

func xlsx(c echo.Context, filename string, tables []export.Table) error {
	data, err := export.Workbook(tables...)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Blob(http.StatusOK, export.ContentType, data)
}

func (h *Handler) Search(c echo.Context) error {
	var kinds []Kind
	for _, k := range listParam(c, "kind") {
		kind, err := ParseKind(k)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		kinds = append(kinds, kind)
	}
	results, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"), kinds...)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Of(c, results))
}

// -- Medication Handlers --

func medicationFilter(c echo.Context) MedicationFilter {
	return MedicationFilter{
		Classes:             toEnum[DrugClass](listParam(c, "class")),
		Flags:               toEnum[QuickFlag](listParam(c, "flag")),
		Indications:         listParam(c, "indication"),
		PregnancyCategories: toEnum[PregnancyCategory](listParam(c, "pregnancy")),
		QTRisks:             toEnum[QTRisk](listParam(c, "qt_risk")),
	}
}

func (h *Handler) ListMedications(c echo.Context) error {
	meds, err := h.svc.SearchMedications(c.Request().Context(), c.QueryParam("q"), medicationFilter(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Of(c, meds))
}

func (h *Handler) ExportMedications(c echo.Context) error {
	meds, err := h.svc.SearchMedications(c.Request().Context(), c.QueryParam("q"), medicationFilter(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return xlsx(c, "medications.xlsx", MedicationTables(meds))
}

func (h *Handler) MedicationsByCondition(c echo.Context) error {
	meds, err := h.svc.MedicationsByCondition(c.Request().Context(), c.QueryParam("condition"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.Of(c, meds))
}

func (h *Handler) CompareMedications(c echo.Context) error {
	meds, err := h.svc.Compare(c.Request().Context(), listParam(c, "ids"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) ListClasses(c echo.Context) error {
	facets, err := h.svc.Classes(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, facets)
}

func (h *Handler) GetMedication(c echo.Context) error {
	m, err := h.svc.GetMedication(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	h.viewed(c, MedicationEntity(m))
	return c.JSON(http.StatusOK, m)
}

// -- Guideline Handlers --

func guidelineFilter(c echo.Context) (GuidelineFilter, error) {
	from, err := intParam(c, "year_from")
	if err != nil {
		return GuidelineFilter{}, err
	}
	to, err := intParam(c, "year_to")
	if err != nil {
		return GuidelineFilter{}, err
	}
	return GuidelineFilter{
		Organizations: listParam(c, "organization"),
		Conditions:    listParam(c, "condition"),
		YearFrom:      from,
		YearTo:        to,
	}, nil
}

func (h *Handler) ListGuidelines(c echo.Context) error {
	f, err := guidelineFilter(c)
	if err != nil {
		return err
	}
	guidelines, err := h.svc.SearchGuidelines(c.Request().Context(), c.QueryParam("q"), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Of(c, guidelines))
}

func (h *Handler) ExportGuidelines(c echo.Context) error {
	f, err := guidelineFilter(c)
	if err != nil {
		return err
	}
	guidelines, err := h.svc.SearchGuidelines(c.Request().Context(), c.QueryParam("q"), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return xlsx(c, "guidelines.xlsx", GuidelineTables(guidelines))
}

func (h *Handler) ListOrganizations(c echo.Context) error {
	facets, err := h.svc.Organizations(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, facets)
}

func (h *Handler) GetGuideline(c echo.Context) error {
	g, err := h.svc.GetGuideline(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	h.viewed(c, GuidelineEntity(g))
	return c.JSON(http.StatusOK, g)
}

type walkRequest struct {
	Answers []string `json:"answers"`
}

func (h *Handler) WalkAlgorithm(c echo.Context) error {
	var req walkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w, err := h.svc.WalkAlgorithm(c.Request().Context(), c.Param("id"), c.Param("algorithmId"), req.Answers)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, w)
}

// -- Criteria Handlers --

func criteriaFilter(c echo.Context) CriteriaFilter {
	return CriteriaFilter{
		Categories: toEnum[Category](listParam(c, "category")),
		CodePrefix: c.QueryParam("code"),
	}
}

func (h *Handler) ListCriteria(c echo.Context) error {
	criteria, err := h.svc.SearchCriteria(c.Request().Context(), c.QueryParam("q"), criteriaFilter(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Of(c, criteria))
}

func (h *Handler) ExportCriteria(c echo.Context) error {
	criteria, err := h.svc.SearchCriteria(c.Request().Context(), c.QueryParam("q"), criteriaFilter(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return xlsx(c, "criteria.xlsx", CriteriaTables(criteria))
}

func (h *Handler) ListCategories(c echo.Context) error {
	facets, err := h.svc.Categories(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, facets)
}

func (h *Handler) GetCriteria(c echo.Context) error {
	d, err := h.svc.GetCriteria(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	h.viewed(c, CriteriaEntity(d))
	return c.JSON(http.StatusOK, d)
}

// -- Interaction Handlers --

type interactionRequest struct {
	Drugs []string `json:"drugs"`
}

type interactionResponse struct {
	Drugs        []string            `json:"drugs"`
	Interactions []InteractionResult `json:"interactions"`
}

func (h *Handler) CheckInteractions(c echo.Context) error {
	var req interactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	results, err := h.svc.CheckInteractions(c.Request().Context(), req.Drugs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	drugs := req.Drugs
	if drugs == nil {
		drugs = []string{}
	}
	return c.JSON(http.StatusOK, interactionResponse{Drugs: drugs, Interactions: results})
}
