package calculator

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	reg, err := NewRegistry(DefaultOptions())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return NewHandler(reg), echo.New()
}

func httpStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Score(t *testing.T) {
	h, e := newTestHandler(t)

	c, rec := postJSON(e, "/api/v1/calculators/phq9/score", `{"responses":[3,3,3,3,3,3,3,3,3]}`)
	c.SetParamNames("id")
	c.SetParamValues("phq9")

	if err := h.Score(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 27 || res.Interpretation != "Severe" || !res.RiskFlag {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestHandler_Score_NonNumericNamesItem(t *testing.T) {
	h, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/calculators/gad7/score", `{"responses":[0,0,"two",0,0,0,0]}`)
	c.SetParamNames("id")
	c.SetParamValues("gad7")

	err := h.Score(c)
	if httpStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if msg := err.(*echo.HTTPError).Message.(string); !strings.Contains(msg, "item 3") || !strings.Contains(msg, "Worrying too much") {
		t.Errorf("expected message naming item 3, got %q", msg)
	}
}

func TestHandler_Score_NullIsRejected(t *testing.T) {
	h, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/calculators/gad7/score", `{"responses":[0,null,0,0,0,0,0]}`)
	c.SetParamNames("id")
	c.SetParamValues("gad7")

	if err := h.Score(c); httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Score_Errors(t *testing.T) {
	h, e := newTestHandler(t)

	tests := []struct {
		id   string
		body string
		want int
	}{
		{"hamd", `{"responses":[]}`, http.StatusNotFound},
		{"moca", `{"responses":[]}`, http.StatusUnprocessableEntity},
		{"phq9", `{"responses":[1,2]}`, http.StatusBadRequest},
		{"phq9", `{"responses":[0,0,0,0,0,0,0,0,4]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		c, _ := postJSON(e, "/api/v1/calculators/"+tt.id+"/score", tt.body)
		c.SetParamNames("id")
		c.SetParamValues(tt.id)

		if got := httpStatus(h.Score(c)); got != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.id, tt.body, tt.want, got)
		}
	}
}

func TestHandler_CalculateBMI(t *testing.T) {
	h, e := newTestHandler(t)

	c, rec := postJSON(e, "/api/v1/calculators/bmi", `{"weight":70,"height":175}`)
	if err := h.CalculateBMI(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res BMIResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.BMI != 22.9 || res.Category != "Normal weight" {
		t.Errorf("unexpected result %+v", res)
	}

	c, _ = postJSON(e, "/api/v1/calculators/bmi", `{"weight":70,"height":0}`)
	if err := h.CalculateBMI(c); httpStatus(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for zero height, got %v", err)
	}
}

func TestHandler_ListAndGet(t *testing.T) {
	h, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calculators?category=Depression", nil)
	rec := httptest.NewRecorder()
	if err := h.ListInstruments(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var list struct {
		Data  []Instrument `json:"data"`
		Total int          `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || list.Data[0].ID != "phq9" {
		t.Errorf("expected only phq9, got %+v", list)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/calculators/ybocs", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("ybocs")
	if err := h.GetInstrument(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"restrictedText":true`) {
		t.Errorf("expected restricted text flag, got %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/calculators/nope", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")
	if err := h.GetInstrument(c); httpStatus(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
