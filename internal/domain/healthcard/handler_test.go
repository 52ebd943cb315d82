package healthcard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/pkg/pagination"
)

func newTestHandler() (*Handler, *mockHealthCardRepo, *echo.Echo) {
	svc, repo := newTestService()
	return NewHandler(svc), repo, echo.New()
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_CreateHealthCard(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := repo.addPatient()

	body := `{"cardNumber":"HC0001","issueDate":"2024-01-01","expirationDate":"2025-01-01",
		"patient":{"id":"` + patientID.String() + `"}}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/health-cards", body), rec)

	if err := h.CreateHealthCard(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var hc HealthCard
	json.Unmarshal(rec.Body.Bytes(), &hc)
	if hc.Status != StatusActive || hc.PatientID != patientID {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_CreateHealthCard_BadBody(t *testing.T) {
	h, _, e := newTestHandler()

	c := e.NewContext(jsonRequest(http.MethodPost, "/health-cards", `{"cardNumber":`), httptest.NewRecorder())
	if err := h.CreateHealthCard(c); !apperr.IsBadRequest(err) {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestHandler_GetHealthCard(t *testing.T) {
	h, repo, e := newTestHandler()
	hc, _ := h.svc.Create(context.Background(), validRequest(repo.addPatient()))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(hc.ID.String())

	if err := h.GetHealthCard(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetHealthCard_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetHealthCard(c); !apperr.IsBadRequest(err) {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestHandler_ListByPatient(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := repo.addPatient()
	h.svc.Create(context.Background(), validRequest(patientID))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("patientId")
	c.SetParamValues(patientID.String())

	if err := h.ListByPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cards []HealthCard
	json.Unmarshal(rec.Body.Bytes(), &cards)
	if len(cards) != 1 {
		t.Errorf("expected 1 card, got %d", len(cards))
	}
}

func TestHandler_ListHealthCards(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := repo.addPatient()
	for _, number := range []string{"A1", "A2", "A3"} {
		req := validRequest(patientID)
		req.CardNumber = number
		h.svc.Create(context.Background(), req)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health-cards?limit=2", nil), rec)

	if err := h.ListHealthCards(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(pagination.TotalCountHeader) != "3" {
		t.Errorf("total = %q", rec.Header().Get(pagination.TotalCountHeader))
	}
	var cards []HealthCard
	json.Unmarshal(rec.Body.Bytes(), &cards)
	if len(cards) != 2 {
		t.Errorf("expected 2 cards on the page, got %d", len(cards))
	}
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	h, repo, e := newTestHandler()
	hc, _ := h.svc.Create(context.Background(), validRequest(repo.addPatient()))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, "/", `{"status":"inactive"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(hc.ID.String())
	if err := h.UpdateHealthCard(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"status":"inactive"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(hc.ID.String())
	if err := h.DeleteHealthCard(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	if err := h.DeleteHealthCard(c); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, _, e := newTestHandler()
	h.RegisterRoutes(e.Group(""))

	want := map[string]bool{
		"GET /health-cards":                    false,
		"GET /health-cards/patient/:patientId": false,
		"GET /health-cards/:id":                false,
		"POST /health-cards":                   false,
		"PATCH /health-cards/:id":              false,
		"DELETE /health-cards/:id":             false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}
}
