package patient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
)

func newTestHandler() (*Handler, *mockUserFinder, *echo.Echo) {
	svc, _, users := newTestService()
	return NewHandler(svc), users, echo.New()
}

func TestHandler_CreatePatient(t *testing.T) {
	h, users, e := newTestHandler()
	owner := users.add("patient")

	body := `{"firstName":"John","surName":"Doe","cpf":"116.001.947-96","birthDate":"1990-01-01",
		"medicalRecordNumber":"123456789","contractStartDate":"2023-01-01",
		"contractExpirationDate":"2024-01-01","contractType":"full_discount",
		"user":{"id":"` + owner.ID.String() + `"}}`
	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.CPF != "11600194796" || p.User == nil || p.User.Username != "patient" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_CreatePatient_InvalidCPF(t *testing.T) {
	h, users, e := newTestHandler()
	owner := users.add("patient")

	body := `{"firstName":"John","surName":"Doe","cpf":"123.456.789-00","birthDate":"1990-01-01",
		"medicalRecordNumber":"1","contractStartDate":"2023-01-01",
		"contractExpirationDate":"2024-01-01","contractType":"full_discount",
		"userId":"` + owner.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.CreatePatient(c)
	var appErr *apperr.Error
	if !apperr.IsBadRequest(err) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if !errors.As(err, &appErr) || appErr.Fields["cpf"] == "" {
		t.Errorf("expected cpf field error, got %+v", appErr)
	}
}

func TestHandler_GetPatientByCPF(t *testing.T) {
	h, users, e := newTestHandler()
	created, err := h.svc.Create(context.Background(), validRequest(users.add("a").ID))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("cpf")
	c.SetParamValues("116.001.947-96")

	if err := h.GetPatientByCPF(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.ID != created.ID {
		t.Errorf("expected %s, got %s", created.ID, p.ID)
	}
}

func TestHandler_GetPatient_BadID(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	if err := h.GetPatient(c); !apperr.IsBadRequest(err) {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, users, e := newTestHandler()
	h.svc.Create(context.Background(), validRequest(users.add("a").ID))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/patients", nil), rec)
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var list []Patient
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 || rec.Header().Get("X-Total-Count") != "1" {
		t.Errorf("unexpected list %s", rec.Body.String())
	}
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	h, users, e := newTestHandler()
	created, _ := h.svc.Create(context.Background(), validRequest(users.add("a").ID))

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"firstName":"Jonas"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"firstName":"Jonas"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
