package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/policardmed/carteirinha/internal/domain/payment"
	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc), f, echo.New()
}

func adminContext(e *echo.Echo, method, target string, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, target, nil), rec)
	if p != nil {
		auth.SetPrincipal(c, p)
	}
	return c, rec
}

func TestHandler_GetUserRoleCounts(t *testing.T) {
	h, f, e := newTestHandler()
	f.users.counts[auth.RoleSubscriber] = 7

	c, rec := adminContext(e, http.MethodGet, "/admin/stats/user-roles", adminPrincipal)
	if err := h.GetUserRoleCounts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var counts map[string]int
	json.Unmarshal(rec.Body.Bytes(), &counts)
	if counts["subscriber"] != 7 || counts["affiliate"] != 0 {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_GetRecentPayments(t *testing.T) {
	h, f, e := newTestHandler()
	f.payments.payments = []*payment.Payment{{ID: uuid.New()}, {ID: uuid.New()}}

	c, rec := adminContext(e, http.MethodGet, "/admin/stats/recent-payments?limit=1", adminPrincipal)
	if err := h.GetRecentPayments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []payment.Payment
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 1 {
		t.Errorf("expected 1 payment, got %d", len(got))
	}

	c, _ = adminContext(e, http.MethodGet, "/admin/stats/recent-payments?limit=zero", adminPrincipal)
	if err := h.GetRecentPayments(c); !apperr.IsBadRequest(err) {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestHandler_GetSubscriberPayments_Empty(t *testing.T) {
	h, _, e := newTestHandler()

	c, rec := adminContext(e, http.MethodGet, "/admin/payments/subscriber", adminPrincipal)
	if err := h.GetSubscriberPayments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty array, got %q", body)
	}
}

func TestHandler_RefundPayment(t *testing.T) {
	h, f, e := newTestHandler()
	id := uuid.New()

	c, rec := adminContext(e, http.MethodPost, "/", adminPrincipal)
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	if err := h.RefundPayment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || len(f.refunds.calls) != 1 {
		t.Errorf("code %d, calls %v", rec.Code, f.refunds.calls)
	}

	c, _ = adminContext(e, http.MethodPost, "/", adminPrincipal)
	c.SetParamNames("id")
	c.SetParamValues("bogus")
	if err := h.RefundPayment(c); !apperr.IsBadRequest(err) {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestHandler_RefundPayment_UnknownVersusMalformed(t *testing.T) {
	h, f, e := newTestHandler()
	missing := uuid.New()
	f.refunds.err = apperr.NotFound("Payment with ID %q not found", missing)

	c, _ := adminContext(e, http.MethodPost, "/", adminPrincipal)
	c.SetParamNames("id")
	c.SetParamValues(missing.String())
	if err := h.RefundPayment(c); !apperr.IsNotFound(err) {
		t.Errorf("well-formed unknown id: expected not found, got %v", err)
	}

	// a malformed id never reaches the payment service
	calls := len(f.refunds.calls)
	c, _ = adminContext(e, http.MethodPost, "/", adminPrincipal)
	c.SetParamNames("id")
	c.SetParamValues("42")
	if err := h.RefundPayment(c); !apperr.IsBadRequest(err) {
		t.Errorf("malformed id: expected bad request, got %v", err)
	}
	if len(f.refunds.calls) != calls {
		t.Error("malformed id reached the refund service")
	}
}

func TestHandler_RoutesRequireAdmin(t *testing.T) {
	h, _, e := newTestHandler()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())
	g := e.Group("", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth.SetPrincipal(c, subscriberPrincipal)
			return next(c)
		}
	})
	h.RegisterRoutes(g)

	for _, target := range []string{"/admin/stats/user-roles", "/admin/stats/recent-payments", "/admin/payments/subscriber"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", target, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/payments/"+uuid.NewString()+"/refund", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refund: expected 401, got %d", rec.Code)
	}
}
