package payment

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/policardmed/carteirinha/internal/domain/account"
	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
	"github.com/policardmed/carteirinha/internal/platform/websocket"
)

// -- Mocks --

type mockPaymentRepo struct {
	payments map[uuid.UUID]*Payment
	users    map[uuid.UUID]*account.User
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{
		payments: make(map[uuid.UUID]*Payment),
		users:    make(map[uuid.UUID]*account.User),
	}
}

func (m *mockPaymentRepo) addUser(role auth.Role) *account.User {
	u := &account.User{ID: uuid.New(), Username: string(role) + "-" + uuid.NewString()[:8], Role: role}
	m.users[u.ID] = u
	return u
}

func (m *mockPaymentRepo) withUser(p *Payment) *Payment {
	cp := *p
	cp.User = m.users[p.UserID]
	return &cp
}

func (m *mockPaymentRepo) Create(_ context.Context, p *Payment) error {
	if _, ok := m.users[p.UserID]; !ok {
		return apperr.NotFound("User not found")
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, apperr.NotFound("Payment with ID %q not found", id)
	}
	return m.withUser(p), nil
}

func (m *mockPaymentRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*Payment, error) {
	return m.ListByUsers(context.Background(), []uuid.UUID{userID})
}

func (m *mockPaymentRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != from {
		return nil, apperr.Conflict("Payment with ID %q is no longer %s", id, from)
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	return m.withUser(p), nil
}

func (m *mockPaymentRepo) sorted(keep func(*Payment) bool) []*Payment {
	out := []*Payment{}
	for _, p := range m.payments {
		if keep(p) {
			out = append(out, m.withUser(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockPaymentRepo) ListRecent(_ context.Context, limit int) ([]*Payment, error) {
	out := m.sorted(func(*Payment) bool { return true })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockPaymentRepo) ListByUsers(_ context.Context, userIDs []uuid.UUID) ([]*Payment, error) {
	set := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		set[id] = true
	}
	return m.sorted(func(p *Payment) bool { return set[p.UserID] }), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e websocket.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type+" "+e.Topic)
	}
	return out
}

func newTestService() (*Service, *mockPaymentRepo, *recordingPublisher) {
	repo := newMockPaymentRepo()
	events := &recordingPublisher{}
	return NewService(repo, events), repo, events
}

func principalFor(u *account.User) *auth.Principal {
	return &auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role, TenantID: "acme"}
}

func createRequest(owner uuid.UUID, amount float64) CreateRequest {
	return CreateRequest{Amount: amount, User: &UserRef{ID: owner.String()}}
}

// seedPayment stores a payment directly in the given status.
func seedPayment(t *testing.T, repo *mockPaymentRepo, owner uuid.UUID, status Status) *Payment {
	t.Helper()
	p := &Payment{UserID: owner, Amount: 50, Status: status}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}

func TestStatus_Refundable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusCompleted, true},
		{StatusFailed, false},
	}
	for _, tt := range tests {
		if got := tt.status.Refundable(); got != tt.want {
			t.Errorf("%s.Refundable() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestService_Create_SubscriberForSelf(t *testing.T) {
	svc, repo, events := newTestService()
	sub := repo.addUser(auth.RoleSubscriber)

	pay, err := svc.Create(context.Background(), principalFor(sub), createRequest(sub.ID, 99.9))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pay.Status != StatusPending {
		t.Errorf("expected default pending, got %q", pay.Status)
	}
	if pay.User == nil || pay.User.ID != sub.ID {
		t.Error("expected owner to be attached")
	}

	got := events.types()
	want := []string{
		EventCreated + " " + websocket.TopicPayments,
		EventCreated + " " + websocket.UserTopic(sub.ID),
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
	if events.events[0].TenantID != "acme" || events.events[0].ResourceID != pay.ID.String() {
		t.Errorf("unexpected event %+v", events.events[0])
	}
	var data Payment
	if err := json.Unmarshal(events.events[0].Data, &data); err != nil || data.ID != pay.ID {
		t.Errorf("event data = %s", events.events[0].Data)
	}
}

func TestService_Create_SubscriberForOther(t *testing.T) {
	svc, repo, events := newTestService()
	sub := repo.addUser(auth.RoleSubscriber)
	other := repo.addUser(auth.RoleSubscriber)

	_, err := svc.Create(context.Background(), principalFor(sub), createRequest(other.ID, 10))
	if !apperr.IsUnauthorized(err) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	if len(repo.payments) != 0 || len(events.events) != 0 {
		t.Error("nothing should be stored or published")
	}
}

func TestService_Create_AdminForAnyone(t *testing.T) {
	svc, repo, _ := newTestService()
	admin := repo.addUser(auth.RoleAdmin)
	sub := repo.addUser(auth.RoleSubscriber)

	req := createRequest(sub.ID, 10)
	req.User = nil
	req.UserID = sub.ID.String()
	req.Status = string(StatusCompleted)

	pay, err := svc.Create(context.Background(), principalFor(admin), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pay.Status != StatusCompleted || pay.UserID != sub.ID {
		t.Errorf("unexpected payment %+v", pay)
	}
}

func TestService_Create_RoleRestricted(t *testing.T) {
	svc, repo, _ := newTestService()
	for _, role := range []auth.Role{auth.RolePatient, auth.RoleAffiliate} {
		u := repo.addUser(role)
		_, err := svc.Create(context.Background(), principalFor(u), createRequest(u.ID, 10))
		if !apperr.IsUnauthorized(err) {
			t.Errorf("%s: expected unauthorized, got %v", role, err)
		}
	}
	if _, err := svc.Create(context.Background(), nil, createRequest(uuid.New(), 10)); !apperr.IsUnauthorized(err) {
		t.Errorf("anonymous: expected unauthorized, got %v", err)
	}
}

func TestService_Create_Invalid(t *testing.T) {
	svc, repo, _ := newTestService()
	admin := repo.addUser(auth.RoleAdmin)

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"zero amount", createRequest(admin.ID, 0)},
		{"negative amount", createRequest(admin.ID, -5)},
		{"amount over column precision", createRequest(admin.ID, 1e12)},
		{"amount just over max", createRequest(admin.ID, MaxAmount+0.01)},
		{"fractional cents", createRequest(admin.ID, 10.005)},
		{"unknown status", CreateRequest{Amount: 1, Status: "refunded", UserID: admin.ID.String()}},
		{"missing owner", CreateRequest{Amount: 1}},
		{"owner not a uuid", CreateRequest{Amount: 1, UserID: "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), principalFor(admin), tt.req); !apperr.IsBadRequest(err) {
				t.Errorf("expected bad request, got %v", err)
			}
		})
	}
}

func TestCreateRequest_AmountBounds(t *testing.T) {
	owner := uuid.New()
	for _, amount := range []float64{0.01, 19.99, 1234.5, MaxAmount} {
		if err := createRequest(owner, amount).Validate(); err != nil {
			t.Errorf("%v: unexpected error %v", amount, err)
		}
	}
}

func TestService_Create_UnknownOwner(t *testing.T) {
	svc, repo, _ := newTestService()
	admin := repo.addUser(auth.RoleAdmin)

	_, err := svc.Create(context.Background(), principalFor(admin), createRequest(uuid.New(), 10))
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_FindOne(t *testing.T) {
	svc, repo, _ := newTestService()
	owner := repo.addUser(auth.RoleSubscriber)
	stranger := repo.addUser(auth.RoleSubscriber)
	admin := repo.addUser(auth.RoleAdmin)
	pay := seedPayment(t, repo, owner.ID, StatusPending)

	if _, err := svc.FindOne(context.Background(), principalFor(owner), pay.ID); err != nil {
		t.Errorf("owner: %v", err)
	}
	if _, err := svc.FindOne(context.Background(), principalFor(admin), pay.ID); err != nil {
		t.Errorf("admin: %v", err)
	}
	if _, err := svc.FindOne(context.Background(), principalFor(stranger), pay.ID); !apperr.IsUnauthorized(err) {
		t.Errorf("stranger: expected unauthorized, got %v", err)
	}
	if _, err := svc.FindOne(context.Background(), principalFor(admin), uuid.New()); !apperr.IsNotFound(err) {
		t.Errorf("missing: expected not found, got %v", err)
	}
}

func TestService_FindAllByUser(t *testing.T) {
	svc, repo, _ := newTestService()
	owner := repo.addUser(auth.RoleSubscriber)
	stranger := repo.addUser(auth.RoleSubscriber)
	seedPayment(t, repo, owner.ID, StatusPending)
	seedPayment(t, repo, owner.ID, StatusCompleted)
	seedPayment(t, repo, stranger.ID, StatusPending)

	got, err := svc.FindAllByUser(context.Background(), principalFor(owner), owner.ID)
	if err != nil {
		t.Fatalf("FindAllByUser: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 payments, got %d", len(got))
	}

	if _, err := svc.FindAllByUser(context.Background(), principalFor(stranger), owner.ID); !apperr.IsUnauthorized(err) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	svc, repo, events := newTestService()
	admin := repo.addUser(auth.RoleAdmin)
	owner := repo.addUser(auth.RoleSubscriber)
	pay := seedPayment(t, repo, owner.ID, StatusPending)

	updated, err := svc.UpdateStatus(context.Background(), principalFor(admin), pay.ID, "completed")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("status = %q", updated.Status)
	}
	if len(events.events) != 2 || events.events[0].Type != EventStatusChanged {
		t.Errorf("events = %v", events.types())
	}
}

func TestService_UpdateStatus_Rejections(t *testing.T) {
	svc, repo, _ := newTestService()
	admin := repo.addUser(auth.RoleAdmin)
	owner := repo.addUser(auth.RoleSubscriber)
	pending := seedPayment(t, repo, owner.ID, StatusPending)

	tests := []struct {
		name   string
		p      *auth.Principal
		id     uuid.UUID
		status string
		check  func(error) bool
	}{
		{"owner is not admin", principalFor(owner), pending.ID, "completed", apperr.IsUnauthorized},
		{"missing payment", principalFor(admin), uuid.New(), "completed", apperr.IsNotFound},
		{"unknown status", principalFor(admin), pending.ID, "refunded", apperr.IsBadRequest},
		{"empty status", principalFor(admin), pending.ID, "", apperr.IsBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UpdateStatus(context.Background(), tt.p, tt.id, tt.status); !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
	if repo.payments[pending.ID].Status != StatusPending {
		t.Error("rejected updates must not change the payment")
	}
}

func TestService_UpdateStatus_AnyKnownStatus(t *testing.T) {
	tests := []struct {
		from Status
		to   string
	}{
		{StatusCompleted, "pending"},
		{StatusFailed, "completed"},
		{StatusCompleted, "failed"},
		{StatusFailed, "pending"},
		{StatusPending, "pending"},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+tt.to, func(t *testing.T) {
			svc, repo, events := newTestService()
			admin := repo.addUser(auth.RoleAdmin)
			owner := repo.addUser(auth.RoleSubscriber)
			pay := seedPayment(t, repo, owner.ID, tt.from)

			updated, err := svc.UpdateStatus(context.Background(), principalFor(admin), pay.ID, tt.to)
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if updated.Status != Status(tt.to) || repo.payments[pay.ID].Status != Status(tt.to) {
				t.Errorf("status = %q, stored %q", updated.Status, repo.payments[pay.ID].Status)
			}
			if len(events.events) != 2 || events.events[0].Type != EventStatusChanged {
				t.Errorf("events = %v", events.types())
			}
		})
	}
}

func TestService_Refund(t *testing.T) {
	svc, repo, events := newTestService()
	admin := repo.addUser(auth.RoleAdmin)
	owner := repo.addUser(auth.RoleSubscriber)
	pay := seedPayment(t, repo, owner.ID, StatusCompleted)

	refunded, err := svc.Refund(context.Background(), principalFor(admin), pay.ID)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunded.Status != StatusFailed {
		t.Errorf("status = %q", refunded.Status)
	}
	if len(events.events) != 2 || events.events[1].Topic != websocket.UserTopic(owner.ID) || events.events[1].Type != EventRefunded {
		t.Errorf("events = %v", events.types())
	}

	_, err = svc.Refund(context.Background(), principalFor(admin), pay.ID)
	if !apperr.IsBadRequest(err) {
		t.Fatalf("second refund: expected bad request, got %v", err)
	}
	if want := `Payment with ID "` + pay.ID.String() + `" has already been refunded/failed.`; err.Error() != want {
		t.Errorf("message = %q", err.Error())
	}
}

func TestService_Refund_Rejections(t *testing.T) {
	svc, repo, events := newTestService()
	admin := repo.addUser(auth.RoleAdmin)
	owner := repo.addUser(auth.RoleSubscriber)
	pending := seedPayment(t, repo, owner.ID, StatusPending)
	completed := seedPayment(t, repo, owner.ID, StatusCompleted)

	if _, err := svc.Refund(context.Background(), principalFor(admin), pending.ID); !apperr.IsBadRequest(err) {
		t.Errorf("pending: expected bad request, got %v", err)
	}
	if _, err := svc.Refund(context.Background(), principalFor(admin), uuid.New()); !apperr.IsNotFound(err) {
		t.Errorf("missing: expected not found, got %v", err)
	}
	if _, err := svc.Refund(context.Background(), principalFor(owner), completed.ID); !apperr.IsUnauthorized(err) {
		t.Errorf("owner: expected unauthorized, got %v", err)
	}
	if repo.payments[completed.ID].Status != StatusCompleted {
		t.Error("unauthorized refund changed the payment")
	}
	if len(events.events) != 0 {
		t.Errorf("unexpected events %v", events.types())
	}
}

func TestService_NilPublisher(t *testing.T) {
	repo := newMockPaymentRepo()
	svc := NewService(repo, nil)
	sub := repo.addUser(auth.RoleSubscriber)

	if _, err := svc.Create(context.Background(), principalFor(sub), createRequest(sub.ID, 1)); err != nil {
		t.Fatalf("Create without publisher: %v", err)
	}
}
