package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/policardmed/carteirinha/internal/domain/account"
	"github.com/policardmed/carteirinha/internal/domain/payment"
	"github.com/policardmed/carteirinha/internal/platform/auth"
	"github.com/policardmed/carteirinha/internal/platform/cache"
	"github.com/policardmed/carteirinha/internal/platform/db"
)

const (
	roleCountsTTL = 30 * time.Second

	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

type Service struct {
	users    UserStats
	payments PaymentLister
	refunds  Refunder
	cache    cache.Cache
}

func NewService(users UserStats, payments PaymentLister, refunds Refunder, c cache.Cache) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{users: users, payments: payments, refunds: refunds, cache: c}
}

// GetUserRoleCounts counts subscribers and affiliates. Results are cached per
// tenant until a user changes or the TTL passes; a failing cache only costs
// the two count queries.
func (s *Service) GetUserRoleCounts(ctx context.Context, p *auth.Principal) (*RoleCounts, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}

	log := zerolog.Ctx(ctx)
	key := account.RoleCountsKey(db.TenantFromContext(ctx))

	var counts RoleCounts
	hit, err := cache.GetJSON(ctx, s.cache, key, &counts)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("read role counts from cache")
	}
	if hit {
		return &counts, nil
	}

	if counts.Subscriber, err = s.users.CountByRole(ctx, auth.RoleSubscriber); err != nil {
		return nil, err
	}
	if counts.Affiliate, err = s.users.CountByRole(ctx, auth.RoleAffiliate); err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, counts, roleCountsTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("store role counts in cache")
	}
	return &counts, nil
}

// GetRecentPayments returns the newest payments across all users.
func (s *Service) GetRecentPayments(ctx context.Context, p *auth.Principal, limit int) ([]*payment.Payment, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	return s.payments.ListRecent(ctx, limit)
}

// GetAllSubscriberPayments returns every payment owned by a subscriber,
// newest first.
func (s *Service) GetAllSubscriberPayments(ctx context.Context, p *auth.Principal) ([]*payment.Payment, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	ids, err := s.users.IDsByRole(ctx, auth.RoleSubscriber)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*payment.Payment{}, nil
	}
	return s.payments.ListByUsers(ctx, ids)
}

func (s *Service) RefundPayment(ctx context.Context, p *auth.Principal, id uuid.UUID) (*payment.Payment, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	return s.refunds.Refund(ctx, p, id)
}
