package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
	"github.com/policardmed/carteirinha/internal/platform/cache"
	"github.com/policardmed/carteirinha/internal/platform/db"
)

// RoleCountsKey is the cache key holding a tenant's role counts. Any change
// to the users table drops it.
func RoleCountsKey(tenantID string) string {
	return "tenant:" + tenantID + ":stats:user-roles"
}

type Service struct {
	users  UserRepository
	hasher auth.PasswordHasher
	tokens *auth.Tokens
	cache  cache.Cache
}

func NewService(users UserRepository, hasher auth.PasswordHasher, tokens *auth.Tokens, c cache.Cache) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, cache: c}
}

// Authenticate checks a username/password pair. A wrong password yields
// (nil, nil); a missing user or an empty password is NotFound.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperr.NotFound("Password not provided for user with username %s", username)
	}
	if u.Password == "" {
		return nil, apperr.NotFound("User with username %s has no password set", username)
	}

	ok, err := s.hasher.Compare(u.Password, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return u, nil
}

// Login authenticates and issues a session token scoped to the request's
// tenant. It returns (nil, nil) on a password mismatch.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	u, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil || u == nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(auth.Principal{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		TenantID: db.TenantFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// Create adds an account with any role. It backs both public registration
// and seeding.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	role := auth.RolePatient
	if req.Role != "" {
		r, err := auth.ParseRole(req.Role)
		if err != nil {
			return nil, apperr.BadRequest("%v", err)
		}
		role = r
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &User{Username: req.Username, Name: req.Name, Password: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.invalidateRoleCounts(ctx)
	return u, nil
}

// Register is the public sign-up path; it refuses the admin role.
func (s *Service) Register(ctx context.Context, req CreateUserRequest) (*User, error) {
	if req.Role != "" {
		if r, err := auth.ParseRole(req.Role); err == nil && r == auth.RoleAdmin {
			return nil, apperr.Unauthorized("Registration as admin is not allowed.")
		}
	}
	return s.Create(ctx, req)
}

// Verify returns the caller's current profile.
func (s *Service) Verify(ctx context.Context, p *auth.Principal) (*User, error) {
	if p == nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	return s.users.GetByID(ctx, p.UserID)
}

func (s *Service) List(ctx context.Context, p *auth.Principal, limit, offset int) ([]*User, int, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, 0, err
	}
	return s.users.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*User, error) {
	if err := auth.EnsureSelfOrAdmin(p, id); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// Update merges req into the user. Only admins may change a role.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, req UpdateUserRequest) (*User, error) {
	if err := auth.EnsureSelfOrAdmin(p, id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		role, err := auth.ParseRole(*req.Role)
		if err != nil {
			return nil, apperr.BadRequest("%v", err)
		}
		if role != u.Role && !p.IsAdmin() {
			return nil, apperr.Unauthorized("Only admins can change roles.")
		}
		u.Role = role
	}
	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.invalidateRoleCounts(ctx)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if err := auth.EnsureAdmin(p); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateRoleCounts(ctx)
	return nil
}

// invalidateRoleCounts logs rather than returns cache failures; the entry
// expires on its own.
func (s *Service) invalidateRoleCounts(ctx context.Context) {
	tenant := db.TenantFromContext(ctx)
	if err := s.cache.Delete(ctx, RoleCountsKey(tenant)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("tenant", tenant).Msg("invalidate role counts")
	}
}
