package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/apperr"
	"pondok-keuangan/internal/cache"
	"pondok-keuangan/internal/config"
	"pondok-keuangan/internal/models"
	"pondok-keuangan/internal/repository"
	"pondok-keuangan/internal/utils"
)

// SessionStore keeps revoked token ids and carries session events.
type SessionStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	PublishSessionEvent(ctx context.Context, ev cache.SessionEvent) error
	SubscribeSessionEvents(ctx context.Context) (<-chan cache.SessionEvent, error)
}

// Session is a signed-in user and the bearer token that identifies them.
type Session struct {
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	ExpiresAt   time.Time           `json:"expires_at"`
	User        *models.UserProfile `json:"user"`
}

func (s *Session) Caller() models.Caller {
	return s.User.Caller()
}

type AuthService struct {
	repo     *repository.Repository
	sessions SessionStore
	cfg      *config.Config
	logger   *logrus.Logger
	now      func() time.Time
}

func NewAuthService(repo *repository.Repository, sessions SessionStore, cfg *config.Config, logger *logrus.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AuthService) SignIn(ctx context.Context, req models.LoginRequest) (*Session, error) {
	user, err := s.repo.UserProfile.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		s.logger.WithError(err).Error("Failed to load user profile")
		return nil, apperr.Persistence("load_user", err)
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, invalidCredentials()
	}

	now := s.now()
	token, claims, err := utils.GenerateAccessToken(user.ID, string(user.Role), user.PondokID,
		s.cfg.JWTSecret, s.cfg.JWTAccessExpire, now)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to sign access token")
		return nil, apperr.Persistence("sign_token", err)
	}

	s.publish(ctx, cache.SessionEvent{Type: cache.SessionSignedIn, UserID: user.ID, At: now})
	s.logger.WithField("user_id", user.ID).Info("User signed in")
	return &Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user,
	}, nil
}

// SignOut revokes the token for the rest of its lifetime. Signing out with
// a token that is already invalid is not an error.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := utils.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.sessions.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to revoke token")
		return apperr.Persistence("revoke_token", err)
	}

	s.publish(ctx, cache.SessionEvent{Type: cache.SessionSignedOut, UserID: claims.UserID, At: s.now()})
	s.logger.WithField("user_id", claims.UserID).Info("User signed out")
	return nil
}

// CurrentSession resolves a bearer token to its session. It returns nil
// without an error when the token is missing, invalid, expired or revoked.
// The profile is reloaded so role and pondok changes apply immediately.
func (s *AuthService) CurrentSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := utils.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil
	}

	revoked, err := s.sessions.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check token revocation")
		return nil, apperr.Persistence("check_token", err)
	}
	if revoked {
		return nil, nil
	}

	user, err := s.repo.UserProfile.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to load user profile")
		return nil, apperr.Persistence("load_user", err)
	}

	return &Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user,
	}, nil
}

// CreateUserProfile adds an admin_pusat or admin_pondok account. Only admin
// pusat may create accounts.
func (s *AuthService) CreateUserProfile(ctx context.Context, caller models.Caller, req models.CreateUserRequest) (*models.UserProfile, error) {
	if !caller.IsPusat() {
		return nil, apperr.Forbidden("pusat_only", "only admin pusat can create accounts")
	}
	user, err := s.createUser(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
		"by":      caller.UserID,
	}).Info("User created successfully")
	return user, nil
}

// BootstrapAdmin creates the first admin_pusat when no account uses email
// yet. It reports whether an account was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, nama, email, password string) (*models.UserProfile, bool, error) {
	existing, err := s.repo.UserProfile.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		if existing.Role != models.RoleAdminPusat {
			return nil, false, apperr.Validation("email_taken", "email belongs to a pondok admin",
				apperr.FieldError{Field: "email", Error: "already registered"})
		}
		return existing, false, nil
	}
	if !errors.Is(err, apperr.ErrRecordNotFound) {
		s.logger.WithError(err).Error("Failed to load user profile")
		return nil, false, apperr.Persistence("load_user", err)
	}

	user, err := s.createUser(ctx, models.CreateUserRequest{
		Nama:     nama,
		Email:    email,
		Password: password,
		Role:     models.RoleAdminPusat,
	})
	if err != nil {
		return nil, false, err
	}
	s.logger.WithField("user_id", user.ID).Info("Admin pusat bootstrapped")
	return user, true, nil
}

func (s *AuthService) createUser(ctx context.Context, req models.CreateUserRequest) (*models.UserProfile, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var pondokID *string
	switch req.Role {
	case models.RoleAdminPondok:
		if req.PondokID == nil || strings.TrimSpace(*req.PondokID) == "" {
			return nil, apperr.Validation("pondok_required", "admin pondok needs a pondok",
				apperr.FieldError{Field: "pondok_id", Error: "required"})
		}
		id := strings.TrimSpace(*req.PondokID)
		if _, err := s.repo.Pondok.FindByID(ctx, id); err != nil {
			if errors.Is(err, apperr.ErrRecordNotFound) {
				return nil, apperr.NotFound("pondok", id)
			}
			s.logger.WithError(err).WithField("pondok_id", id).Error("Failed to get pondok")
			return nil, apperr.Persistence("load_pondok", err)
		}
		pondokID = &id
	case models.RoleAdminPusat:
		if req.PondokID != nil && *req.PondokID != "" {
			return nil, apperr.Validation("pondok_not_allowed", "admin pusat does not belong to a pondok",
				apperr.FieldError{Field: "pondok_id", Error: "must be empty"})
		}
	}

	// Hash password
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.logger.WithError(err).Error("Failed to hash password")
		return nil, apperr.Persistence("hash_password", err)
	}

	user := &models.UserProfile{
		ID:           uuid.NewString(),
		Nama:         strings.TrimSpace(req.Nama),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		NomorTelepon: req.NomorTelepon,
		Role:         req.Role,
		PondokID:     pondokID,
		PasswordHash: hash,
	}
	if err := s.repo.UserProfile.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.Validation("email_taken", "email is already registered",
				apperr.FieldError{Field: "email", Error: "already registered"})
		}
		s.logger.WithError(err).WithField("email", user.Email).Error("Failed to create user")
		return nil, apperr.Persistence("create_user", err)
	}
	return user, nil
}

// Subscribe streams sign-in and sign-out events until ctx is done.
func (s *AuthService) Subscribe(ctx context.Context) (<-chan cache.SessionEvent, error) {
	return s.sessions.SubscribeSessionEvents(ctx)
}

func (s *AuthService) publish(ctx context.Context, ev cache.SessionEvent) {
	if err := s.sessions.PublishSessionEvent(ctx, ev); err != nil {
		s.logger.WithError(err).WithField("type", ev.Type).Warn("Failed to publish session event")
	}
}

func invalidCredentials() error {
	return apperr.Unauthorized("invalid_credentials", "invalid email or password")
}
