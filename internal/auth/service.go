package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
	EnsureAdmin(ctx context.Context, admin config.AdminConfig) error
}

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	Tx             txRunner
	Activities     activities.Recorder
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	users       userRepository
	issuer      issuer
	tx          txRunner
	activities  activities.Recorder
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:       params.UserRepo,
		issuer:      issuer{sessions: params.SessionManager, jwtCfg: params.JWTConfig},
		tx:          params.Tx,
		activities:  params.Activities,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	s.upgradeHash(ctx, user, req.Password)

	if user.Role == enums.RoleAdmin {
		s.recordAdminLogin(ctx, user.ID)
	}
	return s.issuer.issue(ctx, user, now)
}

// Logout revokes the session behind the presented token.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.issuer.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// EnsureAdmin seeds the operator account when it is configured and absent.
// An existing non-admin account with the same email is left untouched.
func (s *service) EnsureAdmin(ctx context.Context, admin config.AdminConfig) error {
	if !admin.Enabled() {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != enums.RoleAdmin {
			return pkgerrors.New(pkgerrors.CodeConflict, "admin email belongs to a non-admin account")
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}

	hash, err := security.HashPassword(admin.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         admin.Name,
		Role:         enums.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return pkgerrors.Persistence(err, "create admin")
	}
	if s.logg != nil {
		s.logg.Info(ctx, "admin account seeded")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// upgradeHash re-hashes the password when the configured Argon2 costs changed
// since it was stored. Failures are logged and never block sign-in.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		return
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "password rehash failed", err)
		}
		return
	}
	user.PasswordHash = hash
}

// recordAdminLogin is best effort; a failed feed write never blocks sign-in.
func (s *service) recordAdminLogin(ctx context.Context, adminID uuid.UUID) {
	if s.tx == nil || s.activities == nil {
		return
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconSettings,
			Text:    "Admin ameingia kwenye mfumo",
			ActorID: adminID,
		})
	})
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, adminID.String()), "record admin login activity failed")
	}
}
