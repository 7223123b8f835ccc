package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/internal/notifications"
	"github.com/kukumart/marketplace-backend/internal/users"
	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/outbox/payloads"
	"github.com/kukumart/marketplace-backend/pkg/security"
)

// RegisterService handles buyer sign-up and shop applications.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	RegisterVendor(ctx context.Context, req VendorRegisterRequest) (*VendorRegisterResponse, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	Tx             txRunner
	Outbox         outboxPublisher
	Activities     activities.Recorder
	Formatter      *notifications.Formatter
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	outbox      outboxPublisher
	activities  activities.Recorder
	formatter   *notifications.Formatter
	issuer      issuer
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Activities == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager required")
	}
	formatter := params.Formatter
	if formatter == nil {
		formatter = notifications.NewFormatter("")
	}
	return &registerService{
		tx:          params.Tx,
		outbox:      params.Outbox,
		activities:  params.Activities,
		formatter:   formatter,
		issuer:      issuer{sessions: params.SessionManager, jwtCfg: params.JWTConfig},
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	user := &models.User{
		Name:        strings.TrimSpace(req.Name),
		Role:        enums.RoleUser,
		Contact:     strings.TrimSpace(req.Contact),
		HasWhatsApp: req.HasWhatsApp,
	}
	if user.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := s.prepareCredentials(user, req.Email, req.Password); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := createUnique(ctx, users.NewRepository(tx), user); err != nil {
			return err
		}
		return s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconUser,
			Text:    fmt.Sprintf("Mteja mpya %q amesajiliwa", user.Name),
			ActorID: user.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.issuer.issue(ctx, user, time.Now().UTC())
}

func (s *registerService) RegisterVendor(ctx context.Context, req VendorRegisterRequest) (*VendorRegisterResponse, error) {
	pending := enums.VendorStatusPending
	user := &models.User{
		Name:         strings.TrimSpace(req.OwnerName),
		Role:         enums.RoleVendor,
		Contact:      strings.TrimSpace(req.Phone),
		HasWhatsApp:  req.HasWhatsApp,
		VendorStatus: &pending,
		ShopName:     strings.TrimSpace(req.ShopName),
		Location:     strings.TrimSpace(req.Location),
		Region:       strings.TrimSpace(req.Region),
		TIN:          strings.TrimSpace(req.TIN),
		NIDA:         strings.TrimSpace(req.NIDA),
		License:      strings.TrimSpace(req.License),
		OpenDays:     req.OpenDays,
		OpenTime:     strings.TrimSpace(req.OpenTime),
		CloseTime:    strings.TrimSpace(req.CloseTime),
	}
	if user.Name == "" || user.ShopName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop_name and owner_name are required")
	}
	if err := s.prepareCredentials(user, req.Email, req.Password); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := createUnique(ctx, users.NewRepository(tx), user); err != nil {
			return err
		}
		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconVendor,
			Text:    fmt.Sprintf("Muuzaji mpya %q amejisajili", user.ShopName),
			ActorID: user.ID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVendorRegistered,
			AggregateType: enums.AggregateVendor,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: enums.RoleVendor},
			Data:          payloads.VendorRegisteredEvent{VendorID: user.ID, ShopName: user.ShopName},
		})
	})
	if err != nil {
		return nil, err
	}

	login, err := s.issuer.issue(ctx, user, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &VendorRegisterResponse{
		LoginResponse: *login,
		WhatsApp:      s.formatter.VendorApplication(ctx, *user).Outbound(),
	}, nil
}

func (s *registerService) prepareCredentials(user *models.User, email, password string) error {
	user.Email = strings.ToLower(strings.TrimSpace(email))
	if user.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := security.CheckPasswordPolicy(password); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = hash
	return nil
}

func createUnique(ctx context.Context, repo *users.Repository, user *models.User) error {
	if _, err := repo.FindByEmail(ctx, user.Email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}
	if err := repo.Create(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return nil
}
