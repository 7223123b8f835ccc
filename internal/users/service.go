package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/outbox/payloads"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
	"github.com/kukumart/marketplace-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// DeliveryFeeSyncer copies a vendor's delivery fees onto their listings.
type DeliveryFeeSyncer interface {
	SyncDeliveryFees(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID, cityFee, outFee int64) error
}

// SessionRevoker ends every signed-in session a user holds.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

// Service manages profiles, shop settings and vendor approval.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileUpdate) (*UserDTO, error)
	UpdateShop(ctx context.Context, vendorID uuid.UUID, input ShopUpdate) (*UserDTO, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	DecideVendor(ctx context.Context, input VendorDecisionInput) (*UserDTO, error)
	AdminDelete(ctx context.Context, userID, actorID uuid.UUID) error
	AdminUpdate(ctx context.Context, userID, actorID uuid.UUID, input AdminUserUpdate) (*UserDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (types.PageEnvelope[UserDTO], error)
}

// ServiceParams groups dependencies for the users service.
type ServiceParams struct {
	Repo       *Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Activities activities.Recorder
	FeeSyncer  DeliveryFeeSyncer
	Sessions   SessionRevoker
	Logger     *logger.Logger
}

type service struct {
	repo       *Repository
	tx         txRunner
	outbox     outboxPublisher
	activities activities.Recorder
	feeSyncer  DeliveryFeeSyncer
	sessions   SessionRevoker
	logg       *logger.Logger
}

// NewService builds the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Activities == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		activities: params.Activities,
		feeSyncer:  params.FeeSyncer,
		sessions:   params.Sessions,
		logg:       params.Logger,
	}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := loadUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileUpdate) (*UserDTO, error) {
	user, err := loadUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}

	var columns []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		user.Name = name
		columns = append(columns, "name")
	}
	if input.Contact != nil {
		user.Contact = strings.TrimSpace(*input.Contact)
		columns = append(columns, "contact")
	}
	if input.HasWhatsApp != nil {
		user.HasWhatsApp = *input.HasWhatsApp
		columns = append(columns, "has_whatsapp")
	}
	if input.Avatar != nil {
		user.Avatar = strings.TrimSpace(*input.Avatar)
		columns = append(columns, "avatar")
	}
	if input.Language != nil {
		lang, err := enums.ParseLanguage(*input.Language)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid language")
		}
		user.Language = lang
		columns = append(columns, "language")
	}
	if input.Theme != nil {
		theme, err := enums.ParseTheme(*input.Theme)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid theme")
		}
		user.Theme = theme
		columns = append(columns, "theme")
	}

	if err := s.repo.Save(ctx, user, columns...); err != nil {
		return nil, pkgerrors.Persistence(err, "update profile")
	}
	return FromModel(user), nil
}

func (s *service) UpdateShop(ctx context.Context, vendorID uuid.UUID, input ShopUpdate) (*UserDTO, error) {
	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := loadUser(ctx, repo, vendorID)
		if err != nil {
			return err
		}
		if user.Role != enums.RoleVendor {
			return pkgerrors.New(pkgerrors.CodeForbidden, "shop settings are for vendors only")
		}

		var columns []string
		feesChanged := false
		setString := func(dst *string, src *string, column string) {
			if src == nil {
				return
			}
			*dst = strings.TrimSpace(*src)
			columns = append(columns, column)
		}
		setString(&user.ShopName, input.ShopName, "shop_name")
		setString(&user.Location, input.Location, "location")
		setString(&user.Region, input.Region, "region")
		setString(&user.OpenTime, input.OpenTime, "open_time")
		setString(&user.CloseTime, input.CloseTime, "close_time")
		if input.OpenDays != nil {
			user.OpenDays = input.OpenDays
			columns = append(columns, "open_days")
		}
		if input.DeliveryCityFee != nil {
			if *input.DeliveryCityFee < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "delivery_city_fee must not be negative")
			}
			user.DeliveryCityFee = *input.DeliveryCityFee
			columns = append(columns, "delivery_city_fee")
			feesChanged = true
		}
		if input.DeliveryOutFee != nil {
			if *input.DeliveryOutFee < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "delivery_out_fee must not be negative")
			}
			user.DeliveryOutFee = *input.DeliveryOutFee
			columns = append(columns, "delivery_out_fee")
			feesChanged = true
		}

		if err := repo.Save(ctx, user, columns...); err != nil {
			return pkgerrors.Persistence(err, "update shop")
		}
		if feesChanged && s.feeSyncer != nil {
			if err := s.feeSyncer.SyncDeliveryFees(ctx, tx, user.ID, user.DeliveryCityFee, user.DeliveryOutFee); err != nil {
				return err
			}
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return s.delete(ctx, userID, userID, false)
}

func (s *service) AdminDelete(ctx context.Context, userID, actorID uuid.UUID) error {
	return s.delete(ctx, userID, actorID, true)
}

// delete removes the row, then signs the user out everywhere. A failed
// revocation is logged rather than returned since the account is already
// gone and its tokens can no longer load a user.
func (s *service) delete(ctx context.Context, userID, actorID uuid.UUID, byAdmin bool) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := loadUser(ctx, repo, userID)
		if err != nil {
			return err
		}
		if byAdmin && user.Role == enums.RoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be deleted")
		}
		if _, err := repo.Delete(ctx, user.ID); err != nil {
			return pkgerrors.Persistence(err, "delete user")
		}

		text := fmt.Sprintf("Akaunti ya %q imefutwa", user.Name)
		if byAdmin {
			text = fmt.Sprintf("Admin amefuta akaunti ya %q", user.Name)
		}
		if err := s.activities.Record(ctx, tx, activities.Entry{Icon: activities.IconDeleted, Text: text, ActorID: actorID}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserDeleted,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Data:          payloads.UserDeletedEvent{UserID: user.ID, Role: user.Role},
		})
	})
	if err != nil {
		return err
	}
	if s.sessions != nil {
		if err := s.sessions.RevokeUser(ctx, userID); err != nil && s.logg != nil {
			s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "revoke sessions of deleted user", err)
		}
	}
	return nil
}

// AdminUpdate lets an admin correct account details. Shop fields only apply
// to vendors.
func (s *service) AdminUpdate(ctx context.Context, userID, actorID uuid.UUID, input AdminUserUpdate) (*UserDTO, error) {
	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := loadUser(ctx, repo, userID)
		if err != nil {
			return err
		}
		if user.Role != enums.RoleVendor && (input.ShopName != nil || input.Region != nil) {
			return pkgerrors.New(pkgerrors.CodeValidation, "shop fields are for vendors only")
		}

		var columns []string
		setString := func(dst *string, src *string, column string) {
			if src == nil {
				return
			}
			*dst = strings.TrimSpace(*src)
			columns = append(columns, column)
		}
		if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		setString(&user.Name, input.Name, "name")
		setString(&user.Contact, input.Contact, "contact")
		setString(&user.Location, input.Location, "location")
		setString(&user.ShopName, input.ShopName, "shop_name")
		setString(&user.Region, input.Region, "region")
		if len(columns) == 0 {
			updated = user
			return nil
		}

		if err := repo.Save(ctx, user, columns...); err != nil {
			return pkgerrors.Persistence(err, "admin update user")
		}
		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconUser,
			Text:    fmt.Sprintf("Admin amehariri akaunti ya %q", user.Name),
			ActorID: actorID,
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserUpdated,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.RoleAdmin},
			Audience:      []uuid.UUID{user.ID},
			Data:          payloads.UserUpdatedEvent{UserID: user.ID, Fields: columns},
		}); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

// DecideVendor applies a one-shot pending -> approved|rejected decision.
// Repeating the decision already recorded is a no-op.
func (s *service) DecideVendor(ctx context.Context, input VendorDecisionInput) (*UserDTO, error) {
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}
	target := input.Decision.Status()

	var result *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vendor, err := loadUser(ctx, repo, input.VendorID)
		if err != nil {
			return err
		}
		if vendor.Role != enums.RoleVendor || vendor.VendorStatus == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		current := *vendor.VendorStatus
		if current == target {
			result = vendor
			return nil
		}
		if current != enums.VendorStatusPending {
			return invalidVendorTransition(current, target)
		}

		applied, err := repo.SetVendorStatusIfPending(ctx, vendor.ID, target)
		if err != nil {
			return pkgerrors.Persistence(err, "update vendor status")
		}
		if !applied {
			return invalidVendorTransition(current, target)
		}
		vendor.VendorStatus = &target

		entry := activities.Entry{Icon: activities.IconApproved, Text: fmt.Sprintf("Muuzaji %q ameidhinishwa", vendor.DisplayShopName()), ActorID: input.ActorID}
		if target == enums.VendorStatusRejected {
			entry = activities.Entry{Icon: activities.IconRejected, Text: fmt.Sprintf("Maombi ya muuzaji %q yamekataliwa", vendor.DisplayShopName()), ActorID: input.ActorID}
		}
		if err := s.activities.Record(ctx, tx, entry); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVendorDecided,
			AggregateType: enums.AggregateVendor,
			AggregateID:   vendor.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.RoleAdmin},
			Audience:      []uuid.UUID{vendor.ID},
			Data:          payloads.VendorDecidedEvent{VendorID: vendor.ID, Status: target},
		}); err != nil {
			return err
		}
		result = vendor
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithVendorID(ctx, result.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "vendor_status", target), "vendor decision applied")
	}
	return FromModel(result), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (types.PageEnvelope[UserDTO], error) {
	rows, next, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return types.PageEnvelope[UserDTO]{}, pkgerrors.Persistence(err, "list users")
	}
	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return types.PageEnvelope[UserDTO]{Items: items, NextCursor: next}, nil
}

func loadUser(ctx context.Context, repo *Repository, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Persistence(err, "load user")
	}
	return user, nil
}

func invalidVendorTransition(from, to enums.VendorStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "vendor application already decided").WithDetails(map[string]any{
		"from": from,
		"to":   to,
	})
}
