package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Snapshot is what admins read and write back.
type Snapshot struct {
	Version   int        `json:"version"`
	Document  Document   `json:"document"`
	Effective Effective  `json:"effective"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SaveInput replaces the document when Version matches the stored one.
type SaveInput struct {
	Version  int      `json:"version" validate:"min=0"`
	Document Document `json:"document"`
}

// Service reads and writes the versioned settings document.
type Service interface {
	Get(ctx context.Context) (*Snapshot, error)
	Resolve(ctx context.Context) (Effective, error)
	AdminWhatsApp(ctx context.Context) (string, error)
	InMaintenance(ctx context.Context) (bool, error)
	Save(ctx context.Context, adminID uuid.UUID, input SaveInput) (*Snapshot, error)
}

type ServiceParams struct {
	Repo       *Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Activities activities.Recorder
	Env        Env
}

type service struct {
	repo       *Repository
	tx         txRunner
	outbox     outboxPublisher
	activities activities.Recorder
	env        Env
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("settings repository required")
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
		env:        params.Env,
	}, nil
}

func (s *service) Get(ctx context.Context) (*Snapshot, error) {
	row, doc, err := s.load(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Document: doc, Effective: Resolve(s.env, doc).Masked()}
	if row != nil {
		snap.Version = row.Version
		snap.UpdatedBy = row.UpdatedBy
		updated := row.UpdatedAt
		snap.UpdatedAt = &updated
	}
	snap.Document.ImageKitPrivateKey = mask(doc.ImageKitPrivateKey)
	snap.Document.IdentityAPIKey = mask(doc.IdentityAPIKey)
	return snap, nil
}

func (s *service) Resolve(ctx context.Context) (Effective, error) {
	_, doc, err := s.load(ctx, s.repo)
	if err != nil {
		return Effective{}, err
	}
	return Resolve(s.env, doc), nil
}

// AdminWhatsApp is the effective admin number, env first.
func (s *service) AdminWhatsApp(ctx context.Context) (string, error) {
	eff, err := s.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return eff.AdminWhatsApp, nil
}

func (s *service) InMaintenance(ctx context.Context) (bool, error) {
	eff, err := s.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return eff.MaintenanceMode, nil
}

// Save writes a new document version. The first save expects version 0.
func (s *service) Save(ctx context.Context, adminID uuid.UUID, input SaveInput) (*Snapshot, error) {
	doc := input.Document
	doc.Schema = SchemaVersion

	var version int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, current, err := s.load(ctx, repo)
		if err != nil {
			return err
		}
		stored := 0
		if row != nil {
			stored = row.Version
		}
		if input.Version != stored {
			return staleVersion(input.Version, stored)
		}
		// Masked secrets sent back unchanged keep the stored value.
		if doc.ImageKitPrivateKey == mask(current.ImageKitPrivateKey) {
			doc.ImageKitPrivateKey = current.ImageKitPrivateKey
		}
		if doc.IdentityAPIKey == mask(current.IdentityAPIKey) {
			doc.IdentityAPIKey = current.IdentityAPIKey
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode settings")
		}

		if row == nil {
			by := adminID
			if err := repo.Insert(ctx, &models.SystemSetting{Key: Key, Version: 1, Payload: payload, UpdatedBy: &by}); err != nil {
				if pkgerrors.IsUniqueViolation(err) {
					return staleVersion(input.Version, stored+1)
				}
				return pkgerrors.Persistence(err, "insert settings")
			}
		} else {
			ok, err := repo.UpdateIfVersion(ctx, stored, payload, adminID)
			if err != nil {
				return pkgerrors.Persistence(err, "update settings")
			}
			if !ok {
				return staleVersion(input.Version, stored+1)
			}
		}
		version = stored + 1

		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconSettings,
			Text:    "Mipangilio ya mfumo imesasishwa",
			ActorID: adminID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettingsUpdated,
			AggregateType: enums.AggregateSettings,
			AggregateID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(Key)),
			Actor:         &outbox.ActorRef{UserID: adminID, Role: enums.RoleAdmin},
			Data:          payloads.SettingsUpdatedEvent{Version: version},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx)
}

func (s *service) load(ctx context.Context, repo *Repository) (*models.SystemSetting, Document, error) {
	row, err := repo.Find(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Document{Schema: SchemaVersion}, nil
		}
		return nil, Document{}, pkgerrors.Persistence(err, "load settings")
	}
	var doc Document
	if err := json.Unmarshal(row.Payload, &doc); err != nil {
		return nil, Document{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode settings")
	}
	return row, doc, nil
}

func staleVersion(sent, current int) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "settings were changed by someone else").
		WithDetails(map[string]any{"version": sent, "current": current})
}
