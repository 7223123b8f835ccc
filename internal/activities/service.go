package activities

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/outbox/payloads"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
	"github.com/kukumart/marketplace-backend/pkg/types"
)

// Feed icons.
const (
	IconOrder      = "📦"
	IconCheckout   = "🛒"
	IconWithdrawal = "💸"
	IconVendor     = "🏪"
	IconApproved   = "✅"
	IconRejected   = "✕"
	IconUser       = "👤"
	IconPayment    = "💰"
	IconSettings   = "⚙️"
	IconDeleted    = "🗑️"
)

// Entry is a single line on the admin activity feed.
type Entry struct {
	Icon    string
	Text    string
	ActorID uuid.UUID
}

// Recorder appends feed entries inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
}

// Service exposes the activity feed.
type Service interface {
	Recorder
	List(ctx context.Context, params pagination.Params) (types.PageEnvelope[models.Activity], error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo   Repository
	outbox outboxPublisher
}

// NewService wires the activity service.
func NewService(repo Repository, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, outbox: outbox}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	text := strings.TrimSpace(entry.Text)
	if text == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "activity text is required")
	}
	activity := &models.Activity{Icon: entry.Icon, Text: text}
	if entry.ActorID != uuid.Nil {
		actor := entry.ActorID
		activity.ActorID = &actor
	}
	if err := s.repo.WithTx(tx).Create(ctx, activity); err != nil {
		return pkgerrors.Persistence(err, "record activity")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventActivityRecorded,
		AggregateType: enums.AggregateActivity,
		AggregateID:   activity.ID,
		Data: payloads.ActivityRecordedEvent{
			ActivityID: activity.ID,
			Icon:       activity.Icon,
			Text:       activity.Text,
		},
	}
	if activity.ActorID != nil {
		event.Actor = &outbox.ActorRef{UserID: *activity.ActorID}
	}
	return s.outbox.Emit(ctx, tx, event)
}

func (s *service) List(ctx context.Context, params pagination.Params) (types.PageEnvelope[models.Activity], error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return types.PageEnvelope[models.Activity]{}, pkgerrors.Persistence(err, "list activities")
	}
	return types.PageEnvelope[models.Activity]{Items: rows, NextCursor: next}, nil
}
