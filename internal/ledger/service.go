package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/metrics"
	"github.com/kukumart/marketplace-backend/pkg/money"
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

// Service derives vendor balances and runs the withdrawal workflow.
type Service interface {
	Balance(ctx context.Context, vendorID uuid.UUID) (Balance, error)
	RequestWithdrawal(ctx context.Context, vendorID uuid.UUID, details PayoutDetails) (*WithdrawalDTO, error)
	Settle(ctx context.Context, input SettleInput) (*WithdrawalDTO, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (types.PageEnvelope[WithdrawalDTO], error)
	ListAll(ctx context.Context, status *enums.WithdrawalStatus, params pagination.Params) (types.PageEnvelope[WithdrawalDTO], error)
}

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	Repo              Repository
	Tx                txRunner
	Outbox            outboxPublisher
	Activities        activities.Recorder
	Metrics           *metrics.Marketplace
	MinimumWithdrawal int64
	Logger            *logger.Logger
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	activities activities.Recorder
	metrics    *metrics.Marketplace
	minimum    int64
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires a ledger service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository required")
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
	minimum := params.MinimumWithdrawal
	if minimum <= 0 {
		minimum = DefaultMinimumWithdrawal
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		activities: params.Activities,
		metrics:    params.Metrics,
		minimum:    minimum,
		logg:       params.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Balance(ctx context.Context, vendorID uuid.UUID) (Balance, error) {
	return s.balance(ctx, s.repo, vendorID)
}

func (s *service) balance(ctx context.Context, repo Repository, vendorID uuid.UUID) (Balance, error) {
	revenue, err := repo.DeliveredRevenue(ctx, vendorID)
	if err != nil {
		return Balance{}, pkgerrors.Persistence(err, "sum delivered revenue")
	}
	withdrawn, err := repo.CommittedWithdrawals(ctx, vendorID)
	if err != nil {
		return Balance{}, pkgerrors.Persistence(err, "sum withdrawals")
	}
	return newBalance(revenue, withdrawn, s.minimum), nil
}

// RequestWithdrawal pays out the vendor's entire available balance. The
// ledger row bump serializes concurrent requests from the same vendor, so
// the balance read after it cannot be spent twice.
func (s *service) RequestWithdrawal(ctx context.Context, vendorID uuid.UUID, details PayoutDetails) (*WithdrawalDTO, error) {
	details, err := normalizeDetails(details)
	if err != nil {
		return nil, err
	}

	var created *models.Withdrawal
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.BumpLedgerSeq(ctx, vendorID)
		if err != nil {
			return pkgerrors.Persistence(err, "lock vendor ledger")
		}
		if !locked {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}

		var vendor models.User
		if err := tx.WithContext(ctx).First(&vendor, "id = ?", vendorID).Error; err != nil {
			return pkgerrors.Persistence(err, "load vendor")
		}

		balance, err := s.balance(ctx, repo, vendorID)
		if err != nil {
			return err
		}
		if !balance.CanWithdraw {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "available balance is below the minimum withdrawal").
				WithDetails(map[string]any{"available": balance.Available, "minimum": balance.MinimumWithdrawal})
		}

		withdrawal := &models.Withdrawal{
			VendorID:      vendorID,
			VendorName:    vendor.DisplayShopName(),
			Amount:        balance.Available,
			Method:        details.Method,
			Network:       details.Network,
			PhoneNumber:   details.PhoneNumber,
			BankName:      details.BankName,
			AccountNumber: details.AccountNumber,
			AccountName:   details.AccountName,
			Status:        enums.WithdrawalStatusPending,
		}
		if err := repo.Create(ctx, withdrawal); err != nil {
			return pkgerrors.Persistence(err, "insert withdrawal")
		}
		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconWithdrawal,
			Text:    fmt.Sprintf("Maombi ya kutoa %s kutoka kwa %s", money.Format(withdrawal.Amount), withdrawal.VendorName),
			ActorID: vendorID,
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRequested,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   withdrawal.ID,
			Actor:         &outbox.ActorRef{UserID: vendorID, Role: enums.RoleVendor},
			Audience:      []uuid.UUID{vendorID},
			Data: payloads.WithdrawalRequestedEvent{
				WithdrawalID: withdrawal.ID,
				VendorID:     vendorID,
				Amount:       withdrawal.Amount,
				Method:       withdrawal.Method,
			},
		}); err != nil {
			return err
		}
		created = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.WithdrawalRequested(created.Amount)
	if s.logg != nil {
		logCtx := s.logg.WithWithdrawalID(s.logg.WithVendorID(ctx, vendorID.String()), created.ID.String())
		if created.PhoneNumber != "" {
			logCtx = s.logg.WithPhone(logCtx, "payout_phone", created.PhoneNumber)
		}
		s.logg.Info(s.logg.WithField(logCtx, "amount", created.Amount), "withdrawal requested")
	}
	return FromModel(created), nil
}

// Settle applies the one-shot admin decision on a pending withdrawal.
func (s *service) Settle(ctx context.Context, input SettleInput) (*WithdrawalDTO, error) {
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be paid or rejected")
	}
	target := input.Decision.Status()

	var settled *models.Withdrawal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		withdrawal, err := repo.FindByID(ctx, input.WithdrawalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
			}
			return pkgerrors.Persistence(err, "load withdrawal")
		}
		if withdrawal.Status != enums.WithdrawalStatusPending {
			return invalidSettlement(withdrawal.Status, target)
		}

		now := s.now()
		applied, err := repo.Settle(ctx, withdrawal.ID, target, now, input.AdminID)
		if err != nil {
			return pkgerrors.Persistence(err, "settle withdrawal")
		}
		if !applied {
			return invalidSettlement(withdrawal.Status, target)
		}
		withdrawal.Status = target
		withdrawal.SettledAt = &now
		adminID := input.AdminID
		withdrawal.SettledBy = &adminID

		entry := activities.Entry{
			Icon:    activities.IconApproved,
			Text:    fmt.Sprintf("Malipo ya %s kwa %s yameidhinishwa", money.Format(withdrawal.Amount), withdrawal.VendorName),
			ActorID: input.AdminID,
		}
		if target == enums.WithdrawalStatusRejected {
			entry = activities.Entry{
				Icon:    activities.IconRejected,
				Text:    fmt.Sprintf("Maombi ya malipo ya %s kutoka %s yamekataliwa", money.Format(withdrawal.Amount), withdrawal.VendorName),
				ActorID: input.AdminID,
			}
		}
		if err := s.activities.Record(ctx, tx, entry); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalSettled,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   withdrawal.ID,
			Actor:         &outbox.ActorRef{UserID: input.AdminID, Role: enums.RoleAdmin},
			Audience:      []uuid.UUID{withdrawal.VendorID},
			Data: payloads.WithdrawalSettledEvent{
				WithdrawalID: withdrawal.ID,
				VendorID:     withdrawal.VendorID,
				Amount:       withdrawal.Amount,
				Status:       target,
			},
		}); err != nil {
			return err
		}
		settled = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.WithdrawalSettled(string(target))
	if s.logg != nil {
		logCtx := s.logg.WithWithdrawalID(s.logg.WithVendorID(ctx, settled.VendorID.String()), settled.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "status", target), "withdrawal settled")
	}
	return FromModel(settled), nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (types.PageEnvelope[WithdrawalDTO], error) {
	return s.list(ctx, ListFilter{VendorID: &vendorID}, params)
}

func (s *service) ListAll(ctx context.Context, status *enums.WithdrawalStatus, params pagination.Params) (types.PageEnvelope[WithdrawalDTO], error) {
	if status != nil && !status.IsValid() {
		return types.PageEnvelope[WithdrawalDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.list(ctx, ListFilter{Status: status}, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (types.PageEnvelope[WithdrawalDTO], error) {
	rows, next, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return types.PageEnvelope[WithdrawalDTO]{}, pkgerrors.Persistence(err, "list withdrawals")
	}
	items := make([]WithdrawalDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return types.PageEnvelope[WithdrawalDTO]{Items: items, NextCursor: next}, nil
}

// normalizeDetails trims the payout fields and keeps only those that belong
// to the chosen method.
func normalizeDetails(details PayoutDetails) (PayoutDetails, error) {
	if !details.Method.IsValid() {
		return PayoutDetails{}, pkgerrors.New(pkgerrors.CodeValidation, "method must be mobile or bank")
	}
	out := PayoutDetails{Method: details.Method}
	var missing []string
	require := func(dst *string, value, field string) {
		*dst = strings.TrimSpace(value)
		if *dst == "" {
			missing = append(missing, field)
		}
	}

	switch details.Method {
	case enums.PayoutMobile:
		require(&out.Network, details.Network, "network")
		require(&out.PhoneNumber, details.PhoneNumber, "phone_number")
		if out.Network != "" && !enums.MobileNetwork(out.Network).IsValid() {
			return PayoutDetails{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown mobile network").
				WithDetails(map[string]any{"network": out.Network})
		}
	case enums.PayoutBank:
		require(&out.BankName, details.BankName, "bank_name")
		require(&out.AccountNumber, details.AccountNumber, "account_number")
		require(&out.AccountName, details.AccountName, "account_name")
	}
	if len(missing) > 0 {
		return PayoutDetails{}, pkgerrors.New(pkgerrors.CodeInsufficientFields, "payout details are incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return out, nil
}

func invalidSettlement(from, to enums.WithdrawalStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "withdrawal has already been settled").
		WithDetails(map[string]any{"from": from, "to": to})
}
