package outbox

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
)

// lastErrorLimit keeps a runaway error chain from bloating the row.
const lastErrorLimit = 1024

// Repository reads and settles outbox rows. Every method works on the
// transaction it is handed so callers control the lock scope.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return ErrNoTransaction
	}
	return tx.Create(&event).Error
}

// FetchUnpublishedForPublish claims up to limit of the oldest pending rows
// that still have attempts left. Rows locked by another publisher are
// skipped rather than waited on.
func (r *Repository) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var pending []models.OutboxEvent
	err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Where("published_at IS NULL AND attempt_count < ?", maxAttempts).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&pending).Error
	return pending, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	return settle(tx, id, map[string]any{"published_at": time.Now().UTC(), "last_error": nil})
}

// MarkFailedTx records a retryable failure and spends one attempt.
func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error {
	return settle(tx, id, map[string]any{
		"last_error":    clip(cause),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	})
}

// MarkTerminalTx parks a row by spending all of its attempts so it is never
// fetched again. The row stays for inspection.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, cause error, terminalAttempts int) error {
	return settle(tx, id, map[string]any{"last_error": clip(cause), "attempt_count": terminalAttempts})
}

// DeletePublishedBefore drops up to limit published rows older than cutoff
// and reports how many went.
func (r *Repository) DeletePublishedBefore(tx *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	stale := tx.Model(&models.OutboxEvent{}).
		Select("id").
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Order("published_at ASC").
		Limit(limit)
	res := tx.Where("id IN (?)", stale).Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func settle(tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(fields).Error
}

func clip(cause error) string {
	if cause == nil {
		return ""
	}
	msg := []rune(cause.Error())
	if len(msg) <= lastErrorLimit {
		return string(msg)
	}
	return string(msg[:lastErrorLimit])
}
