package outbox

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

const maxErrorLen = 1024

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchUnpublishedForPublish locks up to limit pending rows. On postgres
// concurrent publishers skip each other's rows.
func (r *Repository) FetchUnpublishedForPublish(tx *gorm.DB, limit int, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	query := tx.Where("published_at IS NULL AND terminal_at IS NULL")
	if maxAttempts > 0 {
		query = query.Where("attempt_count < ?", maxAttempts)
	}
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var rows []models.OutboxEvent
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": at,
			"last_error":   nil,
		}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    truncateError(cause),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminalTx parks a row that will never be published and copies it
// into the dead letter table for later inspection.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, at time.Time) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if !reason.IsValid() {
		return fmt.Errorf("invalid dlq reason %q", reason)
	}
	attempts := event.AttemptCount + 1
	if err := tx.Model(&models.OutboxEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"last_error":    truncateError(cause),
			"attempt_count": attempts,
			"terminal_at":   at,
		}).Error; err != nil {
		return err
	}

	var message *string
	if cause != nil {
		msg := truncateError(cause)
		message = &msg
	}
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	return tx.Create(&models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
		ErrorReason:   reason,
		ErrorMessage:  message,
		AttemptCount:  attempts,
		FailedAt:      at,
	}).Error
}

// ListDLQ returns dead lettered rows, newest first.
func (r *Repository) ListDLQ(tx *gorm.DB, limit int) ([]models.OutboxDLQ, error) {
	if tx == nil {
		tx = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []models.OutboxDLQ
	err := tx.Order("failed_at DESC").Order("id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorLen {
		return msg[:maxErrorLen]
	}
	return msg
}
