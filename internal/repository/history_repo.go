package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/models"
)

// HistoryRepository is the append-only audit ledger. There is deliberately
// no update or delete operation.
type HistoryRepository interface {
	WithTx(tx *gorm.DB) HistoryRepository
	Append(ctx context.Context, entry *models.SubmissionHistory) error
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionHistory, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository instantiates the ledger.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) WithTx(tx *gorm.DB) HistoryRepository {
	return &historyRepository{db: tx}
}

func (r *historyRepository) Append(ctx context.Context, entry *models.SubmissionHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *historyRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionHistory, error) {
	var entries []models.SubmissionHistory
	if err := r.db.WithContext(ctx).
		Preload("Admin").
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
