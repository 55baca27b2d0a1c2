package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/models"
)

// SubmissionFileRepository tracks the single current file per submission.
type SubmissionFileRepository interface {
	WithTx(tx *gorm.DB) SubmissionFileRepository
	GetBySubmission(ctx context.Context, submissionID uint) (models.SubmissionFile, error)
	Create(ctx context.Context, file *models.SubmissionFile) error
	Save(ctx context.Context, file *models.SubmissionFile) error
}

type submissionFileRepository struct {
	db *gorm.DB
}

// NewSubmissionFileRepository instantiates the repository.
func NewSubmissionFileRepository(db *gorm.DB) SubmissionFileRepository {
	return &submissionFileRepository{db: db}
}

func (r *submissionFileRepository) WithTx(tx *gorm.DB) SubmissionFileRepository {
	return &submissionFileRepository{db: tx}
}

func (r *submissionFileRepository) GetBySubmission(ctx context.Context, submissionID uint) (models.SubmissionFile, error) {
	var file models.SubmissionFile
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id DESC").
		First(&file).Error; err != nil {
		return models.SubmissionFile{}, err
	}

	return file, nil
}

func (r *submissionFileRepository) Create(ctx context.Context, file *models.SubmissionFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *submissionFileRepository) Save(ctx context.Context, file *models.SubmissionFile) error {
	return r.db.WithContext(ctx).Save(file).Error
}
