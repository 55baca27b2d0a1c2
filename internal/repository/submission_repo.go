package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/models"
)

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	WithTx(tx *gorm.DB) SubmissionRepository
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	// UpdateStatusGuarded sets the status only when the current status is
	// one of from, returning false when the guard did not match. The guard
	// and the write execute as a single statement so two concurrent
	// decisions on the same row cannot both succeed.
	UpdateStatusGuarded(ctx context.Context, id uint, from []string, to string) (bool, error)
	ListMine(ctx context.Context, studentID uint, statuses []string, limit int) ([]models.Submission, error)
	ListQueue(ctx context.Context, departmentID uint) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) WithTx(tx *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: tx}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Student").
		Preload("DocType")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) UpdateStatusGuarded(ctx context.Context, id uint, from []string, to string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Where("status IN ?", from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *submissionRepository) ListMine(ctx context.Context, studentID uint, statuses []string, limit int) ([]models.Submission, error) {
	query := r.baseQuery(ctx).Where("student_id = ?", studentID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var submissions []models.Submission
	if err := query.Order("id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListQueue(ctx context.Context, departmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.baseQuery(ctx).
		Joins("JOIN doc_types ON doc_types.id = submissions.doc_type_id").
		Where("doc_types.department_id = ?", departmentID).
		Where("submissions.status IN ?", []string{models.SubmissionStatusSubmitted, models.SubmissionStatusUnderReview}).
		Order("submissions.submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}
