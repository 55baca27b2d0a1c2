package service

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/dto"
	"github.com/noah-isme/docserver-api/internal/models"
)

// AdminSubmissionService owns the administrator side of the lifecycle.
type AdminSubmissionService interface {
	Queue(ctx context.Context, departmentID uint) ([]dto.SubmissionSummary, error)
	Detail(ctx context.Context, id uint) (dto.SubmissionDetail, error)
	Approve(ctx context.Context, actor Actor, id uint, memo *string) (dto.SubmissionSummary, error)
	Reject(ctx context.Context, actor Actor, id uint, reason *string) (dto.SubmissionSummary, error)
}

type adminSubmissionService struct {
	db        *gorm.DB
	repos     Repositories
	events    *EventPublisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAdminSubmissionService constructs the admin review service.
func NewAdminSubmissionService(db *gorm.DB, repos Repositories, events *EventPublisher, logger zerolog.Logger) AdminSubmissionService {
	return &adminSubmissionService{
		db:        db,
		repos:     repos,
		events:    events,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "admin_submission_service").Logger(),
	}
}

func (s *adminSubmissionService) Queue(ctx context.Context, departmentID uint) ([]dto.SubmissionSummary, error) {
	submissions, err := s.repos.Submissions.ListQueue(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.SubmissionSummary, 0, len(submissions))
	for _, submission := range submissions {
		summaries = append(summaries, dto.NewSubmissionSummary(submission, s.fileURL(ctx, submission.ID)))
	}

	return summaries, nil
}

func (s *adminSubmissionService) Detail(ctx context.Context, id uint) (dto.SubmissionDetail, error) {
	submission, err := s.repos.Submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetail{}, ErrSubmissionNotFound
		}
		return dto.SubmissionDetail{}, err
	}

	entries, err := s.repos.History.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionDetail{}, err
	}
	history := make([]dto.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		history = append(history, dto.NewHistoryEntry(entry))
	}

	fileURL := s.fileURL(ctx, submission.ID)
	detail := dto.SubmissionDetail{
		SubmissionID: submission.ID,
		Status:       submission.Status,
		StudentNo:    submission.Student.StudentNo,
		StudentName:  submission.Student.Name,
		DocTypeTitle: submission.DocType.Title,
		FileURL:      fileURL,
		History:      history,
	}
	if fileURL != "" {
		detail.FileName = basenameFromURL(fileURL)
	}
	if submission.SubmittedAt != nil {
		formatted := submission.SubmittedAt.Format("2006-01-02T15:04:05Z07:00")
		detail.SubmittedAt = &formatted
	}

	return detail, nil
}

func (s *adminSubmissionService) Approve(ctx context.Context, actor Actor, id uint, memo *string) (dto.SubmissionSummary, error) {
	text := "approved by administrator"
	if memo != nil && strings.TrimSpace(*memo) != "" {
		text = s.sanitizer.Sanitize(strings.TrimSpace(*memo))
	}

	return s.decide(ctx, actor, id, models.SubmissionStatusApproved, models.HistoryActionApproved, text)
}

func (s *adminSubmissionService) Reject(ctx context.Context, actor Actor, id uint, reason *string) (dto.SubmissionSummary, error) {
	text := noReasonGiven
	if reason != nil && strings.TrimSpace(*reason) != "" {
		text = s.sanitizer.Sanitize(strings.TrimSpace(*reason))
	}

	return s.decide(ctx, actor, id, models.SubmissionStatusRejected, models.HistoryActionRejected, "rejection reason: "+text)
}

// decide applies a terminal admin decision. The status check and the
// mutation execute inside one transaction; the mutation itself is a guarded
// single-statement update so two concurrent decisions on the same
// submission cannot both succeed — the loser fails with the conflict error.
func (s *adminSubmissionService) decide(ctx context.Context, actor Actor, id uint, status, action, memo string) (dto.SubmissionSummary, error) {
	admin, err := s.repos.Admins.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionSummary{}, ErrNotAdmin
		}
		return dto.SubmissionSummary{}, err
	}

	var submission models.Submission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submissions := s.repos.Submissions.WithTx(tx)

		submission, err = submissions.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}
		if !submission.IsReviewable() {
			return ErrNotReviewable
		}

		// A decision on a SUBMITTED row implies review has begun; the
		// guarded update covers both entry states in one statement.
		ok, err := submissions.UpdateStatusGuarded(ctx, id,
			[]string{models.SubmissionStatusSubmitted, models.SubmissionStatusUnderReview}, status)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotReviewable
		}
		submission.Status = status

		adminID := admin.ID
		return s.repos.History.WithTx(tx).Append(ctx, &models.SubmissionHistory{
			SubmissionID: submission.ID,
			AdminID:      &adminID,
			Action:       action,
			Memo:         memo,
		})
	})
	if err != nil {
		return dto.SubmissionSummary{}, err
	}

	s.events.Publish(SubmissionEvent{
		SubmissionID: submission.ID,
		Action:       action,
		Status:       status,
		Memo:         memo,
	})

	s.logger.Info().Uint("submission_id", submission.ID).Uint("admin_id", admin.ID).Str("status", status).Msg("admin decision applied")

	return dto.NewSubmissionSummary(submission, s.fileURL(ctx, submission.ID)), nil
}

func (s *adminSubmissionService) fileURL(ctx context.Context, submissionID uint) string {
	file, err := s.repos.Files.GetBySubmission(ctx, submissionID)
	if err != nil {
		return ""
	}
	return file.FileURL
}
