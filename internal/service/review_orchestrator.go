package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/models"
	"github.com/noah-isme/docserver-api/internal/observability"
	"github.com/noah-isme/docserver-api/pkg/ocr"
)

const noReasonGiven = "no reason given"

// ReviewOrchestrator drives the automated-review leg of the lifecycle. It
// is always invoked off the caller's request path: once scheduled it runs
// to completion regardless of whether the original HTTP caller is still
// connected, and it guarantees the submission ends in a defined status even
// when the attempt fails catastrophically.
type ReviewOrchestrator struct {
	db     *gorm.DB
	repos  Repositories
	store  FileStore
	client ReviewClient
	events *EventPublisher
	logger zerolog.Logger
	tracer trace.Tracer
	wg     sync.WaitGroup
}

// NewReviewOrchestrator wires the orchestrator.
func NewReviewOrchestrator(db *gorm.DB, repos Repositories, store FileStore, client ReviewClient, events *EventPublisher, logger zerolog.Logger) *ReviewOrchestrator {
	return &ReviewOrchestrator{
		db:     db,
		repos:  repos,
		store:  store,
		client: client,
		events: events,
		logger: logger.With().Str("component", "review_orchestrator").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/docserver-api/internal/service/review"),
	}
}

// Schedule detaches one review run. There is no cancellation and no retry;
// each trigger is a single attempt.
func (o *ReviewOrchestrator) Schedule(submissionID uint) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.Run(context.Background(), submissionID)
	}()
}

// Wait blocks until all scheduled runs finished. Used by shutdown and by
// tests.
func (o *ReviewOrchestrator) Wait() {
	o.wg.Wait()
}

// Run performs one review attempt. Any failure inside the attempt — missing
// file, storage I/O, review-call breakage, even a panic — abandons the
// attempt's transaction and forces the submission into NEEDS_FIX through a
// separate, independent transaction so it can never be stuck silently in
// UNDER_REVIEW.
func (o *ReviewOrchestrator) Run(ctx context.Context, submissionID uint) {
	err := func() (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("review attempt panicked: %v", recovered)
			}
		}()
		return o.attempt(ctx, submissionID)
	}()
	if err == nil {
		return
	}

	o.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("review attempt failed")
	o.recordFailure(ctx, submissionID, err)
}

func (o *ReviewOrchestrator) attempt(ctx context.Context, submissionID uint) error {
	ctx, span := o.tracer.Start(ctx, "review.attempt")
	defer span.End()
	span.SetAttributes(attribute.Int64("submission.id", int64(submissionID)))

	start := time.Now()
	outcome := "error"
	defer func() {
		observability.ReviewAttempts().WithLabelValues(outcome).Inc()
		observability.ReviewLatency().Observe(time.Since(start).Seconds())
	}()

	var event SubmissionEvent
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submissions := o.repos.Submissions.WithTx(tx)

		submission, err := submissions.GetByID(ctx, submissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("submission %d not found", submissionID)
			}
			return err
		}

		file, err := o.repos.Files.WithTx(tx).GetBySubmission(ctx, submissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("submission %d has no file", submissionID)
			}
			return err
		}

		fileBytes, err := o.store.Get(ctx, file.FileURL)
		if err != nil {
			return fmt.Errorf("failed to read submission file: %w", err)
		}

		verdict := o.client.Review(ctx, fileBytes, basenameFromURL(file.FileURL))
		normalized := strings.ToUpper(strings.TrimSpace(verdict.Verdict))
		span.SetAttributes(attribute.String("review.verdict", normalized))

		status, action, memo := interpretVerdict(normalized, verdict)
		submission.Status = status
		if err := submissions.Update(ctx, &submission); err != nil {
			return err
		}
		if err := o.repos.History.WithTx(tx).Append(ctx, &models.SubmissionHistory{
			SubmissionID: submission.ID,
			Action:       action,
			Memo:         memo,
		}); err != nil {
			return err
		}

		findings, err := json.Marshal(verdict.Findings)
		if err != nil {
			findings = []byte("[]")
		}
		if err := o.repos.Results.WithTx(tx).Create(ctx, &models.ReviewResult{
			SubmissionID: submission.ID,
			Verdict:      normalized,
			Reason:       verdict.Reason,
			DebugText:    verdict.DebugText,
			Findings:     datatypes.JSON(findings),
		}); err != nil {
			return err
		}

		outcome = strings.ToLower(normalized)
		if outcome == "" {
			outcome = "unknown"
		}
		event = SubmissionEvent{
			SubmissionID: submission.ID,
			Action:       action,
			Status:       status,
			Memo:         memo,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt failed")
		return err
	}

	o.events.Publish(event)
	o.logger.Info().Uint("submission_id", submissionID).Str("status", event.Status).Msg("automated review completed")

	return nil
}

// interpretVerdict maps one verdict onto exactly one state transition.
func interpretVerdict(normalized string, verdict ocr.Verdict) (status, action, memo string) {
	switch normalized {
	case ocr.VerdictPass:
		return models.SubmissionStatusSubmitted, models.HistoryActionModified,
			"automated review passed, awaiting admin review"
	case ocr.VerdictNeedsFix:
		return models.SubmissionStatusNeedsFix, models.HistoryActionModified,
			"automated review failed: " + needsFixReason(verdict)
	case ocr.VerdictReject:
		reason := verdict.Reason
		if reason == "" {
			reason = noReasonGiven
		}
		return models.SubmissionStatusRejected, models.HistoryActionRejected,
			"automated review failed: " + reason
	default:
		return models.SubmissionStatusNeedsFix, models.HistoryActionModified,
			"automated review failed: abnormal response"
	}
}

// needsFixReason joins up to ten findings, falling back to the free-text
// reason and finally to a fixed placeholder.
func needsFixReason(verdict ocr.Verdict) string {
	if len(verdict.Findings) == 0 {
		if verdict.Reason == "" {
			return noReasonGiven
		}
		return verdict.Reason
	}

	limit := len(verdict.Findings)
	if limit > 10 {
		limit = 10
	}
	parts := make([]string, 0, limit)
	for _, finding := range verdict.Findings[:limit] {
		parts = append(parts, finding.Label+": "+finding.Message)
	}

	return strings.Join(parts, "; ")
}

// recordFailure forces the submission into NEEDS_FIX in a transaction that
// is independent of the failed attempt, so its commit survives the
// attempt's rollback.
func (o *ReviewOrchestrator) recordFailure(ctx context.Context, submissionID uint, cause error) {
	memo := "automated review failed: system error - " + firstLine(cause.Error())

	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submissions := o.repos.Submissions.WithTx(tx)
		submission, err := submissions.GetByID(ctx, submissionID)
		if err != nil {
			return err
		}

		submission.Status = models.SubmissionStatusNeedsFix
		if err := submissions.Update(ctx, &submission); err != nil {
			return err
		}

		return o.repos.History.WithTx(tx).Append(ctx, &models.SubmissionHistory{
			SubmissionID: submission.ID,
			Action:       models.HistoryActionModified,
			Memo:         memo,
		})
	})
	if err != nil {
		// Nothing left to do but log: the submission could not be found or
		// the failure write itself broke.
		o.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("failed to record review failure")
		return
	}

	o.events.Publish(SubmissionEvent{
		SubmissionID: submissionID,
		Action:       models.HistoryActionModified,
		Status:       models.SubmissionStatusNeedsFix,
		Memo:         memo,
	})
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}
