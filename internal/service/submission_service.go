package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/dto"
	"github.com/noah-isme/docserver-api/internal/models"
)

// fieldsSchema describes the accepted shape of the fieldsJson payload: an
// array of {label, value} objects with an optional required_field_id.
var fieldsSchema = jsonschema.MustCompileString("fields.json", `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"label": {"type": "string"},
			"value": {"type": "string"},
			"required_field_id": {"type": "integer", "minimum": 1}
		},
		"required": ["label"]
	}
}`)

// SubmissionService owns the student side of the submission lifecycle.
type SubmissionService interface {
	Create(ctx context.Context, actor Actor, docTypeID uint, fieldsJSON string, file *multipart.FileHeader) (dto.SubmissionSummary, error)
	Update(ctx context.Context, actor Actor, id uint, fieldsJSON string, file *multipart.FileHeader) (dto.SubmissionSummary, error)
	Submit(ctx context.Context, actor Actor, id uint, payload dto.SubmitRequest) (dto.SubmissionSummary, error)
	GetSummary(ctx context.Context, id uint) (dto.SubmissionSummary, error)
	ListMine(ctx context.Context, actor Actor, limit int, statusCSV string) ([]dto.MySubmissionRow, error)
	ReviewResult(ctx context.Context, id uint) (dto.ReviewResultResponse, error)
}

type submissionService struct {
	db        *gorm.DB
	repos     Repositories
	store     FileStore
	scheduler ReviewScheduler
	events    *EventPublisher
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewSubmissionService constructs the lifecycle service. loc is the
// timezone deadline days are interpreted in.
func NewSubmissionService(db *gorm.DB, repos Repositories, store FileStore, scheduler ReviewScheduler, events *EventPublisher, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger, loc *time.Location) SubmissionService {
	if loc == nil {
		loc = time.UTC
	}

	return &submissionService{
		db:        db,
		repos:     repos,
		store:     store,
		scheduler: scheduler,
		events:    events,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "submission_service").Logger(),
		loc:       loc,
		now:       time.Now,
	}
}

func (s *submissionService) Create(ctx context.Context, actor Actor, docTypeID uint, fieldsJSON string, file *multipart.FileHeader) (dto.SubmissionSummary, error) {
	if _, err := s.repos.Students.GetByID(ctx, actor.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionSummary{}, ErrStudentNotFound
		}
		return dto.SubmissionSummary{}, err
	}

	docType, err := s.repos.DocTypes.GetByID(ctx, docTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionSummary{}, ErrDocTypeNotFound
		}
		return dto.SubmissionSummary{}, err
	}

	if err := s.ensureNotPastDeadline(ctx, docType.ID); err != nil {
		return dto.SubmissionSummary{}, err
	}

	if file == nil || file.Size == 0 {
		return dto.SubmissionSummary{}, ErrFileRequired
	}
	if err := s.validateFileType(file); err != nil {
		return dto.SubmissionSummary{}, err
	}

	inputs, err := s.parseFields(fieldsJSON)
	if err != nil {
		return dto.SubmissionSummary{}, err
	}

	submission := models.Submission{
		StudentID: actor.ID,
		DocTypeID: docType.ID,
		Status:    models.SubmissionStatusDraft,
	}

	var fileURL string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submissions := s.repos.Submissions.WithTx(tx)
		if err := submissions.Create(ctx, &submission); err != nil {
			return err
		}

		if _, fileURL, err = s.swapFile(ctx, tx, submission.ID, file); err != nil {
			return err
		}
		if err := s.replaceFieldValues(ctx, tx, submission.ID, docType.ID, inputs); err != nil {
			return err
		}

		submittedAt := s.now()
		submission.Status = models.SubmissionStatusSubmitted
		submission.SubmittedAt = &submittedAt
		if err := submissions.Update(ctx, &submission); err != nil {
			return err
		}

		if err := s.repos.History.WithTx(tx).Append(ctx, &models.SubmissionHistory{
			SubmissionID: submission.ID,
			Action:       models.HistoryActionCreate,
			Memo:         "student submission",
		}); err != nil {
			return err
		}

		// The server moves straight into review; the orchestrator picks the
		// submission up after commit.
		submission.Status = models.SubmissionStatusUnderReview
		return submissions.Update(ctx, &submission)
	})
	if err != nil {
		return dto.SubmissionSummary{}, err
	}

	s.events.Publish(SubmissionEvent{
		SubmissionID: submission.ID,
		Action:       models.HistoryActionCreate,
		Status:       submission.Status,
		Memo:         "student submission",
	})
	if s.scheduler != nil {
		s.scheduler.Schedule(submission.ID)
	}

	s.logger.Info().Uint("submission_id", submission.ID).Uint("doc_type_id", docType.ID).Msg("submission created")

	return dto.NewSubmissionSummary(submission, fileURL), nil
}

func (s *submissionService) Update(ctx context.Context, actor Actor, id uint, fieldsJSON string, file *multipart.FileHeader) (dto.SubmissionSummary, error) {
	submission, err := s.requireSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionSummary{}, err
	}
	if !submission.IsEditable() {
		return dto.SubmissionSummary{}, ErrNotEditable
	}

	var inputs []dto.FieldValueInput
	if strings.TrimSpace(fieldsJSON) != "" {
		if inputs, err = s.parseFields(fieldsJSON); err != nil {
			return dto.SubmissionSummary{}, err
		}
	}
	if file != nil && file.Size > 0 {
		if err := s.validateFileType(file); err != nil {
			return dto.SubmissionSummary{}, err
		}
	}

	var replacedURL string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if file != nil && file.Size > 0 {
			if replacedURL, _, err = s.swapFile(ctx, tx, submission.ID, file); err != nil {
				return err
			}
		}
		if strings.TrimSpace(fieldsJSON) != "" {
			if err := s.replaceFieldValues(ctx, tx, submission.ID, submission.DocTypeID, inputs); err != nil {
				return err
			}
		}
		// Save-without-submitting semantics: status never changes here.
		return nil
	})
	if err != nil {
		return dto.SubmissionSummary{}, err
	}

	s.cleanupReplacedFile(ctx, replacedURL)

	return dto.NewSubmissionSummary(submission, s.currentFileURL(ctx, submission.ID)), nil
}

func (s *submissionService) Submit(ctx context.Context, actor Actor, id uint, payload dto.SubmitRequest) (dto.SubmissionSummary, error) {
	submission, err := s.requireSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionSummary{}, err
	}
	if !submission.IsEditable() {
		return dto.SubmissionSummary{}, ErrNotEditable
	}
	if payload.Mode == nil {
		return dto.SubmissionSummary{}, ErrModeRequired
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionSummary{}, err
	}
	if err := s.ensureNotPastDeadline(ctx, submission.DocTypeID); err != nil {
		return dto.SubmissionSummary{}, err
	}

	memo := "student resubmission (FINAL)"
	if *payload.Mode == dto.SubmitModeDirect {
		memo = "student resubmission (DIRECT, automated verification skipped)"
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submissions := s.repos.Submissions.WithTx(tx)

		submittedAt := s.now()
		submission.Status = models.SubmissionStatusSubmitted
		submission.SubmittedAt = &submittedAt
		if err := submissions.Update(ctx, &submission); err != nil {
			return err
		}

		if err := s.repos.History.WithTx(tx).Append(ctx, &models.SubmissionHistory{
			SubmissionID: submission.ID,
			Action:       models.HistoryActionCreate,
			Memo:         memo,
		}); err != nil {
			return err
		}

		submission.Status = models.SubmissionStatusUnderReview
		return submissions.Update(ctx, &submission)
	})
	if err != nil {
		return dto.SubmissionSummary{}, err
	}

	s.events.Publish(SubmissionEvent{
		SubmissionID: submission.ID,
		Action:       models.HistoryActionCreate,
		Status:       submission.Status,
		Memo:         memo,
	})
	if s.scheduler != nil {
		s.scheduler.Schedule(submission.ID)
	}

	s.logger.Info().Uint("submission_id", submission.ID).Str("mode", *payload.Mode).Msg("submission submitted")

	return dto.NewSubmissionSummary(submission, s.currentFileURL(ctx, submission.ID)), nil
}

func (s *submissionService) GetSummary(ctx context.Context, id uint) (dto.SubmissionSummary, error) {
	submission, err := s.requireSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionSummary{}, err
	}

	return dto.NewSubmissionSummary(submission, s.currentFileURL(ctx, submission.ID)), nil
}

func (s *submissionService) ListMine(ctx context.Context, actor Actor, limit int, statusCSV string) ([]dto.MySubmissionRow, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 20 {
		limit = 20
	}
	statuses := parseStatusCSV(statusCSV)

	cacheKey := fmt.Sprintf("submissions:my:%d:limit=%d:status=%s", actor.ID, limit, strings.Join(statuses, ","))
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var rows []dto.MySubmissionRow
			if unmarshalErr := json.Unmarshal([]byte(cached), &rows); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", actor.ID).Msg("my-submissions cache hit")
				return rows, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read my-submissions cache")
		}
	}

	submissions, err := s.repos.Submissions.ListMine(ctx, actor.ID, statuses, limit)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.MySubmissionRow, 0, len(submissions))
	for _, submission := range submissions {
		fileName := "(no file)"
		if fileURL := s.currentFileURL(ctx, submission.ID); fileURL != "" {
			fileName = basenameFromURL(fileURL)
		}
		row := dto.MySubmissionRow{
			SubmissionID: submission.ID,
			Status:       submission.Status,
			FileName:     fileName,
		}
		if submission.SubmittedAt != nil {
			formatted := submission.SubmittedAt.Format(time.RFC3339)
			row.SubmittedAt = &formatted
		}
		rows = append(rows, row)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(rows); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store my-submissions cache")
			}
		}
	}

	return rows, nil
}

func (s *submissionService) ReviewResult(ctx context.Context, id uint) (dto.ReviewResultResponse, error) {
	submission, err := s.requireSubmission(ctx, id)
	if err != nil {
		return dto.ReviewResultResponse{}, err
	}

	entries, err := s.repos.History.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return dto.ReviewResultResponse{}, err
	}
	memos := make([]string, 0, len(entries))
	for _, entry := range entries {
		memos = append(memos, entry.Memo)
	}

	response := dto.ReviewResultResponse{
		SubmissionID: submission.ID,
		Status:       submission.Status,
		DebugTexts:   memos,
		Findings:     []dto.Finding{},
	}
	if submission.SubmittedAt != nil {
		formatted := submission.SubmittedAt.Format(time.RFC3339)
		response.SubmittedAt = &formatted
	}

	result, err := s.repos.Results.LatestBySubmission(ctx, submission.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response, nil
		}
		return dto.ReviewResultResponse{}, err
	}

	response.Reason = result.Reason
	if len(result.Findings) > 0 {
		var findings []dto.Finding
		if err := json.Unmarshal(result.Findings, &findings); err == nil {
			response.Findings = findings
		}
	}

	return response, nil
}

func (s *submissionService) requireSubmission(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.repos.Submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	return submission, nil
}

func (s *submissionService) ensureNotPastDeadline(ctx context.Context, docTypeID uint) error {
	deadline, err := s.repos.DocTypes.GetDeadline(ctx, docTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No deadline configured: always open.
			return nil
		}
		return err
	}
	if deadline.IsPast(s.now(), s.loc) {
		return ErrDeadlinePassed
	}

	return nil
}

// swapFile stores the new upload and repoints the single SubmissionFile row
// at it. It returns the previous object URL (empty on first upload) so the
// caller can delete the old blob after the transaction committed, plus the
// new URL.
func (s *submissionService) swapFile(ctx context.Context, tx *gorm.DB, submissionID uint, file *multipart.FileHeader) (string, string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer reader.Close()

	newURL, err := s.store.Put(ctx, fmt.Sprintf("submissions/%d", submissionID), file.Filename, reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to store upload: %w", err)
	}

	files := s.repos.Files.WithTx(tx)
	existing, err := files.GetBySubmission(ctx, submissionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", err
		}
		return "", newURL, files.Create(ctx, &models.SubmissionFile{
			SubmissionID: submissionID,
			FileURL:      newURL,
			UploadedAt:   s.now(),
		})
	}

	oldURL := existing.FileURL
	existing.FileURL = newURL
	existing.UploadedAt = s.now()

	return oldURL, newURL, files.Save(ctx, &existing)
}

// cleanupReplacedFile removes the superseded blob after the pointer swap
// committed. Deletion failures are logged and ignored.
func (s *submissionService) cleanupReplacedFile(ctx context.Context, objectURL string) {
	if objectURL == "" {
		return
	}
	if err := s.store.Delete(ctx, objectURL); err != nil {
		s.logger.Warn().Err(err).Str("url", objectURL).Msg("failed to delete replaced file")
	}
}

func (s *submissionService) replaceFieldValues(ctx context.Context, tx *gorm.DB, submissionID, docTypeID uint, inputs []dto.FieldValueInput) error {
	defined, err := s.repos.DocTypes.WithTx(tx).ListFields(ctx, docTypeID)
	if err != nil {
		return err
	}

	byID := make(map[uint]models.RequiredField, len(defined))
	byName := make(map[string]models.RequiredField, len(defined))
	for _, field := range defined {
		byID[field.ID] = field
		if field.FieldName != "" {
			byName[field.FieldName] = field
		}
	}

	rows := make([]models.SubmissionFieldValue, 0, len(inputs))
	for _, input := range inputs {
		var requiredFieldID *uint
		if input.RequiredFieldID != nil {
			if field, ok := byID[*input.RequiredFieldID]; ok {
				id := field.ID
				requiredFieldID = &id
			}
		} else if field, ok := byName[input.Label]; ok {
			id := field.ID
			requiredFieldID = &id
		}

		rows = append(rows, models.SubmissionFieldValue{
			SubmissionID:    submissionID,
			RequiredFieldID: requiredFieldID,
			FieldName:       input.Label,
			FieldValue:      input.Value,
		})
	}

	return s.repos.FieldValues.WithTx(tx).ReplaceForSubmission(ctx, submissionID, rows)
}

func (s *submissionService) parseFields(fieldsJSON string) ([]dto.FieldValueInput, error) {
	if strings.TrimSpace(fieldsJSON) == "" {
		return nil, nil
	}

	var document interface{}
	if err := json.Unmarshal([]byte(fieldsJSON), &document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}
	if err := fieldsSchema.Validate(document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}

	var inputs []dto.FieldValueInput
	if err := json.Unmarshal([]byte(fieldsJSON), &inputs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}

	for i := range inputs {
		inputs[i].Label = s.sanitizer.Sanitize(inputs[i].Label)
		inputs[i].Value = s.sanitizer.Sanitize(inputs[i].Value)
	}

	return inputs, nil
}

func (s *submissionService) validateFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain", "image/png", "image/jpeg"}
	for _, candidate := range allowed {
		if mime.Is(candidate) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, mime.String())
}

func (s *submissionService) currentFileURL(ctx context.Context, submissionID uint) string {
	file, err := s.repos.Files.GetBySubmission(ctx, submissionID)
	if err != nil {
		return ""
	}
	return file.FileURL
}

func parseStatusCSV(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}

	var statuses []string
	for _, token := range strings.Split(csv, ",") {
		token = strings.ToUpper(strings.TrimSpace(token))
		if token == "" || !models.KnownStatus(token) {
			// Unknown tokens are silently ignored.
			continue
		}
		statuses = append(statuses, token)
	}

	return statuses
}

func basenameFromURL(objectURL string) string {
	parsed, err := url.Parse(objectURL)
	if err != nil {
		if idx := strings.LastIndex(objectURL, "/"); idx >= 0 {
			return objectURL[idx+1:]
		}
		return objectURL
	}

	base := path.Base(parsed.Path)
	if decoded, err := url.PathUnescape(base); err == nil {
		return decoded
	}
	return base
}
