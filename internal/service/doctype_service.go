package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/dto"
	"github.com/noah-isme/docserver-api/internal/models"
)

// DocTypeService manages document-type definitions and their deadlines.
type DocTypeService interface {
	Register(ctx context.Context, payload dto.DocTypeCreateRequest, template *multipart.FileHeader) (dto.DocTypeEditResponse, error)
	Update(ctx context.Context, id uint, payload dto.DocTypeUpdateRequest, template *multipart.FileHeader) (dto.DocTypeEditResponse, error)
	ListByDepartment(ctx context.Context, departmentID uint) ([]dto.DocTypeResponse, error)
	EditView(ctx context.Context, id uint) (dto.DocTypeEditResponse, error)
	SetDeadline(ctx context.Context, payload dto.DeadlineRequest) (dto.DeadlineStatusRow, error)
	DeadlineStatus(ctx context.Context, departmentID uint) ([]dto.DeadlineStatusRow, error)
}

type docTypeService struct {
	db        *gorm.DB
	repos     Repositories
	store     FileStore
	validator *validator.Validate
	logger    zerolog.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewDocTypeService constructs the registry service.
func NewDocTypeService(db *gorm.DB, repos Repositories, store FileStore, validate *validator.Validate, logger zerolog.Logger, loc *time.Location) DocTypeService {
	if loc == nil {
		loc = time.UTC
	}

	return &docTypeService{
		db:        db,
		repos:     repos,
		store:     store,
		validator: validate,
		logger:    logger.With().Str("component", "doctype_service").Logger(),
		loc:       loc,
		now:       time.Now,
	}
}

func (s *docTypeService) Register(ctx context.Context, payload dto.DocTypeCreateRequest, template *multipart.FileHeader) (dto.DocTypeEditResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DocTypeEditResponse{}, err
	}

	if _, err := s.repos.DocTypes.GetDepartment(ctx, payload.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocTypeEditResponse{}, ErrDepartmentNotFound
		}
		return dto.DocTypeEditResponse{}, err
	}

	docType := models.DocType{
		DepartmentID: payload.DepartmentID,
		Title:        payload.Title,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		docTypes := s.repos.DocTypes.WithTx(tx)
		if err := docTypes.Create(ctx, &docType); err != nil {
			return err
		}
		if err := docTypes.ReplaceFields(ctx, docType.ID, buildFields(docType.ID, payload.RequiredFields, payload.ExampleValues)); err != nil {
			return err
		}
		if template != nil && template.Size > 0 {
			url, err := s.storeTemplate(ctx, docType.ID, template)
			if err != nil {
				return err
			}
			docType.TemplateURL = url
			return docTypes.Update(ctx, &docType)
		}
		return nil
	})
	if err != nil {
		return dto.DocTypeEditResponse{}, err
	}

	s.logger.Info().Uint("doc_type_id", docType.ID).Str("title", docType.Title).Msg("doc type registered")

	return s.EditView(ctx, docType.ID)
}

func (s *docTypeService) Update(ctx context.Context, id uint, payload dto.DocTypeUpdateRequest, template *multipart.FileHeader) (dto.DocTypeEditResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DocTypeEditResponse{}, err
	}

	docType, err := s.repos.DocTypes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocTypeEditResponse{}, ErrDocTypeNotFound
		}
		return dto.DocTypeEditResponse{}, err
	}

	var replacedURL string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		docTypes := s.repos.DocTypes.WithTx(tx)

		docType.Title = payload.Title
		if template != nil && template.Size > 0 {
			url, err := s.storeTemplate(ctx, docType.ID, template)
			if err != nil {
				return err
			}
			replacedURL = docType.TemplateURL
			docType.TemplateURL = url
		}
		if err := docTypes.Update(ctx, &docType); err != nil {
			return err
		}

		return docTypes.ReplaceFields(ctx, docType.ID, buildFields(docType.ID, payload.RequiredFields, payload.ExampleValues))
	})
	if err != nil {
		return dto.DocTypeEditResponse{}, err
	}

	if replacedURL != "" {
		if err := s.store.Delete(ctx, replacedURL); err != nil {
			s.logger.Warn().Err(err).Str("url", replacedURL).Msg("failed to delete replaced template")
		}
	}

	return s.EditView(ctx, docType.ID)
}

func (s *docTypeService) ListByDepartment(ctx context.Context, departmentID uint) ([]dto.DocTypeResponse, error) {
	if _, err := s.repos.DocTypes.GetDepartment(ctx, departmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}

	docTypes, err := s.repos.DocTypes.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DocTypeResponse, 0, len(docTypes))
	for _, docType := range docTypes {
		fields, err := s.repos.DocTypes.ListFields(ctx, docType.ID)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(fields))
		for _, field := range fields {
			names = append(names, field.FieldName)
		}
		responses = append(responses, dto.DocTypeResponse{
			DocTypeID:      docType.ID,
			Title:          docType.Title,
			RequiredFields: names,
		})
	}

	return responses, nil
}

func (s *docTypeService) EditView(ctx context.Context, id uint) (dto.DocTypeEditResponse, error) {
	docType, err := s.repos.DocTypes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocTypeEditResponse{}, ErrDocTypeNotFound
		}
		return dto.DocTypeEditResponse{}, err
	}

	fields, err := s.repos.DocTypes.ListFields(ctx, docType.ID)
	if err != nil {
		return dto.DocTypeEditResponse{}, err
	}
	views := make([]dto.RequiredFieldView, 0, len(fields))
	for _, field := range fields {
		views = append(views, dto.RequiredFieldView{
			RequiredFieldID: field.ID,
			FieldName:       field.FieldName,
			ExampleValue:    field.ExampleValue,
		})
	}

	return dto.DocTypeEditResponse{
		DocTypeID:      docType.ID,
		Title:          docType.Title,
		TemplateURL:    docType.TemplateURL,
		RequiredFields: views,
	}, nil
}

func (s *docTypeService) SetDeadline(ctx context.Context, payload dto.DeadlineRequest) (dto.DeadlineStatusRow, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DeadlineStatusRow{}, err
	}

	docType, err := s.repos.DocTypes.GetByID(ctx, payload.DocTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeadlineStatusRow{}, ErrDocTypeNotFound
		}
		return dto.DeadlineStatusRow{}, err
	}

	day, err := time.ParseInLocation("2006-01-02", payload.Deadline, s.loc)
	if err != nil {
		return dto.DeadlineStatusRow{}, fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}

	deadline := models.Deadline{DocTypeID: docType.ID, Deadline: day}
	if err := s.repos.DocTypes.UpsertDeadline(ctx, &deadline); err != nil {
		return dto.DeadlineStatusRow{}, err
	}

	return dto.NewDeadlineStatusRow(docType, &deadline, s.now(), s.loc), nil
}

func (s *docTypeService) DeadlineStatus(ctx context.Context, departmentID uint) ([]dto.DeadlineStatusRow, error) {
	docTypes, err := s.repos.DocTypes.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.DeadlineStatusRow, 0, len(docTypes))
	now := s.now()
	for _, docType := range docTypes {
		deadline, err := s.repos.DocTypes.GetDeadline(ctx, docType.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				rows = append(rows, dto.NewDeadlineStatusRow(docType, nil, now, s.loc))
				continue
			}
			return nil, err
		}
		rows = append(rows, dto.NewDeadlineStatusRow(docType, &deadline, now, s.loc))
	}

	return rows, nil
}

func (s *docTypeService) storeTemplate(ctx context.Context, docTypeID uint, template *multipart.FileHeader) (string, error) {
	reader, err := template.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open template: %w", err)
	}
	defer reader.Close()

	return s.store.Put(ctx, fmt.Sprintf("doctypes/%d", docTypeID), template.Filename, reader)
}

func buildFields(docTypeID uint, names, examples []string) []models.RequiredField {
	fields := make([]models.RequiredField, 0, len(names))
	for i, name := range names {
		field := models.RequiredField{DocTypeID: docTypeID, FieldName: name}
		if i < len(examples) {
			field.ExampleValue = examples[i]
		}
		fields = append(fields, field)
	}
	return fields
}
