package dto

import (
	"time"

	"github.com/noah-isme/docserver-api/internal/models"
)

// DocTypeCreateRequest registers a new document type for a department.
type DocTypeCreateRequest struct {
	DepartmentID   uint     `json:"department_id" validate:"required"`
	Title          string   `json:"title" validate:"required,max=255"`
	RequiredFields []string `json:"required_fields"`
	ExampleValues  []string `json:"example_values"`
}

// DocTypeUpdateRequest replaces title and required-field definitions.
type DocTypeUpdateRequest struct {
	Title          string   `json:"title" validate:"required,max=255"`
	RequiredFields []string `json:"required_fields"`
	ExampleValues  []string `json:"example_values"`
}

// DocTypeResponse is the student-facing listing view.
type DocTypeResponse struct {
	DocTypeID      uint     `json:"doc_type_id"`
	Title          string   `json:"title"`
	RequiredFields []string `json:"required_fields"`
}

// RequiredFieldView is the edit view of one defined field.
type RequiredFieldView struct {
	RequiredFieldID uint   `json:"required_field_id"`
	FieldName       string `json:"field_name"`
	ExampleValue    string `json:"example_value"`
}

// DocTypeEditResponse is the admin edit view of one doc type.
type DocTypeEditResponse struct {
	DocTypeID      uint                `json:"doc_type_id"`
	Title          string              `json:"title"`
	TemplateURL    string              `json:"template_url,omitempty"`
	RequiredFields []RequiredFieldView `json:"required_fields"`
}

// DeadlineRequest sets the deadline day of a doc type.
type DeadlineRequest struct {
	DocTypeID uint   `json:"doc_type_id" validate:"required"`
	Deadline  string `json:"deadline" validate:"required,datetime=2006-01-02"`
}

// DeadlineStatusRow reports whether a doc type is still open for
// submission.
type DeadlineStatusRow struct {
	DocTypeID uint    `json:"doc_type_id"`
	Title     string  `json:"title"`
	Deadline  *string `json:"deadline"`
	Closed    bool    `json:"closed"`
}

// NewDeadlineStatusRow maps a doc type and its optional deadline.
func NewDeadlineStatusRow(dt models.DocType, deadline *models.Deadline, now time.Time, loc *time.Location) DeadlineStatusRow {
	row := DeadlineStatusRow{DocTypeID: dt.ID, Title: dt.Title}
	if deadline != nil {
		day := deadline.Deadline.In(loc).Format("2006-01-02")
		row.Deadline = &day
		row.Closed = deadline.IsPast(now, loc)
	}
	return row
}
