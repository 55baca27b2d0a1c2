package service

import "errors"

// Sentinel errors of the lifecycle engine. Handlers map these onto HTTP
// statuses: not-found → 404, validation → 400, conflict → 409,
// forbidden → 403.
var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrDocTypeNotFound indicates a document type could not be found.
	ErrDocTypeNotFound = errors.New("document type not found")
	// ErrDepartmentNotFound indicates a department could not be found.
	ErrDepartmentNotFound = errors.New("department not found")
	// ErrStudentNotFound indicates the caller resolved to no student identity.
	ErrStudentNotFound = errors.New("student not found")

	// ErrFileRequired indicates the mandatory submission file is absent or empty.
	ErrFileRequired = errors.New("submission file is required")
	// ErrDeadlinePassed indicates today is strictly after the deadline day.
	ErrDeadlinePassed = errors.New("submission deadline has passed")
	// ErrModeRequired indicates the submit call carried no mode.
	ErrModeRequired = errors.New("submit mode is required")
	// ErrInvalidFields indicates the fieldsJson payload could not be parsed.
	ErrInvalidFields = errors.New("malformed fields payload")
	// ErrFileTypeNotAllowed indicates the uploaded MIME type is not permitted.
	ErrFileTypeNotAllowed = errors.New("file type not allowed")

	// ErrNotEditable indicates the submission cannot be edited in its current status.
	ErrNotEditable = errors.New("submission is not editable in its current status")
	// ErrNotReviewable indicates no admin decision is permitted in the current status.
	ErrNotReviewable = errors.New("submission is not reviewable in its current status")

	// ErrNotAdmin indicates the caller lacks administrator rights.
	ErrNotAdmin = errors.New("caller is not an administrator")
)
