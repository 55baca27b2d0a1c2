package models

import "time"

// Department groups document types and owns the admin review queue.
type Department struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocType is an administrator-defined category of document with its own
// required fields and deadline.
type DocType struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	DepartmentID uint       `gorm:"not null;index" json:"department_id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	TemplateURL  string     `gorm:"size:512" json:"template_url"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Department   Department `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"department"`
}

// RequiredField is a named data point a doc type demands from the student.
type RequiredField struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	DocTypeID    uint   `gorm:"not null;index" json:"doc_type_id"`
	FieldName    string `gorm:"size:255;not null" json:"field_name"`
	ExampleValue string `gorm:"size:255" json:"example_value"`
}

// Deadline is the last calendar day on which submission is permitted for a
// doc type. A doc type without a deadline row accepts submissions at any
// time.
type Deadline struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DocTypeID uint      `gorm:"not null;uniqueIndex" json:"doc_type_id"`
	Deadline  time.Time `gorm:"not null" json:"deadline"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPast reports whether the reference date is strictly after the deadline
// day in the given location. Submitting on the deadline day itself passes.
func (d Deadline) IsPast(reference time.Time, loc *time.Location) bool {
	ref := reference.In(loc)
	due := d.Deadline.In(loc)
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, loc)
	return refDay.After(dueDay)
}
