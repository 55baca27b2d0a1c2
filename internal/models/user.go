package models

import "time"

// Student is a member allowed to create and edit submissions.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentNo string    `gorm:"size:32;uniqueIndex;not null" json:"student_no"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Admin is a member allowed to approve or reject submissions and to manage
// doc types and deadlines.
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DepartmentID uint      `gorm:"index" json:"department_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
