package model

import (
	"time"
)

// Patient is a registered patient record. There is no update operation;
// patients are immutable after creation.
type Patient struct {
	Base
	FullName   string    `json:"full_name" db:"full_name"`
	NationalID string    `json:"national_id" db:"national_id"`
	BirthDate  time.Time `json:"birth_date" db:"birth_date"`
	Phone      string    `json:"phone" db:"phone"`
}

// CreatePatientRequest represents patient registration parameters
type CreatePatientRequest struct {
	FullName   string    `json:"full_name" binding:"required"`
	NationalID string    `json:"national_id" binding:"required"`
	BirthDate  time.Time `json:"birth_date" binding:"required"`
	Phone      string    `json:"phone" binding:"required"`
}
