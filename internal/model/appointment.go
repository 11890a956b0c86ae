package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusAttended  AppointmentStatus = "ATTENDED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow    AppointmentStatus = "NO_SHOW"
)

// Valid reports whether s is one of the four known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusAttended,
		AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether s permits no further transitions. SCHEDULED is
// the sole non-terminal status.
func (s AppointmentStatus) IsTerminal() bool {
	return s.Valid() && s != AppointmentStatusScheduled
}

// Appointment is a scheduled patient-physician encounter. PhysicianID must
// reference an account with role PHYSICIAN; appointments are never deleted.
type Appointment struct {
	Base
	PatientID   uuid.UUID         `json:"patient_id" db:"patient_id"`
	PhysicianID uuid.UUID         `json:"physician_id" db:"physician_id"`
	Date        time.Time         `json:"date" db:"date"`
	Time        string            `json:"time" db:"time"`
	Reason      string            `json:"reason" db:"reason"`
	Status      AppointmentStatus `json:"status" db:"status"`
}

// AppointmentDetail is the denormalized read model returned by list
// operations: patient name and national id plus the physician's username,
// resolved at read time.
type AppointmentDetail struct {
	Appointment
	PatientName       string `json:"patient_name" db:"patient_name"`
	PatientNationalID string `json:"patient_national_id" db:"patient_national_id"`
	PhysicianUsername string `json:"physician_username" db:"physician_username"`
}

// CreateAppointmentRequest represents scheduling parameters
type CreateAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	PhysicianID uuid.UUID `json:"physician_id" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
	Time        string    `json:"time" binding:"required,timeslot"`
	Reason      string    `json:"reason" binding:"required"`
}

// TransitionStatusRequest carries the requested target status
type TransitionStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=SCHEDULED ATTENDED CANCELLED NO_SHOW"`
}

// UpdateAppointmentRequest represents a full-record edit. Absent fields are
// left unchanged.
type UpdateAppointmentRequest struct {
	Date        *time.Time         `json:"date"`
	Time        *string            `json:"time" binding:"omitempty,timeslot"`
	Reason      *string            `json:"reason"`
	PhysicianID *uuid.UUID         `json:"physician_id"`
	Status      *AppointmentStatus `json:"status" binding:"omitempty,oneof=SCHEDULED ATTENDED CANCELLED NO_SHOW"`
}

// AppointmentFilters narrows list results
type AppointmentFilters struct {
	PhysicianID uuid.UUID
	Status      AppointmentStatus
}
