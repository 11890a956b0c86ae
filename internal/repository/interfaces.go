package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// AccountRepository handles staff account persistence
	AccountRepository interface {
		Create(ctx context.Context, account *model.Account) error
		Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
		// GetByUsername matches case-insensitively.
		GetByUsername(ctx context.Context, username string) (*model.Account, error)
		Update(ctx context.Context, account *model.Account) error
		List(ctx context.Context) ([]*model.Account, error)
		ListByRole(ctx context.Context, role model.Role) ([]*model.Account, error)
	}

	// PatientRepository handles patient records
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByNationalID(ctx context.Context, nationalID string) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
	}

	// AppointmentRepository handles appointment persistence
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		// List resolves patient and physician display fields at read time.
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error)
	}

	// OutboxRepository stores domain events pending publication
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
