package patient

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// Service manages the patient registry. Patients are immutable after
// creation; there is no update or delete.
type Service struct {
	repo   repository.PatientRepository
	events *event.Recorder
}

func NewService(repo repository.PatientRepository, events *event.Recorder) *Service {
	return &Service{
		repo:   repo,
		events: events,
	}
}

// CreatePatient registers a patient. The national id is globally unique.
func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	existing, err := s.repo.GetByNationalID(ctx, req.NationalID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Internal(err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("a patient with this national id already exists")
	}

	patient := &model.Patient{
		FullName:   req.FullName,
		NationalID: req.NationalID,
		BirthDate:  req.BirthDate,
		Phone:      req.Phone,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, apperrors.Internal(err)
	}

	if s.events != nil {
		_ = s.events.Record(ctx, model.EventPatientCreated, map[string]interface{}{
			"patient_id":  patient.ID,
			"national_id": patient.NationalID,
		})
	}

	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patients, nil
}
