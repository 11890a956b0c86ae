package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// Service owns the appointment state machine. SCHEDULED is the sole initial
// state; ATTENDED, CANCELLED and NO_SHOW are terminal. Every operation takes
// the caller's Identity explicitly and applies its own role rules on top of
// the route-level guard.
type Service struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	accountRepo repository.AccountRepository
	events      *event.Recorder
}

func NewService(repo repository.AppointmentRepository, patientRepo repository.PatientRepository,
	accountRepo repository.AccountRepository, events *event.Recorder) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		accountRepo: accountRepo,
		events:      events,
	}
}

// CreateAppointment schedules a new appointment. Only a receptionist may
// schedule; both references must resolve, and the physician reference must
// be an account with role PHYSICIAN.
func (s *Service) CreateAppointment(ctx context.Context, identity model.Identity, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if identity.Role != model.RoleReceptionist {
		return nil, apperrors.Forbidden("only a receptionist can schedule appointments")
	}

	if _, err := s.patientRepo.Get(ctx, req.PatientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.validatePhysician(ctx, req.PhysicianID); err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		PatientID:   req.PatientID,
		PhysicianID: req.PhysicianID,
		Date:        req.Date,
		Time:        req.Time,
		Reason:      req.Reason,
		Status:      model.AppointmentStatusScheduled,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.recordEvent(ctx, model.EventAppointmentCreated, appointment, nil)

	return appointment, nil
}

// TransitionStatus moves an appointment out of SCHEDULED. Once terminal, no
// further transition is permitted for any role. The role rules:
//
//	PHYSICIAN:    own appointments only, target ATTENDED or NO_SHOW
//	RECEPTIONIST: target CANCELLED only
//	ADMIN:        any terminal target
func (s *Service) TransitionStatus(ctx context.Context, identity model.Identity, id uuid.UUID, newStatus model.AppointmentStatus) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}

	if appointment.Status.IsTerminal() {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("appointment is already %s", appointment.Status))
	}

	switch identity.Role {
	case model.RolePhysician:
		if appointment.PhysicianID != identity.AccountID {
			return nil, apperrors.Forbidden("cannot modify another physician's appointment")
		}
		if newStatus != model.AppointmentStatusAttended && newStatus != model.AppointmentStatusNoShow {
			return nil, apperrors.Forbidden("a physician can only mark appointments ATTENDED or NO_SHOW")
		}
	case model.RoleReceptionist:
		if newStatus != model.AppointmentStatusCancelled {
			return nil, apperrors.Forbidden("a receptionist can only cancel appointments")
		}
	case model.RoleAdmin:
		if !newStatus.IsTerminal() {
			return nil, apperrors.InvalidTransition(fmt.Sprintf("cannot transition to %s", newStatus))
		}
	default:
		return nil, apperrors.Forbidden("role not permitted to change appointment status")
	}

	oldStatus := appointment.Status
	appointment.Status = newStatus
	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.recordEvent(ctx, model.EventAppointmentStatusChanged, appointment, map[string]interface{}{
		"old_status": oldStatus,
		"new_status": newStatus,
	})

	return appointment, nil
}

// UpdateAppointment is the full-record edit used by the reception desk to
// correct appointments. Only the fields present in the request change; a new
// physician reference is re-validated. There is no terminal-status check on
// this path: it can rewrite any appointment, including setting the status
// directly.
func (s *Service) UpdateAppointment(ctx context.Context, identity model.Identity, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	if identity.Role != model.RoleReceptionist && identity.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("only a receptionist can edit appointments")
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}

	if req.PhysicianID != nil {
		if err := s.validatePhysician(ctx, *req.PhysicianID); err != nil {
			return nil, err
		}
		appointment.PhysicianID = *req.PhysicianID
	}
	if req.Date != nil {
		appointment.Date = *req.Date
	}
	if req.Time != nil {
		appointment.Time = *req.Time
	}
	if req.Reason != nil {
		appointment.Reason = *req.Reason
	}
	if req.Status != nil {
		appointment.Status = *req.Status
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.recordEvent(ctx, model.EventAppointmentUpdated, appointment, nil)

	return appointment, nil
}

// ListAppointments returns appointments with patient and physician display
// fields resolved. A physician always sees only their own appointments: the
// physician filter is overridden with the caller's id regardless of what was
// requested.
func (s *Service) ListAppointments(ctx context.Context, identity model.Identity, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	if identity.Role == model.RolePhysician {
		filters.PhysicianID = identity.AccountID
	}

	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

// validatePhysician resolves the reference and requires role PHYSICIAN. An
// account with any other role is as invalid a reference as a missing one.
func (s *Service) validatePhysician(ctx context.Context, id uuid.UUID) error {
	account, err := s.accountRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("physician", err)
		}
		return apperrors.Internal(err)
	}
	if account.Role != model.RolePhysician {
		return apperrors.NotFound("physician", nil)
	}
	return nil
}

func (s *Service) recordEvent(ctx context.Context, eventType string, appointment *model.Appointment, extra map[string]interface{}) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"appointment_id": appointment.ID,
		"patient_id":     appointment.PatientID,
		"physician_id":   appointment.PhysicianID,
		"status":         appointment.Status,
	}
	for k, v := range extra {
		payload[k] = v
	}
	_ = s.events.Record(ctx, eventType, payload)
}
