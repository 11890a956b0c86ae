package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/repositorytest"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type fixture struct {
	svc          *Service
	accounts     *repositorytest.AccountRepo
	patients     *repositorytest.PatientRepo
	appointments *repositorytest.AppointmentRepo
	outbox       *repositorytest.OutboxRepo

	receptionist model.Identity
	physician    model.Identity
	admin        model.Identity
	patient      *model.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	accounts := repositorytest.NewAccountRepo()
	patients := repositorytest.NewPatientRepo()
	appointments := repositorytest.NewAppointmentRepo(accounts, patients)
	outbox := repositorytest.NewOutboxRepo()

	f := &fixture{
		svc:          NewService(appointments, patients, accounts, event.NewRecorder(outbox)),
		accounts:     accounts,
		patients:     patients,
		appointments: appointments,
		outbox:       outbox,
	}

	f.receptionist = f.createAccount(t, "recepcion", model.RoleReceptionist)
	f.physician = f.createAccount(t, "dr.house", model.RolePhysician)
	f.admin = f.createAccount(t, "admin", model.RoleAdmin)

	f.patient = &model.Patient{
		FullName:   "Juan Pérez",
		NationalID: "10001",
		BirthDate:  time.Date(1985, 5, 15, 0, 0, 0, 0, time.UTC),
		Phone:      "70010001",
	}
	require.NoError(t, patients.Create(ctx, f.patient))

	return f
}

func (f *fixture) createAccount(t *testing.T, username string, role model.Role) model.Identity {
	t.Helper()
	account := &model.Account{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, f.accounts.Create(context.Background(), account))
	return model.Identity{AccountID: account.ID, Role: role}
}

func (f *fixture) schedule(t *testing.T) *model.Appointment {
	t.Helper()
	appointment, err := f.svc.CreateAppointment(context.Background(), f.receptionist, &model.CreateAppointmentRequest{
		PatientID:   f.patient.ID,
		PhysicianID: f.physician.AccountID,
		Date:        time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Time:        "10:30",
		Reason:      "annual checkup",
	})
	require.NoError(t, err)
	return appointment
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t)

	appointment := f.schedule(t)
	assert.Equal(t, model.AppointmentStatusScheduled, appointment.Status)
	assert.NotEqual(t, uuid.Nil, appointment.ID)
	assert.Equal(t, f.physician.AccountID, appointment.PhysicianID)
}

func TestCreateAppointmentReceptionistOnly(t *testing.T) {
	f := newFixture(t)
	req := &model.CreateAppointmentRequest{
		PatientID:   f.patient.ID,
		PhysicianID: f.physician.AccountID,
		Date:        time.Now(),
		Time:        "09:00",
		Reason:      "checkup",
	}

	for _, identity := range []model.Identity{f.physician, f.admin} {
		_, err := f.svc.CreateAppointment(context.Background(), identity, req)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden), "role %s should be forbidden", identity.Role)
	}
}

func TestCreateAppointmentUnknownPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAppointment(context.Background(), f.receptionist, &model.CreateAppointmentRequest{
		PatientID:   uuid.New(),
		PhysicianID: f.physician.AccountID,
		Date:        time.Now(),
		Time:        "09:00",
		Reason:      "checkup",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestCreateAppointmentPhysicianValidation(t *testing.T) {
	f := newFixture(t)

	// unknown reference
	_, err := f.svc.CreateAppointment(context.Background(), f.receptionist, &model.CreateAppointmentRequest{
		PatientID:   f.patient.ID,
		PhysicianID: uuid.New(),
		Date:        time.Now(),
		Time:        "09:00",
		Reason:      "checkup",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	// an existing account with the wrong role is as invalid as a missing one
	_, err = f.svc.CreateAppointment(context.Background(), f.receptionist, &model.CreateAppointmentRequest{
		PatientID:   f.patient.ID,
		PhysicianID: f.admin.AccountID,
		Date:        time.Now(),
		Time:        "09:00",
		Reason:      "checkup",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestTransitionStatusPhysician(t *testing.T) {
	f := newFixture(t)

	appointment := f.schedule(t)
	updated, err := f.svc.TransitionStatus(context.Background(), f.physician, appointment.ID, model.AppointmentStatusAttended)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusAttended, updated.Status)

	appointment = f.schedule(t)
	updated, err = f.svc.TransitionStatus(context.Background(), f.physician, appointment.ID, model.AppointmentStatusNoShow)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusNoShow, updated.Status)

	// a physician cannot cancel
	appointment = f.schedule(t)
	_, err = f.svc.TransitionStatus(context.Background(), f.physician, appointment.ID, model.AppointmentStatusCancelled)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}

func TestTransitionStatusPhysicianOwnership(t *testing.T) {
	f := newFixture(t)
	other := f.createAccount(t, "dr.wilson", model.RolePhysician)

	appointment := f.schedule(t)
	_, err := f.svc.TransitionStatus(context.Background(), other, appointment.ID, model.AppointmentStatusAttended)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	// the appointment stays untouched
	current, err := f.appointments.Get(context.Background(), appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, current.Status)
}

func TestTransitionStatusReceptionist(t *testing.T) {
	f := newFixture(t)

	appointment := f.schedule(t)
	updated, err := f.svc.TransitionStatus(context.Background(), f.receptionist, appointment.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, updated.Status)

	appointment = f.schedule(t)
	for _, target := range []model.AppointmentStatus{model.AppointmentStatusAttended, model.AppointmentStatusNoShow} {
		_, err := f.svc.TransitionStatus(context.Background(), f.receptionist, appointment.ID, target)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden), "receptionist should not reach %s", target)
	}
}

func TestTransitionStatusAdmin(t *testing.T) {
	f := newFixture(t)

	for _, target := range []model.AppointmentStatus{
		model.AppointmentStatusAttended,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	} {
		appointment := f.schedule(t)
		updated, err := f.svc.TransitionStatus(context.Background(), f.admin, appointment.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target, updated.Status)
	}

	// SCHEDULED is not a valid target, even for an admin
	appointment := f.schedule(t)
	_, err := f.svc.TransitionStatus(context.Background(), f.admin, appointment.ID, model.AppointmentStatusScheduled)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition))
}

func TestTransitionStatusTerminalIsFinal(t *testing.T) {
	f := newFixture(t)

	appointment := f.schedule(t)
	_, err := f.svc.TransitionStatus(context.Background(), f.physician, appointment.ID, model.AppointmentStatusAttended)
	require.NoError(t, err)

	// once terminal, no role may move it again
	for _, identity := range []model.Identity{f.physician, f.receptionist, f.admin} {
		for _, target := range []model.AppointmentStatus{
			model.AppointmentStatusAttended,
			model.AppointmentStatusCancelled,
			model.AppointmentStatusNoShow,
			model.AppointmentStatusScheduled,
		} {
			_, err := f.svc.TransitionStatus(context.Background(), identity, appointment.ID, target)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition),
				"%s -> %s should be rejected as terminal", identity.Role, target)
		}
	}
}

func TestTransitionStatusNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.TransitionStatus(context.Background(), f.admin, uuid.New(), model.AppointmentStatusCancelled)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestUpdateAppointment(t *testing.T) {
	f := newFixture(t)
	other := f.createAccount(t, "dr.wilson", model.RolePhysician)

	appointment := f.schedule(t)
	newTime := "14:00"
	newReason := "follow-up"
	updated, err := f.svc.UpdateAppointment(context.Background(), f.receptionist, appointment.ID, &model.UpdateAppointmentRequest{
		Time:        &newTime,
		Reason:      &newReason,
		PhysicianID: &other.AccountID,
	})
	require.NoError(t, err)
	assert.Equal(t, newTime, updated.Time)
	assert.Equal(t, newReason, updated.Reason)
	assert.Equal(t, other.AccountID, updated.PhysicianID)
	// untouched fields survive
	assert.Equal(t, appointment.Date, updated.Date)
	assert.Equal(t, appointment.PatientID, updated.PatientID)
}

func TestUpdateAppointmentRoleGate(t *testing.T) {
	f := newFixture(t)

	appointment := f.schedule(t)
	newReason := "follow-up"
	_, err := f.svc.UpdateAppointment(context.Background(), f.physician, appointment.ID, &model.UpdateAppointmentRequest{
		Reason: &newReason,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	_, err = f.svc.UpdateAppointment(context.Background(), f.admin, appointment.ID, &model.UpdateAppointmentRequest{
		Reason: &newReason,
	})
	assert.NoError(t, err)
}

func TestUpdateAppointmentRejectsInvalidPhysician(t *testing.T) {
	f := newFixture(t)

	appointment := f.schedule(t)
	bogus := f.admin.AccountID
	_, err := f.svc.UpdateAppointment(context.Background(), f.receptionist, appointment.ID, &model.UpdateAppointmentRequest{
		PhysicianID: &bogus,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestUpdateAppointmentCanRewriteTerminal(t *testing.T) {
	f := newFixture(t)

	appointment := f.schedule(t)
	_, err := f.svc.TransitionStatus(context.Background(), f.receptionist, appointment.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)

	// the full edit path carries no terminal check and can reset the status
	status := model.AppointmentStatusScheduled
	updated, err := f.svc.UpdateAppointment(context.Background(), f.receptionist, appointment.ID, &model.UpdateAppointmentRequest{
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, updated.Status)
}

func TestListAppointmentsPhysicianScoped(t *testing.T) {
	f := newFixture(t)
	other := f.createAccount(t, "dr.wilson", model.RolePhysician)

	first := f.schedule(t)
	_, err := f.svc.CreateAppointment(context.Background(), f.receptionist, &model.CreateAppointmentRequest{
		PatientID:   f.patient.ID,
		PhysicianID: other.AccountID,
		Date:        time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		Time:        "11:00",
		Reason:      "consultation",
	})
	require.NoError(t, err)

	// a physician sees only their own, even when asking for someone else's
	results, err := f.svc.ListAppointments(context.Background(), f.physician, &model.AppointmentFilters{
		PhysicianID: other.AccountID,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, first.ID, results[0].ID)
	assert.Equal(t, "dr.house", results[0].PhysicianUsername)
	assert.Equal(t, "Juan Pérez", results[0].PatientName)

	// staff see everything
	results, err = f.svc.ListAppointments(context.Background(), f.receptionist, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestListAppointmentsStatusFilter(t *testing.T) {
	f := newFixture(t)

	appointment := f.schedule(t)
	f.schedule(t)
	_, err := f.svc.TransitionStatus(context.Background(), f.receptionist, appointment.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)

	results, err := f.svc.ListAppointments(context.Background(), f.admin, &model.AppointmentFilters{
		Status: model.AppointmentStatusCancelled,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, appointment.ID, results[0].ID)
}

func TestAppointmentEventsRecorded(t *testing.T) {
	f := newFixture(t)

	appointment := f.schedule(t)
	_, err := f.svc.TransitionStatus(context.Background(), f.physician, appointment.ID, model.AppointmentStatusAttended)
	require.NoError(t, err)

	var types []string
	for _, e := range f.outbox.Events {
		types = append(types, e.EventType)
	}
	assert.Contains(t, types, model.EventAppointmentCreated)
	assert.Contains(t, types, model.EventAppointmentStatusChanged)
}
