// Package repositorytest provides in-memory repository implementations for
// service tests. Missing records surface as wrapped sql.ErrNoRows, matching
// what the postgres implementations return.
package repositorytest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type AccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{accounts: make(map[uuid.UUID]*model.Account)}
}

func (r *AccountRepo) Create(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	stored := *account
	r.accounts[account.ID] = &stored
	return nil
}

func (r *AccountRepo) Get(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, fmt.Errorf("failed to get account: %w", sql.ErrNoRows)
	}
	copied := *account
	return &copied, nil
}

func (r *AccountRepo) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if strings.EqualFold(account.Username, username) {
			copied := *account
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("failed to get account by username: %w", sql.ErrNoRows)
}

func (r *AccountRepo) Update(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; !ok {
		return fmt.Errorf("account not found")
	}
	account.UpdatedAt = time.Now()
	stored := *account
	r.accounts[account.ID] = &stored
	return nil
}

func (r *AccountRepo) List(_ context.Context) ([]*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]*model.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		copied := *account
		accounts = append(accounts, &copied)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (r *AccountRepo) ListByRole(_ context.Context, role model.Role) ([]*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var accounts []*model.Account
	for _, account := range r.accounts {
		if account.Role == role {
			copied := *account
			accounts = append(accounts, &copied)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Username < accounts[j].Username
	})
	return accounts, nil
}

type PatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*model.Patient
}

func NewPatientRepo() *PatientRepo {
	return &PatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *PatientRepo) Create(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()
	stored := *patient
	r.patients[patient.ID] = &stored
	return nil
}

func (r *PatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[id]
	if !ok {
		return nil, fmt.Errorf("failed to get patient: %w", sql.ErrNoRows)
	}
	copied := *patient
	return &copied, nil
}

func (r *PatientRepo) GetByNationalID(_ context.Context, nationalID string) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, patient := range r.patients {
		if patient.NationalID == nationalID {
			copied := *patient
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("failed to get patient by national id: %w", sql.ErrNoRows)
}

func (r *PatientRepo) List(_ context.Context) ([]*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patients := make([]*model.Patient, 0, len(r.patients))
	for _, patient := range r.patients {
		copied := *patient
		patients = append(patients, &copied)
	}
	sort.Slice(patients, func(i, j int) bool {
		return patients[i].FullName < patients[j].FullName
	})
	return patients, nil
}

// AppointmentRepo resolves display fields on List from the account and
// patient fakes, mirroring the read-time JOIN in postgres.
type AppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
	Accounts     *AccountRepo
	Patients     *PatientRepo
}

func NewAppointmentRepo(accounts *AccountRepo, patients *PatientRepo) *AppointmentRepo {
	return &AppointmentRepo{
		appointments: make(map[uuid.UUID]*model.Appointment),
		Accounts:     accounts,
		Patients:     patients,
	}
}

func (r *AppointmentRepo) Create(_ context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	stored := *appointment
	r.appointments[appointment.ID] = &stored
	return nil
}

func (r *AppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return nil, fmt.Errorf("failed to get appointment: %w", sql.ErrNoRows)
	}
	copied := *appointment
	return &copied, nil
}

func (r *AppointmentRepo) Update(_ context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[appointment.ID]; !ok {
		return fmt.Errorf("appointment not found")
	}
	appointment.UpdatedAt = time.Now()
	stored := *appointment
	r.appointments[appointment.ID] = &stored
	return nil
}

func (r *AppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	r.mu.Lock()
	var matched []*model.Appointment
	for _, appointment := range r.appointments {
		if filters != nil {
			if filters.PhysicianID != uuid.Nil && appointment.PhysicianID != filters.PhysicianID {
				continue
			}
			if filters.Status != "" && appointment.Status != filters.Status {
				continue
			}
		}
		copied := *appointment
		matched = append(matched, &copied)
	}
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].Time < matched[j].Time
	})

	details := make([]*model.AppointmentDetail, 0, len(matched))
	for _, appointment := range matched {
		detail := &model.AppointmentDetail{Appointment: *appointment}
		if r.Patients != nil {
			if patient, err := r.Patients.Get(ctx, appointment.PatientID); err == nil {
				detail.PatientName = patient.FullName
				detail.PatientNationalID = patient.NationalID
			}
		}
		if r.Accounts != nil {
			if physician, err := r.Accounts.Get(ctx, appointment.PhysicianID); err == nil {
				detail.PhysicianUsername = physician.Username
			}
		}
		details = append(details, detail)
	}
	return details, nil
}

type OutboxRepo struct {
	mu     sync.Mutex
	Events []*model.OutboxEvent
}

func NewOutboxRepo() *OutboxRepo {
	return &OutboxRepo{}
}

func (r *OutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	stored := *event
	r.Events = append(r.Events, &stored)
	return nil
}

func (r *OutboxRepo) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []*model.OutboxEvent
	for _, event := range r.Events {
		if event.Status == model.OutboxStatusPending {
			copied := *event
			pending = append(pending, &copied)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (r *OutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range r.Events {
		if event.ID == id {
			now := time.Now()
			event.Status = model.OutboxStatusProcessed
			event.ProcessedAt = &now
			event.UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("event not found")
}

func (r *OutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range r.Events {
		if event.ID == id {
			event.Status = model.OutboxStatusFailed
			event.ErrorMessage = &errorMessage
			event.RetryCount++
			event.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("event not found")
}

func (r *OutboxRepo) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []*model.OutboxEvent
	var deleted int64
	for _, event := range r.Events {
		if event.Status == model.OutboxStatusProcessed && event.ProcessedAt != nil && event.ProcessedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	r.Events = kept
	return deleted, nil
}
