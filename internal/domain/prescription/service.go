package prescription

import (
	"context"
	"strings"
	"time"

	"github.com/akith22/DiagNote/internal/domain/appointment"
	"github.com/akith22/DiagNote/internal/platform/auth"
	"github.com/akith22/DiagNote/internal/platform/db"
	"github.com/akith22/DiagNote/internal/workflow"
)

// Appointments is the slice of the appointment repository the prescription
// workflow needs: reads plus the completion transition.
type Appointments interface {
	GetByID(ctx context.Context, id int64) (*appointment.Appointment, error)
	CompleteConfirmed(ctx context.Context, id int64) (bool, error)
}

// Service gates prescription writes on appointment state and owns the
// appointment-completion side effect.
type Service struct {
	repo         Repository
	appointments Appointments
	tx           db.Transactor
}

func NewService(repo Repository, appointments Appointments, tx db.Transactor) *Service {
	return &Service{repo: repo, appointments: appointments, tx: tx}
}

// Create issues a prescription for a CONFIRMED appointment and completes the
// appointment in the same transaction. Partial application is not possible:
// either the prescription exists and the appointment is COMPLETED, or
// neither changed.
func (s *Service) Create(ctx context.Context, caller auth.Identity, appointmentID int64, notes string) (*Prescription, error) {
	if caller.Role != auth.RoleDoctor {
		return nil, workflow.Unauthorized("only doctors may issue prescriptions")
	}
	if strings.TrimSpace(notes) == "" {
		return nil, workflow.Validation("notes are required")
	}

	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if caller.ID != appt.DoctorID {
		return nil, workflow.Unauthorized("only the assigned doctor may prescribe for this appointment")
	}
	if appt.Status != appointment.StatusConfirmed {
		return nil, workflow.InvalidState("appointment is not CONFIRMED")
	}

	p := &Prescription{
		AppointmentID: appointmentID,
		DoctorID:      caller.ID,
		Notes:         notes,
		DateIssued:    time.Now().UTC(),
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		done, err := s.appointments.CompleteConfirmed(ctx, appointmentID)
		if err != nil {
			return err
		}
		if !done {
			// Lost a race; roll the prescription back.
			return workflow.InvalidState("appointment is not CONFIRMED")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update rewrites notes and re-dates the prescription. Only the authoring
// doctor may edit, and the appointment status is left untouched.
func (s *Service) Update(ctx context.Context, caller auth.Identity, prescriptionID int64, notes string) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if caller.Role != auth.RoleDoctor || caller.ID != p.DoctorID {
		return nil, workflow.Unauthorized("only the authoring doctor may edit this prescription")
	}
	if strings.TrimSpace(notes) == "" {
		return nil, workflow.Validation("notes are required")
	}

	p.Notes = notes
	p.DateIssued = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// canView reports whether the caller is a party to the appointment.
func canView(caller auth.Identity, a *appointment.Appointment) bool {
	switch caller.Role {
	case auth.RoleDoctor:
		return caller.ID == a.DoctorID
	case auth.RolePatient:
		return caller.ID == a.PatientID
	}
	return false
}

// GetLatestForAppointment returns the authoritative prescription for the
// appointment.
func (s *Service) GetLatestForAppointment(ctx context.Context, caller auth.Identity, appointmentID int64) (*Prescription, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canView(caller, appt) {
		return nil, workflow.NotFound("appointment %d not found", appointmentID)
	}
	return s.repo.LatestByAppointment(ctx, appointmentID)
}

func (s *Service) ListForAppointment(ctx context.Context, caller auth.Identity, appointmentID int64) ([]*Prescription, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canView(caller, appt) {
		return nil, workflow.NotFound("appointment %d not found", appointmentID)
	}
	return s.repo.ListByAppointment(ctx, appointmentID)
}

// ListForDoctor returns the authenticated doctor's own prescriptions.
func (s *Service) ListForDoctor(ctx context.Context, caller auth.Identity, limit, offset int) ([]*Prescription, int, error) {
	if caller.Role != auth.RoleDoctor {
		return nil, 0, workflow.Unauthorized("only doctors may list their prescriptions")
	}
	return s.repo.ListByDoctor(ctx, caller.ID, limit, offset)
}
