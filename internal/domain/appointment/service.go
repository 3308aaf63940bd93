package appointment

import (
	"context"
	"time"

	"github.com/akith22/DiagNote/internal/platform/auth"
	"github.com/akith22/DiagNote/internal/workflow"
)

// Directory is the user-directory lookup the booking path needs. The
// identity service satisfies it.
type Directory interface {
	DoctorExists(ctx context.Context, id int64) (bool, error)
	PatientExists(ctx context.Context, id int64) (bool, error)
}

// Service owns the appointment state machine. Bookings are created
// CONFIRMED; there is no separate doctor-acceptance step, so PENDING only
// appears for rows migrated from older data.
type Service struct {
	repo      Repository
	directory Directory
}

func NewService(repo Repository, directory Directory) *Service {
	return &Service{repo: repo, directory: directory}
}

// canAct reports whether the caller is a party to the appointment.
func canAct(caller auth.Identity, a *Appointment) bool {
	switch caller.Role {
	case auth.RoleDoctor:
		return caller.ID == a.DoctorID
	case auth.RolePatient:
		return caller.ID == a.PatientID
	}
	return false
}

// Book validates both parties and creates a CONFIRMED appointment. The slot
// uniqueness check is the storage constraint, not a read-then-write, so
// concurrent bookings for the same slot resolve to one success and one
// Conflict.
func (s *Service) Book(ctx context.Context, caller auth.Identity, doctorID, patientID int64, when time.Time) (*Appointment, error) {
	if when.IsZero() {
		return nil, workflow.Validation("scheduled time is required")
	}
	switch caller.Role {
	case auth.RolePatient:
		if caller.ID != patientID {
			return nil, workflow.Unauthorized("patients may only book for themselves")
		}
	case auth.RoleDoctor:
		if caller.ID != doctorID {
			return nil, workflow.Unauthorized("doctors may only book their own calendar")
		}
	default:
		return nil, workflow.Unauthorized("only doctors and patients may book appointments")
	}

	ok, err := s.directory.DoctorExists(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, workflow.NotFound("doctor %d not found", doctorID)
	}
	ok, err = s.directory.PatientExists(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, workflow.NotFound("patient %d not found", patientID)
	}

	a := &Appointment{
		DoctorID:    doctorID,
		PatientID:   patientID,
		ScheduledAt: when.UTC(),
		Status:      StatusConfirmed,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Reschedule moves an appointment to a new time and re-confirms it.
// Terminal appointments cannot be moved.
func (s *Service) Reschedule(ctx context.Context, caller auth.Identity, id int64, newWhen time.Time) (*Appointment, error) {
	if newWhen.IsZero() {
		return nil, workflow.Validation("scheduled time is required")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAct(caller, a) {
		return nil, workflow.NotFound("appointment %d not found", id)
	}
	if a.Status.Terminal() {
		return nil, workflow.InvalidState("appointment is %s", a.Status)
	}
	if err := s.repo.Reschedule(ctx, id, newWhen.UTC()); err != nil {
		return nil, err
	}
	a.ScheduledAt = newWhen.UTC()
	a.Status = StatusConfirmed
	return a, nil
}

// Cancel moves an appointment to CANCELLED. Completed visits stay completed
// and a second cancel is rejected, so terminal states never mutate. The read
// here only authorizes; the repo's status guard is what holds under
// concurrent completion.
func (s *Service) Cancel(ctx context.Context, caller auth.Identity, id int64) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canAct(caller, a) {
		return workflow.NotFound("appointment %d not found", id)
	}
	if a.Status.Terminal() {
		return workflow.InvalidState("appointment is %s", a.Status)
	}
	return s.repo.Cancel(ctx, id)
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id int64) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAct(caller, a) {
		return nil, workflow.NotFound("appointment %d not found", id)
	}
	return a, nil
}

// ListForDoctor returns the doctor's forward schedule. Doctors see only
// their own calendar.
func (s *Service) ListForDoctor(ctx context.Context, caller auth.Identity, doctorID int64, limit, offset int) ([]*Appointment, int, error) {
	if caller.Role != auth.RoleDoctor || caller.ID != doctorID {
		return nil, 0, workflow.Unauthorized("only the doctor may list their appointments")
	}
	return s.repo.ListActiveForDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ListForPatient(ctx context.Context, caller auth.Identity, patientID int64, limit, offset int) ([]*Appointment, int, error) {
	if caller.Role != auth.RolePatient || caller.ID != patientID {
		return nil, 0, workflow.Unauthorized("only the patient may list their appointments")
	}
	return s.repo.ListActiveForPatient(ctx, patientID, limit, offset)
}
