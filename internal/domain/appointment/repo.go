package appointment

import (
	"context"
	"time"
)

type Repository interface {
	// Create inserts the appointment and returns Conflict when the doctor
	// already has a non-cancelled appointment at the same time.
	Create(ctx context.Context, a *Appointment) error

	GetByID(ctx context.Context, id int64) (*Appointment, error)

	// Reschedule moves a PENDING or CONFIRMED appointment to newTime and
	// sets it CONFIRMED. Returns Conflict when the target slot is taken and
	// InvalidState when the row exists but is terminal, so a concurrent
	// completion or cancellation never gets overwritten.
	Reschedule(ctx context.Context, id int64, newTime time.Time) error

	// Cancel moves a PENDING or CONFIRMED appointment to CANCELLED under the
	// same status guard as Reschedule.
	Cancel(ctx context.Context, id int64) error

	// CompleteConfirmed transitions CONFIRMED -> COMPLETED and reports
	// whether the transition happened. A false return with nil error means
	// the appointment was not in CONFIRMED status.
	CompleteConfirmed(ctx context.Context, id int64) (bool, error)

	// ListActiveForDoctor returns PENDING and CONFIRMED appointments ordered
	// by scheduled time ascending.
	ListActiveForDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Appointment, int, error)
	ListActiveForPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Appointment, int, error)

	// ListForDoctorPatient returns every appointment between the pair,
	// cancelled ones included, most recent first.
	ListForDoctorPatient(ctx context.Context, doctorID, patientID int64) ([]*Appointment, error)

	// CountByStatusForDoctor returns per-status appointment counts. Statuses
	// with no rows are absent from the map.
	CountByStatusForDoctor(ctx context.Context, doctorID int64) (map[Status]int, error)
}
