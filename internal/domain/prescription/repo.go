package prescription

import "context"

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id int64) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error

	// ListByAppointment orders by date_issued descending, id descending.
	ListByAppointment(ctx context.Context, appointmentID int64) ([]*Prescription, error)

	// LatestByAppointment returns the most recently issued prescription,
	// ties broken by highest id.
	LatestByAppointment(ctx context.Context, appointmentID int64) (*Prescription, error)

	ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Prescription, int, error)
}
