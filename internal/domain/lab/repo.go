package lab

import "context"

type RequestRepository interface {
	Create(ctx context.Context, lr *LabRequest) error
	GetByID(ctx context.Context, id int64) (*LabRequest, error)
	ListByAppointment(ctx context.Context, appointmentID int64) ([]*LabRequest, error)
	ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*LabRequest, int, error)

	// CompleteRequested transitions REQUESTED -> COMPLETED and reports
	// whether this call performed the transition.
	CompleteRequested(ctx context.Context, id int64) (bool, error)
}

type ReportRepository interface {
	Create(ctx context.Context, r *LabReport) error
	GetByID(ctx context.Context, id int64) (*LabReport, error)
	ListByRequest(ctx context.Context, labRequestID int64) ([]*LabReport, error)
}
