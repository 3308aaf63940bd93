package identity

import "context"

type Repository interface {
	CreateDoctor(ctx context.Context, d *Doctor) error
	GetDoctorByID(ctx context.Context, id int64) (*Doctor, error)
	GetDoctorByEmail(ctx context.Context, email string) (*Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) error
	ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	DoctorExists(ctx context.Context, id int64) (bool, error)

	CreatePatient(ctx context.Context, p *Patient) error
	GetPatientByID(ctx context.Context, id int64) (*Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) error
	PatientExists(ctx context.Context, id int64) (bool, error)

	CreateLabTech(ctx context.Context, lt *LabTech) error
	GetLabTechByID(ctx context.Context, id int64) (*LabTech, error)
	GetLabTechByEmail(ctx context.Context, email string) (*LabTech, error)
	LabTechExists(ctx context.Context, id int64) (bool, error)
}
