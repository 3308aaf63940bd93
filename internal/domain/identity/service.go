package identity

import (
	"context"
	"strings"

	"github.com/akith22/DiagNote/internal/platform/auth"
	"github.com/akith22/DiagNote/internal/workflow"
)

// Service is the user directory: profile registration and lookup for the
// three clinic roles, plus email resolution used by the lab workflow.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

// -- Doctor --

func (s *Service) RegisterDoctor(ctx context.Context, d *Doctor) error {
	if !validEmail(d.Email) {
		return workflow.Validation("a valid email is required")
	}
	if strings.TrimSpace(d.FullName) == "" {
		return workflow.Validation("full name is required")
	}
	return s.repo.CreateDoctor(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.ListDoctors(ctx, limit, offset)
}

// UpdateDoctorProfile lets a doctor edit their own profile.
func (s *Service) UpdateDoctorProfile(ctx context.Context, caller auth.Identity, d *Doctor) error {
	if caller.Role != auth.RoleDoctor || caller.ID != d.ID {
		return workflow.Unauthorized("only the doctor may edit this profile")
	}
	if strings.TrimSpace(d.FullName) == "" {
		return workflow.Validation("full name is required")
	}
	return s.repo.UpdateDoctor(ctx, d)
}

// -- Patient --

func (s *Service) RegisterPatient(ctx context.Context, p *Patient) error {
	if !validEmail(p.Email) {
		return workflow.Validation("a valid email is required")
	}
	if strings.TrimSpace(p.FullName) == "" {
		return workflow.Validation("full name is required")
	}
	return s.repo.CreatePatient(ctx, p)
}

// GetPatient returns a patient profile. Patients see only themselves;
// doctors may look up any patient.
func (s *Service) GetPatient(ctx context.Context, caller auth.Identity, id int64) (*Patient, error) {
	switch caller.Role {
	case auth.RoleDoctor:
	case auth.RolePatient:
		if caller.ID != id {
			return nil, workflow.NotFound("patient %d not found", id)
		}
	default:
		return nil, workflow.NotFound("patient %d not found", id)
	}
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) UpdatePatientProfile(ctx context.Context, caller auth.Identity, p *Patient) error {
	if caller.Role != auth.RolePatient || caller.ID != p.ID {
		return workflow.Unauthorized("only the patient may edit this profile")
	}
	if strings.TrimSpace(p.FullName) == "" {
		return workflow.Validation("full name is required")
	}
	return s.repo.UpdatePatient(ctx, p)
}

// -- LabTech --

func (s *Service) RegisterLabTech(ctx context.Context, lt *LabTech) error {
	if !validEmail(lt.Email) {
		return workflow.Validation("a valid email is required")
	}
	if strings.TrimSpace(lt.FullName) == "" {
		return workflow.Validation("full name is required")
	}
	return s.repo.CreateLabTech(ctx, lt)
}

func (s *Service) GetLabTech(ctx context.Context, id int64) (*LabTech, error) {
	return s.repo.GetLabTechByID(ctx, id)
}

// -- Directory lookups used by the workflow services --

// Resolve maps an email address to a directory account, checking the three
// role tables in turn.
func (s *Service) Resolve(ctx context.Context, email string) (Account, error) {
	if d, err := s.repo.GetDoctorByEmail(ctx, email); err == nil {
		return Account{ID: d.ID, Email: d.Email, Role: auth.RoleDoctor}, nil
	} else if !workflow.IsKind(err, workflow.KindNotFound) {
		return Account{}, err
	}
	if p, err := s.repo.GetPatientByEmail(ctx, email); err == nil {
		return Account{ID: p.ID, Email: p.Email, Role: auth.RolePatient}, nil
	} else if !workflow.IsKind(err, workflow.KindNotFound) {
		return Account{}, err
	}
	if lt, err := s.repo.GetLabTechByEmail(ctx, email); err == nil {
		return Account{ID: lt.ID, Email: lt.Email, Role: auth.RoleLabTech}, nil
	} else if !workflow.IsKind(err, workflow.KindNotFound) {
		return Account{}, err
	}
	return Account{}, workflow.NotFound("no account for %s", email)
}

// ResolveAccount implements the auth middleware's directory check: a token
// whose email no longer maps to the claimed id and role is rejected there.
func (s *Service) ResolveAccount(ctx context.Context, email string) (auth.Identity, bool, error) {
	acct, err := s.Resolve(ctx, email)
	if workflow.IsKind(err, workflow.KindNotFound) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return auth.Identity{ID: acct.ID, Email: acct.Email, Role: acct.Role}, true, nil
}

func (s *Service) DoctorExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.DoctorExists(ctx, id)
}

func (s *Service) PatientExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.PatientExists(ctx, id)
}

func (s *Service) LabTechExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.LabTechExists(ctx, id)
}

// DoctorIDByEmail resolves a doctor's id from their email address.
func (s *Service) DoctorIDByEmail(ctx context.Context, email string) (int64, error) {
	d, err := s.repo.GetDoctorByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	return d.ID, nil
}

// PatientName returns the display name for a patient id.
func (s *Service) PatientName(ctx context.Context, id int64) (string, error) {
	p, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		return "", err
	}
	return p.FullName, nil
}
