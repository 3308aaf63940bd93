package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akith22/DiagNote/internal/platform/db"
	"github.com/akith22/DiagNote/internal/workflow"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

// -- Doctor --

const doctorCols = `id, email, full_name, specialization, availability, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Email, &d.FullName, &d.Specialization, &d.Availability,
		&d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) CreateDoctor(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (email, full_name, specialization, availability)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`,
		d.Email, d.FullName, d.Specialization, d.Availability).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err, "") {
		return workflow.Conflict("doctor email %s is already registered", d.Email)
	}
	if err != nil {
		return workflow.Internal("create doctor", err)
	}
	return nil
}

func (r *repoPG) GetDoctorByID(ctx context.Context, id int64) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("doctor %d not found", id)
	}
	if err != nil {
		return nil, workflow.Internal("get doctor", err)
	}
	return d, nil
}

func (r *repoPG) GetDoctorByEmail(ctx context.Context, email string) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("doctor %s not found", email)
	}
	if err != nil {
		return nil, workflow.Internal("get doctor by email", err)
	}
	return d, nil
}

func (r *repoPG) UpdateDoctor(ctx context.Context, d *Doctor) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET full_name=$2, specialization=$3, availability=$4, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.FullName, d.Specialization, d.Availability)
	if err != nil {
		return workflow.Internal("update doctor", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.NotFound("doctor %d not found", d.ID)
	}
	return nil
}

func (r *repoPG) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, workflow.Internal("count doctors", err)
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+` FROM doctors ORDER BY full_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, workflow.Internal("list doctors", err)
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, workflow.Internal("scan doctor", err)
		}
		items = append(items, d)
	}
	return items, total, nil
}

func (r *repoPG) DoctorExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)`, id)
}

// -- Patient --

const patientCols = `id, email, full_name, date_of_birth, phone, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.DateOfBirth, &p.Phone,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) CreatePatient(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (email, full_name, date_of_birth, phone)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`,
		p.Email, p.FullName, p.DateOfBirth, p.Phone).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if db.IsUniqueViolation(err, "") {
		return workflow.Conflict("patient email %s is already registered", p.Email)
	}
	if err != nil {
		return workflow.Internal("create patient", err)
	}
	return nil
}

func (r *repoPG) GetPatientByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("patient %d not found", id)
	}
	if err != nil {
		return nil, workflow.Internal("get patient", err)
	}
	return p, nil
}

func (r *repoPG) GetPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("patient %s not found", email)
	}
	if err != nil {
		return nil, workflow.Internal("get patient by email", err)
	}
	return p, nil
}

func (r *repoPG) UpdatePatient(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET full_name=$2, date_of_birth=$3, phone=$4, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.DateOfBirth, p.Phone)
	if err != nil {
		return workflow.Internal("update patient", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.NotFound("patient %d not found", p.ID)
	}
	return nil
}

func (r *repoPG) PatientExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id)
}

// -- LabTech --

const labTechCols = `id, email, full_name, created_at, updated_at`

func scanLabTech(row pgx.Row) (*LabTech, error) {
	var lt LabTech
	err := row.Scan(&lt.ID, &lt.Email, &lt.FullName, &lt.CreatedAt, &lt.UpdatedAt)
	return &lt, err
}

func (r *repoPG) CreateLabTech(ctx context.Context, lt *LabTech) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_techs (email, full_name)
		VALUES ($1,$2)
		RETURNING id, created_at, updated_at`,
		lt.Email, lt.FullName).
		Scan(&lt.ID, &lt.CreatedAt, &lt.UpdatedAt)
	if db.IsUniqueViolation(err, "") {
		return workflow.Conflict("lab technician email %s is already registered", lt.Email)
	}
	if err != nil {
		return workflow.Internal("create lab technician", err)
	}
	return nil
}

func (r *repoPG) GetLabTechByID(ctx context.Context, id int64) (*LabTech, error) {
	lt, err := scanLabTech(r.conn(ctx).QueryRow(ctx,
		`SELECT `+labTechCols+` FROM lab_techs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("lab technician %d not found", id)
	}
	if err != nil {
		return nil, workflow.Internal("get lab technician", err)
	}
	return lt, nil
}

func (r *repoPG) GetLabTechByEmail(ctx context.Context, email string) (*LabTech, error) {
	lt, err := scanLabTech(r.conn(ctx).QueryRow(ctx,
		`SELECT `+labTechCols+` FROM lab_techs WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("lab technician %s not found", email)
	}
	if err != nil {
		return nil, workflow.Internal("get lab technician by email", err)
	}
	return lt, nil
}

func (r *repoPG) LabTechExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM lab_techs WHERE id = $1)`, id)
}

func (r *repoPG) exists(ctx context.Context, query string, id int64) (bool, error) {
	var ok bool
	if err := r.conn(ctx).QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, workflow.Internal("existence check", err)
	}
	return ok, nil
}
