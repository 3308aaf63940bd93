package prescription

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

const rxCols = `id, appointment_id, doctor_id, notes, date_issued, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.AppointmentID, &p.DoctorID, &p.Notes, &p.DateIssued,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (appointment_id, doctor_id, notes, date_issued)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`,
		p.AppointmentID, p.DoctorID, p.Notes, p.DateIssued).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return workflow.Internal("create prescription", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("prescription %d not found", id)
	}
	if err != nil {
		return nil, workflow.Internal("get prescription", err)
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions SET notes = $2, date_issued = $3, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Notes, p.DateIssued)
	if err != nil {
		return workflow.Internal("update prescription", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.NotFound("prescription %d not found", p.ID)
	}
	return nil
}

func (r *repoPG) ListByAppointment(ctx context.Context, appointmentID int64) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+rxCols+` FROM prescriptions
		WHERE appointment_id = $1
		ORDER BY date_issued DESC, id DESC`, appointmentID)
	if err != nil {
		return nil, workflow.Internal("list prescriptions", err)
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, workflow.Internal("scan prescription", err)
		}
		items = append(items, p)
	}
	return items, nil
}

func (r *repoPG) LatestByAppointment(ctx context.Context, appointmentID int64) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescriptions
		WHERE appointment_id = $1
		ORDER BY date_issued DESC, id DESC
		LIMIT 1`, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("no prescription for appointment %d", appointmentID)
	}
	if err != nil {
		return nil, workflow.Internal("get latest prescription", err)
	}
	return p, nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Prescription, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE doctor_id = $1`, doctorID).Scan(&total)
	if err != nil {
		return nil, 0, workflow.Internal("count prescriptions", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+rxCols+` FROM prescriptions
		WHERE doctor_id = $1
		ORDER BY date_issued DESC, id DESC
		LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, workflow.Internal("list prescriptions by doctor", err)
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, workflow.Internal("scan prescription", err)
		}
		items = append(items, p)
	}
	return items, total, nil
}
