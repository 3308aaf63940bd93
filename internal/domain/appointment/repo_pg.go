package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akith22/DiagNote/internal/platform/db"
	"github.com/akith22/DiagNote/internal/workflow"
)

// slotIndex is the partial unique index preventing double booking.
const slotIndex = "appointments_doctor_slot_idx"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const apptCols = `id, doctor_id, patient_id, scheduled_at, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.ScheduledAt, &a.Status,
		&a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (doctor_id, patient_id, scheduled_at, status)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`,
		a.DoctorID, a.PatientID, a.ScheduledAt, a.Status).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err, slotIndex) {
		return workflow.Conflict("doctor %d already has an appointment at %s",
			a.DoctorID, a.ScheduledAt.Format(time.RFC3339))
	}
	if err != nil {
		return workflow.Internal("create appointment", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("appointment %d not found", id)
	}
	if err != nil {
		return nil, workflow.Internal("get appointment", err)
	}
	return a, nil
}

func (r *repoPG) Reschedule(ctx context.Context, id int64, newTime time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments
		SET scheduled_at = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND status IN ($4,$5)`,
		id, newTime, StatusConfirmed, StatusPending, StatusConfirmed)
	if db.IsUniqueViolation(err, slotIndex) {
		return workflow.Conflict("the doctor already has an appointment at %s",
			newTime.Format(time.RFC3339))
	}
	if err != nil {
		return workflow.Internal("reschedule appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return r.stateError(ctx, id)
	}
	return nil
}

func (r *repoPG) Cancel(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ($3,$4)`,
		id, StatusCancelled, StatusPending, StatusConfirmed)
	if err != nil {
		return workflow.Internal("cancel appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return r.stateError(ctx, id)
	}
	return nil
}

// stateError distinguishes a missing row from a terminal one after a guarded
// update matched nothing.
func (r *repoPG) stateError(ctx context.Context, id int64) error {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return workflow.InvalidState("appointment is %s", a.Status)
}

func (r *repoPG) CompleteConfirmed(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, StatusCompleted, StatusConfirmed)
	if err != nil {
		return false, workflow.Internal("complete appointment", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ListActiveForDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Appointment, int, error) {
	return r.listActive(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *repoPG) ListActiveForPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Appointment, int, error) {
	return r.listActive(ctx, "patient_id", patientID, limit, offset)
}

func (r *repoPG) ListForDoctorPatient(ctx context.Context, doctorID, patientID int64) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments
		WHERE doctor_id = $1 AND patient_id = $2
		ORDER BY scheduled_at DESC`,
		doctorID, patientID)
	if err != nil {
		return nil, workflow.Internal("list patient appointments", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, workflow.Internal("scan appointment", err)
		}
		items = append(items, a)
	}
	return items, nil
}

func (r *repoPG) CountByStatusForDoctor(ctx context.Context, doctorID int64) (map[Status]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM appointments WHERE doctor_id = $1 GROUP BY status`,
		doctorID)
	if err != nil {
		return nil, workflow.Internal("count appointments by status", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, workflow.Internal("scan status count", err)
		}
		counts[status] = n
	}
	return counts, nil
}

func (r *repoPG) listActive(ctx context.Context, col string, id int64, limit, offset int) ([]*Appointment, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE `+col+` = $1 AND status IN ($2,$3)`,
		id, StatusPending, StatusConfirmed).Scan(&total)
	if err != nil {
		return nil, 0, workflow.Internal("count appointments", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments
		WHERE `+col+` = $1 AND status IN ($2,$3)
		ORDER BY scheduled_at ASC
		LIMIT $4 OFFSET $5`,
		id, StatusPending, StatusConfirmed, limit, offset)
	if err != nil {
		return nil, 0, workflow.Internal("list appointments", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, workflow.Internal("scan appointment", err)
		}
		items = append(items, a)
	}
	return items, total, nil
}
