package lab

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akith22/DiagNote/internal/platform/db"
	"github.com/akith22/DiagNote/internal/workflow"
)

// -- LabRequest --

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRequestRepoPG(pool *pgxpool.Pool) RequestRepository { return &requestRepoPG{pool: pool} }

func (r *requestRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const requestCols = `id, appointment_id, test_type, status, created_at, updated_at`

func scanRequest(row pgx.Row) (*LabRequest, error) {
	var lr LabRequest
	err := row.Scan(&lr.ID, &lr.AppointmentID, &lr.TestType, &lr.Status,
		&lr.CreatedAt, &lr.UpdatedAt)
	return &lr, err
}

func (r *requestRepoPG) Create(ctx context.Context, lr *LabRequest) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_requests (appointment_id, test_type, status)
		VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at`,
		lr.AppointmentID, lr.TestType, lr.Status).
		Scan(&lr.ID, &lr.CreatedAt, &lr.UpdatedAt)
	if err != nil {
		return workflow.Internal("create lab request", err)
	}
	return nil
}

func (r *requestRepoPG) GetByID(ctx context.Context, id int64) (*LabRequest, error) {
	lr, err := scanRequest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM lab_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("lab request %d not found", id)
	}
	if err != nil {
		return nil, workflow.Internal("get lab request", err)
	}
	return lr, nil
}

func (r *requestRepoPG) ListByAppointment(ctx context.Context, appointmentID int64) ([]*LabRequest, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+requestCols+` FROM lab_requests WHERE appointment_id = $1 ORDER BY id`,
		appointmentID)
	if err != nil {
		return nil, workflow.Internal("list lab requests", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepoPG) ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*LabRequest, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM lab_requests lr
		JOIN appointments a ON a.id = lr.appointment_id
		WHERE a.doctor_id = $1`, doctorID).Scan(&total)
	if err != nil {
		return nil, 0, workflow.Internal("count lab requests", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT lr.id, lr.appointment_id, lr.test_type, lr.status, lr.created_at, lr.updated_at
		FROM lab_requests lr
		JOIN appointments a ON a.id = lr.appointment_id
		WHERE a.doctor_id = $1
		ORDER BY lr.id DESC
		LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, workflow.Internal("list lab requests by doctor", err)
	}
	defer rows.Close()
	items, err := collectRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *requestRepoPG) CompleteRequested(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_requests SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, StatusCompleted, StatusRequested)
	if err != nil {
		return false, workflow.Internal("complete lab request", err)
	}
	return tag.RowsAffected() == 1, nil
}

func collectRequests(rows pgx.Rows) ([]*LabRequest, error) {
	var items []*LabRequest
	for rows.Next() {
		lr, err := scanRequest(rows)
		if err != nil {
			return nil, workflow.Internal("scan lab request", err)
		}
		items = append(items, lr)
	}
	return items, nil
}

// -- LabReport --

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository { return &reportRepoPG{pool: pool} }

func (r *reportRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const reportCols = `id, lab_request_id, technician_id, file_name, issued_at`

func scanReport(row pgx.Row) (*LabReport, error) {
	var lr LabReport
	err := row.Scan(&lr.ID, &lr.LabRequestID, &lr.TechnicianID, &lr.FileName, &lr.IssuedAt)
	return &lr, err
}

func (r *reportRepoPG) Create(ctx context.Context, rep *LabReport) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_reports (lab_request_id, technician_id, file_name, issued_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id`,
		rep.LabRequestID, rep.TechnicianID, rep.FileName, rep.IssuedAt).
		Scan(&rep.ID)
	if err != nil {
		return workflow.Internal("create lab report", err)
	}
	return nil
}

func (r *reportRepoPG) GetByID(ctx context.Context, id int64) (*LabReport, error) {
	rep, err := scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM lab_reports WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("lab report %d not found", id)
	}
	if err != nil {
		return nil, workflow.Internal("get lab report", err)
	}
	return rep, nil
}

func (r *reportRepoPG) ListByRequest(ctx context.Context, labRequestID int64) ([]*LabReport, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+reportCols+` FROM lab_reports WHERE lab_request_id = $1 ORDER BY id`,
		labRequestID)
	if err != nil {
		return nil, workflow.Internal("list lab reports", err)
	}
	defer rows.Close()
	var items []*LabReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, workflow.Internal("scan lab report", err)
		}
		items = append(items, rep)
	}
	return items, nil
}
