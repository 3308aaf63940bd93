package lab

import "time"

// RequestStatus is the lab request lifecycle state.
type RequestStatus string

const (
	StatusRequested RequestStatus = "REQUESTED"
	StatusCompleted RequestStatus = "COMPLETED"
)

// LabRequest maps to the lab_requests table. It completes exactly once, when
// its first report is attached.
type LabRequest struct {
	ID            int64         `db:"id" json:"id"`
	AppointmentID int64         `db:"appointment_id" json:"appointment_id"`
	TestType      string        `db:"test_type" json:"test_type"`
	Status        RequestStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`

	// PatientName is resolved through the appointment for display. Not
	// persisted on this table.
	PatientName string `db:"-" json:"patient_name,omitempty"`
}

// LabReport maps to the lab_reports table. The schema allows several reports
// per request; the workflow makes the first one authoritative.
type LabReport struct {
	ID           int64     `db:"id" json:"id"`
	LabRequestID int64     `db:"lab_request_id" json:"lab_request_id"`
	TechnicianID int64     `db:"technician_id" json:"technician_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	IssuedAt     time.Time `db:"issued_at" json:"issued_at"`
}
