package prescription

import "time"

// Prescription maps to the prescriptions table. Creating one closes out the
// owning appointment; several rows may exist per appointment but the latest
// issued one is authoritative.
type Prescription struct {
	ID            int64     `db:"id" json:"id"`
	AppointmentID int64     `db:"appointment_id" json:"appointment_id"`
	DoctorID      int64     `db:"doctor_id" json:"doctor_id"`
	Notes         string    `db:"notes" json:"notes"`
	DateIssued    time.Time `db:"date_issued" json:"date_issued"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
