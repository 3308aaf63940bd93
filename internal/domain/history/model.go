package history

import (
	"github.com/akith22/DiagNote/internal/domain/appointment"
	"github.com/akith22/DiagNote/internal/domain/lab"
	"github.com/akith22/DiagNote/internal/domain/prescription"
)

// LabWork pairs a lab request with whatever reports have landed for it.
type LabWork struct {
	Request *lab.LabRequest  `json:"request"`
	Reports []*lab.LabReport `json:"reports,omitempty"`
}

// Visit is one appointment with everything that came out of it.
type Visit struct {
	Appointment   *appointment.Appointment     `json:"appointment"`
	Prescriptions []*prescription.Prescription `json:"prescriptions,omitempty"`
	LabWork       []LabWork                    `json:"lab_work,omitempty"`
}

// PatientHistory is a doctor's record of one patient: every appointment
// between the pair, most recent first, cancelled visits included.
type PatientHistory struct {
	PatientID   int64   `json:"patient_id"`
	PatientName string  `json:"patient_name"`
	Visits      []Visit `json:"visits"`
}

// AppointmentStats is a doctor's appointment tally broken down by status.
// Every status appears, zero or not.
type AppointmentStats struct {
	DoctorID int64                      `json:"doctor_id"`
	Total    int                        `json:"total"`
	ByStatus map[appointment.Status]int `json:"by_status"`
}
