package history

import (
	"context"

	"github.com/akith22/DiagNote/internal/domain/appointment"
	"github.com/akith22/DiagNote/internal/domain/lab"
	"github.com/akith22/DiagNote/internal/domain/prescription"
	"github.com/akith22/DiagNote/internal/platform/auth"
	"github.com/akith22/DiagNote/internal/workflow"
)

// Appointments is the slice of the appointment storage the history reads
// need. The appointment repository satisfies it.
type Appointments interface {
	ListForDoctorPatient(ctx context.Context, doctorID, patientID int64) ([]*appointment.Appointment, error)
	CountByStatusForDoctor(ctx context.Context, doctorID int64) (map[appointment.Status]int, error)
}

type Prescriptions interface {
	ListByAppointment(ctx context.Context, appointmentID int64) ([]*prescription.Prescription, error)
}

type LabRequests interface {
	ListByAppointment(ctx context.Context, appointmentID int64) ([]*lab.LabRequest, error)
}

type LabReports interface {
	ListByRequest(ctx context.Context, labRequestID int64) ([]*lab.LabReport, error)
}

// Directory resolves patient display data. The identity service satisfies it.
type Directory interface {
	PatientName(ctx context.Context, id int64) (string, error)
}

// Service assembles read-only views over the other domains' storage. It
// writes nothing.
type Service struct {
	appointments  Appointments
	prescriptions Prescriptions
	labRequests   LabRequests
	labReports    LabReports
	directory     Directory
}

func NewService(appointments Appointments, prescriptions Prescriptions,
	labRequests LabRequests, labReports LabReports, directory Directory) *Service {
	return &Service{
		appointments:  appointments,
		prescriptions: prescriptions,
		labRequests:   labRequests,
		labReports:    labReports,
		directory:     directory,
	}
}

// PatientHistory returns the caller's full record of one patient: every
// appointment between the pair with its prescriptions and lab work. The view
// is scoped to the calling doctor's own appointments, so a doctor never sees
// another doctor's visits with the same patient.
func (s *Service) PatientHistory(ctx context.Context, caller auth.Identity, patientID int64) (*PatientHistory, error) {
	if caller.Role != auth.RoleDoctor {
		return nil, workflow.Unauthorized("only doctors may read patient history")
	}

	name, err := s.directory.PatientName(ctx, patientID)
	if err != nil {
		return nil, err
	}

	appts, err := s.appointments.ListForDoctorPatient(ctx, caller.ID, patientID)
	if err != nil {
		return nil, err
	}

	h := &PatientHistory{
		PatientID:   patientID,
		PatientName: name,
		Visits:      make([]Visit, 0, len(appts)),
	}
	for _, a := range appts {
		v := Visit{Appointment: a}

		v.Prescriptions, err = s.prescriptions.ListByAppointment(ctx, a.ID)
		if err != nil {
			return nil, err
		}

		requests, err := s.labRequests.ListByAppointment(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		for _, lr := range requests {
			reports, err := s.labReports.ListByRequest(ctx, lr.ID)
			if err != nil {
				return nil, err
			}
			v.LabWork = append(v.LabWork, LabWork{Request: lr, Reports: reports})
		}

		h.Visits = append(h.Visits, v)
	}
	return h, nil
}

// AppointmentStats tallies the caller's appointments by status. Statuses
// without rows are reported as zero rather than omitted.
func (s *Service) AppointmentStats(ctx context.Context, caller auth.Identity) (*AppointmentStats, error) {
	if caller.Role != auth.RoleDoctor {
		return nil, workflow.Unauthorized("only doctors may read appointment stats")
	}

	counts, err := s.appointments.CountByStatusForDoctor(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	stats := &AppointmentStats{
		DoctorID: caller.ID,
		ByStatus: map[appointment.Status]int{
			appointment.StatusPending:   0,
			appointment.StatusConfirmed: 0,
			appointment.StatusCompleted: 0,
			appointment.StatusCancelled: 0,
		},
	}
	for status, n := range counts {
		stats.ByStatus[status] = n
		stats.Total += n
	}
	return stats, nil
}
