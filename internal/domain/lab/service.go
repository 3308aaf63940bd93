package lab

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/akith22/DiagNote/internal/domain/appointment"
	"github.com/akith22/DiagNote/internal/platform/auth"
	"github.com/akith22/DiagNote/internal/platform/blobstore"
	"github.com/akith22/DiagNote/internal/platform/db"
	"github.com/akith22/DiagNote/internal/workflow"
)

// AppointmentSource is the slice of the appointment repository the lab
// workflow reads from.
type AppointmentSource interface {
	GetByID(ctx context.Context, id int64) (*appointment.Appointment, error)
}

// Directory resolves doctors, patient display names and technician
// existence. The identity service satisfies it.
type Directory interface {
	DoctorIDByEmail(ctx context.Context, email string) (int64, error)
	PatientName(ctx context.Context, id int64) (string, error)
	LabTechExists(ctx context.Context, id int64) (bool, error)
}

// Service owns the LabRequest/LabReport lifecycle attached to an
// appointment.
type Service struct {
	requests     RequestRepository
	reports      ReportRepository
	appointments AppointmentSource
	directory    Directory
	files        blobstore.Store
	tx           db.Transactor
}

func NewService(requests RequestRepository, reports ReportRepository, appointments AppointmentSource, directory Directory, files blobstore.Store, tx db.Transactor) *Service {
	return &Service{
		requests:     requests,
		reports:      reports,
		appointments: appointments,
		directory:    directory,
		files:        files,
		tx:           tx,
	}
}

// FileUpload is one file in a report upload.
type FileUpload struct {
	Name    string
	Content io.Reader
}

// BatchFailure records why one file in a batch could not be attached.
type BatchFailure struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// BatchResult reports per-item outcomes of a batch upload. Files already
// attached stay attached even when later files fail.
type BatchResult struct {
	Attached []*LabReport   `json:"attached"`
	Failed   []BatchFailure `json:"failed,omitempty"`
}

// canView reports whether the caller may see lab data for the appointment.
// Technicians see every request since they fulfill them.
func canView(caller auth.Identity, a *appointment.Appointment) bool {
	switch caller.Role {
	case auth.RoleLabTech:
		return true
	case auth.RoleDoctor:
		return caller.ID == a.DoctorID
	case auth.RolePatient:
		return caller.ID == a.PatientID
	}
	return false
}

// CreateRequest orders a test against a CONFIRMED appointment. Only the
// appointment's own doctor may order.
func (s *Service) CreateRequest(ctx context.Context, caller auth.Identity, appointmentID int64, testType string) (*LabRequest, error) {
	if caller.Role != auth.RoleDoctor {
		return nil, workflow.Unauthorized("only doctors may order lab tests")
	}
	if strings.TrimSpace(testType) == "" {
		return nil, workflow.Validation("test type is required")
	}

	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if caller.ID != appt.DoctorID {
		return nil, workflow.NotFound("appointment %d not found", appointmentID)
	}
	if appt.Status != appointment.StatusConfirmed {
		return nil, workflow.InvalidState("appointment is not CONFIRMED")
	}

	lr := &LabRequest{
		AppointmentID: appointmentID,
		TestType:      strings.TrimSpace(testType),
		Status:        StatusRequested,
	}
	if err := s.requests.Create(ctx, lr); err != nil {
		return nil, err
	}
	// Display only; a failed name lookup does not fail the order.
	if name, err := s.directory.PatientName(ctx, appt.PatientID); err == nil {
		lr.PatientName = name
	}
	return lr, nil
}

// AttachReport stores one report file and completes the request if this is
// its first report.
func (s *Service) AttachReport(ctx context.Context, caller auth.Identity, requestID int64, file FileUpload) (*LabReport, error) {
	lr, err := s.checkAttachable(ctx, caller, requestID)
	if err != nil {
		return nil, err
	}
	return s.storeAndRecord(ctx, caller, lr, file)
}

// AttachReports stores a batch of report files against one request,
// reporting per-item outcomes instead of failing the whole batch.
func (s *Service) AttachReports(ctx context.Context, caller auth.Identity, requestID int64, files []FileUpload) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, workflow.Validation("at least one file is required")
	}
	lr, err := s.checkAttachable(ctx, caller, requestID)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, f := range files {
		rep, err := s.storeAndRecord(ctx, caller, lr, f)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{
				FileName: f.Name,
				Reason:   failureReason(err),
			})
			continue
		}
		result.Attached = append(result.Attached, rep)
	}
	return result, nil
}

func (s *Service) checkAttachable(ctx context.Context, caller auth.Identity, requestID int64) (*LabRequest, error) {
	if caller.Role != auth.RoleLabTech {
		return nil, workflow.Unauthorized("only lab technicians may upload reports")
	}
	ok, err := s.directory.LabTechExists(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, workflow.Unauthorized("unknown lab technician %d", caller.ID)
	}
	lr, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if lr.Status == StatusCompleted {
		return nil, workflow.InvalidState("lab request %d is already completed", requestID)
	}
	return lr, nil
}

func (s *Service) storeAndRecord(ctx context.Context, caller auth.Identity, lr *LabRequest, file FileUpload) (*LabReport, error) {
	storedName, err := s.files.Save(ctx, file.Name, file.Content)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrMissingFileName):
			return nil, workflow.Validation("file name is required")
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return nil, workflow.Validation("file %s exceeds the size limit", file.Name)
		default:
			return nil, workflow.Internal("store report file", err)
		}
	}

	rep := &LabReport{
		LabRequestID: lr.ID,
		TechnicianID: caller.ID,
		FileName:     storedName,
		IssuedAt:     time.Now().UTC(),
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.reports.Create(ctx, rep); err != nil {
			return err
		}
		// First report wins the REQUESTED -> COMPLETED transition; later
		// files in the same batch find it already completed.
		_, err := s.requests.CompleteRequested(ctx, lr.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func failureReason(err error) string {
	var we *workflow.Error
	if errors.As(err, &we) && we.Kind != workflow.KindInternal {
		return we.Message
	}
	return "internal error"
}

// GetByID returns one lab request.
func (s *Service) GetByID(ctx context.Context, caller auth.Identity, id int64) (*LabRequest, error) {
	lr, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	appt, err := s.appointments.GetByID(ctx, lr.AppointmentID)
	if err != nil {
		return nil, err
	}
	if !canView(caller, appt) {
		return nil, workflow.NotFound("lab request %d not found", id)
	}
	if name, err := s.directory.PatientName(ctx, appt.PatientID); err == nil {
		lr.PatientName = name
	}
	return lr, nil
}

// ListByAppointment returns the appointment's lab requests.
func (s *Service) ListByAppointment(ctx context.Context, caller auth.Identity, appointmentID int64) ([]*LabRequest, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canView(caller, appt) {
		return nil, workflow.NotFound("appointment %d not found", appointmentID)
	}
	return s.requests.ListByAppointment(ctx, appointmentID)
}

// ListForDoctor returns lab requests across all of a doctor's appointments,
// resolving the doctor through the user directory.
func (s *Service) ListForDoctor(ctx context.Context, caller auth.Identity, doctorEmail string, limit, offset int) ([]*LabRequest, int, error) {
	doctorID, err := s.directory.DoctorIDByEmail(ctx, doctorEmail)
	if err != nil {
		return nil, 0, err
	}
	if caller.Role != auth.RoleDoctor || caller.ID != doctorID {
		return nil, 0, workflow.Unauthorized("only the doctor may list their lab requests")
	}
	return s.requests.ListByDoctor(ctx, doctorID, limit, offset)
}

// ListReports returns the reports attached to a request.
func (s *Service) ListReports(ctx context.Context, caller auth.Identity, requestID int64) ([]*LabReport, error) {
	if _, err := s.GetByID(ctx, caller, requestID); err != nil {
		return nil, err
	}
	return s.reports.ListByRequest(ctx, requestID)
}

// DownloadReport opens the stored file for a report. The caller must have
// view rights on the owning appointment.
func (s *Service) DownloadReport(ctx context.Context, caller auth.Identity, reportID int64) (io.ReadCloser, string, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.GetByID(ctx, caller, rep.LabRequestID); err != nil {
		return nil, "", workflow.NotFound("lab report %d not found", reportID)
	}

	rc, err := s.files.Open(ctx, rep.FileName)
	if errors.Is(err, blobstore.ErrFileNotFound) {
		return nil, "", workflow.NotFound("report file %s not found", rep.FileName)
	}
	if err != nil {
		return nil, "", workflow.Internal("open report file", err)
	}
	return rc, rep.FileName, nil
}
