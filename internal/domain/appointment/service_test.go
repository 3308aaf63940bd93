package appointment

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/akith22/DiagNote/internal/platform/auth"
	"github.com/akith22/DiagNote/internal/workflow"
)

// fakeRepo mirrors the storage contract, including the partial uniqueness
// rule over non-cancelled rows and the status guards on writes.
type fakeRepo struct {
	byID   map[int64]*Appointment
	nextID int64

	// beforeWrite runs ahead of Reschedule and Cancel, standing in for a
	// concurrent transaction committing between the service's read and the
	// guarded update.
	beforeWrite func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[int64]*Appointment)}
}

func (f *fakeRepo) slotTaken(doctorID int64, at time.Time, excludeID int64) bool {
	for _, a := range f.byID {
		if a.ID != excludeID && a.DoctorID == doctorID && a.ScheduledAt.Equal(at) &&
			a.Status != StatusCancelled {
			return true
		}
	}
	return false
}

func (f *fakeRepo) Create(ctx context.Context, a *Appointment) error {
	if f.slotTaken(a.DoctorID, a.ScheduledAt, 0) {
		return workflow.Conflict("doctor %d already has an appointment at %s",
			a.DoctorID, a.ScheduledAt.Format(time.RFC3339))
	}
	f.nextID++
	a.ID = f.nextID
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, workflow.NotFound("appointment %d not found", id)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) Reschedule(ctx context.Context, id int64, newTime time.Time) error {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	a, ok := f.byID[id]
	if !ok {
		return workflow.NotFound("appointment %d not found", id)
	}
	if !a.Status.Active() {
		return workflow.InvalidState("appointment is %s", a.Status)
	}
	if f.slotTaken(a.DoctorID, newTime, id) {
		return workflow.Conflict("the doctor already has an appointment at %s",
			newTime.Format(time.RFC3339))
	}
	a.ScheduledAt = newTime
	a.Status = StatusConfirmed
	return nil
}

func (f *fakeRepo) Cancel(ctx context.Context, id int64) error {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	a, ok := f.byID[id]
	if !ok {
		return workflow.NotFound("appointment %d not found", id)
	}
	if !a.Status.Active() {
		return workflow.InvalidState("appointment is %s", a.Status)
	}
	a.Status = StatusCancelled
	return nil
}

func (f *fakeRepo) CompleteConfirmed(ctx context.Context, id int64) (bool, error) {
	a, ok := f.byID[id]
	if !ok || a.Status != StatusConfirmed {
		return false, nil
	}
	a.Status = StatusCompleted
	return true, nil
}

func (f *fakeRepo) ListActiveForDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Appointment, int, error) {
	return f.listActive(func(a *Appointment) bool { return a.DoctorID == doctorID })
}

func (f *fakeRepo) ListActiveForPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Appointment, int, error) {
	return f.listActive(func(a *Appointment) bool { return a.PatientID == patientID })
}

func (f *fakeRepo) ListForDoctorPatient(ctx context.Context, doctorID, patientID int64) ([]*Appointment, error) {
	var items []*Appointment
	for _, a := range f.byID {
		if a.DoctorID == doctorID && a.PatientID == patientID {
			cp := *a
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ScheduledAt.After(items[j].ScheduledAt)
	})
	return items, nil
}

func (f *fakeRepo) CountByStatusForDoctor(ctx context.Context, doctorID int64) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, a := range f.byID {
		if a.DoctorID == doctorID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (f *fakeRepo) listActive(match func(*Appointment) bool) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range f.byID {
		if match(a) && a.Status.Active() {
			cp := *a
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ScheduledAt.Before(items[j].ScheduledAt)
	})
	return items, len(items), nil
}

// fakeDirectory knows a fixed set of doctors and patients.
type fakeDirectory struct {
	doctors  map[int64]bool
	patients map[int64]bool
}

func (f *fakeDirectory) DoctorExists(ctx context.Context, id int64) (bool, error) {
	return f.doctors[id], nil
}

func (f *fakeDirectory) PatientExists(ctx context.Context, id int64) (bool, error) {
	return f.patients[id], nil
}

var (
	slot     = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	doctor7  = auth.Identity{ID: 7, Email: "doc7@clinic.test", Role: auth.RoleDoctor}
	patient3 = auth.Identity{ID: 3, Email: "pat3@clinic.test", Role: auth.RolePatient}
	patient5 = auth.Identity{ID: 5, Email: "pat5@clinic.test", Role: auth.RolePatient}
)

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	dir := &fakeDirectory{
		doctors:  map[int64]bool{7: true, 8: true},
		patients: map[int64]bool{3: true, 5: true},
	}
	return NewService(repo, dir), repo
}

func TestBookCreatesConfirmed(t *testing.T) {
	svc, _ := newTestService()
	a, err := svc.Book(context.Background(), patient3, 7, 3, slot)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if a.Status != StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", a.Status)
	}
	if a.ID == 0 {
		t.Error("expected assigned id")
	}
}

func TestBookUnknownParties(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Book(ctx, patient3, 99, 3, slot)
	if !workflow.IsKind(err, workflow.KindNotFound) {
		t.Errorf("unknown doctor: expected NotFound, got %v", err)
	}
	_, err = svc.Book(ctx, auth.Identity{ID: 42, Role: auth.RolePatient}, 7, 42, slot)
	if !workflow.IsKind(err, workflow.KindNotFound) {
		t.Errorf("unknown patient: expected NotFound, got %v", err)
	}
}

func TestBookAuthorization(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Book(ctx, patient5, 7, 3, slot)
	if !workflow.IsKind(err, workflow.KindUnauthorized) {
		t.Errorf("patient booking for another: expected Unauthorized, got %v", err)
	}
	_, err = svc.Book(ctx, auth.Identity{ID: 2, Role: auth.RoleLabTech}, 7, 3, slot)
	if !workflow.IsKind(err, workflow.KindUnauthorized) {
		t.Errorf("lab tech booking: expected Unauthorized, got %v", err)
	}
}

func TestBookDoubleBookingConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Book(ctx, patient3, 7, 3, slot); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := svc.Book(ctx, patient5, 7, 5, slot)
	if !workflow.IsKind(err, workflow.KindConflict) {
		t.Errorf("same slot: expected Conflict, got %v", err)
	}

	// A different doctor at the same time is fine.
	if _, err := svc.Book(ctx, auth.Identity{ID: 8, Role: auth.RoleDoctor}, 8, 5, slot); err != nil {
		t.Errorf("other doctor same time: %v", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, patient3, 7, 3, slot)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := svc.Cancel(ctx, patient3, a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Book(ctx, patient5, 7, 5, slot); err != nil {
		t.Errorf("rebooking a cancelled slot should succeed: %v", err)
	}
}

func TestRescheduleConflictLeavesUnchanged(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, patient3, 7, 3, slot)
	if err != nil {
		t.Fatalf("book a: %v", err)
	}
	later := slot.Add(time.Hour)
	if _, err := svc.Book(ctx, patient5, 7, 5, later); err != nil {
		t.Fatalf("book b: %v", err)
	}

	_, err = svc.Reschedule(ctx, patient3, a.ID, later)
	if !workflow.IsKind(err, workflow.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.ScheduledAt.Equal(slot) || got.Status != StatusConfirmed {
		t.Errorf("appointment changed after failed reschedule: %+v", got)
	}
}

func TestRescheduleTerminalStates(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, patient3, 7, 3, slot)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := svc.Cancel(ctx, patient3, a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err = svc.Reschedule(ctx, patient3, a.ID, slot.Add(time.Hour))
	if !workflow.IsKind(err, workflow.KindInvalidState) {
		t.Errorf("cancelled: expected InvalidState, got %v", err)
	}

	b, err := svc.Book(ctx, patient3, 7, 3, slot.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("book b: %v", err)
	}
	if _, err := repo.CompleteConfirmed(ctx, b.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = svc.Reschedule(ctx, patient3, b.ID, slot.Add(3*time.Hour))
	if !workflow.IsKind(err, workflow.KindInvalidState) {
		t.Errorf("completed: expected InvalidState, got %v", err)
	}
}

func TestRescheduleHidesForeignAppointments(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, patient3, 7, 3, slot)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	_, err = svc.Reschedule(ctx, patient5, a.ID, slot.Add(time.Hour))
	if !workflow.IsKind(err, workflow.KindNotFound) {
		t.Errorf("foreign caller: expected NotFound, got %v", err)
	}
}

func TestCancelTerminality(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, patient3, 7, 3, slot)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := svc.Cancel(ctx, patient3, a.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	err = svc.Cancel(ctx, patient3, a.ID)
	if !workflow.IsKind(err, workflow.KindInvalidState) {
		t.Errorf("second cancel: expected InvalidState, got %v", err)
	}

	b, err := svc.Book(ctx, patient3, 7, 3, slot.Add(time.Hour))
	if err != nil {
		t.Fatalf("book b: %v", err)
	}
	if _, err := repo.CompleteConfirmed(ctx, b.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	err = svc.Cancel(ctx, patient3, b.ID)
	if !workflow.IsKind(err, workflow.KindInvalidState) {
		t.Errorf("cancel completed: expected InvalidState, got %v", err)
	}
}

func TestCancelLosesRaceWithCompletion(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, patient3, 7, 3, slot)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	repo.beforeWrite = func() {
		repo.byID[a.ID].Status = StatusCompleted
	}

	err = svc.Cancel(ctx, patient3, a.ID)
	if !workflow.IsKind(err, workflow.KindInvalidState) {
		t.Fatalf("cancel after completion: expected InvalidState, got %v", err)
	}
	if repo.byID[a.ID].Status != StatusCompleted {
		t.Errorf("completed appointment mutated to %s", repo.byID[a.ID].Status)
	}
}

func TestRescheduleLosesRaceWithCancellation(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, patient3, 7, 3, slot)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	repo.beforeWrite = func() {
		repo.byID[a.ID].Status = StatusCancelled
	}

	_, err = svc.Reschedule(ctx, patient3, a.ID, slot.Add(time.Hour))
	if !workflow.IsKind(err, workflow.KindInvalidState) {
		t.Fatalf("reschedule after cancellation: expected InvalidState, got %v", err)
	}
	got := repo.byID[a.ID]
	if got.Status != StatusCancelled || !got.ScheduledAt.Equal(slot) {
		t.Errorf("cancelled appointment resurrected: %+v", got)
	}
}

func TestListFiltersAndOrdering(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	late, err := svc.Book(ctx, patient3, 7, 3, slot.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("book late: %v", err)
	}
	early, err := svc.Book(ctx, patient3, 7, 3, slot)
	if err != nil {
		t.Fatalf("book early: %v", err)
	}
	gone, err := svc.Book(ctx, patient3, 7, 3, slot.Add(time.Hour))
	if err != nil {
		t.Fatalf("book gone: %v", err)
	}
	if err := svc.Cancel(ctx, patient3, gone.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	items, total, err := svc.ListForDoctor(ctx, doctor7, 7, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 active appointments, got %d", len(items))
	}
	if items[0].ID != early.ID || items[1].ID != late.ID {
		t.Errorf("expected ascending order, got %d then %d", items[0].ID, items[1].ID)
	}
}

func TestListAuthorization(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.ListForDoctor(ctx, patient3, 7, 20, 0)
	if !workflow.IsKind(err, workflow.KindUnauthorized) {
		t.Errorf("patient listing doctor schedule: expected Unauthorized, got %v", err)
	}
	_, _, err = svc.ListForPatient(ctx, patient5, 3, 20, 0)
	if !workflow.IsKind(err, workflow.KindUnauthorized) {
		t.Errorf("other patient: expected Unauthorized, got %v", err)
	}
}
