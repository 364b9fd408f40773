package timesheet

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	sheets      map[string]Timesheet
	employees   map[string]bool
	lockedUntil time.Time
	duplicates  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sheets:    map[string]Timesheet{},
		employees: map[string]bool{"e1": true},
	}
}

func (f *fakeStore) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	return f.employees[employeeID], nil
}

func (f *fakeStore) HasOverlappingPayrun(ctx context.Context, start, end time.Time) (bool, error) {
	return !f.lockedUntil.IsZero() && !start.After(f.lockedUntil), nil
}

func (f *fakeStore) HasDuplicate(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	return f.duplicates, nil
}

func (f *fakeStore) Insert(ctx context.Context, sheet *Timesheet) error {
	f.sheets[sheet.ID] = *sheet
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (Timesheet, error) {
	sheet, ok := f.sheets[id]
	if !ok {
		return Timesheet{}, ErrNotFound
	}
	return sheet, nil
}

func (f *fakeStore) Update(ctx context.Context, sheet *Timesheet) error {
	if _, ok := f.sheets[sheet.ID]; !ok {
		return ErrNotFound
	}
	f.sheets[sheet.ID] = *sheet
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	delete(f.sheets, id)
	return nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.sheets), nil }

func (f *fakeStore) List(ctx context.Context, limit, offset int) ([]Timesheet, error) {
	return nil, nil
}

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func validSheet() Timesheet {
	return Timesheet{
		EmployeeID:  "e1",
		PeriodStart: day("2024-03-01"),
		PeriodEnd:   day("2024-03-14"),
		Entries: []Entry{
			{Date: day("2024-03-04"), Start: "09:00", End: "17:00", UnpaidBreakMins: 30},
		},
	}
}

func TestCreateAssignsIDAndStatus(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	created, err := svc.Create(context.Background(), validSheet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Status != StatusUnprocessed {
		t.Fatalf("expected UNPROCESSED, got %s", created.Status)
	}
	if created.Entries[0].ID == "" {
		t.Fatal("expected generated entry id")
	}
}

func TestCreateUnknownEmployee(t *testing.T) {
	svc := NewService(newFakeStore())
	sheet := validSheet()
	sheet.EmployeeID = "ghost"

	if _, err := svc.Create(context.Background(), sheet); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestCreateDuplicatePeriod(t *testing.T) {
	store := newFakeStore()
	store.duplicates = true
	svc := NewService(store)

	if _, err := svc.Create(context.Background(), validSheet()); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateRejectsEmptyEntries(t *testing.T) {
	svc := NewService(newFakeStore())
	sheet := validSheet()
	sheet.Entries = nil

	if _, err := svc.Create(context.Background(), sheet); !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
}

func TestCreateRejectsEntryOutsidePeriod(t *testing.T) {
	svc := NewService(newFakeStore())
	sheet := validSheet()
	sheet.Entries[0].Date = day("2024-03-20")

	if _, err := svc.Create(context.Background(), sheet); !errors.Is(err, ErrEntryOutsidePeriod) {
		t.Fatalf("expected ErrEntryOutsidePeriod, got %v", err)
	}
}

func TestCreateRejectsLockedPeriod(t *testing.T) {
	store := newFakeStore()
	store.lockedUntil = day("2024-03-31")
	svc := NewService(store)

	if _, err := svc.Create(context.Background(), validSheet()); !errors.Is(err, ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked, got %v", err)
	}
}

func TestUpdateProcessedTimesheet(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	created, err := svc.Create(context.Background(), validSheet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	locked := created
	locked.Status = StatusProcessed
	store.sheets[created.ID] = locked

	if _, err := svc.Update(context.Background(), created.ID, validSheet()); !errors.Is(err, ErrProcessed) {
		t.Fatalf("expected ErrProcessed, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, ErrProcessed) {
		t.Fatalf("expected ErrProcessed on delete, got %v", err)
	}
}

func TestUpdatePreservesIdentity(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	created, err := svc.Create(context.Background(), validSheet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	replacement := validSheet()
	replacement.EmployeeID = "someone-else"
	updated, err := svc.Update(context.Background(), created.ID, replacement)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("id must not change, got %s", updated.ID)
	}
	if updated.EmployeeID != created.EmployeeID {
		t.Fatalf("employee must not change, got %s", updated.EmployeeID)
	}
}

func TestUpdateRejectsDuplicatePeriod(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	created, err := svc.Create(context.Background(), validSheet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// An update that keeps the period must not trip the duplicate check
	// against the row being updated.
	store.duplicates = true
	if _, err := svc.Update(context.Background(), created.ID, validSheet()); err != nil {
		t.Fatalf("same-period update must pass: %v", err)
	}

	moved := validSheet()
	moved.PeriodStart = day("2024-03-15")
	moved.PeriodEnd = day("2024-03-28")
	moved.Entries[0].Date = day("2024-03-18")
	if _, err := svc.Update(context.Background(), created.ID, moved); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestDeleteMissingTimesheet(t *testing.T) {
	svc := NewService(newFakeStore())
	if err := svc.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
