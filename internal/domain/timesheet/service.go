package timesheet

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

type ListResult struct {
	Data       []Timesheet `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

func (s *Service) List(ctx context.Context, page, limit int) (ListResult, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return ListResult{}, err
	}
	sheets, err := s.store.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return ListResult{}, err
	}
	totalPages := (total + limit - 1) / limit
	return ListResult{Data: sheets, Total: total, Page: page, TotalPages: totalPages}, nil
}

func (s *Service) Get(ctx context.Context, id string) (Timesheet, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, sheet Timesheet) (Timesheet, error) {
	if err := s.validate(ctx, &sheet); err != nil {
		return Timesheet{}, err
	}

	exists, err := s.store.EmployeeExists(ctx, sheet.EmployeeID)
	if err != nil {
		return Timesheet{}, err
	}
	if !exists {
		return Timesheet{}, ErrEmployeeNotFound
	}

	duplicate, err := s.store.HasDuplicate(ctx, sheet.EmployeeID, sheet.PeriodStart, sheet.PeriodEnd)
	if err != nil {
		return Timesheet{}, err
	}
	if duplicate {
		return Timesheet{}, ErrDuplicate
	}

	sheet.ID = uuid.NewString()
	sheet.Status = StatusUnprocessed
	for i := range sheet.Entries {
		sheet.Entries[i].ID = uuid.NewString()
	}
	if err := s.store.Insert(ctx, &sheet); err != nil {
		return Timesheet{}, err
	}
	return sheet, nil
}

func (s *Service) Update(ctx context.Context, id string, sheet Timesheet) (Timesheet, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Timesheet{}, err
	}
	if existing.Status == StatusProcessed {
		return Timesheet{}, ErrProcessed
	}

	if err := s.guardLocked(ctx, existing.PeriodStart, existing.PeriodEnd); err != nil {
		return Timesheet{}, err
	}
	if err := s.validate(ctx, &sheet); err != nil {
		return Timesheet{}, err
	}
	if !sheet.PeriodStart.Equal(existing.PeriodStart) || !sheet.PeriodEnd.Equal(existing.PeriodEnd) {
		duplicate, err := s.store.HasDuplicate(ctx, existing.EmployeeID, sheet.PeriodStart, sheet.PeriodEnd)
		if err != nil {
			return Timesheet{}, err
		}
		if duplicate {
			return Timesheet{}, ErrDuplicate
		}
	}

	sheet.ID = existing.ID
	sheet.EmployeeID = existing.EmployeeID
	sheet.Status = existing.Status
	for i := range sheet.Entries {
		sheet.Entries[i].ID = uuid.NewString()
	}
	if err := s.store.Update(ctx, &sheet); err != nil {
		return Timesheet{}, err
	}
	return sheet, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status == StatusProcessed {
		return ErrProcessed
	}
	if err := s.guardLocked(ctx, existing.PeriodStart, existing.PeriodEnd); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// validate applies the constraints shared by create and update: a well-formed
// period, at least one entry, every entry dated inside the period, and no
// committed payrun covering any part of the period.
func (s *Service) validate(ctx context.Context, sheet *Timesheet) error {
	if sheet.PeriodEnd.Before(sheet.PeriodStart) {
		return ErrInvalidPeriod
	}
	if len(sheet.Entries) == 0 {
		return ErrNoEntries
	}
	for _, entry := range sheet.Entries {
		if entry.Date.Before(sheet.PeriodStart) || entry.Date.After(sheet.PeriodEnd) {
			return ErrEntryOutsidePeriod
		}
	}
	return s.guardLocked(ctx, sheet.PeriodStart, sheet.PeriodEnd)
}

func (s *Service) guardLocked(ctx context.Context, start, end time.Time) error {
	locked, err := s.store.HasOverlappingPayrun(ctx, start, end)
	if err != nil {
		return err
	}
	if locked {
		return ErrPeriodLocked
	}
	return nil
}
