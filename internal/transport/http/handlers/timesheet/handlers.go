package timesheethandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"payroll/internal/domain/audit"
	"payroll/internal/domain/timesheet"
	"payroll/internal/transport/http/api"
	"payroll/internal/transport/http/middleware"
	"payroll/internal/transport/http/shared"
)

type Handler struct {
	Service *timesheet.Service
	Audit   *audit.Service
	Loc     *time.Location
}

func NewHandler(service *timesheet.Service, auditSvc *audit.Service, loc *time.Location) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Loc: loc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timesheets", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{timesheetID}", h.handleGet)
		r.Put("/{timesheetID}", h.handleUpdate)
		r.Delete("/{timesheetID}", h.handleDelete)
	})
}

type entryPayload struct {
	Date            string `json:"date"`
	Start           string `json:"start"`
	End             string `json:"end"`
	UnpaidBreakMins int    `json:"unpaidBreakMins"`
}

type timesheetPayload struct {
	EmployeeID  string         `json:"employeeId"`
	PeriodStart string         `json:"periodStart"`
	PeriodEnd   string         `json:"periodEnd"`
	Allowances  string         `json:"allowances"`
	Entries     []entryPayload `json:"entries"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.List(r.Context(), page.Page(), page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "timesheet_list_failed", "failed to list timesheets", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.Service.Get(r.Context(), chi.URLParam(r, "timesheetID"))
	if err != nil {
		h.fail(w, r, err, "failed to load timesheet")
		return
	}
	api.Success(w, sheet, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload timesheetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	sheet, ok := h.validated(w, r, payload)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), sheet)
	if err != nil {
		h.fail(w, r, err, "failed to create timesheet")
		return
	}
	h.record(r, audit.ActionTimesheetCreate, created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "timesheetID")
	var payload timesheetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	sheet, ok := h.validated(w, r, payload)
	if !ok {
		return
	}

	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "failed to load timesheet")
		return
	}
	updated, err := h.Service.Update(r.Context(), id, sheet)
	if err != nil {
		h.fail(w, r, err, "failed to update timesheet")
		return
	}
	h.record(r, audit.ActionTimesheetUpdate, id, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "timesheetID")
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "failed to load timesheet")
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "failed to delete timesheet")
		return
	}
	h.record(r, audit.ActionTimesheetDelete, id, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) validated(w http.ResponseWriter, r *http.Request, payload timesheetPayload) (timesheet.Timesheet, bool) {
	v := shared.NewValidator(h.Loc)
	v.Required("employeeId", payload.EmployeeID, "is required")
	start, _ := v.Date("periodStart", payload.PeriodStart)
	end, _ := v.Date("periodEnd", payload.PeriodEnd)
	v.DateOrder("periodStart", start, "periodEnd", end)
	allowances, _ := v.Decimal("allowances", payload.Allowances)
	v.NonNegative("allowances", allowances)
	if len(payload.Entries) == 0 {
		v.Add("entries", "must contain at least one entry")
	}

	entries := make([]timesheet.Entry, 0, len(payload.Entries))
	for _, e := range payload.Entries {
		date, ok := v.Date("entries.date", e.Date)
		if !ok {
			continue
		}
		v.ClockTime("entries.start", e.Start)
		v.ClockTime("entries.end", e.End)
		if e.UnpaidBreakMins < 0 {
			v.Add("entries.unpaidBreakMins", "must not be negative")
		}
		entries = append(entries, timesheet.Entry{
			Date:            date,
			Start:           e.Start,
			End:             e.End,
			UnpaidBreakMins: e.UnpaidBreakMins,
		})
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return timesheet.Timesheet{}, false
	}

	return timesheet.Timesheet{
		EmployeeID:  payload.EmployeeID,
		PeriodStart: start,
		PeriodEnd:   end,
		Allowances:  allowances,
		Entries:     entries,
	}, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, timesheet.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "timesheet not found", reqID)
	case errors.Is(err, timesheet.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, timesheet.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate_timesheet", "timesheet already exists for this employee and period", reqID)
	case errors.Is(err, timesheet.ErrPeriodLocked):
		api.Fail(w, http.StatusConflict, "period_locked", "a committed payrun covers this period", reqID)
	case errors.Is(err, timesheet.ErrProcessed):
		api.Fail(w, http.StatusConflict, "timesheet_processed", "timesheet has already been processed", reqID)
	case errors.Is(err, timesheet.ErrInvalidPeriod),
		errors.Is(err, timesheet.ErrNoEntries),
		errors.Is(err, timesheet.ErrEntryOutsidePeriod):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "timesheet_error", fallback, reqID)
	}
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.UserID, action, "timesheet", entityID, middleware.GetRequestID(r.Context()), before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
