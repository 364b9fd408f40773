package employeehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"payroll/internal/domain/audit"
	"payroll/internal/domain/employee"
	"payroll/internal/transport/http/api"
	"payroll/internal/transport/http/middleware"
	"payroll/internal/transport/http/shared"
)

type Handler struct {
	Store *employee.Store
	Audit *audit.Service
}

func NewHandler(store *employee.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{employeeID}", h.handleGet)
		r.Put("/{employeeID}", h.handleUpdate)
		r.Delete("/{employeeID}", h.handleDelete)
	})
}

type employeePayload struct {
	ID              string `json:"id"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Type            string `json:"type"`
	BaseHourlyRate  string `json:"baseHourlyRate"`
	SuperRate       string `json:"superRate"`
	BankBSB         string `json:"bankBsb"`
	BankAccount     string `json:"bankAccount"`
	StripeAccountID string `json:"stripeAccountId"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	total, err := h.Store.Count(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	employees, err := h.Store.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"data": employees, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	emp, ok := h.validated(w, r, payload)
	if !ok {
		return
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}

	if err := h.Store.Create(r.Context(), emp); err != nil {
		if errors.Is(err, employee.ErrAlreadyExists) {
			api.Fail(w, http.StatusConflict, "employee_exists", "employee id already in use", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, audit.ActionEmployeeCreate, emp.ID, nil, emp)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeID")
	existing, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	emp, ok := h.validated(w, r, payload)
	if !ok {
		return
	}
	emp.ID = id

	if err := h.Store.Update(r.Context(), emp); err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, audit.ActionEmployeeUpdate, id, existing, emp)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeID")
	existing, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_delete_failed", "failed to delete employee", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, audit.ActionEmployeeDelete, id, existing, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) validated(w http.ResponseWriter, r *http.Request, payload employeePayload) (employee.Employee, bool) {
	v := shared.NewValidator(nil)
	v.Required("firstName", payload.FirstName, "is required")
	v.Required("lastName", payload.LastName, "is required")
	v.Required("baseHourlyRate", payload.BaseHourlyRate, "is required")
	rate, _ := v.Decimal("baseHourlyRate", payload.BaseHourlyRate)
	v.NonNegative("baseHourlyRate", rate)
	superRate, _ := v.Decimal("superRate", payload.SuperRate)
	v.NonNegative("superRate", superRate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return employee.Employee{}, false
	}
	if payload.Type == "" {
		payload.Type = "permanent"
	}
	return employee.Employee{
		ID:              payload.ID,
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Type:            payload.Type,
		BaseHourlyRate:  rate,
		SuperRate:       superRate,
		BankBSB:         payload.BankBSB,
		BankAccount:     payload.BankAccount,
		StripeAccountID: payload.StripeAccountID,
	}, true
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.UserID, action, "employee", entityID, middleware.GetRequestID(r.Context()), before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
