package payrunhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"payroll/internal/domain/audit"
	"payroll/internal/domain/payrun"
	"payroll/internal/platform/jobs"
	"payroll/internal/transport/http/api"
	"payroll/internal/transport/http/middleware"
	"payroll/internal/transport/http/shared"
)

type Handler struct {
	Service *payrun.Service
	Audit   *audit.Service
	Jobs    *jobs.Service
	Idem    *middleware.IdempotencyStore
	Loc     *time.Location
}

func NewHandler(service *payrun.Service, auditSvc *audit.Service, jobsSvc *jobs.Service, idem *middleware.IdempotencyStore, loc *time.Location) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Jobs: jobsSvc, Idem: idem, Loc: loc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payruns", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleGenerate)
		r.Post("/retry-disbursements", h.handleRetryDisbursements)
		r.Get("/{payrunID}", h.handleGet)
	})
}

type generatePayload struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	var payload generatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator(h.Loc)
	start, _ := v.Date("periodStart", payload.PeriodStart)
	end, _ := v.Date("periodEnd", payload.PeriodEnd)
	v.DateOrder("periodStart", start, "periodEnd", end)
	if v.Reject(w, reqID) {
		return
	}

	user, _ := middleware.GetUser(r.Context())
	idemKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(raw)
	if idemKey != "" && h.Idem != nil {
		stored, found, err := h.Idem.Check(r.Context(), user.UserID, "payruns.generate", idemKey, requestHash)
		if err != nil {
			if errors.Is(err, middleware.ErrIdempotencyConflict) {
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", reqID)
				return
			}
			api.Fail(w, http.StatusInternalServerError, "payrun_failed", "failed to generate payrun", reqID)
			return
		}
		if found {
			var data any
			if err := json.Unmarshal(stored, &data); err == nil {
				api.Success(w, data, reqID)
				return
			}
		}
	}

	result, err := h.Service.Generate(r.Context(), payrun.GenerateInput{PeriodStart: start, PeriodEnd: end})
	if err != nil {
		h.fail(w, r, err, "failed to generate payrun")
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionPayrunGenerate, "payrun", result.Payrun.ID, reqID, nil, result.Payrun); err != nil {
			slog.Warn("audit payrun.generate failed", "err", err)
		}
	}
	if idemKey != "" && h.Idem != nil {
		response, marshalErr := json.Marshal(result)
		if marshalErr == nil {
			if err := h.Idem.Save(r.Context(), user.UserID, "payruns.generate", idemKey, requestHash, response); err != nil {
				slog.Warn("idempotency save failed", "err", err)
			}
		}
	}

	api.Created(w, result, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 20, 100)
	result, err := h.Service.List(r.Context(), page.Page(), page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payrun_list_failed", "failed to list payruns", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.Get(r.Context(), chi.URLParam(r, "payrunID"))
	if err != nil {
		h.fail(w, r, err, "failed to load payrun")
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

// handleRetryDisbursements re-attempts transfers for payslips still PENDING.
// The work runs through the job service so the attempt is recorded alongside
// scheduled runs.
func (h *Handler) handleRetryDisbursements(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	run := func(ctx context.Context) (any, error) {
		return h.Service.RetryPendingDisbursements(ctx)
	}

	var summary any
	var err error
	if h.Jobs != nil {
		summary, err = h.Jobs.RunNow(r.Context(), jobs.JobDisbursementRetry, run)
	} else {
		summary, err = run(r.Context())
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "retry_failed", "failed to retry disbursements", reqID)
		return
	}
	api.Success(w, summary, reqID)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payrun.ErrPeriodOverlap):
		api.Fail(w, http.StatusConflict, "period_overlap", "pay period overlaps a committed payrun", reqID)
	case errors.Is(err, payrun.ErrTimesheetConsumed):
		api.Fail(w, http.StatusConflict, "timesheet_processed", "a timesheet was processed by a concurrent payrun", reqID)
	case errors.Is(err, payrun.ErrNoEligibleTimesheets):
		api.Fail(w, http.StatusNotFound, "no_eligible_timesheets", err.Error(), reqID)
	case errors.Is(err, payrun.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payrun not found", reqID)
	case errors.Is(err, payrun.ErrInvalidPeriod),
		errors.Is(err, payrun.ErrInvalidEntry),
		errors.Is(err, payrun.ErrInvalidInput),
		errors.Is(err, payrun.ErrNoPayableHours):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "payrun_failed", fallback, reqID)
	}
}
