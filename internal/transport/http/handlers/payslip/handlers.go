package paysliphandler

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"payroll/internal/domain/payrun"
	cryptoutil "payroll/internal/platform/crypto"
	"payroll/internal/transport/http/api"
	"payroll/internal/transport/http/middleware"
)

type Handler struct {
	Service *payrun.Service
	Crypto  *cryptoutil.Service
}

func NewHandler(service *payrun.Service, crypto *cryptoutil.Service) *Handler {
	return &Handler{Service: service, Crypto: crypto}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payslips", func(r chi.Router) {
		r.Get("/{payslipID}", h.handleGet)
		r.Get("/{payslipID}/document", h.handleDocument)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	slip, err := h.Service.GetPayslip(r.Context(), chi.URLParam(r, "payslipID"))
	if err != nil {
		if errors.Is(err, payrun.ErrPayslipNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payslip not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "payslip_get_failed", "failed to load payslip", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, slip, middleware.GetRequestID(r.Context()))
}

// handleDocument serves the payslip PDF. Remote documents redirect to their
// stored URL; local ones are read from disk and unsealed when encrypted.
func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	slip, err := h.Service.GetPayslip(r.Context(), chi.URLParam(r, "payslipID"))
	if err != nil {
		if errors.Is(err, payrun.ErrPayslipNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payslip not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "payslip_get_failed", "failed to load payslip", reqID)
		return
	}
	if slip.DocumentURL == "" {
		api.Fail(w, http.StatusNotFound, "document_missing", "no document generated for this payslip", reqID)
		return
	}
	if strings.HasPrefix(slip.DocumentURL, "http://") || strings.HasPrefix(slip.DocumentURL, "https://") {
		http.Redirect(w, r, slip.DocumentURL, http.StatusFound)
		return
	}

	document, err := os.ReadFile(slip.DocumentURL)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "document_missing", "payslip document not available", reqID)
		return
	}
	if strings.HasSuffix(slip.DocumentURL, ".enc") {
		if h.Crypto == nil || !h.Crypto.Configured() {
			api.Fail(w, http.StatusInternalServerError, "document_error", "payslip document cannot be decrypted", reqID)
			return
		}
		document, err = h.Crypto.Open(document)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "document_error", "payslip document cannot be decrypted", reqID)
			return
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="payslip-`+slip.ID+`.pdf"`)
	if _, err := w.Write(document); err != nil {
		return
	}
}
