package payrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payroll/internal/domain/employee"
	"payroll/internal/platform/metrics"
)

// DisbursementGateway issues one payment transfer per payslip. A failure is
// per-payslip and retryable later, never fatal to the batch. The idempotency
// key is stable per payslip so a re-attempt of a transfer the provider
// already executed returns the original transfer instead of paying again.
type DisbursementGateway interface {
	Transfer(ctx context.Context, amountMinorUnits int64, currency, destination, description, idempotencyKey string) (transferID string, err error)
}

// ArtifactGenerator renders and stores one payslip document. It returns
// ("", nil) when no artifact backend is configured.
type ArtifactGenerator interface {
	Render(ctx context.Context, slip Payslip, periodStart, periodEnd time.Time) (url string, err error)
}

type Service struct {
	store           StoreAPI
	gateway         DisbursementGateway
	artifacts       ArtifactGenerator
	calc            Calculator
	metrics         *metrics.Collector
	currency        string
	transferTimeout time.Duration
}

type ServiceConfig struct {
	Calculator      Calculator
	Currency        string
	TransferTimeout time.Duration
	Metrics         *metrics.Collector
}

func NewService(store StoreAPI, gateway DisbursementGateway, artifacts ArtifactGenerator, cfg ServiceConfig) *Service {
	if len(cfg.Calculator.Table.Brackets) == 0 {
		cfg.Calculator = NewCalculator(DefaultTaxTable())
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.TransferTimeout <= 0 {
		cfg.TransferTimeout = 30 * time.Second
	}
	return &Service{
		store:           store,
		gateway:         gateway,
		artifacts:       artifacts,
		calc:            cfg.Calculator,
		metrics:         cfg.Metrics,
		currency:        cfg.Currency,
		transferTimeout: cfg.TransferTimeout,
	}
}

type GenerateInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type GenerateResult struct {
	Label         string                `json:"label"`
	Payrun        Payrun                `json:"payrun"`
	Disbursements []DisbursementOutcome `json:"disbursements"`
}

// Generate runs one payroll batch: overlap guard, per-employee calculation,
// the atomic payrun+payslips commit, then best-effort disbursement and
// artifact generation. Everything before the commit is fully rejectable;
// everything after it is absorbed per payslip and reported in the outcomes.
func (s *Service) Generate(ctx context.Context, input GenerateInput) (GenerateResult, error) {
	if input.PeriodEnd.Before(input.PeriodStart) {
		return GenerateResult{}, ErrInvalidPeriod
	}
	candidate := Period{Start: input.PeriodStart, End: input.PeriodEnd}

	committed, err := s.store.ListCommittedPeriods(ctx)
	if err != nil {
		return GenerateResult{}, err
	}
	if err := CheckNoOverlap(candidate, committed); err != nil {
		return GenerateResult{}, err
	}

	sheets, err := s.store.ListEligibleTimesheets(ctx, input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return GenerateResult{}, err
	}
	if len(sheets) == 0 {
		return GenerateResult{}, ErrNoEligibleTimesheets
	}

	run := Payrun{
		ID:          uuid.NewString(),
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
	}
	employees := make(map[string]employee.Employee, len(sheets))

	// Stable input order keeps the aggregate rounding reproducible.
	for _, sheet := range sheets {
		slip, err := s.draftPayslip(run.ID, sheet)
		if err != nil {
			return GenerateResult{}, fmt.Errorf("timesheet %s: %w", sheet.TimesheetID, err)
		}
		run.Payslips = append(run.Payslips, slip)
		run.TimesheetIDs = append(run.TimesheetIDs, sheet.TimesheetID)
		employees[sheet.Employee.ID] = sheet.Employee
		run.TotalGross = run.TotalGross.Add(slip.Gross)
		run.TotalTax = run.TotalTax.Add(slip.Tax)
		run.TotalSuper = run.TotalSuper.Add(slip.Super)
		run.TotalNet = run.TotalNet.Add(slip.Net)
	}
	if len(run.Payslips) == 0 {
		return GenerateResult{}, ErrNoPayableHours
	}

	if err := s.store.CommitPayrun(ctx, &run, run.TimesheetIDs); err != nil {
		return GenerateResult{}, err
	}
	if s.metrics != nil {
		s.metrics.PayrunGenerated()
	}

	label := fmt.Sprintf("PR-%s-%s", input.PeriodStart.Format("2006-01-02"), input.PeriodEnd.Format("2006-01-02"))
	slog.Info("payrun committed", "payrunId", run.ID, "label", label, "payslips", len(run.Payslips))

	outcomes := s.disburse(ctx, label, run.Payslips, employees)
	s.renderArtifacts(ctx, run.Payslips, run.PeriodStart, run.PeriodEnd)

	return GenerateResult{Label: label, Payrun: run, Disbursements: outcomes}, nil
}

func (s *Service) draftPayslip(runID string, sheet EligibleTimesheet) (Payslip, error) {
	hours, err := CalculateHours(sheet.Entries)
	if err != nil {
		return Payslip{}, err
	}
	gross, err := s.calc.GrossPay(hours.Normal, hours.Overtime, sheet.Employee.BaseHourlyRate, sheet.Allowances)
	if err != nil {
		return Payslip{}, err
	}
	tax, err := s.calc.TaxWithheld(gross)
	if err != nil {
		return Payslip{}, err
	}
	super, err := s.calc.SuperContribution(gross, sheet.Employee.SuperRate)
	if err != nil {
		return Payslip{}, err
	}
	net, err := s.calc.NetPay(gross, tax)
	if err != nil {
		return Payslip{}, err
	}
	return Payslip{
		ID:            uuid.NewString(),
		PayrunID:      runID,
		EmployeeID:    sheet.Employee.ID,
		EmployeeName:  sheet.Employee.FullName(),
		NormalHours:   hours.Normal,
		OvertimeHours: hours.Overtime,
		Gross:         gross,
		Tax:           tax,
		Super:         super,
		Net:           net,
		PaymentStatus: PaymentStatusPending,
	}, nil
}

// disburse walks the payslips in creation order. One employee's failure never
// blocks or reverts another's; failed and skipped payslips stay PENDING.
func (s *Service) disburse(ctx context.Context, label string, slips []Payslip, employees map[string]employee.Employee) []DisbursementOutcome {
	outcomes := make([]DisbursementOutcome, 0, len(slips))
	for i := range slips {
		slip := &slips[i]
		emp := employees[slip.EmployeeID]
		outcome := DisbursementOutcome{PayslipID: slip.ID, EmployeeID: slip.EmployeeID}

		if emp.StripeAccountID == "" {
			outcome.Status = DisbursementSkipped
			outcome.Reason = "no payment destination configured"
			slog.Info("payslip skipped: no payment destination", "payslipId", slip.ID, "employeeId", slip.EmployeeID)
			outcomes = append(outcomes, outcome)
			continue
		}

		description := fmt.Sprintf("Payrun %s - %s", label, emp.FullName())
		transferID, err := s.transferWithTimeout(ctx, slip.ID, slip.Net, emp.StripeAccountID, description)
		if s.metrics != nil {
			s.metrics.TransferAttempted(err != nil)
		}
		if err != nil {
			outcome.Status = DisbursementFailed
			outcome.Reason = err.Error()
			slog.Error("transfer failed", "payslipId", slip.ID, "employeeId", slip.EmployeeID, "err", err)
			outcomes = append(outcomes, outcome)
			continue
		}

		if err := s.store.MarkPayslipPaid(ctx, slip.ID, transferID); err != nil {
			// The transfer went out and the slip stays PENDING, so the retry
			// job re-attempts it. The payslip-keyed idempotency key makes
			// that re-attempt return this transfer rather than pay twice.
			slog.Error("transfer succeeded but status update failed", "payslipId", slip.ID, "transferId", transferID, "err", err)
		}
		slip.PaymentStatus = PaymentStatusPaid
		slip.TransferID = transferID
		outcome.Status = DisbursementPaid
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *Service) transferWithTimeout(ctx context.Context, payslipID string, net decimal.Decimal, destination, description string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()
	amountCents := net.Shift(2).IntPart()
	return s.gateway.Transfer(ctx, amountCents, s.currency, destination, description, "payslip-"+payslipID)
}

// renderArtifacts is best-effort for every payslip, paid or not. A render
// failure is logged and never alters payment state or the returned result.
func (s *Service) renderArtifacts(ctx context.Context, slips []Payslip, periodStart, periodEnd time.Time) {
	if s.artifacts == nil {
		return
	}
	for i := range slips {
		slip := &slips[i]
		url, err := s.artifacts.Render(ctx, *slip, periodStart, periodEnd)
		if err != nil {
			slog.Warn("payslip artifact render failed", "payslipId", slip.ID, "err", err)
			continue
		}
		if url == "" {
			continue
		}
		if err := s.store.SetPayslipDocument(ctx, slip.ID, url); err != nil {
			slog.Warn("payslip document link update failed", "payslipId", slip.ID, "err", err)
			continue
		}
		slip.DocumentURL = url
		if s.metrics != nil {
			s.metrics.ArtifactRendered()
		}
	}
}

type ListResult struct {
	Data       []Payrun `json:"data"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
}

func (s *Service) List(ctx context.Context, page, limit int) (ListResult, error) {
	total, err := s.store.CountPayruns(ctx)
	if err != nil {
		return ListResult{}, err
	}
	runs, err := s.store.ListPayruns(ctx, limit, (page-1)*limit)
	if err != nil {
		return ListResult{}, err
	}
	totalPages := (total + limit - 1) / limit
	return ListResult{Data: runs, Total: total, Page: page, TotalPages: totalPages}, nil
}

func (s *Service) Get(ctx context.Context, id string) (Payrun, error) {
	return s.store.GetPayrun(ctx, id)
}

func (s *Service) GetPayslip(ctx context.Context, id string) (Payslip, error) {
	return s.store.GetPayslip(ctx, id)
}

// RetryPendingDisbursements re-attempts transfers for committed payslips that
// are still PENDING and have a payment destination. Run by the background job
// scheduler.
func (s *Service) RetryPendingDisbursements(ctx context.Context) (map[string]any, error) {
	pending, err := s.store.ListRetryablePayslips(ctx)
	if err != nil {
		return nil, err
	}

	paid, failed := 0, 0
	for _, slip := range pending {
		label := fmt.Sprintf("PR-%s-%s", slip.PeriodStart.Format("2006-01-02"), slip.PeriodEnd.Format("2006-01-02"))
		description := fmt.Sprintf("Payrun %s - %s (retry)", label, slip.EmployeeName)
		transferID, err := s.transferWithTimeout(ctx, slip.PayslipID, slip.Net, slip.Destination, description)
		if s.metrics != nil {
			s.metrics.TransferAttempted(err != nil)
		}
		if err != nil {
			failed++
			slog.Warn("disbursement retry failed", "payslipId", slip.PayslipID, "err", err)
			continue
		}
		if err := s.store.MarkPayslipPaid(ctx, slip.PayslipID, transferID); err != nil {
			slog.Error("retry transfer succeeded but status update failed", "payslipId", slip.PayslipID, "transferId", transferID, "err", err)
		}
		paid++
	}
	return map[string]any{"pending": len(pending), "paid": paid, "failed": failed}, nil
}
