package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"payroll/internal/app/server"
	"payroll/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// TestPayrollJourney exercises the whole flow against a real database:
// login, employee and timesheet creation, payrun generation, the overlap
// guard and the processed-timesheet lock.
func TestPayrollJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		Timezone:           "Australia/Melbourne",
		Currency:           "usd",
		TransferTimeout:    5 * time.Second,
		ArtifactDir:        t.TempDir(),
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		RunMigrations:      true,
		RunSeed:            true,
		MigrationsDir:      "../../../../migrations",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	suffix := time.Now().UnixNano()
	employeeID := fmt.Sprintf("journey-emp-%d", suffix)
	created := request(t, client, http.MethodPost, ts.URL+"/api/v1/employees", token, map[string]any{
		"id":             employeeID,
		"firstName":      "Journey",
		"lastName":       "Worker",
		"baseHourlyRate": "42",
		"superRate":      "0.115",
	}, http.StatusCreated)
	_ = created

	// Periods far in the future avoid colliding with earlier test runs
	// because committed payrun periods can never overlap.
	periodStart := time.Now().AddDate(1, 0, int(suffix%300)*28).Format("2006-01-02")
	start, _ := time.Parse("2006-01-02", periodStart)
	periodEnd := start.AddDate(0, 0, 13).Format("2006-01-02")
	entryDate := start.AddDate(0, 0, 2).Format("2006-01-02")

	sheetData := request(t, client, http.MethodPost, ts.URL+"/api/v1/timesheets", token, map[string]any{
		"employeeId":  employeeID,
		"periodStart": periodStart,
		"periodEnd":   periodEnd,
		"allowances":  "25.00",
		"entries": []map[string]any{
			{"date": entryDate, "start": "09:00", "end": "17:30", "unpaidBreakMins": 30},
		},
	}, http.StatusCreated)

	var sheet struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(sheetData, &sheet); err != nil {
		t.Fatalf("failed to decode timesheet: %v", err)
	}

	runData := request(t, client, http.MethodPost, ts.URL+"/api/v1/payruns", token, map[string]any{
		"periodStart": periodStart,
		"periodEnd":   periodEnd,
	}, http.StatusCreated)

	var result struct {
		Label  string `json:"label"`
		Payrun struct {
			ID       string `json:"id"`
			Payslips []struct {
				ID            string `json:"id"`
				Gross         string `json:"gross"`
				PaymentStatus string `json:"paymentStatus"`
			} `json:"payslips"`
		} `json:"payrun"`
		Disbursements []struct {
			Status string `json:"status"`
		} `json:"disbursements"`
	}
	if err := json.Unmarshal(runData, &result); err != nil {
		t.Fatalf("failed to decode payrun: %v", err)
	}
	if want := "PR-" + periodStart + "-" + periodEnd; result.Label != want {
		t.Fatalf("expected label %s, got %s", want, result.Label)
	}
	if len(result.Payrun.Payslips) != 1 {
		t.Fatalf("expected 1 payslip, got %d", len(result.Payrun.Payslips))
	}
	// 8h minus 30m break = 7.5h x 42 + 25 allowances = 340.00 gross.
	if result.Payrun.Payslips[0].Gross != "340" {
		t.Fatalf("expected gross 340, got %s", result.Payrun.Payslips[0].Gross)
	}
	// No stripe key configured: the transfer is attempted and fails, the
	// payslip stays pending, the batch still succeeds.
	if len(result.Disbursements) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(result.Disbursements))
	}

	// Overlapping generation must be rejected.
	requestExpectCode(t, client, http.MethodPost, ts.URL+"/api/v1/payruns", token, map[string]any{
		"periodStart": periodStart,
		"periodEnd":   periodEnd,
	}, http.StatusConflict, "period_overlap")

	// Consumed timesheets are immutable.
	requestExpectCode(t, client, http.MethodPut, ts.URL+"/api/v1/timesheets/"+sheet.ID, token, map[string]any{
		"employeeId":  employeeID,
		"periodStart": periodStart,
		"periodEnd":   periodEnd,
		"entries": []map[string]any{
			{"date": entryDate, "start": "10:00", "end": "16:00", "unpaidBreakMins": 0},
		},
	}, http.StatusConflict, "timesheet_processed")

	payrunData := request(t, client, http.MethodGet, ts.URL+"/api/v1/payruns/"+result.Payrun.ID, token, nil, http.StatusOK)
	var fetched struct {
		TimesheetIDs []string `json:"timesheetIds"`
	}
	if err := json.Unmarshal(payrunData, &fetched); err != nil {
		t.Fatalf("failed to decode payrun detail: %v", err)
	}
	if len(fetched.TimesheetIDs) != 1 || fetched.TimesheetIDs[0] != sheet.ID {
		t.Fatalf("expected payrun to reference timesheet %s, got %v", sheet.ID, fetched.TimesheetIDs)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	data := request(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, http.StatusOK)
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		t.Fatalf("failed to log in: %v", err)
	}
	return payload.Token
}

func request(t *testing.T, client *http.Client, method, url, token string, body any, wantStatus int) json.RawMessage {
	t.Helper()
	resp, env := do(t, client, method, url, token, body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d (error %+v)", method, url, wantStatus, resp.StatusCode, env.Error)
	}
	return env.Data
}

func requestExpectCode(t *testing.T, client *http.Client, method, url, token string, body any, wantStatus int, wantCode string) {
	t.Helper()
	resp, env := do(t, client, method, url, token, body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d", method, url, wantStatus, resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != wantCode {
		t.Fatalf("%s %s: expected error code %s, got %+v", method, url, wantCode, env.Error)
	}
}

func do(t *testing.T, client *http.Client, method, url, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}
