package artifacts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payroll/internal/domain/payrun"
	"payroll/internal/platform/config"
	cryptoutil "payroll/internal/platform/crypto"
)

func samplePayslip() payrun.Payslip {
	d := decimal.RequireFromString
	return payrun.Payslip{
		ID:            "slip-1",
		EmployeeID:    "e1",
		EmployeeName:  "Alice Nguyen",
		NormalHours:   d("38"),
		OvertimeHours: d("2"),
		Gross:         d("1640.00"),
		Tax:           d("212.50"),
		Super:         d("188.60"),
		Net:           d("1427.50"),
	}
}

func TestRenderWritesLocalPDF(t *testing.T) {
	dir := t.TempDir()
	crypto, _ := cryptoutil.New("")
	gen := New(config.Config{ArtifactDir: dir}, crypto)

	path, err := gen.Render(context.Background(), samplePayslip(), time.Now().AddDate(0, 0, -14), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "slip-1.pdf") {
		t.Fatalf("unexpected path %s", path)
	}

	document, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(document, []byte("%PDF")) {
		t.Fatal("expected a PDF document")
	}
}

func TestRenderSealsWhenKeyConfigured(t *testing.T) {
	dir := t.TempDir()
	key := "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f"
	crypto, err := cryptoutil.New(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gen := New(config.Config{ArtifactDir: dir}, crypto)

	path, err := gen.Render(context.Background(), samplePayslip(), time.Now().AddDate(0, 0, -14), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(path) != ".enc" {
		t.Fatalf("expected sealed file, got %s", path)
	}

	sealed, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.HasPrefix(sealed, []byte("%PDF")) {
		t.Fatal("sealed document must not be readable plaintext")
	}
	opened, err := crypto.Open(sealed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(opened, []byte("%PDF")) {
		t.Fatal("unsealed document must be a PDF")
	}
}

func TestRenderNoBackendConfigured(t *testing.T) {
	crypto, _ := cryptoutil.New("")
	gen := New(config.Config{}, crypto)

	path, err := gen.Render(context.Background(), samplePayslip(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Fatalf("expected no artifact, got %s", path)
	}
}
