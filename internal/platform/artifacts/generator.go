package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jung-kurt/gofpdf"

	"payroll/internal/domain/payrun"
	"payroll/internal/platform/config"
	cryptoutil "payroll/internal/platform/crypto"
)

// Generator renders payslip PDFs and stores them in S3 when a bucket is
// configured, otherwise under a local artifact directory (sealed at rest when
// a data encryption key is set). With neither backend configured it produces
// nothing and reports no error.
type Generator struct {
	cfg    config.Config
	crypto *cryptoutil.Service
}

func New(cfg config.Config, crypto *cryptoutil.Service) *Generator {
	return &Generator{cfg: cfg, crypto: crypto}
}

func (g *Generator) Render(ctx context.Context, slip payrun.Payslip, periodStart, periodEnd time.Time) (string, error) {
	if !g.s3Configured() && g.cfg.ArtifactDir == "" {
		return "", nil
	}

	document, err := g.buildPDF(slip, periodStart, periodEnd)
	if err != nil {
		return "", err
	}

	if g.s3Configured() {
		return g.uploadS3(ctx, slip.ID, document)
	}
	return g.writeLocal(slip.ID, document)
}

func (g *Generator) s3Configured() bool {
	return g.cfg.S3Bucket != "" && g.cfg.S3Region != "" && g.cfg.S3AccessKeyID != "" && g.cfg.S3SecretAccessKey != ""
}

func (g *Generator) buildPDF(slip payrun.Payslip, periodStart, periodEnd time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", slip.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Employee ID: %s", slip.EmployeeID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", periodStart.Format("02 Jan 2006"), periodEnd.Format("02 Jan 2006")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", time.Now().Format("02 Jan 2006")))
	if slip.TransferID != "" {
		pdf.Ln(7)
		pdf.Cell(0, 8, fmt.Sprintf("Transfer ID: %s", slip.TransferID))
	}
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Hours")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Normal hours: %s", slip.NormalHours.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Overtime hours: %s", slip.OvertimeHours.StringFixed(2)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Gross Pay: $%s", slip.Gross.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Tax: -$%s", slip.Tax.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Super: $%s", slip.Super.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Net Pay: $%s", slip.Net.StringFixed(2)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) uploadS3(ctx context.Context, payslipID string, document []byte) (string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(g.cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			g.cfg.S3AccessKeyID,
			g.cfg.S3SecretAccessKey,
			"",
		)))
	if err != nil {
		return "", err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if g.cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(g.cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	key := fmt.Sprintf("payslips/%s.pdf", payslipID)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.cfg.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(document),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", err
	}

	if g.cfg.S3BaseEndpoint != "" {
		return fmt.Sprintf("%s/%s/%s", g.cfg.S3BaseEndpoint, g.cfg.S3Bucket, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", g.cfg.S3Bucket, g.cfg.S3Region, key), nil
}

func (g *Generator) writeLocal(payslipID string, document []byte) (string, error) {
	if err := os.MkdirAll(g.cfg.ArtifactDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(g.cfg.ArtifactDir, payslipID+".pdf")
	if g.crypto != nil && g.crypto.Configured() {
		sealed, err := g.crypto.Seal(document)
		if err != nil {
			return "", err
		}
		path += ".enc"
		if err := os.WriteFile(path, sealed, 0o600); err != nil {
			return "", err
		}
		return path, nil
	}

	if err := os.WriteFile(path, document, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
