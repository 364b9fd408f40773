package payrun

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"

	DisbursementPaid    = "paid"
	DisbursementSkipped = "skipped"
	DisbursementFailed  = "failed"
)
