package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID              string          `json:"id"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Type            string          `json:"type"`
	BaseHourlyRate  decimal.Decimal `json:"baseHourlyRate"`
	SuperRate       decimal.Decimal `json:"superRate"`
	BankBSB         string          `json:"bankBsb"`
	BankAccount     string          `json:"bankAccount"`
	StripeAccountID string          `json:"stripeAccountId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
