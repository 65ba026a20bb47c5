package services

import (
	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary value to two decimal places, half away from
// zero. All ledger arithmetic funnels through here so float drift never
// reaches a stored amount.
func Round2(value float64) float64 {
	f, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return f
}

// SimpleInterest computes principal * rate/100 * duration/12, rounded
// to two decimal places. Rate is an annual percentage and duration is
// in months.
func SimpleInterest(principal, annualRate float64, durationMonths int) float64 {
	p := decimal.NewFromFloat(principal)
	r := decimal.NewFromFloat(annualRate).Div(decimal.NewFromInt(100))
	d := decimal.NewFromInt(int64(durationMonths)).Div(decimal.NewFromInt(12))
	f, _ := p.Mul(r).Mul(d).Round(2).Float64()
	return f
}

// TotalPayable is principal plus simple interest
func TotalPayable(principal, annualRate float64, durationMonths int) float64 {
	p := decimal.NewFromFloat(principal)
	i := decimal.NewFromFloat(SimpleInterest(principal, annualRate, durationMonths))
	f, _ := p.Add(i).Round(2).Float64()
	return f
}

// OutstandingBalance re-derives what remains payable on a loan from its
// approved installments. The stored pending_amount is a cache of this
// value, never the source of truth; the approval path always recomputes.
func OutstandingBalance(loan *models.Loan) float64 {
	paid := decimal.NewFromFloat(loan.ApprovedInstallmentTotal())
	total := decimal.NewFromFloat(loan.TotalPayable)
	remaining := total.Sub(paid).Round(2)
	if remaining.IsNegative() {
		return 0
	}
	f, _ := remaining.Float64()
	return f
}

// ProvisionalBalance is the pending amount shown to the borrower right
// after submitting an installment, before any admin has reviewed it. It
// deducts the submitted amount optimistically but never drives closure.
func ProvisionalBalance(currentPending, submitted float64) float64 {
	remaining := decimal.NewFromFloat(currentPending).Sub(decimal.NewFromFloat(submitted)).Round(2)
	if remaining.IsNegative() {
		return 0
	}
	f, _ := remaining.Float64()
	return f
}
