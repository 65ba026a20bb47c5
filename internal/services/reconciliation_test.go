package services

import (
	"testing"

	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.13, Round2(10.125))
	assert.Equal(t, 10.12, Round2(10.124))
	assert.Equal(t, -10.13, Round2(-10.125))
	assert.Equal(t, 0.0, Round2(0))
	// float artifacts from repeated addition collapse to clean cents
	assert.Equal(t, 0.3, Round2(0.1+0.2))
}

func TestSimpleInterest(t *testing.T) {
	// 6000 at 12% over 12 months is one full year of interest
	assert.Equal(t, 720.0, SimpleInterest(6000, 12, 12))

	// half year halves the interest
	assert.Equal(t, 360.0, SimpleInterest(6000, 12, 6))

	assert.Equal(t, 0.0, SimpleInterest(6000, 0, 12))
	assert.Equal(t, 0.0, SimpleInterest(0, 12, 12))

	// fractional result rounds to cents
	assert.Equal(t, 41.67, SimpleInterest(5000, 10, 1))
}

func TestTotalPayable(t *testing.T) {
	assert.Equal(t, 6720.0, TotalPayable(6000, 12, 12))
	assert.Equal(t, 5000.0, TotalPayable(5000, 0, 12))
}

func TestOutstandingBalance(t *testing.T) {
	loan := &models.Loan{
		TotalPayable: 6720,
		Installments: []models.Installment{
			{Amount: 2000, Status: models.InstallmentStatusApproved},
			{Amount: 1000, Status: models.InstallmentStatusPending},
			{Amount: 500, Status: models.InstallmentStatusRejected},
		},
	}

	// only approved installments count
	assert.Equal(t, 4720.0, OutstandingBalance(loan))

	loan.Installments[1].Status = models.InstallmentStatusApproved
	assert.Equal(t, 3720.0, OutstandingBalance(loan))
}

func TestOutstandingBalanceNeverNegative(t *testing.T) {
	loan := &models.Loan{
		TotalPayable: 1000,
		Installments: []models.Installment{
			{Amount: 600, Status: models.InstallmentStatusApproved},
			{Amount: 600, Status: models.InstallmentStatusApproved},
		},
	}
	assert.Equal(t, 0.0, OutstandingBalance(loan))
}

func TestProvisionalBalance(t *testing.T) {
	assert.Equal(t, 4720.0, ProvisionalBalance(6720, 2000))
	assert.Equal(t, 0.0, ProvisionalBalance(100, 100))
	assert.Equal(t, 0.0, ProvisionalBalance(100, 150))
}

func TestEffectivePending(t *testing.T) {
	loan := &models.Loan{
		TotalPayable: 6720,
		Installments: []models.Installment{
			{Amount: 2000, Status: models.InstallmentStatusApproved},
			{Amount: 1000, Status: models.InstallmentStatusPending},
			{Amount: 300, Status: models.InstallmentStatusRejected},
		},
	}

	// approved and in-review submissions both reduce what can be paid
	assert.Equal(t, 3720.0, effectivePending(loan))
}
