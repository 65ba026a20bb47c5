package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const gpaySlipText = `Google Pay
Paid to Mandal Fund
₹2,000
Completed
12 Jan 2026, 10:12 AM
UPI transaction ID: 123456789012345
UTR: 320611428877`

const phonePeSlipText = `PhonePe
Payment Successful
Rs.500.50
Transaction ID: T2601121012345678
02/01/2026 9:45 pm
To: Ramesh Traders`

func TestParseGPaySlip(t *testing.T) {
	result := ParseSlipText(gpaySlipText)

	assert.Equal(t, "gpay", result.Provider)
	assert.Equal(t, "123456789012345", result.TransactionID)
	assert.Equal(t, "320611428877", result.ReferenceID)
	assert.NotNil(t, result.Amount)
	assert.Equal(t, 2000.0, *result.Amount)
	assert.Equal(t, "12 Jan 2026", result.Date)
	assert.Equal(t, "10:12 AM", result.Time)
	assert.Equal(t, "Mandal Fund", result.PayeeName)
	assert.Equal(t, gpaySlipText, result.RawText)
}

func TestParsePhonePeSlip(t *testing.T) {
	result := ParseSlipText(phonePeSlipText)

	assert.Equal(t, "phonepe", result.Provider)
	assert.Equal(t, "T2601121012345678", result.TransactionID)
	assert.NotNil(t, result.Amount)
	assert.Equal(t, 500.50, *result.Amount)
	assert.Equal(t, "02/01/2026", result.Date)
	assert.Equal(t, "Ramesh Traders", result.PayeeName)
}

func TestPhonePeTransactionIDUppercased(t *testing.T) {
	result := ParseSlipText("phonepe transaction id: t2601120000111122")
	assert.Equal(t, "phonepe", result.Provider)
	assert.Equal(t, "T2601120000111122", result.TransactionID)
}

func TestReferenceFallsBackToTransactionID(t *testing.T) {
	// no UTR printed, installment matching falls back to the txn id
	result := ParseSlipText("Google Pay UPI transaction ID: 9876543210")
	assert.Equal(t, "9876543210", result.TransactionID)
	assert.Equal(t, "9876543210", result.ReferenceID)
}

func TestParseSlipEmptyText(t *testing.T) {
	result := ParseSlipText("   ")

	assert.Empty(t, result.TransactionID)
	assert.Empty(t, result.ReferenceID)
	assert.Empty(t, result.Provider)
	assert.Nil(t, result.Amount)
}

func TestParseSlipUnrelatedScreenshot(t *testing.T) {
	result := ParseSlipText("Settings\nWi-Fi\nBluetooth\nDisplay")

	assert.Empty(t, result.TransactionID)
	assert.Empty(t, result.Provider)
}

func TestDetectProviderVariants(t *testing.T) {
	assert.Equal(t, "gpay", ParseSlipText("paid via G Pay").Provider)
	assert.Equal(t, "gpay", ParseSlipText("GPay receipt").Provider)
	assert.Equal(t, "phonepe", ParseSlipText("PHONEPE payment").Provider)
	assert.Empty(t, ParseSlipText("paid by card").Provider)
}
