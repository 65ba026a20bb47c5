package ocr

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Result holds the structured fields extracted from a payment slip. Every
// field is optional: an empty Result is a successful extraction that found
// no usable text, not an error.
type Result struct {
	TransactionID string   `json:"transaction_id,omitempty"`
	ReferenceID   string   `json:"reference_id,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Date          string   `json:"date,omitempty"`
	Time          string   `json:"time,omitempty"`
	PayeeName     string   `json:"payee_name,omitempty"`
	Provider      string   `json:"provider,omitempty"`
	RawText       string   `json:"raw_text,omitempty"`
}

// Extractor is the capability boundary to the OCR collaborator. It only
// fails on transport errors; illegible images yield an empty Result so the
// caller decides policy.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (*Result, error)
}

var (
	// UPI transaction ids: GPay prints a long numeric id, PhonePe a
	// T-prefixed alphanumeric one. UTR is the 12-digit bank reference.
	reGPayTxn    = regexp.MustCompile(`(?i)UPI\s+transaction\s+ID[:\s]*([0-9]{10,})`)
	rePhonePeTxn = regexp.MustCompile(`(?i)Transaction\s+ID[:\s]*(T[0-9A-Z]{8,})`)
	reUTR        = regexp.MustCompile(`(?i)UTR(?:\s*(?:No\.?|Number))?[:\s]*([0-9]{12})`)
	reAmount     = regexp.MustCompile(`(?:₹|Rs\.?|INR)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	reDate       = regexp.MustCompile(`([0-9]{1,2}\s+[A-Za-z]{3,9}\s+[0-9]{4}|[0-9]{2}/[0-9]{2}/[0-9]{4}|[0-9]{4}-[0-9]{2}-[0-9]{2})`)
	reTime       = regexp.MustCompile(`([0-9]{1,2}:[0-9]{2}(?::[0-9]{2})?\s*(?:[AaPp][Mm])?)`)
	rePayee      = regexp.MustCompile(`(?i)(?:paid\s+to|to:)\s*([A-Za-z][A-Za-z .'&]{1,60})`)
)

// ParseSlipText turns raw OCR text from a UPI payment screenshot into a
// structured Result. Unrecognized fields stay empty.
func ParseSlipText(text string) *Result {
	res := &Result{RawText: text}
	if strings.TrimSpace(text) == "" {
		return res
	}

	res.Provider = detectProvider(text)

	if m := reGPayTxn.FindStringSubmatch(text); m != nil {
		res.TransactionID = m[1]
	} else if m := rePhonePeTxn.FindStringSubmatch(text); m != nil {
		res.TransactionID = strings.ToUpper(m[1])
	}

	if m := reUTR.FindStringSubmatch(text); m != nil {
		res.ReferenceID = m[1]
	}
	// Fall back to the transaction id as the reference for installments
	if res.ReferenceID == "" && res.TransactionID != "" {
		res.ReferenceID = res.TransactionID
	}

	if m := reAmount.FindStringSubmatch(text); m != nil {
		raw := strings.ReplaceAll(m[1], ",", "")
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			res.Amount = &v
		}
	}

	if m := reDate.FindStringSubmatch(text); m != nil {
		res.Date = m[1]
	}
	if m := reTime.FindStringSubmatch(text); m != nil {
		res.Time = strings.TrimSpace(m[1])
	}
	if m := rePayee.FindStringSubmatch(text); m != nil {
		res.PayeeName = strings.TrimSpace(m[1])
	}

	return res
}

func detectProvider(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "phonepe"):
		return "phonepe"
	case strings.Contains(lower, "google pay"), strings.Contains(lower, "g pay"), strings.Contains(lower, "gpay"):
		return "gpay"
	}
	return ""
}
