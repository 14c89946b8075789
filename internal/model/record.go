// Package model defines the ledger record types shared across the service.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component. It marshals as
// "YYYY-MM-DD" in JSON and is stored as TEXT in the same form.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month, day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// CostRecord is a single ledger line imported from a CSV export.
// ID is the storage identity; Vernr is the business de-duplication key.
type CostRecord struct {
	ID               string  `json:"id,omitempty"`
	Vernr            string  `json:"vernr"`
	AccountNumber    int     `json:"account_number"`
	PostingDate      Date    `json:"posting_date"`
	RegistrationDate Date    `json:"registration_date"`
	AccountName      string  `json:"account_name"`
	Ks               string  `json:"ks,omitempty"`
	ProjectNumber    string  `json:"project_number,omitempty"`
	VerificationText string  `json:"verification_text,omitempty"`
	TransactionInfo  string  `json:"transaction_info,omitempty"`
	Debit            float64 `json:"debit"`
	Credit           float64 `json:"credit"`
}

// TransactionRecord is a cost record promoted into the transaction
// collection. SupplierName is populated only by the enrichment pass.
type TransactionRecord struct {
	ID               string  `json:"id"`
	Vernr            string  `json:"vernr"`
	AccountNumber    int     `json:"account_number"`
	PostingDate      Date    `json:"posting_date"`
	RegistrationDate Date    `json:"registration_date"`
	AccountName      string  `json:"account_name"`
	Ks               string  `json:"ks,omitempty"`
	ProjectNumber    string  `json:"project_number,omitempty"`
	VerificationText string  `json:"verification_text,omitempty"`
	TransactionInfo  string  `json:"transaction_info,omitempty"`
	Debit            float64 `json:"debit"`
	Credit           float64 `json:"credit"`
	SupplierName     string  `json:"supplier_name,omitempty"`
}

// NewID mints a fresh storage identity.
func NewID() string {
	return uuid.New().String()
}

// PromoteCost copies every field of a cost record into a transaction
// record under a freshly minted identity.
func PromoteCost(c CostRecord) TransactionRecord {
	return TransactionRecord{
		ID:               NewID(),
		Vernr:            c.Vernr,
		AccountNumber:    c.AccountNumber,
		PostingDate:      c.PostingDate,
		RegistrationDate: c.RegistrationDate,
		AccountName:      c.AccountName,
		Ks:               c.Ks,
		ProjectNumber:    c.ProjectNumber,
		VerificationText: c.VerificationText,
		TransactionInfo:  c.TransactionInfo,
		Debit:            c.Debit,
		Credit:           c.Credit,
	}
}
