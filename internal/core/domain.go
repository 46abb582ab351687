package core

import (
	"strings"
	"time"
)

// Frequency of a recurring debt.
const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	Frequency string

	// Date is a calendar day without a time component. It serializes to
	// ISO "2006-01-02", which is also how dates are persisted.
	Date struct {
		time.Time
	}

	// Group is owned externally (membership management is not this
	// system's job); it is modeled only as far as the ledger needs it.
	Group struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		CreatedBy int64     `json:"created_by"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// User is the minimal external-collaborator surface: an id and a name.
	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}

	// SharedDebt is a one-time expense split among a set of group
	// members. RecurringDebtID is a weak back-reference to the template
	// that generated it; deleting the template nulls it but never deletes
	// the debt.
	SharedDebt struct {
		ID              int64     `json:"id"`
		GroupID         int64     `json:"group_id"`
		CreatedBy       int64     `json:"created_by"`
		Name            string    `json:"name"`
		Amount          Money     `json:"amount"`
		RecurringDebtID *int64    `json:"recurring_debt_id,omitempty"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}

	// DebtParticipant is one participant's stake in a shared debt. The
	// share is persisted at creation time and is authoritative from then
	// on; later participant edits recompute and rewrite all shares as a
	// unit, so history never drifts silently.
	DebtParticipant struct {
		ID           int64 `json:"id"`
		SharedDebtID int64 `json:"shared_debt_id"`
		UserID       int64 `json:"user_id"`
		Share        Money `json:"share"`
	}

	// Transaction is a direct payer->recipient payment used to settle
	// balances. Immutable once created: an edit is a delete plus a
	// recreate, so the ledger stays exact.
	Transaction struct {
		ID          int64     `json:"id"`
		GroupID     int64     `json:"group_id"`
		PayerID     int64     `json:"payer_id"`
		RecipientID int64     `json:"recipient_id"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// RecurringDebt is a template that periodically materializes a new
	// shared debt. While active, NextGenerationDate is >= StartDate and
	// never more than one period in the future.
	RecurringDebt struct {
		ID                 int64     `json:"id"`
		GroupID            int64     `json:"group_id"`
		CreatedBy          int64     `json:"created_by"`
		Name               string    `json:"name"`
		Amount             Money     `json:"amount"`
		Frequency          Frequency `json:"frequency"`
		StartDate          Date      `json:"start_date"`
		EndDate            *Date     `json:"end_date,omitempty"`
		NextGenerationDate Date      `json:"next_generation_date"`
		IsActive           bool      `json:"is_active"`
		CreatedAt          time.Time `json:"created_at"`
		UpdatedAt          time.Time `json:"updated_at"`
	}
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month and day (UTC midnight).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// AfterDate reports whether d falls on a later day than other.
func (d Date) AfterDate(other Date) bool {
	return d.Time.After(other.Time)
}

// BeforeDate reports whether d falls on an earlier day than other.
func (d Date) BeforeDate(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) EqualDate(other Date) bool {
	return d.Time.Equal(other.Time)
}

// MarshalJSON encodes the date as a quoted ISO string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted ISO string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseFrequency validates and normalizes a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", ErrInvalidFrequency
	}
}

func (f Frequency) Validate() error {
	_, err := ParseFrequency(string(f))
	return err
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > 200 {
		return ErrEmptyName
	}
	return nil
}

func (d SharedDebt) Validate() error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	if d.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.PayerID == t.RecipientID {
		return ErrSelfTransaction
	}
	if t.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return ErrEmptyName
	}
	return nil
}

func (r RecurringDebt) Validate() error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	if r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if r.EndDate != nil && r.EndDate.BeforeDate(r.StartDate) {
		return ErrInvalidDate
	}
	if r.NextGenerationDate.BeforeDate(r.StartDate) {
		return ErrInvalidDate
	}
	return nil
}
