package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-31")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.String() != "2026-01-31" {
		t.Errorf("round trip = %s", d.String())
	}

	for _, bad := range []string{"", "31/01/2026", "2026-13-01", "not a date"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		input   string
		want    Frequency
		wantErr bool
	}{
		{input: "daily", want: Daily},
		{input: "Weekly", want: Weekly},
		{input: " MONTHLY ", want: Monthly},
		{input: "yearly", want: Yearly},
		{input: "fortnightly", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFrequency(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidFrequency) {
				t.Errorf("ParseFrequency(%q) error = %v, want ErrInvalidFrequency", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFrequency(%q) = %v, %v; want %v", tt.input, got, err, tt.want)
		}
	}
}

func TestSharedDebtValidate(t *testing.T) {
	amount, _ := ParseAmount("10.00")

	debt := SharedDebt{Name: "Groceries", Amount: amount}
	if err := debt.Validate(); err != nil {
		t.Errorf("valid debt rejected: %v", err)
	}

	if err := (SharedDebt{Name: "  ", Amount: amount}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank name error = %v, want ErrEmptyName", err)
	}
	if err := (SharedDebt{Name: "x"}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount error = %v, want ErrInvalidAmount", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	amount, _ := ParseAmount("5.00")

	tx := Transaction{PayerID: 1, RecipientID: 2, Amount: amount}
	if err := tx.Validate(); err != nil {
		t.Errorf("valid transaction rejected: %v", err)
	}

	self := Transaction{PayerID: 1, RecipientID: 1, Amount: amount}
	if err := self.Validate(); !errors.Is(err, ErrSelfTransaction) {
		t.Errorf("self transaction error = %v, want ErrSelfTransaction", err)
	}
}

func TestRecurringDebtValidate(t *testing.T) {
	amount, _ := ParseAmount("30.00")
	start := NewDate(2026, 1, 1)
	end := NewDate(2026, 1, 20)
	beforeStart := NewDate(2025, 12, 31)

	valid := RecurringDebt{
		Name:               "Rent",
		Amount:             amount,
		Frequency:          Weekly,
		StartDate:          start,
		EndDate:            &end,
		NextGenerationDate: start,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid recurring debt rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*RecurringDebt)
		want   error
	}{
		{name: "bad frequency", mutate: func(r *RecurringDebt) { r.Frequency = "sometimes" }, want: ErrInvalidFrequency},
		{name: "end before start", mutate: func(r *RecurringDebt) { *r.EndDate = beforeStart }, want: ErrInvalidDate},
		{name: "next before start", mutate: func(r *RecurringDebt) { r.NextGenerationDate = beforeStart }, want: ErrInvalidDate},
		{name: "zero start", mutate: func(r *RecurringDebt) { r.StartDate = Date{} }, want: ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			endCopy := end
			r.EndDate = &endCopy
			tt.mutate(&r)
			if err := r.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
