package core

import (
	"strings"
	"time"
)

const (
	// RoleLent means money left your pocket and the contact owes you.
	RoleLent Role = "you_lent"
	// RoleBorrowed means money arrived and you owe the contact.
	RoleBorrowed Role = "you_borrowed"

	StatusOpen   LoanStatus = "open"
	StatusClosed LoanStatus = "closed"
)

type (
	Role       string
	LoanStatus string

	Date struct {
		time.Time
	}

	// Money is an amount in minor units (paisa). All arithmetic is integral;
	// closure checks compare cents exactly.
	Money struct {
		Cents int64
	}

	// Tags is an ordered list of free-form labels. It is serialized to JSON
	// only at the storage boundary.
	Tags []string

	Account struct {
		ID        int64
		Name      string
		Type      string
		Currency  string
		CreatedAt Date
	}

	Contact struct {
		ID        int64
		Name      string
		Relation  string
		Tags      Tags
		Note      string
		CreatedAt Date
	}

	// Transaction is a signed cash movement on an account: negative for
	// outflow, positive for inflow. Loan creation and repayment both mirror
	// themselves here, forming the audit trail.
	Transaction struct {
		ID        int64
		AccountID int64
		Date      Date
		Amount    Money
		Category  string
		Merchant  string
		Note      string
		Tags      Tags
	}

	// Loan ties a contact to the transaction that moved the principal.
	// Amount is the original principal, always positive; Repaid accumulates
	// through payments and never exceeds Amount.
	Loan struct {
		ID        int64
		ContactID int64
		TxnID     int64
		Role      Role
		Amount    Money
		Date      Date
		DueDate   Date
		Repaid    Money
		Status    LoanStatus
		Note      string
	}

	LoanPayment struct {
		ID     int64
		LoanID int64
		Date   Date
		Amount Money
		Note   string
	}
)

// Open returns the outstanding balance of the loan.
func (l Loan) Open() Money {
	return Money{Cents: l.Amount.Cents - l.Repaid.Cents}
}

func (r Role) Validate() error {
	switch r {
	case RoleLent, RoleBorrowed:
		return nil
	}
	return ErrInvalidRole
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current civil date at UTC midnight.
func Today() Date {
	y, m, d := time.Now().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date in ISO form; zero dates render empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// DaysSince returns the number of whole days from d to ref.
func (d Date) DaysSince(ref Date) int {
	return int(ref.Sub(d.Time).Hours() / 24)
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
