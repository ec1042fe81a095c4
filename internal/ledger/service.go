// Package ledger implements the operations of the personal ledger: cash
// transactions, peer-to-peer loans, repayment settlement and the reports
// derived from them. Presentation is someone else's job; every operation
// returns plain data.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"onepaisa/internal/cache"
	"onepaisa/internal/core"
	"onepaisa/internal/storage"
)

const (
	defaultWalletAccount = "Wallet"
	defaultCurrency      = "PKR"
	defaultAccountType   = "checking"

	categoryLend        = "lend"
	categoryBorrow      = "borrow"
	categoryLoanPayment = "loan_payment"
	categoryRepayment   = "repayment"

	defaultPaymentNote = "repayment"

	resolverCacheSize = 256
	resolverCacheTTL  = 5 * time.Minute
)

// Config carries the ledger's tunables; zero values fall back to defaults.
type Config struct {
	WalletAccount string // account that mirrors loan cash flows
	Currency      string // currency for auto-created accounts
}

// Service is the caller-facing ledger. Single-process, synchronous: every
// operation runs to completion on the calling goroutine.
type Service struct {
	repo     *storage.SQLiteRepository
	wallet   string
	currency string

	accountIDs *cache.LRUCache[int64]
	contacts   *cache.LRUCache[core.Contact]

	now func() core.Date
}

func NewService(repo *storage.SQLiteRepository, cfg Config) *Service {
	if cfg.WalletAccount == "" {
		cfg.WalletAccount = defaultWalletAccount
	}
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	return &Service{
		repo:       repo,
		wallet:     cfg.WalletAccount,
		currency:   cfg.Currency,
		accountIDs: cache.NewLRUCache[int64](resolverCacheSize, resolverCacheTTL),
		contacts:   cache.NewLRUCache[core.Contact](resolverCacheSize, resolverCacheTTL),
		now:        core.Today,
	}
}

// TransactionInput describes a signed cash movement. Amount follows the
// outflow-negative convention and may be zero or negative; only the loan
// paths insist on positive principals.
type TransactionInput struct {
	Account  string
	Amount   core.Money
	Date     core.Date
	Category string
	Merchant string
	Note     string
	Tags     core.Tags
}

// LoanInput describes a new loan. Amount is the principal, always positive;
// the signed cash transaction is derived from Role.
type LoanInput struct {
	Contact string
	Account string
	Amount  core.Money
	Role    core.Role
	Date    core.Date
	DueDate core.Date
	Note    string
}

// EnsureAccount resolves an account by name, creating it with default type
// and currency if absent, and returns its id.
func (s *Service) EnsureAccount(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.repo.ExecTx(ctx, func(q *storage.Queries) error {
		var err error
		id, err = s.ensureAccount(ctx, q, name)
		return err
	})
	return id, err
}

// ensureAccount resolves or creates inside the caller's transaction scope.
// Freshly created ids are not cached until a later lookup observes them
// committed.
func (s *Service) ensureAccount(ctx context.Context, q *storage.Queries, name string) (int64, error) {
	if name == "" {
		return 0, core.ErrEmptyName
	}
	if id, ok := s.accountIDs.Get(name); ok {
		return id, nil
	}

	a, err := q.GetAccountByName(ctx, name)
	if err == nil {
		s.accountIDs.Set(name, a.ID)
		return a.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	id, err := q.CreateAccount(ctx, name, defaultAccountType, s.currency, s.now())
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Account created", "name", name, "id", id)
	return id, nil
}

// AddContact registers a new contact. Contact names are unique; a duplicate
// returns ErrContactExists.
func (s *Service) AddContact(ctx context.Context, name, relation string, tags core.Tags, note string) (int64, error) {
	c := core.Contact{
		Name:      name,
		Relation:  relation,
		Tags:      tags,
		Note:      note,
		CreatedAt: s.now(),
	}
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if c.Relation == "" {
		c.Relation = "other"
	}

	q := s.repo.Queries()
	if _, err := q.GetContactByName(ctx, name); err == nil {
		return 0, core.ErrContactExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	id, err := q.CreateContact(ctx, c)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Contact added", "name", name, "relation", c.Relation, "id", id)
	return id, nil
}

// ListContacts returns all contacts ordered by name.
func (s *Service) ListContacts(ctx context.Context) ([]core.Contact, error) {
	return s.repo.Queries().ListContacts(ctx)
}

// resolveContact looks a contact up by name, with a NotFoundError when it
// does not exist. Loans require a pre-existing contact; unlike accounts,
// contacts are never auto-created.
func (s *Service) resolveContact(ctx context.Context, name string) (core.Contact, error) {
	if c, ok := s.contacts.Get(name); ok {
		return c, nil
	}
	c, err := s.repo.Queries().GetContactByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Contact{}, core.NotFound("contact", name)
	}
	if err != nil {
		return core.Contact{}, err
	}
	s.contacts.Set(name, c)
	return c, nil
}

// RecordTransaction persists a cash movement, auto-creating the account.
// Returns the generated transaction id.
func (s *Service) RecordTransaction(ctx context.Context, in TransactionInput) (int64, error) {
	var id int64
	err := s.repo.ExecTx(ctx, func(q *storage.Queries) error {
		var err error
		id, err = s.recordTransaction(ctx, q, in)
		return err
	})
	return id, err
}

func (s *Service) recordTransaction(ctx context.Context, q *storage.Queries, in TransactionInput) (int64, error) {
	accountID, err := s.ensureAccount(ctx, q, in.Account)
	if err != nil {
		return 0, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	return q.CreateTransaction(ctx, core.Transaction{
		AccountID: accountID,
		Date:      in.Date,
		Amount:    in.Amount,
		Category:  in.Category,
		Merchant:  in.Merchant,
		Note:      in.Note,
		Tags:      in.Tags,
	})
}

// CreateLoan records a loan and the cash transaction that moved its
// principal, atomically. you_lent books an outflow, you_borrowed an inflow.
func (s *Service) CreateLoan(ctx context.Context, in LoanInput) (int64, error) {
	if err := in.Role.Validate(); err != nil {
		return 0, err
	}
	if err := in.Amount.Validate(); err != nil {
		return 0, err
	}
	contact, err := s.resolveContact(ctx, in.Contact)
	if err != nil {
		return 0, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	signed := in.Amount
	category := categoryBorrow
	if in.Role == core.RoleLent {
		signed = in.Amount.Neg()
		category = categoryLend
	}

	var loanID int64
	err = s.repo.ExecTx(ctx, func(q *storage.Queries) error {
		txnID, err := s.recordTransaction(ctx, q, TransactionInput{
			Account:  in.Account,
			Amount:   signed,
			Date:     in.Date,
			Category: category,
			Merchant: contact.Name,
			Note:     in.Note,
			Tags:     core.Tags{string(in.Role)},
		})
		if err != nil {
			return err
		}
		loanID, err = q.CreateLoan(ctx, core.Loan{
			ContactID: contact.ID,
			TxnID:     txnID,
			Role:      in.Role,
			Amount:    in.Amount,
			Date:      in.Date,
			DueDate:   in.DueDate,
			Note:      in.Note,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create loan: %w", err)
	}

	slog.InfoContext(ctx, "Loan created",
		"id", loanID,
		"contact", contact.Name,
		"role", string(in.Role),
		"amount_cents", in.Amount.Cents)
	return loanID, nil
}

// ApplyRepayment settles up to amount against a single loan: the applied
// portion is capped at the loan's open balance, a payment row is appended,
// the loan's repaid total and status are updated, and the cash flow is
// mirrored on the wallet account. All rows commit as one transaction.
// Returns the amount actually applied, which may be less than requested.
func (s *Service) ApplyRepayment(ctx context.Context, loan core.Loan, amount core.Money, date core.Date, note string) (core.Money, error) {
	if err := amount.Validate(); err != nil {
		return core.Money{}, err
	}
	if date.IsZero() {
		date = s.now()
	}
	if note == "" {
		note = defaultPaymentNote
	}

	applied := loan.Open().Min(amount)
	if !applied.IsPositive() {
		// Nothing open on this loan; nothing to record.
		return core.Money{}, nil
	}

	newRepaid := loan.Repaid.Add(applied)
	status := core.StatusOpen
	if newRepaid.Cents == loan.Amount.Cents {
		status = core.StatusClosed
	}

	// Repaying a loan you gave brings cash back in; repaying one you took
	// sends cash back out.
	mirror := applied
	if loan.Role == core.RoleBorrowed {
		mirror = applied.Neg()
	}

	err := s.repo.ExecTx(ctx, func(q *storage.Queries) error {
		if _, err := q.CreateLoanPayment(ctx, core.LoanPayment{
			LoanID: loan.ID,
			Date:   date,
			Amount: applied,
			Note:   note,
		}); err != nil {
			return err
		}
		if err := q.UpdateLoanRepayment(ctx, loan.ID, newRepaid, status); err != nil {
			return err
		}
		_, err := s.recordTransaction(ctx, q, TransactionInput{
			Account:  s.wallet,
			Amount:   mirror,
			Date:     date,
			Category: categoryLoanPayment,
			Merchant: "repay:" + strconv.FormatInt(loan.ID, 10),
			Note:     fmt.Sprintf("repayment for loan %d", loan.ID),
		})
		return err
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("apply repayment to loan %d: %w", loan.ID, err)
	}

	slog.InfoContext(ctx, "Repayment applied",
		"loan_id", loan.ID,
		"applied_cents", applied.Cents,
		"status", string(status))
	return applied, nil
}

// RepayLoan applies a repayment against a specific loan id. A missing id is
// a NotFoundError, never a silent no-op. Repaying a loan that is already
// closed writes nothing and returns zero applied.
func (s *Service) RepayLoan(ctx context.Context, loanID int64, amount core.Money, date core.Date, note string) (core.Money, error) {
	loan, err := s.repo.Queries().GetLoan(ctx, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, core.NotFound("loan", strconv.FormatInt(loanID, 10))
	}
	if err != nil {
		return core.Money{}, err
	}
	return s.ApplyRepayment(ctx, loan, amount, date, note)
}

// SettleContact spreads a repayment over the contact's open loans oldest
// first, closing each as it fills, until the amount runs out or no open
// loans remain. With no open loans at all, the full amount is recorded as a
// plain inbound cash transaction and reported as applied.
//
// Each per-loan application commits independently; a failure mid-sequence
// leaves the applications before it durable. There is deliberately no
// all-or-nothing scope across loans.
func (s *Service) SettleContact(ctx context.Context, contactName string, amount core.Money, date core.Date, note string) (core.SettleResult, error) {
	if err := amount.Validate(); err != nil {
		return core.SettleResult{}, err
	}
	contact, err := s.resolveContact(ctx, contactName)
	if err != nil {
		return core.SettleResult{}, err
	}
	if date.IsZero() {
		date = s.now()
	}

	loans, err := s.repo.Queries().ListOpenLoansByContact(ctx, contact.ID)
	if err != nil {
		return core.SettleResult{}, err
	}

	if len(loans) == 0 {
		err := s.repo.ExecTx(ctx, func(q *storage.Queries) error {
			_, err := s.recordTransaction(ctx, q, TransactionInput{
				Account:  s.wallet,
				Amount:   amount,
				Date:     date,
				Category: categoryRepayment,
				Merchant: contact.Name,
				Note:     note,
			})
			return err
		})
		if err != nil {
			return core.SettleResult{}, fmt.Errorf("record unlinked repayment: %w", err)
		}
		slog.InfoContext(ctx, "Repayment recorded without open loans",
			"contact", contact.Name, "amount_cents", amount.Cents)
		return core.SettleResult{Applied: amount}, nil
	}

	remaining := amount
	var applied core.Money
	for _, loan := range loans {
		if !remaining.IsPositive() {
			break
		}
		got, err := s.ApplyRepayment(ctx, loan, remaining, date, note)
		if err != nil {
			return core.SettleResult{Applied: applied, Unapplied: remaining}, err
		}
		remaining = remaining.Sub(got)
		applied = applied.Add(got)
	}

	slog.InfoContext(ctx, "Contact settled",
		"contact", contact.Name,
		"applied_cents", applied.Cents,
		"unapplied_cents", remaining.Cents)
	return core.SettleResult{Applied: applied, Unapplied: remaining}, nil
}

// LoanPayments returns the append-only payment history of a loan.
func (s *Service) LoanPayments(ctx context.Context, loanID int64) ([]core.LoanPayment, error) {
	if _, err := s.repo.Queries().GetLoan(ctx, loanID); errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("loan", strconv.FormatInt(loanID, 10))
	} else if err != nil {
		return nil, err
	}
	return s.repo.Queries().ListLoanPayments(ctx, loanID)
}
