package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"onepaisa/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// standalone or inside a scoped transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries bundles all SQL against the ledger schema.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

func marshalTags(t core.Tags) string {
	if len(t) == 0 {
		return "[]"
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalTags(s string) core.Tags {
	if s == "" || s == "[]" {
		return nil
	}
	var t core.Tags
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return nil
	}
	return t
}

func parseStoredDate(s string) core.Date {
	if s == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

// Accounts

const createAccount = `
INSERT INTO accounts (name, type, currency, created_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateAccount(ctx context.Context, name, accType, currency string, createdAt core.Date) (int64, error) {
	res, err := q.db.ExecContext(ctx, createAccount, name, accType, currency, createdAt.String())
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return res.LastInsertId()
}

const getAccountByName = `
SELECT id, name, type, currency, created_at FROM accounts WHERE name = ?`

// GetAccountByName returns sql.ErrNoRows (wrapped) when the account does not
// exist; callers decide whether that means "create it".
func (q *Queries) GetAccountByName(ctx context.Context, name string) (core.Account, error) {
	var (
		a       core.Account
		created string
	)
	err := q.db.QueryRowContext(ctx, getAccountByName, name).
		Scan(&a.ID, &a.Name, &a.Type, &a.Currency, &created)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %q: %w", name, err)
	}
	a.CreatedAt = parseStoredDate(created)
	return a, nil
}

// Contacts

const createContact = `
INSERT INTO contacts (name, relation, tags, note, created_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateContact(ctx context.Context, c core.Contact) (int64, error) {
	res, err := q.db.ExecContext(ctx, createContact,
		c.Name, c.Relation, marshalTags(c.Tags), c.Note, c.CreatedAt.String())
	if err != nil {
		return 0, fmt.Errorf("insert contact: %w", err)
	}
	return res.LastInsertId()
}

const getContactByName = `
SELECT id, name, relation, tags, note, created_at FROM contacts WHERE name = ?`

func (q *Queries) GetContactByName(ctx context.Context, name string) (core.Contact, error) {
	return q.scanContact(q.db.QueryRowContext(ctx, getContactByName, name))
}

const getContactByID = `
SELECT id, name, relation, tags, note, created_at FROM contacts WHERE id = ?`

func (q *Queries) GetContactByID(ctx context.Context, id int64) (core.Contact, error) {
	return q.scanContact(q.db.QueryRowContext(ctx, getContactByID, id))
}

func (q *Queries) scanContact(row *sql.Row) (core.Contact, error) {
	var (
		c             core.Contact
		tags, created string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Relation, &tags, &c.Note, &created)
	if err != nil {
		return core.Contact{}, fmt.Errorf("get contact: %w", err)
	}
	c.Tags = unmarshalTags(tags)
	c.CreatedAt = parseStoredDate(created)
	return c, nil
}

const listContacts = `
SELECT id, name, relation, tags, note, created_at FROM contacts ORDER BY name`

func (q *Queries) ListContacts(ctx context.Context) ([]core.Contact, error) {
	rows, err := q.db.QueryContext(ctx, listContacts)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []core.Contact
	for rows.Next() {
		var (
			c             core.Contact
			tags, created string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Relation, &tags, &c.Note, &created); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Tags = unmarshalTags(tags)
		c.CreatedAt = parseStoredDate(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Transactions

const createTransaction = `
INSERT INTO transactions (account_id, date, amount_cents, category, merchant, note, tags)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		t.AccountID, t.Date.String(), t.Amount.Cents, t.Category, t.Merchant, t.Note, marshalTags(t.Tags))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return res.LastInsertId()
}

const listTransactionsByAccount = `
SELECT id, account_id, date, amount_cents, category, merchant, note, tags
FROM transactions WHERE account_id = ? ORDER BY date, id`

func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByAccount, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t          core.Transaction
			date, tags string
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &date, &t.Amount.Cents, &t.Category, &t.Merchant, &t.Note, &tags); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date = parseStoredDate(date)
		t.Tags = unmarshalTags(tags)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Loans

const createLoan = `
INSERT INTO loans (contact_id, txn_id, role, amount_cents, date, due_date, repaid_cents, status, note)
VALUES (?, ?, ?, ?, ?, ?, 0, 'open', ?)`

func (q *Queries) CreateLoan(ctx context.Context, l core.Loan) (int64, error) {
	res, err := q.db.ExecContext(ctx, createLoan,
		l.ContactID, l.TxnID, string(l.Role), l.Amount.Cents, l.Date.String(), l.DueDate.String(), l.Note)
	if err != nil {
		return 0, fmt.Errorf("insert loan: %w", err)
	}
	return res.LastInsertId()
}

const loanColumns = `id, contact_id, txn_id, role, amount_cents, date, due_date, repaid_cents, status, note`

const getLoan = `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`

func (q *Queries) GetLoan(ctx context.Context, id int64) (core.Loan, error) {
	var (
		l         core.Loan
		role      string
		date, due string
		status    string
	)
	err := q.db.QueryRowContext(ctx, getLoan, id).
		Scan(&l.ID, &l.ContactID, &l.TxnID, &role, &l.Amount.Cents, &date, &due, &l.Repaid.Cents, &status, &l.Note)
	if err != nil {
		return core.Loan{}, fmt.Errorf("get loan %d: %w", id, err)
	}
	l.Role = core.Role(role)
	l.Status = core.LoanStatus(status)
	l.Date = parseStoredDate(date)
	l.DueDate = parseStoredDate(due)
	return l, nil
}

// Open loans ordered oldest first; date ties break on insertion order.
const listOpenLoansByContact = `
SELECT ` + loanColumns + ` FROM loans
WHERE contact_id = ? AND status = 'open'
ORDER BY date ASC, id ASC`

func (q *Queries) ListOpenLoansByContact(ctx context.Context, contactID int64) ([]core.Loan, error) {
	return q.listLoans(ctx, listOpenLoansByContact, contactID)
}

const listOpenLoans = `
SELECT ` + loanColumns + ` FROM loans WHERE status = 'open' ORDER BY date ASC, id ASC`

func (q *Queries) ListOpenLoans(ctx context.Context) ([]core.Loan, error) {
	return q.listLoans(ctx, listOpenLoans)
}

func (q *Queries) listLoans(ctx context.Context, query string, args ...any) ([]core.Loan, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var out []core.Loan
	for rows.Next() {
		var (
			l                      core.Loan
			role, date, due, state string
		)
		if err := rows.Scan(&l.ID, &l.ContactID, &l.TxnID, &role, &l.Amount.Cents, &date, &due, &l.Repaid.Cents, &state, &l.Note); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		l.Role = core.Role(role)
		l.Status = core.LoanStatus(state)
		l.Date = parseStoredDate(date)
		l.DueDate = parseStoredDate(due)
		out = append(out, l)
	}
	return out, rows.Err()
}

const updateLoanRepayment = `
UPDATE loans SET repaid_cents = ?, status = ? WHERE id = ?`

func (q *Queries) UpdateLoanRepayment(ctx context.Context, id int64, repaid core.Money, status core.LoanStatus) error {
	if _, err := q.db.ExecContext(ctx, updateLoanRepayment, repaid.Cents, string(status), id); err != nil {
		return fmt.Errorf("update loan %d repayment: %w", id, err)
	}
	return nil
}

// Loan payments

const createLoanPayment = `
INSERT INTO loan_payments (loan_id, date, amount_cents, note) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateLoanPayment(ctx context.Context, p core.LoanPayment) (int64, error) {
	res, err := q.db.ExecContext(ctx, createLoanPayment, p.LoanID, p.Date.String(), p.Amount.Cents, p.Note)
	if err != nil {
		return 0, fmt.Errorf("insert loan payment: %w", err)
	}
	return res.LastInsertId()
}

const listLoanPayments = `
SELECT id, loan_id, date, amount_cents, note FROM loan_payments WHERE loan_id = ? ORDER BY id`

func (q *Queries) ListLoanPayments(ctx context.Context, loanID int64) ([]core.LoanPayment, error) {
	rows, err := q.db.QueryContext(ctx, listLoanPayments, loanID)
	if err != nil {
		return nil, fmt.Errorf("list loan payments: %w", err)
	}
	defer rows.Close()

	var out []core.LoanPayment
	for rows.Next() {
		var (
			p    core.LoanPayment
			date string
		)
		if err := rows.Scan(&p.ID, &p.LoanID, &date, &p.Amount.Cents, &p.Note); err != nil {
			return nil, fmt.Errorf("scan loan payment: %w", err)
		}
		p.Date = parseStoredDate(date)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Aggregations

// LoanAggregates carries the per-role totals behind a contact summary, all
// in cents.
type LoanAggregates struct {
	LentTotal      int64
	LentRepaid     int64
	LentOpen       int64
	BorrowedTotal  int64
	BorrowedRepaid int64
	BorrowedOpen   int64
}

const contactLoanAggregates = `
SELECT
  IFNULL(SUM(CASE WHEN role = 'you_lent' THEN amount_cents END), 0),
  IFNULL(SUM(CASE WHEN role = 'you_lent' THEN repaid_cents END), 0),
  IFNULL(SUM(CASE WHEN role = 'you_lent' AND status = 'open' THEN amount_cents - repaid_cents END), 0),
  IFNULL(SUM(CASE WHEN role = 'you_borrowed' THEN amount_cents END), 0),
  IFNULL(SUM(CASE WHEN role = 'you_borrowed' THEN repaid_cents END), 0),
  IFNULL(SUM(CASE WHEN role = 'you_borrowed' AND status = 'open' THEN amount_cents - repaid_cents END), 0)
FROM loans WHERE contact_id = ?`

func (q *Queries) ContactLoanAggregates(ctx context.Context, contactID int64) (LoanAggregates, error) {
	var a LoanAggregates
	err := q.db.QueryRowContext(ctx, contactLoanAggregates, contactID).
		Scan(&a.LentTotal, &a.LentRepaid, &a.LentOpen, &a.BorrowedTotal, &a.BorrowedRepaid, &a.BorrowedOpen)
	if err != nil {
		return LoanAggregates{}, fmt.Errorf("aggregate loans for contact %d: %w", contactID, err)
	}
	return a, nil
}

const contactsOpenBalances = `
SELECT c.name,
  IFNULL(SUM(CASE WHEN l.role = 'you_lent' AND l.status = 'open' THEN l.amount_cents - l.repaid_cents END), 0),
  IFNULL(SUM(CASE WHEN l.role = 'you_borrowed' AND l.status = 'open' THEN l.amount_cents - l.repaid_cents END), 0)
FROM contacts c
LEFT JOIN loans l ON l.contact_id = c.id
GROUP BY c.id, c.name
ORDER BY c.name`

func (q *Queries) ContactsOpenBalances(ctx context.Context) ([]core.ContactBalance, error) {
	rows, err := q.db.QueryContext(ctx, contactsOpenBalances)
	if err != nil {
		return nil, fmt.Errorf("contacts open balances: %w", err)
	}
	defer rows.Close()

	var out []core.ContactBalance
	for rows.Next() {
		var (
			b          core.ContactBalance
			lent, owed int64
		)
		if err := rows.Scan(&b.Name, &lent, &owed); err != nil {
			return nil, fmt.Errorf("scan contact balance: %w", err)
		}
		b.TheyOweYou = core.Money{Cents: lent}
		b.YouOweThem = core.Money{Cents: owed}
		b.Net = b.TheyOweYou.Sub(b.YouOweThem)
		out = append(out, b)
	}
	return out, rows.Err()
}

const sumPrincipalByRoleSince = `
SELECT IFNULL(SUM(amount_cents), 0) FROM loans WHERE role = ? AND date >= ?`

// SumPrincipalByRoleSince totals loan principals for a role with a loan date
// on or after the given day, regardless of status.
func (q *Queries) SumPrincipalByRoleSince(ctx context.Context, role core.Role, since core.Date) (core.Money, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx, sumPrincipalByRoleSince, string(role), since.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum principal for role %s: %w", role, err)
	}
	return core.Money{Cents: cents}, nil
}
