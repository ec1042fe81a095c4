package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"

	"onepaisa/internal/core"
	"onepaisa/internal/storage"
)

// Fixed "today" so date math in tests is stable.
var testToday = core.NewDate(2025, 10, 15)

func newTestService(t *testing.T) (*Service, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "onepaisa_test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := NewService(repo, Config{})
	svc.now = func() core.Date { return testToday }
	return svc, repo
}

func mustAddContact(t *testing.T, svc *Service, name string) {
	t.Helper()
	if _, err := svc.AddContact(context.Background(), name, "friend", nil, ""); err != nil {
		t.Fatalf("add contact %s: %v", name, err)
	}
}

func cents(n int64) core.Money { return core.Money{Cents: n} }

func TestAddContactDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustAddContact(t, svc, "Ali")
	if _, err := svc.AddContact(ctx, "Ali", "friend", nil, ""); !errors.Is(err, core.ErrContactExists) {
		t.Fatalf("expected ErrContactExists, got %v", err)
	}
	if _, err := svc.AddContact(ctx, "  ", "friend", nil, ""); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestRecordTransactionAutoCreatesAccount(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.RecordTransaction(ctx, TransactionInput{
		Account:  "Savings",
		Amount:   cents(-7500),
		Category: "groceries",
		Merchant: "store",
	})
	if err != nil {
		t.Fatalf("record transaction: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a transaction id")
	}

	a, err := repo.Queries().GetAccountByName(ctx, "Savings")
	if err != nil {
		t.Fatalf("auto-created account missing: %v", err)
	}
	if a.Type != "checking" || a.Currency != "PKR" {
		t.Fatalf("unexpected account defaults: %+v", a)
	}

	txns, err := repo.Queries().ListTransactionsByAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 1 || txns[0].Amount.Cents != -7500 {
		t.Fatalf("unexpected transactions: %+v", txns)
	}
	if txns[0].Date.String() != testToday.String() {
		t.Fatalf("date should default to today, got %s", txns[0].Date)
	}

	// Zero amounts are allowed on the plain transaction path.
	if _, err := svc.RecordTransaction(ctx, TransactionInput{Account: "Savings"}); err != nil {
		t.Fatalf("zero-amount transaction should be permitted: %v", err)
	}
}

func TestCreateLoanRequiresContact(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Nobody", Account: "Wallet", Amount: cents(100000), Role: core.RoleLent,
	})
	if !core.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCreateLoanValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Ali")

	if _, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Ali", Account: "Wallet", Amount: cents(-100), Role: core.RoleLent,
	}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Ali", Account: "Wallet", Amount: cents(100), Role: core.Role("lender"),
	}); !errors.Is(err, core.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestCreateLoanMirrorsTransaction(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Ali")

	loanID, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Ali", Account: "Wallet", Amount: cents(500000),
		Role: core.RoleLent, Date: core.NewDate(2025, 10, 1),
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	loan, err := repo.Queries().GetLoan(ctx, loanID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if loan.Status != core.StatusOpen || loan.Repaid.Cents != 0 {
		t.Fatalf("new loan should be open with zero repaid: %+v", loan)
	}

	// Lending books an outflow on the named account, tagged with the role.
	a, _ := repo.Queries().GetAccountByName(ctx, "Wallet")
	txns, _ := repo.Queries().ListTransactionsByAccount(ctx, a.ID)
	if len(txns) != 1 {
		t.Fatalf("expected 1 mirror transaction, got %d", len(txns))
	}
	txn := txns[0]
	if txn.ID != loan.TxnID {
		t.Fatalf("loan must reference its mirror transaction: txn %d vs loan.TxnID %d", txn.ID, loan.TxnID)
	}
	if txn.Amount.Cents != -500000 || txn.Category != "lend" || txn.Merchant != "Ali" {
		t.Fatalf("unexpected mirror transaction: %+v", txn)
	}
	if len(txn.Tags) != 1 || txn.Tags[0] != "you_lent" {
		t.Fatalf("mirror transaction should carry the role tag: %v", txn.Tags)
	}
}

func TestCreateLoanBorrowedBooksInflow(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Sara")

	if _, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Sara", Account: "Wallet", Amount: cents(200000), Role: core.RoleBorrowed,
	}); err != nil {
		t.Fatalf("create loan: %v", err)
	}

	a, _ := repo.Queries().GetAccountByName(ctx, "Wallet")
	txns, _ := repo.Queries().ListTransactionsByAccount(ctx, a.ID)
	if len(txns) != 1 || txns[0].Amount.Cents != 200000 || txns[0].Category != "borrow" {
		t.Fatalf("borrowing should book a positive inflow: %+v", txns)
	}
}

func TestSettleOldestFirst(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Bilal")

	first, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Bilal", Account: "Wallet", Amount: cents(100000),
		Role: core.RoleLent, Date: core.NewDate(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("create first loan: %v", err)
	}
	second, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Bilal", Account: "Wallet", Amount: cents(200000),
		Role: core.RoleLent, Date: core.NewDate(2025, 2, 1),
	})
	if err != nil {
		t.Fatalf("create second loan: %v", err)
	}

	res, err := svc.SettleContact(ctx, "Bilal", cents(150000), core.NewDate(2025, 3, 1), "")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.Applied.Cents != 150000 || res.Unapplied.Cents != 0 {
		t.Fatalf("settle result = %+v", res)
	}

	l1, _ := repo.Queries().GetLoan(ctx, first)
	if l1.Status != core.StatusClosed || l1.Repaid.Cents != 100000 {
		t.Fatalf("oldest loan should close first: %+v", l1)
	}
	l2, _ := repo.Queries().GetLoan(ctx, second)
	if l2.Status != core.StatusOpen || l2.Repaid.Cents != 50000 {
		t.Fatalf("newer loan should absorb the rest: %+v", l2)
	}

	// One payment row per touched loan.
	p1, _ := repo.Queries().ListLoanPayments(ctx, first)
	p2, _ := repo.Queries().ListLoanPayments(ctx, second)
	if len(p1) != 1 || p1[0].Amount.Cents != 100000 {
		t.Fatalf("payments on first loan: %+v", p1)
	}
	if len(p2) != 1 || p2[0].Amount.Cents != 50000 {
		t.Fatalf("payments on second loan: %+v", p2)
	}
}

func TestSettleReportsUnapplied(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Bilal")

	if _, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Bilal", Account: "Wallet", Amount: cents(100000), Role: core.RoleLent,
	}); err != nil {
		t.Fatalf("create loan: %v", err)
	}

	res, err := svc.SettleContact(ctx, "Bilal", cents(250000), core.Date{}, "")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.Applied.Cents != 100000 || res.Unapplied.Cents != 150000 {
		t.Fatalf("settle result = %+v", res)
	}
}

func TestSettleWithoutOpenLoans(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Ali")

	res, err := svc.SettleContact(ctx, "Ali", cents(80000), core.Date{}, "")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	// Deliberate fallback: the full amount lands as a plain inbound
	// transaction, fully applied, nothing unapplied.
	if res.Applied.Cents != 80000 || res.Unapplied.Cents != 0 {
		t.Fatalf("settle result = %+v", res)
	}

	a, _ := repo.Queries().GetAccountByName(ctx, "Wallet")
	txns, _ := repo.Queries().ListTransactionsByAccount(ctx, a.ID)
	if len(txns) != 1 || txns[0].Category != "repayment" || txns[0].Amount.Cents != 80000 {
		t.Fatalf("expected plain repayment transaction: %+v", txns)
	}
}

func TestSettleUnknownContact(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.SettleContact(context.Background(), "Nobody", cents(1000), core.Date{}, ""); !core.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRepayLoanCapsOverpayment(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Ali")

	loanID, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Ali", Account: "Wallet", Amount: cents(500000), Role: core.RoleLent,
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	applied, err := svc.RepayLoan(ctx, loanID, cents(1000000), core.Date{}, "")
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if applied.Cents != 500000 {
		t.Fatalf("applied = %d, want cap at 500000", applied.Cents)
	}

	loan, _ := repo.Queries().GetLoan(ctx, loanID)
	if loan.Status != core.StatusClosed || loan.Repaid.Cents != loan.Amount.Cents {
		t.Fatalf("loan should be exactly closed: %+v", loan)
	}
}

func TestRepayClosedLoanWritesNothing(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Ali")

	loanID, _ := svc.CreateLoan(ctx, LoanInput{
		Contact: "Ali", Account: "Wallet", Amount: cents(100000), Role: core.RoleLent,
	})
	if _, err := svc.RepayLoan(ctx, loanID, cents(100000), core.Date{}, ""); err != nil {
		t.Fatalf("repay: %v", err)
	}

	applied, err := svc.RepayLoan(ctx, loanID, cents(50000), core.Date{}, "")
	if err != nil {
		t.Fatalf("repay closed loan: %v", err)
	}
	if !applied.IsZero() {
		t.Fatalf("applied = %d, want 0 on a closed loan", applied.Cents)
	}

	payments, _ := repo.Queries().ListLoanPayments(ctx, loanID)
	if len(payments) != 1 {
		t.Fatalf("closed loan gained a payment row: %d rows", len(payments))
	}
	loan, _ := repo.Queries().GetLoan(ctx, loanID)
	if loan.Repaid.Cents != loan.Amount.Cents || loan.Status != core.StatusClosed {
		t.Fatalf("loan state changed: %+v", loan)
	}
}

func TestRepayLoanNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.RepayLoan(context.Background(), 999, cents(1000), core.Date{}, ""); !core.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRepaymentMirrorsCashFlow(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Sara")

	// Borrowed money: repaying it is cash going back out.
	loanID, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Sara", Account: "Bank", Amount: cents(300000), Role: core.RoleBorrowed,
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if _, err := svc.RepayLoan(ctx, loanID, cents(100000), core.Date{}, ""); err != nil {
		t.Fatalf("repay: %v", err)
	}

	wallet, err := repo.Queries().GetAccountByName(ctx, "Wallet")
	if err != nil {
		t.Fatalf("wallet should exist after repayment: %v", err)
	}
	txns, _ := repo.Queries().ListTransactionsByAccount(ctx, wallet.ID)
	if len(txns) != 1 {
		t.Fatalf("expected 1 wallet transaction, got %d", len(txns))
	}
	if txns[0].Amount.Cents != -100000 || txns[0].Category != "loan_payment" {
		t.Fatalf("repaying a borrowed loan should book an outflow: %+v", txns[0])
	}
	if txns[0].Merchant != "repay:"+strconv.FormatInt(loanID, 10) {
		t.Fatalf("merchant should reference the loan: %q", txns[0].Merchant)
	}
}

func TestPaymentsSumEqualsRepaid(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Ali")

	loanID, _ := svc.CreateLoan(ctx, LoanInput{
		Contact: "Ali", Account: "Wallet", Amount: cents(400000), Role: core.RoleLent,
	})
	if _, err := svc.RepayLoan(ctx, loanID, cents(100000), core.Date{}, ""); err != nil {
		t.Fatalf("first repay: %v", err)
	}
	if _, err := svc.RepayLoan(ctx, loanID, cents(150000), core.Date{}, ""); err != nil {
		t.Fatalf("second repay: %v", err)
	}

	payments, err := svc.LoanPayments(ctx, loanID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	var sum int64
	for _, p := range payments {
		sum += p.Amount.Cents
	}
	loan, _ := repo.Queries().GetLoan(ctx, loanID)
	if sum != loan.Repaid.Cents {
		t.Fatalf("payments sum %d != repaid %d", sum, loan.Repaid.Cents)
	}
	if loan.Repaid.Cents < 0 || loan.Repaid.Cents > loan.Amount.Cents {
		t.Fatalf("repaid out of bounds: %+v", loan)
	}
}

func TestEndToEnd(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustAddContact(t, svc, "Ali")

	if _, err := svc.CreateLoan(ctx, LoanInput{
		Contact: "Ali", Account: "Wallet", Amount: cents(500000),
		Role: core.RoleLent, Date: core.NewDate(2025, 10, 1),
	}); err != nil {
		t.Fatalf("create loan: %v", err)
	}

	res, err := svc.SettleContact(ctx, "Ali", cents(200000), core.NewDate(2025, 10, 2), "")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.Applied.Cents != 200000 {
		t.Fatalf("applied = %d, want 200000", res.Applied.Cents)
	}

	sum, err := svc.ContactSummary(ctx, "Ali")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.LentOpen.Cents != 300000 {
		t.Fatalf("lent_open = %d, want 300000", sum.LentOpen.Cents)
	}
}
