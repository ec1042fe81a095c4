package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"onepaisa/internal/config"
	"onepaisa/internal/core"
	"onepaisa/internal/ledger"
)

// App bundles what every command needs.
type App struct {
	Svc    *ledger.Service
	Cfg    *config.Config
	DBPath string
}

// Register installs every ledger command on the default commander.
func Register(app *App) {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&initCmd{app: app}, "setup")
	subcommands.Register(&accountAddCmd{app: app}, "setup")
	subcommands.Register(&contactAddCmd{app: app}, "contacts")
	subcommands.Register(&contactListCmd{app: app}, "contacts")
	subcommands.Register(&txnAddCmd{app: app}, "ledger")
	subcommands.Register(&loanCmd{app: app, role: core.RoleLent}, "loans")
	subcommands.Register(&loanCmd{app: app, role: core.RoleBorrowed}, "loans")
	subcommands.Register(&repayCmd{app: app}, "loans")
	subcommands.Register(&summaryCmd{app: app}, "reports")
	subcommands.Register(&reportCmd{app: app}, "reports")
	subcommands.Register(&agingCmd{app: app}, "reports")
	subcommands.Register(&askCmd{app: app}, "reports")
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func parseDateFlag(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func splitTags(s string) core.Tags {
	if s == "" {
		return nil
	}
	var tags core.Tags
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// init

type initCmd struct {
	app *App
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "initialize the ledger database" }
func (*initCmd) Usage() string {
	return `init

  Creates the database (schema included) if it does not exist yet and
  prints its location.
`
}
func (*initCmd) SetFlags(*flag.FlagSet) {}

func (c *initCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	// The store was already opened (and migrated) during startup.
	fmt.Printf("Ledger database ready at %s\n", c.app.DBPath)
	return subcommands.ExitSuccess
}

// account-add

type accountAddCmd struct {
	app  *App
	name string
}

func (*accountAddCmd) Name() string     { return "account-add" }
func (*accountAddCmd) Synopsis() string { return "add an account" }
func (*accountAddCmd) Usage() string {
	return `account-add -name <name>

  Registers an account. Accounts referenced by other commands are also
  created on the fly, so this is mostly for setting one up ahead of time.
`
}
func (c *accountAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Account name (required)")
}

func (c *accountAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required.")
		return subcommands.ExitUsageError
	}
	if _, err := c.app.Svc.EnsureAccount(ctx, c.name); err != nil {
		return fail(err)
	}
	fmt.Printf("Account %q ready.\n", c.name)
	return subcommands.ExitSuccess
}

// contact-add

type contactAddCmd struct {
	app      *App
	name     string
	relation string
	tags     string
	note     string
}

func (*contactAddCmd) Name() string     { return "contact-add" }
func (*contactAddCmd) Synopsis() string { return "add a contact" }
func (*contactAddCmd) Usage() string {
	return `contact-add -name <name> [-relation <relation>] [-tags a,b] [-note <note>]

  Registers a contact. Contact names are unique; loans always reference a
  contact created here first.
`
}
func (c *contactAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Contact name (required)")
	f.StringVar(&c.relation, "relation", "other", "Relation (friend, family, ...)")
	f.StringVar(&c.tags, "tags", "", "Comma-separated tags")
	f.StringVar(&c.note, "note", "", "Free-form note")
}

func (c *contactAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required.")
		return subcommands.ExitUsageError
	}
	if _, err := c.app.Svc.AddContact(ctx, c.name, c.relation, splitTags(c.tags), c.note); err != nil {
		return fail(err)
	}
	fmt.Printf("Contact %q added.\n", c.name)
	return subcommands.ExitSuccess
}

// contact-list

type contactListCmd struct {
	app *App
}

func (*contactListCmd) Name() string           { return "contact-list" }
func (*contactListCmd) Synopsis() string       { return "list all contacts" }
func (*contactListCmd) Usage() string          { return "contact-list\n" }
func (*contactListCmd) SetFlags(*flag.FlagSet) {}

func (c *contactListCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	contacts, err := c.app.Svc.ListContacts(ctx)
	if err != nil {
		return fail(err)
	}
	printContacts(os.Stdout, contacts)
	return subcommands.ExitSuccess
}

// txn-add

type txnAddCmd struct {
	app      *App
	account  string
	amount   string
	date     string
	category string
	merchant string
	note     string
	tags     string
}

func (*txnAddCmd) Name() string     { return "txn-add" }
func (*txnAddCmd) Synopsis() string { return "record a cash transaction" }
func (*txnAddCmd) Usage() string {
	return `txn-add -account <name> -amount <signed amount> [-date yyyy-mm-dd] [-category c] [-merchant m] [-note n] [-tags a,b]

  Records a signed cash movement: negative for money out, positive for
  money in. The account is created if it does not exist.
`
}
func (c *txnAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account name (required)")
	f.StringVar(&c.amount, "amount", "", "Signed amount, e.g. -1500.50 (required)")
	f.StringVar(&c.date, "date", "", "Transaction date, defaults to today")
	f.StringVar(&c.category, "category", "", "Category")
	f.StringVar(&c.merchant, "merchant", "", "Merchant")
	f.StringVar(&c.note, "note", "", "Note")
	f.StringVar(&c.tags, "tags", "", "Comma-separated tags")
}

func (c *txnAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" || c.amount == "" {
		fmt.Fprintln(os.Stderr, "Error: -account and -amount are required.")
		return subcommands.ExitUsageError
	}
	amount, err := core.ParseSignedAmount(c.amount)
	if err != nil {
		return fail(err)
	}
	date, err := parseDateFlag(c.date)
	if err != nil {
		return fail(err)
	}
	id, err := c.app.Svc.RecordTransaction(ctx, ledger.TransactionInput{
		Account:  c.account,
		Amount:   amount,
		Date:     date,
		Category: c.category,
		Merchant: c.merchant,
		Note:     c.note,
		Tags:     splitTags(c.tags),
	})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Transaction %d recorded: %s on %s.\n", id, formatMoney(amount, c.app.Cfg.Currency), c.account)
	return subcommands.ExitSuccess
}

// lend / borrow share an implementation; only the role differs.

type loanCmd struct {
	app     *App
	role    core.Role
	contact string
	account string
	amount  string
	date    string
	due     string
	note    string
}

func (c *loanCmd) Name() string {
	if c.role == core.RoleLent {
		return "lend"
	}
	return "borrow"
}

func (c *loanCmd) Synopsis() string {
	if c.role == core.RoleLent {
		return "record money lent to a contact"
	}
	return "record money borrowed from a contact"
}

func (c *loanCmd) Usage() string {
	return c.Name() + ` -contact <name> -account <name> -amount <amount> [-date yyyy-mm-dd] [-due yyyy-mm-dd] [-note n]

  Creates a loan and the cash transaction that moved its principal. The
  contact must already exist.
`
}

func (c *loanCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.contact, "contact", "", "Contact name (required)")
	f.StringVar(&c.account, "account", "", "Account the money moved through (required)")
	f.StringVar(&c.amount, "amount", "", "Principal amount, positive (required)")
	f.StringVar(&c.date, "date", "", "Loan date, defaults to today")
	f.StringVar(&c.due, "due", "", "Due date")
	f.StringVar(&c.note, "note", "", "Note")
}

func (c *loanCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.contact == "" || c.account == "" || c.amount == "" {
		fmt.Fprintln(os.Stderr, "Error: -contact, -account and -amount are required.")
		return subcommands.ExitUsageError
	}
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return fail(err)
	}
	date, err := parseDateFlag(c.date)
	if err != nil {
		return fail(err)
	}
	due, err := parseDateFlag(c.due)
	if err != nil {
		return fail(err)
	}
	id, err := c.app.Svc.CreateLoan(ctx, ledger.LoanInput{
		Contact: c.contact,
		Account: c.account,
		Amount:  amount,
		Role:    c.role,
		Date:    date,
		DueDate: due,
		Note:    c.note,
	})
	if err != nil {
		return fail(err)
	}
	verb := "lent to"
	if c.role == core.RoleBorrowed {
		verb = "borrowed from"
	}
	fmt.Printf("Loan %d recorded: %s %s %s via %s.\n",
		id, formatMoney(amount, c.app.Cfg.Currency), verb, c.contact, c.account)
	return subcommands.ExitSuccess
}

// repay

type repayCmd struct {
	app     *App
	contact string
	amount  string
	loanID  int64
	date    string
	note    string
}

func (*repayCmd) Name() string     { return "repay" }
func (*repayCmd) Synopsis() string { return "apply a repayment" }
func (*repayCmd) Usage() string {
	return `repay (-contact <name> | -loan_id <id>) -amount <amount> [-date yyyy-mm-dd] [-note n]

  With -loan_id, applies the repayment to that loan only. With -contact,
  spreads it across the contact's open loans oldest first; anything left
  over after all loans are settled is reported as unapplied.
`
}
func (c *repayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.contact, "contact", "", "Contact whose loans to settle")
	f.Int64Var(&c.loanID, "loan_id", 0, "Specific loan id to repay")
	f.StringVar(&c.amount, "amount", "", "Repayment amount, positive (required)")
	f.StringVar(&c.date, "date", "", "Payment date, defaults to today")
	f.StringVar(&c.note, "note", "", "Note")
}

func (c *repayCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount == "" || (c.contact == "" && c.loanID == 0) {
		fmt.Fprintln(os.Stderr, "Error: -amount and one of -contact or -loan_id are required.")
		return subcommands.ExitUsageError
	}
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return fail(err)
	}
	date, err := parseDateFlag(c.date)
	if err != nil {
		return fail(err)
	}
	currency := c.app.Cfg.Currency

	if c.loanID != 0 {
		applied, err := c.app.Svc.RepayLoan(ctx, c.loanID, amount, date, c.note)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Applied %s to loan %d.\n", formatMoney(applied, currency), c.loanID)
		return subcommands.ExitSuccess
	}

	res, err := c.app.Svc.SettleContact(ctx, c.contact, amount, date, c.note)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Applied %s across %s's open loans.\n", formatMoney(res.Applied, currency), c.contact)
	if res.Unapplied.IsPositive() {
		fmt.Printf("Unapplied remainder: %s.\n", formatMoney(res.Unapplied, currency))
	}
	return subcommands.ExitSuccess
}

// summary

type summaryCmd struct {
	app     *App
	contact string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "per-contact loan summary" }
func (*summaryCmd) Usage() string {
	return `summary -contact <name>

  Shows lent/borrowed totals, what has come back, and the open net
  position for one contact.
`
}
func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.contact, "contact", "", "Contact name (required)")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.contact == "" {
		fmt.Fprintln(os.Stderr, "Error: -contact is required.")
		return subcommands.ExitUsageError
	}
	sum, err := c.app.Svc.ContactSummary(ctx, c.contact)
	if err != nil {
		return fail(err)
	}
	printSummary(os.Stdout, sum, c.app.Cfg.Currency)
	return subcommands.ExitSuccess
}

// report

type reportCmd struct {
	app *App
}

func (*reportCmd) Name() string           { return "report" }
func (*reportCmd) Synopsis() string       { return "open balances across all contacts" }
func (*reportCmd) Usage() string          { return "report\n" }
func (*reportCmd) SetFlags(*flag.FlagSet) {}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := c.app.Svc.ContactsReport(ctx)
	if err != nil {
		return fail(err)
	}
	printReport(os.Stdout, report, c.app.Cfg.Currency)
	return subcommands.ExitSuccess
}

// aging

type agingCmd struct {
	app *App
}

func (*agingCmd) Name() string           { return "aging" }
func (*agingCmd) Synopsis() string       { return "open balances bucketed by loan age" }
func (*agingCmd) Usage() string          { return "aging\n" }
func (*agingCmd) SetFlags(*flag.FlagSet) {}

func (c *agingCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	buckets, err := c.app.Svc.AgingBuckets(ctx)
	if err != nil {
		return fail(err)
	}
	printAging(os.Stdout, buckets, c.app.Cfg.Currency)
	return subcommands.ExitSuccess
}

// ask

type askCmd struct {
	app *App
}

func (*askCmd) Name() string     { return "ask" }
func (*askCmd) Synopsis() string { return "answer a free-text question about your loans" }
func (*askCmd) Usage() string {
	return `ask <question>

  Matches the question against a small set of known phrasings, e.g.
  "how much I gave this month" or "what's outstanding".
`
}
func (*askCmd) SetFlags(*flag.FlagSet) {}

func (c *askCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.Join(f.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "Error: a question is required.")
		return subcommands.ExitUsageError
	}
	ans, err := c.app.Svc.Ask(ctx, query)
	if err != nil {
		return fail(err)
	}
	switch v := ans.Value.(type) {
	case nil:
		fmt.Println(ans.Explanation)
	case core.Money:
		fmt.Printf("%s  (%s)\n", formatMoney(v, c.app.Cfg.Currency), ans.Explanation)
	case core.ContactsReport:
		printReport(os.Stdout, v, c.app.Cfg.Currency)
	default:
		fmt.Printf("%v  (%s)\n", v, ans.Explanation)
	}
	return subcommands.ExitSuccess
}
