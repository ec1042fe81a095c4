package core

// Aggregates returned by the reporting layer. These are plain data; the
// presentation layer decides how to render them.

// ContactSummary is the per-contact loan position. Open figures count only
// loans still in status open; totals count every loan regardless of status.
type ContactSummary struct {
	Contact        Contact
	LentTotal      Money
	LentRepaid     Money
	LentOpen       Money
	BorrowedTotal  Money
	BorrowedRepaid Money
	BorrowedOpen   Money
	Net            Money // LentOpen - BorrowedOpen
}

// ContactBalance is one row of the global contacts report.
type ContactBalance struct {
	Name       string
	TheyOweYou Money
	YouOweThem Money
	Net        Money
}

// ContactsReport is the global position across all contacts, ordered by
// contact name, with grand totals.
type ContactsReport struct {
	Contacts     []ContactBalance
	GrandTheyOwe Money
	GrandYouOwe  Money
	Net          Money
}

// Aging bucket labels, oldest last. The first bucket is inclusive of day 30.
const (
	Bucket0To30   = "0-30"
	Bucket31To90  = "31-90"
	Bucket91To180 = "91-180"
	Bucket180Plus = "180+"
)

// AgingBuckets partitions open loan balances by days elapsed since the loan
// date.
type AgingBuckets map[string]Money

// SettleResult reports how much of a requested repayment landed on open
// loans and how much was left over.
type SettleResult struct {
	Applied   Money
	Unapplied Money
}

// Answer is the result of a free-text query. Value is nil when the phrase
// matched no known query; Explanation then lists the supported phrasings.
type Answer struct {
	Value       any
	Explanation string
}
