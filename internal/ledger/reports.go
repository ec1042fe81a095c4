package ledger

import (
	"context"

	"onepaisa/internal/core"
)

// Reports are pure aggregation over loans; repeated calls with no
// intervening writes return identical results.

// ContactSummary aggregates the contact's loans into open/total/repaid
// figures per role. Missing contact is a NotFoundError.
func (s *Service) ContactSummary(ctx context.Context, contactName string) (core.ContactSummary, error) {
	contact, err := s.resolveContact(ctx, contactName)
	if err != nil {
		return core.ContactSummary{}, err
	}

	a, err := s.repo.Queries().ContactLoanAggregates(ctx, contact.ID)
	if err != nil {
		return core.ContactSummary{}, err
	}

	sum := core.ContactSummary{
		Contact:        contact,
		LentTotal:      core.Money{Cents: a.LentTotal},
		LentRepaid:     core.Money{Cents: a.LentRepaid},
		LentOpen:       core.Money{Cents: a.LentOpen},
		BorrowedTotal:  core.Money{Cents: a.BorrowedTotal},
		BorrowedRepaid: core.Money{Cents: a.BorrowedRepaid},
		BorrowedOpen:   core.Money{Cents: a.BorrowedOpen},
	}
	sum.Net = sum.LentOpen.Sub(sum.BorrowedOpen)
	return sum, nil
}

// ContactsReport returns each contact's open position plus grand totals,
// ordered by contact name.
func (s *Service) ContactsReport(ctx context.Context) (core.ContactsReport, error) {
	balances, err := s.repo.Queries().ContactsOpenBalances(ctx)
	if err != nil {
		return core.ContactsReport{}, err
	}

	report := core.ContactsReport{Contacts: balances}
	for _, b := range balances {
		report.GrandTheyOwe = report.GrandTheyOwe.Add(b.TheyOweYou)
		report.GrandYouOwe = report.GrandYouOwe.Add(b.YouOweThem)
	}
	report.Net = report.GrandTheyOwe.Sub(report.GrandYouOwe)
	return report, nil
}

// AgingBuckets partitions every open loan's outstanding balance by days
// elapsed since the loan date. The first bucket includes day 30; a loan with
// no date counts as today (age 0).
func (s *Service) AgingBuckets(ctx context.Context) (core.AgingBuckets, error) {
	loans, err := s.repo.Queries().ListOpenLoans(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now()
	buckets := core.AgingBuckets{
		core.Bucket0To30:   {},
		core.Bucket31To90:  {},
		core.Bucket91To180: {},
		core.Bucket180Plus: {},
	}
	for _, l := range loans {
		age := 0
		if !l.Date.IsZero() {
			age = l.Date.DaysSince(today)
		}
		var key string
		switch {
		case age <= 30:
			key = core.Bucket0To30
		case age <= 90:
			key = core.Bucket31To90
		case age <= 180:
			key = core.Bucket91To180
		default:
			key = core.Bucket180Plus
		}
		buckets[key] = buckets[key].Add(l.Open())
	}
	return buckets, nil
}

// MonthToDateTotal sums loan principals for the role since the first day of
// the current month, regardless of loan status.
func (s *Service) MonthToDateTotal(ctx context.Context, role core.Role) (core.Money, error) {
	if err := role.Validate(); err != nil {
		return core.Money{}, err
	}
	return s.repo.Queries().SumPrincipalByRoleSince(ctx, role, s.now().MonthStart())
}
