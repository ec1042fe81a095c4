package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"

	"onepaisa/internal/core"
)

// formatMoney renders minor units with the configured currency's symbol and
// separators.
func formatMoney(m core.Money, currency string) string {
	return money.New(m.Cents, currency).Display()
}

func printContacts(w io.Writer, contacts []core.Contact) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRELATION\tTAGS\tNOTE")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Relation, strings.Join(c.Tags, ","), c.Note)
	}
	tw.Flush()
}

func printSummary(w io.Writer, s core.ContactSummary, currency string) {
	fmt.Fprintf(w, "Summary for %s (%s)\n", s.Contact.Name, s.Contact.Relation)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Lent\ttotal %s\trepaid %s\topen %s\n",
		formatMoney(s.LentTotal, currency), formatMoney(s.LentRepaid, currency), formatMoney(s.LentOpen, currency))
	fmt.Fprintf(tw, "Borrowed\ttotal %s\trepaid %s\topen %s\n",
		formatMoney(s.BorrowedTotal, currency), formatMoney(s.BorrowedRepaid, currency), formatMoney(s.BorrowedOpen, currency))
	tw.Flush()
	fmt.Fprintf(w, "Net: %s\n", formatMoney(s.Net, currency))
}

func printReport(w io.Writer, r core.ContactsReport, currency string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTACT\tTHEY OWE YOU\tYOU OWE THEM\tNET")
	for _, b := range r.Contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Name,
			formatMoney(b.TheyOweYou, currency), formatMoney(b.YouOweThem, currency), formatMoney(b.Net, currency))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%s\t%s\n",
		formatMoney(r.GrandTheyOwe, currency), formatMoney(r.GrandYouOwe, currency), formatMoney(r.Net, currency))
	tw.Flush()
}

func printAging(w io.Writer, buckets core.AgingBuckets, currency string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AGE (DAYS)\tOPEN BALANCE")
	for _, key := range []string{core.Bucket0To30, core.Bucket31To90, core.Bucket91To180, core.Bucket180Plus} {
		fmt.Fprintf(tw, "%s\t%s\n", key, formatMoney(buckets[key], currency))
	}
	tw.Flush()
}
