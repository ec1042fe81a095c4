package ledger

import (
	"context"
	"fmt"
	"strings"

	"onepaisa/internal/core"
)

// The ask dispatcher is a flat, ordered rule table mapping free-text
// phrases to canned aggregate queries. It is not a language model and is
// not meant to grow into one; extend it by appending rules.

const askHelp = "I can answer: 'how much i gave', 'how much i borrowed', 'outstanding'"

type intentRule struct {
	phrases []string
	run     func(ctx context.Context, s *Service) (core.Answer, error)
}

var intentRules = []intentRule{
	{
		phrases: []string{"how much i gave", "how much i give"},
		run: func(ctx context.Context, s *Service) (core.Answer, error) {
			return s.monthToDateAnswer(ctx, core.RoleLent)
		},
	},
	{
		phrases: []string{"how much i take", "how much i borrow"},
		run: func(ctx context.Context, s *Service) (core.Answer, error) {
			return s.monthToDateAnswer(ctx, core.RoleBorrowed)
		},
	},
	{
		phrases: []string{"outstanding", "borrow from others"},
		run: func(ctx context.Context, s *Service) (core.Answer, error) {
			report, err := s.ContactsReport(ctx)
			if err != nil {
				return core.Answer{}, err
			}
			return core.Answer{Value: report, Explanation: "contacts report"}, nil
		},
	},
}

// Ask matches the query case-insensitively against the rule table. Unmatched
// input returns a nil Value and a help message listing supported phrasings.
func (s *Service) Ask(ctx context.Context, query string) (core.Answer, error) {
	q := strings.ToLower(query)
	for _, rule := range intentRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(q, phrase) {
				return rule.run(ctx, s)
			}
		}
	}
	return core.Answer{Explanation: askHelp}, nil
}

func (s *Service) monthToDateAnswer(ctx context.Context, role core.Role) (core.Answer, error) {
	total, err := s.MonthToDateTotal(ctx, role)
	if err != nil {
		return core.Answer{}, err
	}
	since := s.now().MonthStart()
	return core.Answer{
		Value:       total,
		Explanation: fmt.Sprintf("SUM(loans.role='%s' AND date >= '%s') = %.2f", role, since, total.Units()),
	}, nil
}
