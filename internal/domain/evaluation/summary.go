package evaluation

import "github.com/shopspring/decimal"

func buildSummary(items []Evaluation) Summary {
	summary := Summary{
		Total:            len(items),
		ByStatus:         map[string]int{},
		RankDistribution: map[string]int{},
	}
	for _, status := range Statuses {
		summary.ByStatus[status] = 0
	}

	scored := 0
	sum := decimal.Zero
	decided := 0
	for _, ev := range items {
		summary.ByStatus[ev.Status]++
		if ev.Status == StatusDraft {
			continue
		}
		rank := ev.Rank
		if rank == "" {
			rank = Rank(ev.TotalScore)
		}
		summary.RankDistribution[rank]++
		sum = sum.Add(decimal.NewFromFloat(ev.TotalScore))
		scored++
		if ev.Status == StatusApproved || ev.Status == StatusRejected {
			decided++
		}
	}
	if scored > 0 {
		summary.AverageScore = sum.Div(decimal.NewFromInt(int64(scored))).Round(2).InexactFloat64()
	}
	if decided > 0 {
		approved := decimal.NewFromInt(int64(summary.ByStatus[StatusApproved]))
		summary.ApprovalRate = approved.Div(decimal.NewFromInt(int64(decided))).Round(4).InexactFloat64()
	}
	return summary
}
