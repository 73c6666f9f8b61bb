package evaluation

import "testing"

func TestBuildSummary(t *testing.T) {
	items := []Evaluation{
		{Status: StatusDraft, TotalScore: 95, Rank: RankA},
		{Status: StatusSubmitted, TotalScore: 80, Rank: RankB},
		{Status: StatusApproved, TotalScore: 92, Rank: RankA},
		{Status: StatusApproved, TotalScore: 60, Rank: RankC},
		{Status: StatusRejected, TotalScore: 40},
	}
	summary := buildSummary(items)

	if summary.Total != 5 {
		t.Fatalf("expected 5 items, got %d", summary.Total)
	}
	if summary.ByStatus[StatusDraft] != 1 || summary.ByStatus[StatusApproved] != 2 || summary.ByStatus[StatusReviewed] != 0 {
		t.Fatalf("unexpected status counts: %v", summary.ByStatus)
	}
	if _, ok := summary.ByStatus[StatusReviewed]; !ok {
		t.Fatal("expected every status to be present")
	}
	if summary.RankDistribution[RankA] != 1 || summary.RankDistribution[RankD] != 1 {
		t.Fatalf("drafts must be excluded from ranks: %v", summary.RankDistribution)
	}
	if summary.AverageScore != 68 {
		t.Fatalf("expected average 68, got %v", summary.AverageScore)
	}
	if summary.ApprovalRate != 0.6667 {
		t.Fatalf("expected approval rate 0.6667, got %v", summary.ApprovalRate)
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	summary := buildSummary(nil)
	if summary.Total != 0 || summary.AverageScore != 0 || summary.ApprovalRate != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
	if len(summary.ByStatus) != len(Statuses) {
		t.Fatalf("expected %d statuses, got %v", len(Statuses), summary.ByStatus)
	}
}
