package evaluation

const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"
	StatusReviewed  = "REVIEWED"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"

	DecisionApprove = "APPROVE"
	DecisionRevise  = "REVISE"
	DecisionReject  = "REJECT"
	DecisionReview  = "REVIEW"

	RankA = "A"
	RankB = "B"
	RankC = "C"
	RankD = "D"

	DefaultCategory = "I"

	WeightTarget    = 100
	WeightTolerance = 0.1
)

var Statuses = []string{StatusDraft, StatusSubmitted, StatusReviewed, StatusApproved, StatusRejected}

var Decisions = []string{DecisionApprove, DecisionRevise, DecisionReject, DecisionReview}

var Categories = []string{"I", "II", "III", "IV", "V"}
