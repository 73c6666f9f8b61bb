package notifications

const (
	TypeEvaluationSubmitted = "evaluation_submitted"
	TypeEvaluationApproved  = "evaluation_approved"
	TypeEvaluationRejected  = "evaluation_rejected"
	TypeEvaluationReturned  = "evaluation_returned"
	TypeEvaluationReviewed  = "evaluation_reviewed"
	TypePasswordReset       = "password_reset"
)
