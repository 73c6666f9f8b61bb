package evaluation

import "strings"

type WorkflowPolicy struct {
	// RejectedEditable lets the owner reopen a REJECTED evaluation.
	RejectedEditable bool
}

func (p WorkflowPolicy) IsLocked(status string) bool {
	switch status {
	case StatusApproved, StatusReviewed:
		return true
	case StatusRejected:
		return !p.RejectedEditable
	default:
		return false
	}
}

// NextOwnerStatus resolves the status an owner save lands in. current is ""
// when the evaluation does not exist yet; requested "" keeps the natural status.
func (p WorkflowPolicy) NextOwnerStatus(current, requested string) (string, error) {
	requested = strings.ToUpper(strings.TrimSpace(requested))
	if requested != "" && requested != StatusDraft && requested != StatusSubmitted {
		return "", ErrInvalidState
	}
	if p.IsLocked(current) {
		return "", ErrLocked
	}

	switch current {
	case "", StatusDraft, StatusRejected:
		if requested == StatusSubmitted {
			return StatusSubmitted, nil
		}
		return StatusDraft, nil
	case StatusSubmitted:
		if requested == StatusDraft {
			return StatusDraft, nil
		}
		return StatusSubmitted, nil
	default:
		return "", ErrInvalidState
	}
}

// ApplyDecision maps a manager decision onto the next status. Decisions are
// accepted only while the evaluation awaits review (SUBMITTED or REVIEWED).
func ApplyDecision(current, decision string) (string, error) {
	var next string
	switch strings.ToUpper(strings.TrimSpace(decision)) {
	case DecisionApprove:
		next = StatusApproved
	case DecisionReject:
		next = StatusRejected
	case DecisionRevise:
		next = StatusDraft
	case DecisionReview:
		next = StatusReviewed
	default:
		return "", ErrInvalidDecision
	}
	if current != StatusSubmitted && current != StatusReviewed {
		return "", ErrInvalidState
	}
	if current == StatusReviewed && next == StatusReviewed {
		return "", ErrInvalidState
	}
	return next, nil
}
