package evaluation

import "kpi/internal/domain/auth"

// CanView: the owner, the owner's direct manager, or a role with ViewAll.
func CanView(actor Actor, ev Evaluation) bool {
	if actor.ID == "" {
		return false
	}
	if ev.UserID == actor.ID {
		return true
	}
	if ev.ManagerID != "" && ev.ManagerID == actor.ID {
		return true
	}
	return auth.CapabilitiesFor(actor.Role).ViewAll
}

// CanReview is restricted to the direct manager. ViewAll never grants it.
func CanReview(actor Actor, ev Evaluation) bool {
	if actor.ID == "" || ev.UserID == actor.ID {
		return false
	}
	if !auth.CapabilitiesFor(actor.Role).ReviewSubordinates {
		return false
	}
	return ev.ManagerID != "" && ev.ManagerID == actor.ID
}

func CanEdit(actor Actor, ev Evaluation) bool {
	return actor.ID != "" && ev.UserID == actor.ID
}
