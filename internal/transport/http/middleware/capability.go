package middleware

import (
	"net/http"

	"kpi/internal/domain/auth"
	"kpi/internal/transport/http/api"
)

// Capability selects one flag from a role's capability set.
type Capability func(auth.Capabilities) bool

var (
	CanViewAll            Capability = func(c auth.Capabilities) bool { return c.ViewAll }
	CanReviewSubordinates Capability = func(c auth.Capabilities) bool { return c.ReviewSubordinates }
	CanAdminUsers         Capability = func(c auth.Capabilities) bool { return c.AdminUsers }
	CanSelfEvaluate       Capability = func(c auth.Capabilities) bool { return c.SelfEvaluate }
)

func RequireCapability(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !capability(auth.CapabilitiesFor(user.RoleName)) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
