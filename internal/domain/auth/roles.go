package auth

const (
	RoleSystemAdmin    = "SYS"
	RoleDirector       = "DM"
	RoleDeputyDirector = "DDM"
	RoleTeamLead       = "TL"
	RoleEmployee       = "EMP"
)

const (
	LandingAdmin     = "admin"
	LandingDashboard = "dashboard"
)

// Capabilities is the flat permission set attached to a role tag. Roles are not
// ordered; every check goes through this table.
type Capabilities struct {
	ViewAll            bool   `json:"viewAll"`
	ReviewSubordinates bool   `json:"reviewSubordinates"`
	AdminUsers         bool   `json:"adminUsers"`
	SelfEvaluate       bool   `json:"selfEvaluate"`
	Landing            string `json:"landing"`
}

var Roles = []string{
	RoleSystemAdmin,
	RoleDirector,
	RoleDeputyDirector,
	RoleTeamLead,
	RoleEmployee,
}

var RoleCapabilities = map[string]Capabilities{
	RoleSystemAdmin: {
		ViewAll:            true,
		ReviewSubordinates: true,
		AdminUsers:         true,
		Landing:            LandingAdmin,
	},
	RoleDirector: {
		ViewAll:            true,
		ReviewSubordinates: true,
		SelfEvaluate:       true,
		Landing:            LandingDashboard,
	},
	RoleDeputyDirector: {
		ReviewSubordinates: true,
		SelfEvaluate:       true,
		Landing:            LandingDashboard,
	},
	RoleTeamLead: {
		ReviewSubordinates: true,
		SelfEvaluate:       true,
		Landing:            LandingDashboard,
	},
	RoleEmployee: {
		SelfEvaluate: true,
		Landing:      LandingDashboard,
	},
}

// CapabilitiesFor returns the zero set for unknown roles.
func CapabilitiesFor(role string) Capabilities {
	return RoleCapabilities[role]
}

func ValidRole(role string) bool {
	_, ok := RoleCapabilities[role]
	return ok
}
