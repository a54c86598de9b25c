package httpx

import domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"

// Page identifiers used in templates and navigation.
const (
	PageLogin               = "login"
	PageSignup              = "signup"
	PageCallback            = "callback"
	PageCustomerDashboard   = "customer-dashboard"
	PageWorkshopDashboard   = "workshop-dashboard"
	PageTechnicianDashboard = "technician-dashboard"
	PagePromo               = "promo"
	PageLoading             = "loading"
	PageNotFound            = "not-found"
	PageError               = "error"
)

// Route paths.
const (
	PathHome                = "/"
	PathSignup              = "/signup"
	PathCustomerDashboard   = "/dashboard"
	PathWorkshopDashboard   = "/workshop/dashboard"
	PathTechnicianDashboard = "/technician/dashboard"
	PathAuthCallback        = "/auth/callback"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"
	TemplatePathFromTest = "../../frontend/templates"
	StaticPathFromRoot   = "frontend/static"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageLogin:               "login-content",
	PageSignup:              "signup-content",
	PageCallback:            "callback-content",
	PageCustomerDashboard:   "customer-dashboard-content",
	PageWorkshopDashboard:   "workshop-dashboard-content",
	PageTechnicianDashboard: "technician-dashboard-content",
	PagePromo:               "promo-content",
	PageLoading:             "loading-content",
	PageNotFound:            "not-found-content",
	PageError:               "error-content",
}

// ContentTemplateFor returns the content template for the given page.
// Unknown pages render the not-found content.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "not-found-content"
}

// DashboardPath is where a signed-in user of the given role lands.
func DashboardPath(role domainauth.Role) string {
	switch role {
	case domainauth.RoleWorkshop:
		return PathWorkshopDashboard
	case domainauth.RoleTechnician:
		return PathTechnicianDashboard
	case domainauth.RoleCustomer:
		return PathCustomerDashboard
	default:
		return PathHome
	}
}
