package server

// Route path constants
// Page paths come from the route table; these are the fixed endpoints.
const (
	// Account
	RouteLogout = "/account/logout"

	// API Routes
	RouteAPI        = "/api/"
	RouteAPIPrefix  = "/api"
	RouteAPISession = "/api/session"

	// Operations
	RouteHealth = "/health"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"

	// Pages, dispatched through the route table and navigation guard
	RoutePages = "/"
)
