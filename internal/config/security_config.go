// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAdmin                       // Valid admin session token required
)

// Route names registered on the HTTP router
const (
	RouteHealth        = "health"
	RouteMetrics       = "metrics"
	RouteSubmitRequest = "submit_request"
	RouteAdminLogin    = "admin_login"
	RouteAdminLogout   = "admin_logout"
	RouteListRequests  = "list_requests"
	RouteGetRequest    = "get_request"
	RouteUpdateStatus  = "update_status"
	RouteGetDocument   = "get_document"
	RouteSendBulkEmail = "send_bulk_email"
	RouteSendTestEmail = "send_test_email"
	RouteStats         = "stats"
	RouteListStudents  = "list_students"
	RouteDebug         = "debug"
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	RouteHealth:        SecurityPublic,
	RouteMetrics:       SecurityPublic,
	RouteSubmitRequest: SecurityPublic,
	RouteAdminLogin:    SecurityPublic,
	RouteAdminLogout:   SecurityPublic,

	// Admin session required
	RouteListRequests:  SecurityAdmin,
	RouteGetRequest:    SecurityAdmin,
	RouteUpdateStatus:  SecurityAdmin,
	RouteGetDocument:   SecurityAdmin,
	RouteSendBulkEmail: SecurityAdmin,
	RouteSendTestEmail: SecurityAdmin,
	RouteStats:         SecurityAdmin,
	RouteListStudents:  SecurityAdmin,
	RouteDebug:         SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAdmin
}
