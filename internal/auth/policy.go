package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves required role for the request.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case path == "/api/v1/assets":
		if method == http.MethodPost {
			return RoleSupervisor, true
		}
		return RoleNurse, true
	case strings.HasPrefix(path, "/api/v1/assets/"):
		if method == http.MethodGet {
			return RoleNurse, true
		}
		if strings.HasSuffix(path, "/movements") {
			return RoleTechnician, true
		}
		return RoleSupervisor, true
	case path == "/api/v1/workorders":
		// Anyone on a ward can report a fault.
		return RoleNurse, true
	case strings.HasPrefix(path, "/api/v1/workorders/"):
		if method == http.MethodGet {
			return RoleNurse, true
		}
		if strings.HasSuffix(path, "/assign") || strings.HasSuffix(path, "/cancel") {
			return RoleSupervisor, true
		}
		return RoleTechnician, true
	case path == "/api/v1/parts":
		if method == http.MethodPost {
			return RoleSupervisor, true
		}
		return RoleNurse, true
	case path == "/api/v1/alerts":
		return RoleNurse, true
	case path == "/api/v1/alerts/stream":
		return RoleNurse, true
	case strings.HasPrefix(path, "/api/v1/alerts/") && method == http.MethodPost:
		return RoleSupervisor, true
	case path == "/api/v1/recommendations":
		return RoleSupervisor, true
	case path == "/api/v1/patterns":
		return RoleTechnician, true
	case path == "/api/v1/risk/refresh":
		return RoleSupervisor, true
	case path == "/api/v1/stats":
		return RoleNurse, true
	case strings.HasPrefix(path, "/api/v1/exports/"):
		return RoleSupervisor, true
	}

	if strings.HasPrefix(path, "/api/") {
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return RoleNurse, true
		}
		return RoleTechnician, true
	}
	return "", false
}
