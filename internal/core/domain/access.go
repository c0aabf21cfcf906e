package domain

// Permission names used throughout the API. The four base permissions are
// always present in a computed AccessMap; named permissions such as "all" or
// "impersonate_users" only appear when granted.
const (
	PermDomainsRead  = "domains_read"
	PermDomainsWrite = "domains_write"
	PermUserRead     = "user_read"
	PermUserWrite    = "user_write"
	PermImpersonate  = "impersonate_users"
	PermAll          = "all"
)

// AccessMap is the effective permission set for a single request. It is a
// value type, recomputed per request and never persisted outside of a session.
type AccessMap map[string]bool

// Can reports whether the named permission is granted.
func (a AccessMap) Can(permission string) bool {
	return a[permission]
}

// Clone returns an independent copy of the map.
func (a AccessMap) Clone() AccessMap {
	out := make(AccessMap, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
