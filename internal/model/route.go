package model

import "strings"

// APIPrefix is the reserved path prefix forwarded to the upstream.
const APIPrefix = "/api"

// IsAPI reports whether the raw request target is forwarded upstream: exactly
// "/api" or anything below "/api/". The target includes the query string, so
// "/api?x=1" does not match while "/api/?x=1" does. The match is
// case-sensitive and ignores the method.
func IsAPI(target string) bool {
	return target == APIPrefix || strings.HasPrefix(target, APIPrefix+"/")
}
