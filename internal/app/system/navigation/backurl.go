// Package navigation picks safe redirect targets.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefixes limits the target to these path prefixes. Empty allows
	// any safe same-site path.
	AllowedPrefixes []string

	// ExcludedSubpaths rejects targets containing any of these
	// (e.g. "/login", "/logout") to prevent redirect loops.
	ExcludedSubpaths []string

	// Fallback is used when no acceptable target is found.
	Fallback string
}

// SafeBackURL returns the first acceptable target among candidate, the
// "return" query parameter and the "return" form value. Targets must be
// same-site paths (no open redirects).
func SafeBackURL(r *http.Request, candidate string, opts BackURLOptions) string {
	for _, raw := range []string{candidate, query.Get(r, "return"), strings.TrimSpace(r.FormValue("return"))} {
		ret := urlutil.SafeReturn(strings.TrimSpace(raw), "", "")
		if ret != "" && opts.accepts(ret) {
			return ret
		}
	}
	return opts.Fallback
}

func (o BackURLOptions) accepts(ret string) bool {
	for _, excluded := range o.ExcludedSubpaths {
		if strings.Contains(ret, excluded) {
			return false
		}
	}
	if len(o.AllowedPrefixes) == 0 {
		return true
	}
	for _, p := range o.AllowedPrefixes {
		if ret == p || strings.HasPrefix(ret, p+"/") || strings.HasPrefix(ret, p+"?") {
			return true
		}
	}
	return false
}

// Post-sign-in targets for each realm.
var (
	// DashboardBackURL keeps a participant inside /dashboard.
	DashboardBackURL = BackURLOptions{
		AllowedPrefixes:  []string{"/dashboard"},
		ExcludedSubpaths: []string{"/login", "/logout"},
		Fallback:         "/dashboard",
	}

	// AdminBackURL keeps an administrator inside /admin.
	AdminBackURL = BackURLOptions{
		AllowedPrefixes:  []string{"/admin"},
		ExcludedSubpaths: []string{"/login", "/logout"},
		Fallback:         "/admin",
	}
)
