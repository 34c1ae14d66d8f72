// Package gate decides which realm a session may enter.
//
// The decision is a pure function of the session's current triple. It is
// evaluated on every gated request and on every triple change pushed to
// /session/events, so a logout or role change evicts a client as soon as
// it resolves.
package gate

import (
	"strings"

	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/dalemusser/campushub/internal/domain/models"
)

// Realm is one of the two mutually exclusive areas of the portal.
type Realm string

const (
	Participant Realm = "participant"
	Admin       Realm = "admin"
)

// EntryPage is where a denied visitor is sent. Admin denial goes to the
// general login page, matching the participant realm.
func (r Realm) EntryPage() string {
	return "/login"
}

// Decision is the outcome of Evaluate.
type Decision int

const (
	// Hold means the triple has not resolved yet; render neither realm.
	Hold Decision = iota
	Allow
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "hold"
	}
}

// AdminCheck decides whether a resolved identity/profile pair is an
// administrator.
type AdminCheck struct {
	// EmailHeuristic enables the legacy fallback that treats any identity
	// whose email contains "admin" as an administrator. Off by default.
	EmailHeuristic bool
}

// IsAdmin reports whether the pair is an administrator. The profile role
// is authoritative; the email fallback applies only when enabled.
func (c AdminCheck) IsAdmin(p *models.Profile, id *models.Identity) bool {
	if RoleIsAdmin(p) {
		return true
	}
	return c.EmailHeuristic && EmailHeuristic(id)
}

// RoleIsAdmin reports whether p carries the admin role.
func RoleIsAdmin(p *models.Profile) bool {
	return p != nil && p.Role == models.RoleAdmin
}

// EmailHeuristic is the legacy substring check on the identity email.
func EmailHeuristic(id *models.Identity) bool {
	return id != nil && strings.Contains(strings.ToLower(id.Email), "admin")
}

// CanEnter reports whether t may enter realm. An unresolved triple never
// may, whatever it carries.
func CanEnter(realm Realm, t session.Triple, check AdminCheck) bool {
	if !t.Resolved || t.Identity == nil {
		return false
	}
	if t.Profile != nil && t.Profile.Status == models.StatusDisabled {
		return false
	}
	switch realm {
	case Participant:
		return true
	case Admin:
		return check.IsAdmin(t.Profile, t.Identity)
	default:
		return false
	}
}

// Evaluate turns CanEnter into a render decision plus the redirect target.
func Evaluate(realm Realm, t session.Triple, check AdminCheck) (Decision, string) {
	if !t.Resolved {
		return Hold, ""
	}
	if CanEnter(realm, t, check) {
		return Allow, ""
	}
	return Redirect, realm.EntryPage()
}
