// Package session tracks who each browser session belongs to.
//
// A Resolver holds the (identity, profile, resolved) triple for one session
// id. Each identity change starts a new generation; the profile fetch for a
// generation can only ever complete that generation, so a slow fetch for a
// previous identity never overwrites the current one.
package session

import "github.com/dalemusser/campushub/internal/domain/models"

// Triple is a snapshot of a session's resolution state.
type Triple struct {
	Identity *models.Identity
	Profile  *models.Profile
	Resolved bool

	// Generation increases on every identity change.
	Generation uint64
	// FetchErr is set when the profile load for this generation failed.
	// Profile is nil in that case.
	FetchErr error
}

// SignedIn reports whether the triple carries an identity.
func (t Triple) SignedIn() bool { return t.Identity != nil }

// IdentityID returns the identity id or "".
func (t Triple) IdentityID() string {
	if t.Identity == nil {
		return ""
	}
	return t.Identity.ID
}
