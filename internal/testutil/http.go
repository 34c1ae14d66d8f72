package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/google/uuid"
)

// AdminViewer returns a viewer holding the admin role.
func AdminViewer() auth.Viewer {
	return auth.Viewer{
		IdentityID: uuid.NewString(),
		Name:       "Test Admin",
		Email:      "admin@test.com",
		Role:       models.RoleAdmin,
		IsAdmin:    true,
	}
}

// ParticipantViewer returns a signed-in participant.
func ParticipantViewer() auth.Viewer {
	return auth.Viewer{
		IdentityID: uuid.NewString(),
		Name:       "Test Participant",
		Email:      "participant@test.com",
		Role:       models.RoleParticipant,
	}
}

// WithViewer adds a viewer to the request context for testing gated handlers.
// This bypasses the session middleware and injects the viewer directly.
func WithViewer(r *http.Request, v auth.Viewer) *http.Request {
	return auth.WithTestViewer(r, v)
}

// NewJSONRequest creates a request with a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}
