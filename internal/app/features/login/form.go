// internal/app/features/login/form.go
package login

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/dalemusser/campushub/internal/app/system/limits"
)

// credentials is the body of /login, /admin-login and /signup. Browsers
// post forms; the single-page client posts JSON.
type credentials struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Return   string `json:"return"`
}

func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAuthBody)
	var c credentials
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&c)
		return c, err
	}
	if err := r.ParseForm(); err != nil {
		return c, err
	}
	c.FullName = r.PostFormValue("full_name")
	c.Email = r.PostFormValue("email")
	c.Password = r.PostFormValue("password")
	c.Role = r.PostFormValue("role")
	c.Return = r.PostFormValue("return")
	return c, nil
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// result is the JSON answer to a successful sign-in.
type result struct {
	IdentityID string `json:"identity_id"`
	Redirect   string `json:"redirect"`
}

// finish sends a signed-in caller on: a 303 for a form post, JSON for the
// client.
func finish(w http.ResponseWriter, r *http.Request, status int, identityID, dest string) {
	if !isJSON(r) {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result{IdentityID: identityID, Redirect: dest})
}
