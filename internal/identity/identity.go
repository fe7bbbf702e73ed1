// Package identity reads the caller identity that the upstream identity
// provider attaches to every request.
package identity

import (
	"net/http"
	"strings"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

// Headers lists the identity headers proxies must forward.
var Headers = []string{HeaderUserID, HeaderUserEmail, HeaderUserRole}

// FromRequest returns the caller identity. ok is false when the id is missing
// or the role is not one the platform knows.
func FromRequest(r *http.Request) (domain.Identity, bool) {
	id := domain.Identity{
		ID:    strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		Role:  domain.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))),
	}
	if id.ID == "" || !id.Role.Valid() {
		return domain.Identity{}, false
	}
	return id, true
}

// Set writes id onto outgoing request headers.
func Set(h http.Header, id domain.Identity) {
	h.Set(HeaderUserID, id.ID)
	h.Set(HeaderUserEmail, id.Email)
	h.Set(HeaderUserRole, string(id.Role))
}
