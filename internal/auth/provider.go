// Package auth resolves the acting user and gates post mutations by
// authorship. The identity provider itself is a black box.
package auth

import (
	"net/http"

	"github.com/embrace-blog/embrace/internal/model"
)

type AuthProvider interface {
	WithHeaderAuthorization() func(http.Handler) http.Handler

	// ActorFromRequest resolves the request's session to an actor. Errors
	// mean the request is unauthenticated.
	ActorFromRequest(r *http.Request) (*model.Actor, error)
}
