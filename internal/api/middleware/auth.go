package middleware

import (
	"context"
	"net/http"

	"codedojo/internal/app/service"
	"codedojo/internal/common"
	"codedojo/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const UserCtxKey contextKey = "user"

// Authenticator resolves the bearer token of every request. Requests with no
// usable token continue anonymously; RequireUser decides whether that is
// acceptable.
func Authenticator(gate *service.CredentialGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := gate.Resolve(r.Context(), jwtauth.TokenFromHeader(r))
			if user != nil {
				r = r.WithContext(context.WithValue(r.Context(), UserCtxKey, user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserFromContext(r.Context()); !ok {
			common.RespondWithErr(w, common.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly must run after RequireUser.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}
