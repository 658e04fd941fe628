// Package auth provides bearer-token middleware for applicant and
// reviewer endpoints. Tokens are HMAC-signed JWTs issued by an external
// identity provider sharing the signing key.
package auth

import (
	"net/http"
	"strings"

	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/httputil"
	"veris/pkg/platform/token"
	"veris/pkg/requestcontext"
)

// RequireUser validates the bearer token and injects the applicant ID
// into the request context.
func RequireUser(verifier *token.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifyBearer(verifier, r)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			userID, err := id.ParseUserID(claims.Subject)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a valid user id"))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(r.Context(), userID)))
		})
	}
}

// RequireReviewer validates the bearer token, checks the reviewer role
// claim, and injects the reviewer ID into the request context.
func RequireReviewer(verifier *token.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifyBearer(verifier, r)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			if claims.Role != token.RoleReviewer {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "reviewer role required"))
				return
			}
			reviewerID, err := id.ParseReviewerID(claims.Subject)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a valid reviewer id"))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithReviewerID(r.Context(), reviewerID)))
		})
	}
}

func verifyBearer(verifier *token.Verifier, r *http.Request) (*token.Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing authorization header")
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authorization header must use the Bearer scheme")
	}
	claims, err := verifier.Verify(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
	}
	return claims, nil
}
