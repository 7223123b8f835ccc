package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kukumart/marketplace-backend/api/responses"
	pkgAuth "github.com/kukumart/marketplace-backend/pkg/auth"
	"github.com/kukumart/marketplace-backend/pkg/auth/session"
	"github.com/kukumart/marketplace-backend/pkg/config"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
)

type authenticator struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
}

// authenticate turns the presented token into a Principal. A nil session
// checker skips the revocation lookup.
func (a authenticator) authenticate(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessToken(a.cfg, token)
	switch {
	case errors.Is(err, pkgAuth.ErrTokenExpired):
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "token expired")
	case err != nil:
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	case claims.ID == "":
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if a.sessions != nil {
		live, err := a.sessions.HasSession(ctx, claims.ID)
		if err != nil {
			return Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !live {
			return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	return Principal{UserID: claims.UserID.String(), Role: claims.Role, AccessID: claims.ID}, nil
}

// Auth validates a bearer token and seeds the request context with the caller.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	a := authenticator{cfg: cfg, sessions: verifier}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.authenticate(r.Context(), bearerToken(r))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := WithPrincipal(r.Context(), p)
			if logg != nil {
				ctx = logg.WithUserID(ctx, p.UserID)
				ctx = logg.WithActorRole(ctx, string(p.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	// EventSource cannot set headers, so the feed also accepts ?access_token=.
	if header == "" && r.Method == http.MethodGet {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return ""
}

// OptionalAuth behaves like Auth when a token is presented and lets anonymous
// requests through untouched.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authed := Auth(cfg, verifier, logg)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerToken(r) == "" {
				next.ServeHTTP(w, r)
				return
			}
			authed.ServeHTTP(w, r)
		})
	}
}
