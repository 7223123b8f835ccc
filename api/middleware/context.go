package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/visibility"
)

type principalKey struct{}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID   string
	Role     enums.Role
	AccessID string
}

// WithPrincipal attaches p to ctx, replacing any earlier caller.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller and whether one was attached.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func UserIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.UserID
}

func RoleFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return string(p.Role)
}

// AccessIDFromContext returns the session id of the presented token.
func AccessIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.AccessID
}

// ViewerFromContext returns the authenticated caller, or the anonymous viewer.
func ViewerFromContext(ctx context.Context) visibility.Viewer {
	p, _ := PrincipalFromContext(ctx)
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return visibility.Viewer{}
	}
	return visibility.Viewer{UserID: id, Role: p.Role}
}

// WithUserID sets the caller's user id, keeping the rest of the principal.
func WithUserID(ctx context.Context, userID string) context.Context {
	p, _ := PrincipalFromContext(ctx)
	p.UserID = userID
	return WithPrincipal(ctx, p)
}

// WithRole sets the caller's role, keeping the rest of the principal.
func WithRole(ctx context.Context, role string) context.Context {
	p, _ := PrincipalFromContext(ctx)
	p.Role = enums.Role(role)
	return WithPrincipal(ctx, p)
}
