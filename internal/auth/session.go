package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/internal/users"
	pkgAuth "github.com/kukumart/marketplace-backend/pkg/auth"
	"github.com/kukumart/marketplace-backend/pkg/auth/session"
	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
)

type sessionManager interface {
	Open(ctx context.Context, accessID string, userID uuid.UUID) error
	Revoke(ctx context.Context, accessID string) error
}

// issuer mints an access token and records its session.
type issuer struct {
	sessions sessionManager
	jwtCfg   config.JWTConfig
}

func (i issuer) issue(ctx context.Context, user *models.User, now time.Time) (*LoginResponse, error) {
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(i.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := i.sessions.Open(ctx, accessID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return &LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(i.jwtCfg.Expiration().Seconds()),
		User:        users.FromModel(user),
	}, nil
}
