package middleware

import (
	"context"
	"net/http"

	"github.com/kukumart/marketplace-backend/api/responses"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
)

// MaintenanceSource reports whether the runtime settings switched the
// marketplace into maintenance.
type MaintenanceSource interface {
	InMaintenance(ctx context.Context) (bool, error)
}

// Maintenance refuses writes with 503 while maintenance is on. Reads stay
// open and admins are never blocked. If the switch cannot be read the
// request goes through.
func Maintenance(source MaintenanceSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if source == nil || isReadOnly(r.Method) || enums.Role(RoleFromContext(r.Context())) == enums.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			down, err := source.InMaintenance(ctx)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "maintenance switch unreadable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if down {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeMaintenance, "writes are paused for maintenance"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isReadOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
