package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kukumart/marketplace-backend/api/responses"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
)

// maxIdentityPeek bounds how much of the body is buffered to find the account identity.
const maxIdentityPeek = 64 << 10

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one auth surface (login, register) per client
// IP and per account identity. The identity is the email when the body has
// one, otherwise the phone number vendors and buyers register with.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int64
	identityLimit int64
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, identityLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{
		name:          name,
		window:        window,
		ipLimit:       int64(ipLimit),
		identityLimit: int64(identityLimit),
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.identityLimit > 0)
}

type rateSubject struct {
	kind  string
	value string
	limit int64
}

func (p AuthRateLimitPolicy) scope(s rateSubject) string {
	return p.name + ":" + s.kind + ":" + s.value
}

// AuthRateLimit rejects requests once any subject exceeds its limit within the
// policy window. Redis failures surface as dependency errors.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			subjects := make([]rateSubject, 0, 2)
			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					subjects = append(subjects, rateSubject{kind: "ip", value: ip, limit: policy.ipLimit})
				}
			}
			if policy.identityLimit > 0 {
				identity, err := peekIdentity(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				if identity != "" {
					subjects = append(subjects, rateSubject{kind: "id", value: hashValue(identity), limit: policy.identityLimit})
				}
			}

			for _, subject := range subjects {
				allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(subject), subject.limit, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					rejectRateLimited(ctx, logg, w, policy, subject, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, subject rateSubject, count int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":   policy.name,
			"subject":  subject.kind,
			"value":    subject.value,
			"attempts": count,
			"limit":    subject.limit,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

// peekIdentity reads the body, restores it for the next handler and returns
// the normalized email or phone it carries.
func peekIdentity(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIdentityPeek))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

	var fields struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if json.Unmarshal(body, &fields) != nil {
		return "", nil
	}
	if email := strings.ToLower(strings.TrimSpace(fields.Email)); email != "" {
		return "email:" + email, nil
	}
	if phone := normalizePhone(fields.Phone); phone != "" {
		return "phone:" + phone, nil
	}
	return "", nil
}

func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:16])
}
