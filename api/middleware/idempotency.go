package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kukumart/marketplace-backend/api/responses"
	"github.com/kukumart/marketplace-backend/api/validators"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	pkgredis "github.com/kukumart/marketplace-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	// Money and stock movements keep their replay records for a week.
	longReplayWindow = 7 * 24 * time.Hour
	// An in-flight marker outlives any sane handler but never sticks forever.
	inFlightTTL      = 2 * time.Minute
	maxKeyLength     = 128
)

// replayPolicy is keyed by "METHOD pattern" using chi's full route pattern.
var replayPolicy = map[string]bool{
	"POST /api/v1/auth/register":                           false,
	"POST /api/v1/auth/register/vendor":                    false,
	"POST /api/v1/vendor/products":                         false,
	"POST /api/v1/vendor/statuses":                         false,
	"POST /api/admin/v1/orders/{orderId}/payment-approval": false,
	"POST /api/v1/orders":                                  true,
	"POST /api/v1/vendor/withdrawals":                      true,
	"POST /api/admin/v1/withdrawals/{withdrawalId}/settle": true,
}

// storedReply is what a completed request leaves behind. A reply with an
// empty Status marks a request that is still running.
type storedReply struct {
	Fingerprint string `json:"fp"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency makes the mutating routes in replayPolicy safe to retry. The
// first request with a given Idempotency-Key runs; later ones with the same
// body get the recorded reply, ones with a different body get 409, and ones
// racing an unfinished original get 409 as well. Server errors are not
// recorded so the client can try again.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			window, guarded := replayWindow(r, ttl)
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" || len(clientKey) > maxKeyLength {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "a valid Idempotency-Key header is required"))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
						WithDetails(map[string]any{"max_bytes": tooLarge.Limit}))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintBody(body)
			key := store.IdempotencyKey(replayScope(r), clientKey)

			marker, _ := json.Marshal(storedReply{Fingerprint: fingerprint})
			acquired, err := store.SetNX(ctx, key, string(marker), inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !acquired {
				replayExisting(w, r, store, key, fingerprint, logg)
				return
			}

			capture := &replyCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				if err := store.Del(ctx, key); err != nil {
					logg.Error(ctx, "release idempotency key", err)
				}
				return
			}
			reply, err := json.Marshal(storedReply{
				Fingerprint: fingerprint,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err == nil {
				err = store.Set(ctx, key, string(reply), window)
			}
			if err != nil {
				logg.Error(ctx, "record idempotent reply", err)
			}
		})
	}
}

func replayExisting(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, key, fingerprint string, logg *logger.Logger) {
	ctx := r.Context()
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// The original finished with a server error and let go of the key.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request is being retried, try again"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotent reply"))
		return
	}

	var stored storedReply
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotent reply"))
		return
	}
	switch {
	case stored.Fingerprint != fingerprint:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case stored.Status == 0:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "original request still in progress"))
	default:
		if stored.ContentType != "" {
			w.Header().Set("Content-Type", stored.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(stored.Status)
		_, _ = w.Write(stored.Body)
	}
}

func replayWindow(r *http.Request, ttl time.Duration) (time.Duration, bool) {
	long, ok := replayPolicy[r.Method+" "+routePattern(r)]
	switch {
	case !ok:
		return 0, false
	case long:
		return longReplayWindow, true
	default:
		return ttl, true
	}
}

// replayScope binds a key to its caller and target so two users cannot
// collide on the same client-chosen key.
func replayScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func fingerprintBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type replyCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *replyCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *replyCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *replyCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
