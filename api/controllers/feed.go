package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kukumart/marketplace-backend/api/middleware"
	"github.com/kukumart/marketplace-backend/api/responses"
	"github.com/kukumart/marketplace-backend/internal/feed"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/visibility"
)

type feedStreamer interface {
	Stream(ctx context.Context, viewer visibility.Viewer, topics []enums.OutboxAggregateType, ready func(), emit func(outbox.FeedMessage) error) error
}

// Feed streams change-feed events as Server-Sent Events. Topics come from
// ?topics=order,withdrawal; non-admins only see events addressed to them.
func Feed(hub feedStreamer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("feed"))
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}
		topics, err := feed.ParseTopics(r.URL.Query().Get("topics"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		viewer := middleware.ViewerFromContext(r.Context())

		started := false
		ready := func() {
			started = true
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			_, _ = fmt.Fprint(w, ": connected\n\n")
			flusher.Flush()
		}
		emit := func(msg outbox.FeedMessage) error {
			payload, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", msg.EventID, msg.EventType, payload); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}

		err = hub.Stream(r.Context(), viewer, topics, ready, emit)
		if err == nil {
			return
		}
		if !started {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "feed.stream_closed")
		}
	}
}
