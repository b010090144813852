package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// streamEvents streams snapshots as server-sent events. The latest snapshot
// is sent first, then one event per change until the client goes away or
// the notifier closes.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errors.New("streaming unsupported"))
		return
	}

	subscriptionID, ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(subscriptionID)
	zlog.Debug().Msgf("httpapi: event stream opened: subscription=%s", subscriptionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			zlog.Debug().Msgf("httpapi: event stream closed by client: subscription=%s", subscriptionID)
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				zlog.Error().Msgf("httpapi: failed to encode snapshot: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Seq, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
