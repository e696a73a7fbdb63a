package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/jobboard/internal/types"
)

// Event names sent on the unread-count stream.
const (
	eventUnreadCount = "unread-count"
	eventLogout      = "logout"
)

// eventStream writes server-sent events to one browser tab. Each event
// carries an increasing id so a reconnecting EventSource can be told apart
// from a fresh one in the logs.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
}

// openEventStream sends the stream headers and a reconnect hint matching the
// poll interval.
func openEventStream(w http.ResponseWriter, reconnect time.Duration) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer cannot stream events")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if reconnect > 0 {
		if _, err := fmt.Fprintf(w, "retry: %d\n\n", reconnect.Milliseconds()); err != nil {
			return nil, err
		}
	}
	flusher.Flush()
	return &eventStream{w: w, flusher: flusher, nextID: 1}, nil
}

func (s *eventStream) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.nextID, event, data); err != nil {
		return err
	}
	s.nextID++
	s.flusher.Flush()
	return nil
}

func (s *eventStream) unread(n int) error {
	return s.send(eventUnreadCount, types.UnreadCount{UnreadCount: n})
}

// loggedOut tells the tab to navigate to the login view.
func (s *eventStream) loggedOut() error {
	return s.send(eventLogout, map[string]string{"redirect": "/login"})
}
