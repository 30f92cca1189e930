package server

import (
	"encoding/json"
	"net/http"

	"github.com/tmaxmax/go-sse"

	"mcphub/internal/events"
	"mcphub/pkg/logging"
)

// EventType is the SSE event type used for backend lifecycle events.
const EventType = "backend"

// handleEvents streams backend lifecycle events as server-sent events until
// the client disconnects or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		writeJSON(w, http.StatusNotFound, ErrorBody{Error: "event stream is not enabled"})
		return
	}

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		logging.Warn(subsystem, "Failed to upgrade event stream: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sub := s.broker.Subscribe()
	defer s.broker.Unsubscribe(sub.ID)

	// Send the headers right away so clients know the stream is open.
	if err := sess.Flush(); err != nil {
		logging.Debug(subsystem, "Failed to open event stream: %v", err)
		return
	}
	logging.Debug(subsystem, "Event stream %s opened", sub.ID)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := sendEvent(sess, ev); err != nil {
				logging.Debug(subsystem, "Event stream %s closed: %v", sub.ID, err)
				return
			}
		}
	}
}

func sendEvent(sess *sse.Session, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := sse.Message{
		ID:   sse.ID(ev.ID),
		Type: sse.Type(EventType),
	}
	msg.AppendData(string(data))
	if err := sess.Send(&msg); err != nil {
		return err
	}
	return sess.Flush()
}
