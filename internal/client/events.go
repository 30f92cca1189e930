package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tmaxmax/go-sse"

	"mcphub/internal/events"
	"mcphub/internal/server"
)

// WatchEvents follows the hub's /events stream and calls fn for every
// backend event until ctx is cancelled, the stream ends or fn returns an
// error. Cancellation is not reported as an error.
func (c *Client) WatchEvents(ctx context.Context, fn func(events.Event) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream is long-lived; only the context bounds it.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return &UnreachableError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RequestError{StatusCode: resp.StatusCode, Message: "event stream is not available"}
	}

	for ev, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to read event stream: %w", err)
		}
		if ev.Type != server.EventType {
			continue
		}

		var event events.Event
		if err := json.Unmarshal([]byte(ev.Data), &event); err != nil {
			return fmt.Errorf("failed to decode event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
	return nil
}
