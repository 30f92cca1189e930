package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"mcphub/internal/router"
	"mcphub/pkg/logging"
)

// handleChannel upgrades the request to a WebSocket and serves JSON-RPC
// envelopes on it until either side closes. Messages are handled one at a
// time, so replies leave in the order requests arrived.
func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		// UpgradeHTTP has already answered the client.
		logging.Debug(subsystem, "WebSocket upgrade failed: %v", err)
		return
	}

	id := uuid.NewString()
	if !s.trackChannel(id, conn) {
		_ = conn.Close()
		return
	}
	defer s.untrackChannel(id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	log := logging.With(subsystem, slog.String("channel", id), slog.String("remote", r.RemoteAddr))
	log.Debug("Channel opened")
	s.serveChannel(ctx, log, conn)
	_ = conn.Close()
	log.Debug("Channel closed")
}

// rejectLinger bounds the read drain after an oversized message.
const rejectLinger = time.Second

// errMessageTooLarge is returned by readMessage for messages over
// maxBodyBytes. The rest of the message stays unread, so the channel cannot
// continue afterwards.
var errMessageTooLarge = fmt.Errorf("invalid request: message exceeds %d bytes", maxBodyBytes)

func (s *Server) serveChannel(ctx context.Context, log logging.Logger, conn net.Conn) {
	for {
		data, op, err := readMessage(conn)
		if errors.Is(err, errMessageTooLarge) {
			log.Warn("Closing channel: %v", err)
			s.rejectOversized(log, conn)
			return
		}
		if err != nil {
			if !isClosedChannel(err) {
				log.Debug("Read failed: %v", err)
			}
			return
		}

		var resp *router.Response
		if op == ws.OpBinary {
			resp = router.NewErrorResponse(nil, router.CodeInvalidRequest, errors.New("invalid request: binary frames are not supported"))
		} else {
			resp = s.router.HandleMessage(ctx, data)
		}
		if resp == nil {
			continue
		}

		payload, err := json.Marshal(resp)
		if err != nil {
			log.Error(err, "Failed to encode reply")
			payload, _ = json.Marshal(router.NewErrorResponse(resp.ID, router.CodeServerError, errors.New("failed to encode result")))
		}
		if err := wsutil.WriteServerMessage(conn, ws.OpText, payload); err != nil {
			log.Debug("Write failed: %v", err)
			return
		}
	}
}

// readMessage reads the next data message from a client, answering control
// frames on the way, with the same size bound as the HTTP routes.
func readMessage(conn net.Conn) ([]byte, ws.OpCode, error) {
	control := wsutil.ControlFrameHandler(conn, ws.StateServerSide)
	rd := wsutil.Reader{
		Source:         conn,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		MaxFrameSize:   maxBodyBytes,
		OnIntermediate: control,
	}

	for {
		hdr, err := rd.NextFrame()
		if errors.Is(err, wsutil.ErrFrameTooLarge) {
			return nil, 0, errMessageTooLarge
		}
		if err != nil {
			return nil, 0, err
		}
		if hdr.OpCode.IsControl() {
			if err := control(hdr, &rd); err != nil {
				return nil, 0, err
			}
			continue
		}

		// Fragments are bounded individually, so cap the whole message too.
		data, err := io.ReadAll(io.LimitReader(&rd, maxBodyBytes+1))
		if errors.Is(err, wsutil.ErrFrameTooLarge) || len(data) > maxBodyBytes {
			return nil, 0, errMessageTooLarge
		}
		if err != nil {
			return nil, 0, err
		}
		return data, hdr.OpCode, nil
	}
}

// rejectOversized answers an oversized message with an error reply and a
// close frame.
func (s *Server) rejectOversized(log logging.Logger, conn net.Conn) {
	payload, _ := json.Marshal(router.NewErrorResponse(nil, router.CodeInvalidRequest, errMessageTooLarge))
	if err := wsutil.WriteServerMessage(conn, ws.OpText, payload); err != nil {
		log.Debug("Write failed: %v", err)
		return
	}
	body := ws.NewCloseFrameBody(ws.StatusMessageTooBig, "message too big")
	_ = wsutil.WriteServerMessage(conn, ws.OpClose, body)

	// Swallow what is already in flight, otherwise closing with unread input
	// resets the connection and the client may never see the reply.
	_ = conn.SetReadDeadline(time.Now().Add(rejectLinger))
	_, _ = io.CopyN(io.Discard, conn, maxBodyBytes)
}

func isClosedChannel(err error) bool {
	var closed wsutil.ClosedError
	return errors.As(err, &closed) || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
