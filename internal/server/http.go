package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"mcphub/internal/aggregator"
	"mcphub/pkg/logging"
)

// maxBodyBytes bounds request bodies on the synchronous routes.
const maxBodyBytes = 1 << 20

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string          `json:"status"`
	Timestamp    time.Time       `json:"timestamp"`
	Repositories []string        `json:"repositories"`
	Processes    []ProcessStatus `json:"processes"`
}

// ProcessStatus describes one registry entry.
type ProcessStatus struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	URL      string `json:"url"`
	PID      int    `json:"pid,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty"`
}

// CallToolBody is the request body of POST /mcp/tools/{toolName}.
type CallToolBody struct {
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// ResultBody wraps a successful tool call.
type ResultBody struct {
	Result interface{} `json:"result"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	running := s.status.ListRunning()
	snapshot := s.status.Snapshot()

	resp := HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC(),
		Repositories: make([]string, 0, len(running)),
		Processes:    make([]ProcessStatus, 0, len(snapshot)),
	}
	for _, b := range running {
		resp.Repositories = append(resp.Repositories, b.Name)
	}
	for _, b := range snapshot {
		ps := ProcessStatus{
			Name:     b.Name,
			Status:   string(b.State),
			URL:      b.Endpoint,
			ExitCode: b.ExitCode,
		}
		if b.Handle != nil {
			ps.PID = b.Handle.PID()
		}
		resp.Processes = append(resp.Processes, ps)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.router.ListTools())
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.router.ListResources())
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("toolName")

	var body CallToolBody
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("request body must be a JSON object with an optional arguments member"))
			return
		}
	}

	result, err := s.router.CallTool(r.Context(), name, body.Arguments)
	if err != nil {
		logging.Debug(subsystem, "Tool call %s failed: %v", name, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultBody{Result: result})
}

// handleReadResource serves GET /mcp/resources/<backend>/<path>, the
// path form of repo://<backend>/<path>.
func (s *Server) handleReadResource(w http.ResponseWriter, r *http.Request) {
	uri := aggregator.ResourceScheme + r.PathValue("path")

	result, err := s.router.ReadResource(r.Context(), uri)
	if err != nil {
		logging.Debug(subsystem, "Resource read %s failed: %v", uri, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRPC carries one JSON-RPC envelope per request. Notifications are
// acknowledged with 202 and no body.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := s.router.HandleMessage(r.Context(), data)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
