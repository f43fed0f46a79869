package proxy

import (
	"encoding/json"
	"net/http"
	"strconv"

	"switchboard-hq/switchboard/pkg/engine"
)

// hopHeaders are connection-specific and never copied from the message.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Length",
}

// WriteMessage writes the assembly's final message: its headers, its status
// (200 when unset) and its body.
func WriteMessage(w http.ResponseWriter, msg *engine.Message) error {
	header := w.Header()
	for name, values := range msg.Headers {
		header[name] = append([]string(nil), values...)
	}
	for _, h := range hopHeaders {
		header.Del(h)
	}
	header.Set("Content-Length", strconv.Itoa(len(msg.Body)))

	status := msg.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(msg.Body) == 0 {
		return nil
	}
	_, err := w.Write(msg.Body)
	return err
}

// WriteJSONResponse writes data as JSON with the given status.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes the gateway's default error body for status. The
// failure detail is included only when expose is set.
func WriteError(w http.ResponseWriter, status int, perr *engine.PolicyError, expose bool) error {
	return WriteJSONResponse(w, status, engine.NewDefaultErrorBody(status, perr, expose))
}
