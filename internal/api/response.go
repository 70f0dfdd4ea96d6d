package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/inventur/internal/store"
)

// maxJSONBody caps request bodies of the JSON endpoints.
const maxJSONBody = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// jsonOK writes {"success": true} plus any extra fields.
func jsonOK(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	jsonResponse(w, http.StatusOK, body)
}

// decodeJSON decodes a JSON request body into target. An empty body leaves
// target untouched.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// storeError maps store sentinels to client errors. Anything else is logged
// and reported as a 500 with msg only.
func storeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidField),
		errors.Is(err, store.ErrInvalidValue),
		errors.Is(err, store.ErrLastGroup):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(msg, "error", err)
		jsonError(w, http.StatusInternalServerError, msg)
	}
}

// flexInt accepts a JSON number or a numeric string, since form inputs in the
// browser send both.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.New("expected an integer")
	}
	*n = flexInt(v)
	return nil
}

// idRequest is the body of every delete-by-id endpoint.
type idRequest struct {
	ID flexInt `json:"id"`
}

// fieldUpdate is the body of the generic update endpoints.
type fieldUpdate struct {
	ID    flexInt `json:"id"`
	Field string  `json:"field"`
	Value any     `json:"value"`
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil
}
