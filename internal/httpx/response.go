package httpx

import (
	"encoding/json"
	"net/http"

	ierr "github.com/diewo77/invoice-api/internal/errors"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error writes err with the status of its kind. Server errors never leak
// their cause to the client.
func Error(w http.ResponseWriter, err error) {
	JSONError(w, ierr.HTTPStatus(err), ierr.PublicMessage(err), nil)
}

// DecodeJSON reads a JSON body into dst, rejecting trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return ierr.InvalidInput("invalid JSON body: %v", err)
	}
	if dec.More() {
		return ierr.InvalidInput("invalid JSON body: trailing data")
	}
	return nil
}
