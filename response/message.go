// Package response contains the payloads written back to API clients.
package response

import (
	"encoding/json"
	"net/http"
)

// Message is the payload of informational endpoints such as the home route.
type Message struct {
	Message string `json:"message"`
}

// Detail carries a human readable outcome, used by domain errors and delete confirmations.
type Detail struct {
	Detail string `json:"detail"`
}

// FieldError describes one offending input.
// Loc is the path to the input, starting with "body" or "path".
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError is returned with 422 when a request fails structural validation.
type ValidationError struct {
	Detail []FieldError `json:"detail"`
}

// WriteJSON writes v as the JSON body of res with the given status code.
// Non-ASCII characters and HTML-sensitive characters are written verbatim.
func WriteJSON(res http.ResponseWriter, status int, v any) error {
	res.Header().Set("Content-Type", "application/json; charset=utf-8")
	res.WriteHeader(status)
	enc := json.NewEncoder(res)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
