// Package common holds the JSON envelope shared by every API handler.
// Every endpoint answers `{success, data?, error?}`; data and error are
// mutually exclusive.
package common

import (
	"net/http"

	"github.com/go-chi/render"
)

// Envelope is the uniform API response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondData writes a success envelope with the given status.
func RespondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: true, Data: data})
}

// RespondError writes a failure envelope with the given status.
func RespondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: false, Error: message})
}
