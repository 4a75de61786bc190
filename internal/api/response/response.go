// internal/api/response/response.go

// Package response defines the JSON envelope the HTTP API speaks.
// Success bodies carry the payload under "data" with a timestamp in
// "meta"; failures carry a coded "error" object and never leak causes
// of uncoded errors to the client.
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Kong-F/backtest/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse wraps a payload in the success envelope.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail is the wire form of a coded error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse wraps an ErrorDetail in the error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes data in the success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	})
}

// Error writes err in the error envelope.
func Error(w http.ResponseWriter, status int, err error) {
	write(w, status, ErrorResponse{Error: Detail(err)})
}

// Detail extracts the wire form of err. Errors without a code render
// as INTERNAL_ERROR with the cause withheld.
func Detail(err error) ErrorDetail {
	var coded *core.Error
	if !errors.As(err, &coded) {
		return ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: "an internal error occurred",
		}
	}
	d := ErrorDetail{Code: coded.Code, Message: coded.Message}
	if coded.Cause != nil {
		d.Cause = coded.Cause.Error()
	}
	return d
}

func write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// An encode failure here means the client went away; there is no
	// useful recovery once the header is out.
	_ = json.NewEncoder(w).Encode(payload)
}
