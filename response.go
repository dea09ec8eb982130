package nextware

import (
	"encoding/json"
	"net/http"

	"github.com/go-nextware/nextware/validation"
)

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorBody defines the structure inside the top-level `error` key.
type ErrorBody struct {
	Type    string        `json:"type"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Fields  []ErrorDetail `json:"fields,omitempty"`
}

// ErrorEnvelope is the JSON shape of every terminal error response the
// router writes itself (fell-off-chain 404, validation failures, unhandled
// handler errors).
type ErrorEnvelope struct {
	Status string    `json:"status"`
	Code   int       `json:"code"`
	Error  ErrorBody `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, typ, msg string, fields []ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Status: "error",
		Code:   status,
		Error:  ErrorBody{Type: typ, Code: code, Message: msg, Fields: fields},
	})
}

func detailsFromValidation(fes []validation.FieldError) []ErrorDetail {
	out := make([]ErrorDetail, 0, len(fes))
	for _, fe := range fes {
		out = append(out, ErrorDetail{Field: fe.Field, Code: fe.Code, Message: fe.Message})
	}
	return out
}
