package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/mintworks/ledger/internal/platform/errors"
)

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	body := errorBody{
		Code:    string(code),
		Message: "internal error",
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Metadata = appErr.Metadata
	}
	writeJSON(w, code.HTTPStatus(), body)
}
