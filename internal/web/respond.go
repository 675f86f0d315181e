// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/pkg/errutil"
)

const (
	headerContentType   = "Content-Type"
	contentTypeJSONUTF8 = "application/json; charset=utf-8"

	maxBodyBytes = 1 << 20
)

// Public error messages. They are fixed per kind so responses reveal nothing
// beyond the kind itself.
const (
	msgValidationFailed   = "Validation failed"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgUnauthorized       = "Unauthorized"
	msgInternal           = "Internal server error"
)

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type messageBody struct {
	Message string           `json:"message"`
	User    *auth.PublicUser `json:"user,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(headerContentType, contentTypeJSONUTF8)
	w.WriteHeader(status)
	//nolint:errcheck // client may have gone away; nothing left to report to
	json.NewEncoder(w).Encode(body)
}

// statusFor maps an auth error to its HTTP status and public body.
func statusFor(err error) (int, errorBody) {
	switch auth.KindOf(err) {
	case auth.KindInvalidInput:
		return http.StatusBadRequest, errorBody{Error: msgValidationFailed, Details: auth.ValidationIssues(err)}
	case auth.KindDuplicateUser:
		return http.StatusConflict, errorBody{Error: msgUserExists}
	case auth.KindAuthentication:
		return http.StatusUnauthorized, errorBody{Error: msgInvalidCredentials}
	case auth.KindInvalidToken:
		return http.StatusUnauthorized, errorBody{Error: msgUnauthorized}
	default:
		return http.StatusInternalServerError, errorBody{Error: msgInternal}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), h.logger, "request failed", err)
	} else {
		h.logger.DebugContext(r.Context(), "request rejected",
			"path", r.URL.Path,
			"status", status,
			"kind", auth.KindOf(err).String(),
		)
	}
	respondJSON(w, status, body)
}

// decodeJSON reads a single JSON object into dst. Unknown fields, trailing
// data and oversized bodies are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return auth.ValidationError("request body is invalid")
	}
	if dec.More() {
		return auth.ValidationError("request body is invalid")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
