package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/logging"
)

var (
	errTooLarge = errors.New("request body too large")
	errBadBody  = common.Validationf("Invalid request body")
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to the status code and the message the client
// sees. Unknown errors become a bare 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrTokenMissing):
		return http.StatusUnauthorized, "Token missing!"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired!"
	case errors.Is(err, common.ErrTokenInvalid):
		return http.StatusUnauthorized, "Token invalid!"
	case errors.Is(err, common.ErrUserNotFound):
		return http.StatusUnauthorized, "User not found!"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "Admin access required"
	case errors.Is(err, common.ErrEmailTaken):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, common.ErrNoFileProvided):
		return http.StatusBadRequest, "No file uploaded"
	case errors.Is(err, common.ErrNoPhotoProvided):
		return http.StatusBadRequest, "No photo uploaded"
	case errors.Is(err, common.ErrBadFilename):
		return http.StatusBadRequest, "Invalid filename"
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	}
	return http.StatusInternalServerError, "internal error"
}

// writeError answers with the mapped status and a JSON error body. Server
// errors are logged with their full text; the client never sees it.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		log.Debug(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}
