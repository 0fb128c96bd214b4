package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cvforge/cvforge-api/internal/model"
	"github.com/cvforge/cvforge-api/internal/service"
)

const maxJSONBody = 1 << 20 // 1MB

var (
	errBodyTooLarge = errors.New("request body too large")
	errTrailingData = errors.New("unexpected data after JSON body")
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) errorBody {
	return errorBody{Error: msg}
}

// decodeJSON reads a size limited JSON body into dst. Shape errors come back
// as a *service.ValidationError so they render like any other field error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		err = expectEOF(dec)
	}
	if err == nil {
		return nil
	}

	var (
		maxErr    *http.MaxBytesError
		typeErr   *json.UnmarshalTypeError
		fieldErrs model.FieldErrors
	)
	switch {
	case errors.As(err, &maxErr):
		return errBodyTooLarge
	case errors.As(err, &fieldErrs):
		return &service.ValidationError{Fields: fieldErrs}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return service.NewValidationError(field, "must be "+model.JSONTypeName(typeErr.Type))
	default:
		return service.NewValidationError("body", "must be a valid JSON object")
	}
}

// expectEOF rejects anything after the first JSON value.
func expectEOF(dec *json.Decoder) error {
	var extra json.RawMessage
	err := dec.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	return errTrailingData
}

// writeError translates a service error into its HTTP response. Unknown
// errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse(err.Error()))
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: service.ErrValidation.Error(), Fields: verr.Fields})
	case errors.Is(err, service.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse(service.ErrInvalidCredentials.Error()))
	case errors.Is(err, service.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
	case errors.Is(err, service.ErrResumeNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(service.ErrResumeNotFound.Error()))
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}
