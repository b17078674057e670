package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/Rrens/chatdesk/internal/api/response"
	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/Rrens/chatdesk/internal/security"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and validates it. It writes
// a 400 response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}
	return validateStruct(w, dst)
}

func validateStruct(w http.ResponseWriter, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		response.BadRequest(w, err.Error())
		return false
	}

	fields := make(map[string]string)
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			fields[field] = "field is required"
		case "email":
			fields[field] = "invalid email format"
		case "min":
			fields[field] = "must be at least " + e.Param() + " characters"
		case "max":
			fields[field] = "must be at most " + e.Param() + " characters"
		case "eqfield":
			fields[field] = "passwords do not match"
		case "oneof":
			fields[field] = "must be one of: " + e.Param()
		default:
			fields[field] = "validation failed on " + e.Tag()
		}
	}
	response.BadRequest(w, fields)
	return false
}

// writeError maps service errors onto HTTP statuses
// requireText rejects values that are empty once trimmed; `required` alone
// lets whitespace through.
func requireText(w http.ResponseWriter, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		response.BadRequest(w, map[string]string{field: "field is required"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fileErr *security.ValidationError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "chat not found")
	case errors.Is(err, domain.ErrConflict):
		response.Conflict(w, "chat was modified concurrently or belongs to another user")
	case errors.Is(err, domain.ErrSessionBusy):
		response.Conflict(w, "chat is busy, please retry")
	case errors.Is(err, domain.ErrBlankContent):
		response.BadRequest(w, "content must not be blank")
	case errors.Is(err, domain.ErrNoUserMessage):
		response.BadRequest(w, "chat has no user message yet")
	case errors.Is(err, domain.ErrEmailTaken):
		response.BadRequest(w, "email already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, "invalid credentials")
	case errors.Is(err, domain.ErrInvalidToken):
		response.Unauthorized(w, "invalid refresh token")
	case errors.As(err, &fileErr):
		response.BadRequest(w, fileErr.Message)
	default:
		log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, "internal server error")
	}
}
