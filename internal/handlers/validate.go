package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"taskapi/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

var errUnsupportedMediaType = errors.New("неподдерживаемый Content-Type")

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeJSONBody читает тело в dst. Пустое тело оставляет dst нетронутым.
// Непустое тело должно быть JSON-объектом с Content-Type application/json.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return service.NewBusinessError(service.CodeValidation, "Request body could not be read",
			service.ToDetail("non_field_errors", err.Error()))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if !checkContentType(r, "application/json") {
		return errUnsupportedMediaType
	}

	err = json.Unmarshal(body, dst)
	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return service.NewValidationError(typeErr.Field, "Incorrect type.")
	case errors.As(err, &typeErr):
		return service.NewBusinessError(service.CodeValidation,
			fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", typeErr.Value),
			service.ToDetail("non_field_errors", "Expected a JSON object"))
	default:
		return service.NewBusinessError(service.CodeValidation, "JSON parse error",
			service.ToDetail("non_field_errors", err.Error()))
	}
}

func parseTaskID(r *http.Request) (uuid.UUID, error) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, service.NewValidationError("id", "Must be a valid UUID.")
	}
	return id, nil
}

func parsePathInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, service.NewValidationError(name, "A valid integer is required.")
	}
	return value, nil
}
