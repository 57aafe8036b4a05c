package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"todo-list/internal/repository"
	"todo-list/internal/service"
	"todo-list/internal/storage"
	"todo-list/internal/theme"
)

// errResponse is the single notification shape every failure is reported in.
type errResponse struct {
	Error        string `json:"error"`
	Notification string `json:"notification"`
	Field        string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	entry := log.WithError(err).WithFields(log.Fields{"method": r.Method, "path": r.URL.Path, "status": status})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, errResponse) {
	var (
		validation *service.ValidationError
		notFound   *repository.NotFoundError
		remote     *repository.RemoteError
		stored     *storage.StorageError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, errResponse{Error: "validation_error", Notification: validation.Message, Field: validation.Field}
	case errors.As(err, &notFound):
		return http.StatusNotFound, errResponse{Error: "not_found", Notification: notFound.Error()}
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, errResponse{Error: "invalid_json", Notification: "The request body is not valid JSON."}
	case errors.Is(err, theme.ErrEmptyName):
		return http.StatusUnprocessableEntity, errResponse{Error: "validation_error", Notification: "Color names must not be empty."}
	case errors.As(err, &remote):
		return http.StatusBadGateway, errResponse{Error: "remote_error", Notification: "The remote store is unavailable. Please try again."}
	case errors.As(err, &stored):
		return http.StatusInternalServerError, errResponse{Error: "storage_error", Notification: "Your changes could not be saved."}
	}
	return http.StatusInternalServerError, errResponse{Error: "unexpected_error", Notification: "Something went wrong. Please try again."}
}

var errBadJSON = errors.New("invalid json body")

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errBadJSON, err)
	}
	return nil
}
