package service

import (
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ValidationError reports input rejected before any storage call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var hexColor = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// normalizeColor validates a #rgb or #rrggbb color and lower-cases it.
func normalizeColor(color string) (string, error) {
	c := strings.TrimSpace(color)
	if c == "" {
		return "", invalid("color", "category color is required")
	}
	if !hexColor.MatchString(c) {
		return "", invalid("color", "category color must be a valid hex color")
	}
	return strings.ToLower(c), nil
}

func requireID(field, id, what string) error {
	if strings.TrimSpace(id) == "" {
		return invalid(field, what+" ID is required")
	}
	return nil
}

func logFailure(service, op string, err error) {
	if err == nil {
		return
	}
	log.WithError(err).WithFields(log.Fields{"service": service, "op": op}).Error("operation failed")
}
