package events

import (
	"fmt"
	"strconv"
	"strings"
)

// InputError describes why a request could not be turned into an event
// operation. It matches ErrInvalidInput under errors.Is.
type InputError struct {
	Field   string
	Message string
}

func (e InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ParseID parses an event id taken from a request path.
func ParseID(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, InputError{Field: "id", Message: "missing"}
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, InputError{Field: "id", Message: "must be an integer"}
	}
	if id <= 0 {
		return 0, InputError{Field: "id", Message: "must be positive"}
	}
	return id, nil
}
