package transport

import (
	"errors"
	"fmt"
)

// Operation names used in errors, logs, metrics and spans.
const (
	OpListRestaurants  = "list_restaurants"
	OpQueryRestaurants = "query_restaurants"
	OpGetByID          = "get_restaurant"
	OpNearby           = "nearby_restaurants"
	OpSemanticSearch   = "semantic_search"
	OpImageSearch      = "image_search"
	OpListCountries    = "list_countries"
)

var messages = map[string]string{
	OpListRestaurants:  "Failed to fetch restaurants",
	OpQueryRestaurants: "Failed to search restaurants",
	OpGetByID:          "Restaurant not found",
	OpNearby:           "Failed to fetch nearby restaurants",
	OpSemanticSearch:   "Semantic search failed",
	OpImageSearch:      "Image search failed",
	OpListCountries:    "Failed to fetch countries",
}

// ErrNotFound matches any non-2xx response to a restaurant lookup.
var ErrNotFound = errors.New("restaurant not found")

// Error is returned by every Client operation. StatusCode is zero when the
// request never got a response.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func newError(op string, status int, err error) *Error {
	msg, ok := messages[op]
	if !ok {
		msg = "Request failed"
	}
	return &Error{Op: op, StatusCode: status, Message: msg, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports ErrNotFound for lookups the backend answered with a non-2xx status.
func (e *Error) Is(target error) bool {
	if target != ErrNotFound || e.Op != OpGetByID || e.StatusCode == 0 {
		return false
	}
	return e.StatusCode < 200 || e.StatusCode >= 300
}

// Message returns the banner text for err: the operation message for
// transport errors, the error text otherwise, and "" for nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Message
	}
	return err.Error()
}
