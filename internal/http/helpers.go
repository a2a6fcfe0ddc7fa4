package http

import (
	"errors"
	"net/http"
	"strings"

	"giftwallet/internal/core"
)

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// errorResponse maps a service error to its HTTP response.
func errorResponse(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrCardNotFound):
		return NotFoundError(core.ErrCardNotFound.Error())
	case errors.Is(err, core.ErrInvalidLastFour),
		errors.Is(err, core.ErrInvalidBalance),
		errors.Is(err, core.ErrInvalidExpiry):
		return UnprocessableEntityError(err.Error())
	default:
		return InternalServerError()
	}
}

// parseErrorResponse maps a body parsing failure: 413 for oversized
// bodies, 400 otherwise.
func parseErrorResponse(err error) *JSONResponseBuilder {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large")
	}
	return BadRequestError(err.Error())
}
