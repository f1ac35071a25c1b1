package handlers

import (
	"errors"

	"go-pantheon/pkg/result"

	"github.com/danielgtaylor/huma/v2"
)

// OutcomeError maps a rejected outcome to 403 or 409. Successful outcomes map to nil.
func OutcomeError(outcome result.Outcome) error {
	if outcome.OK {
		return nil
	}
	if outcome.Forbidden {
		return huma.Error403Forbidden(outcome.Message)
	}
	return huma.Error409Conflict(outcome.Message)
}

// ServiceError maps service errors to 400 for caller bugs and 500 otherwise
func ServiceError(message string, err error) error {
	if errors.Is(err, result.ErrInvalidArgument) {
		return huma.Error400BadRequest(err.Error())
	}
	return huma.Error500InternalServerError(message, err)
}

// Respond folds a service (outcome, error) pair into a huma error
func Respond(message string, outcome result.Outcome, err error) error {
	if err != nil {
		return ServiceError(message, err)
	}
	return OutcomeError(outcome)
}
