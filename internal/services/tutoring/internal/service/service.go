// Package service holds the business operations behind the REST API. Services
// return *serr.ServiceError values for every failure a client can act on.
package service

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
)

// notFoundOr turns store.ErrNotFound into a NotFound service error and wraps
// anything else.
func notFoundOr(err error, op string, msg string, args ...any) error {
	if errors.Is(err, store.ErrNotFound) {
		return serr.NotFound(err, msg, args...)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// parseSpec validates list parameters against schema.
func parseSpec(schema query.Schema, params url.Values) (query.Spec, error) {
	spec, err := schema.Parse(params)
	if err != nil {
		var pe *query.ParamError
		if errors.As(err, &pe) {
			return query.Spec{}, serr.BadRequest(err, "Invalid %s: %s", pe.Param, pe.Reason).With("value", pe.Value)
		}
		return query.Spec{}, fmt.Errorf("parse params: %w", err)
	}

	return spec, nil
}
