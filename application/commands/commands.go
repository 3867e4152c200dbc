// Package commands holds the request shapes of every write and the
// validation each one applies before anything is encrypted or stored.
package commands

import (
	"time"

	apperrors "marketplace-backend/pkg/errors"
	"marketplace-backend/pkg/utils"
)

func validate(cmd interface{}) error {
	if err := utils.ValidateStruct(cmd); err != nil {
		return apperrors.NewBadRequest("Validation error: " + err.Error())
	}
	return nil
}

func requireAny(present ...bool) error {
	for _, p := range present {
		if p {
			return nil
		}
	}
	return apperrors.NewBadRequest("Validation error: at least one updatable field is required")
}

// checkCaller rejects a request whose body names an owner other than the
// authenticated caller. An empty caller means the route is unauthenticated.
func checkCaller(callerID, ownerID, field string) error {
	if callerID != "" && callerID != ownerID {
		return apperrors.NewForbidden(field + " does not match the authenticated user")
	}
	return nil
}

func parseFuture(value string, now time.Time) error {
	t, err := utils.ParseTimestamp(value)
	if err != nil {
		return apperrors.NewBadRequest("Validation error: endsAt must be an RFC3339 timestamp")
	}
	if !t.After(now) {
		return apperrors.NewBadRequest("Validation error: endsAt must be in the future")
	}
	return nil
}
