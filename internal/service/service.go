// Package service holds the storefront business rules. Every method returns
// an *apperr.Error (or an error apperr.From can classify) on failure.
package service

import (
	"context"
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// TokenCache stores forget-password tokens with a fixed TTL.
type TokenCache interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// lookup turns models.ErrNotFound into a business failure with msg and wraps
// anything else as internal.
func lookup(err error, msg string) error {
	if errors.Is(err, models.ErrNotFound) {
		return apperr.Fail(msg)
	}
	return apperr.Wrap(err, msg)
}
