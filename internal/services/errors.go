package services

import (
	"context"
	"errors"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/utils"
)

// storeErr passes AppErrors from mutate funcs through untouched and wraps
// everything else.
func storeErr(op string, err error, msg string) error {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeNotFound, op, "candidate not found", err)
	}
	return utils.E(utils.CodeInternal, op, msg, err)
}

// uploadErr maps a storage write failure. A write cut off by its deadline
// is reported as a timeout.
func uploadErr(op, msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return utils.E(utils.CodeTimeout, op, msg, err)
	}
	return utils.E(utils.CodeUnavailable, op, msg, err)
}

// detached keeps store writes alive after the caller's context ends, so a
// failure status can still be recorded.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
}
