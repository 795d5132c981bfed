package client

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Failure taxonomy of the instance boundary. Unreachable covers network and
// repeated auth failures and holds for the current cycle only; the instance
// is retried on the next cycle.
var (
	ErrUnreachable = errors.New("instance unreachable")
	ErrAuthFailed  = errors.New("authentication failed")
	ErrTimeout     = errors.New("request timed out")
)

func isAuthError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "forbidden")
}

// classify maps a raw client error onto the taxonomy, preserving the
// original message.
func classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrUnreachable):
		// already settled, a repeated auth failure stays unreachable
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return join(ErrTimeout, err)
	case isAuthError(err):
		return join(ErrAuthFailed, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return join(ErrTimeout, err)
	}

	return join(ErrUnreachable, err)
}

func join(sentinel, err error) error {
	return errors.Join(sentinel, err)
}
