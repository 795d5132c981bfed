package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"Nil", nil, nil},
		{"DeadlineExceeded", context.DeadlineExceeded, ErrTimeout},
		{"WrappedDeadline", fmt.Errorf("get torrents: %w", context.DeadlineExceeded), ErrTimeout},
		{"Unauthorized", errors.New("unexpected status: 401 unauthorized"), ErrAuthFailed},
		{"Forbidden", errors.New("forbidden"), ErrAuthFailed},
		{"ConnectionRefused", errors.New("dial tcp: connection refused"), ErrUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyRepeatedAuthFailureStaysUnreachable(t *testing.T) {
	// a call that failed on auth even after re-login comes in already marked
	err := errors.Join(ErrUnreachable, errors.New("unexpected status: 403 forbidden"))

	got := classify(err)
	assert.ErrorIs(t, got, ErrUnreachable)
	assert.NotErrorIs(t, got, ErrAuthFailed)
}

func TestClassifyPreservesOriginalMessage(t *testing.T) {
	err := classify(errors.New("dial tcp 10.0.0.1:8080: connection refused"))
	assert.Contains(t, err.Error(), "10.0.0.1:8080")
}

func TestIsAuthError(t *testing.T) {
	assert.False(t, isAuthError(nil))
	assert.True(t, isAuthError(errors.New("403 Forbidden")))
	assert.True(t, isAuthError(errors.New("Unauthorized")))
	assert.False(t, isAuthError(errors.New("connection reset")))
}
