package xerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("repo: %w", Wrap(ErrBackendUnavailable, errors.New("connection refused")))

	assert.Equal(t, KindBackendUnavailable, KindOf(err))
	assert.True(t, errors.Is(err, ErrBackendUnavailable))
	assert.Equal(t, "the backend is unavailable", MessageOf(err, "fallback"))
}

func TestKindOf_ContextDeadline(t *testing.T) {
	err := fmt.Errorf("query: %w", context.DeadlineExceeded)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, "fallback", MessageOf(errors.New("boom"), "fallback"))
}

func TestValidation(t *testing.T) {
	err := Validation("phone must be %d digits", 10)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "phone must be 10 digits", err.Error())
}

func TestIs_DistinguishesSentinels(t *testing.T) {
	assert.False(t, errors.Is(ErrNotFound, ErrForbidden))
	assert.True(t, errors.Is(Wrap(ErrNotFound, errors.New("x")), ErrNotFound))
}
