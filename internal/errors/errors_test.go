package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"codeberg.org/mutker/serialstat/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	f := errors.New()

	assert.Equal(t, "Failed to open serial port", f.New(errors.ErrOpen).Error())
	assert.Equal(t, "Failed to open serial port: busy", f.Wrap(errors.ErrOpen, stderrors.New("busy")).Error())
	assert.Equal(t, "Failed to write frame: /dev/ttyUSB0", f.WithData(errors.ErrWrite, "/dev/ttyUSB0").Error())
	assert.Equal(t, "custom", f.WithMessage(errors.ErrWrite, "custom").Error())
}

func TestHasCode(t *testing.T) {
	f := errors.New()
	root := stderrors.New("permission denied")
	inner := f.Wrap(errors.ErrDiscovery, root)
	outer := f.Wrap(errors.ErrOpen, inner)

	assert.True(t, errors.HasCode(outer, errors.ErrOpen))
	assert.True(t, errors.HasCode(outer, errors.ErrDiscovery))
	assert.False(t, errors.HasCode(outer, errors.ErrWrite))
	assert.True(t, errors.Is(outer, root))

	wrapped := fmt.Errorf("context: %w", f.New(errors.ErrOperatorAbort))
	assert.True(t, errors.HasCode(wrapped, errors.ErrOperatorAbort))
	assert.False(t, errors.HasCode(nil, errors.ErrOperatorAbort))
	assert.False(t, errors.HasCode(root, errors.ErrOperatorAbort))
}
