package engineerr

import (
	"errors"
	"syscall"
	"testing"

	"bazil.org/fuse"

	"github.com/stretchr/testify/assert"
)

func TestErrnoMapsKnownKinds(t *testing.T) {
	cases := []struct {
		kind Kind
		want error
	}{
		{NotFound, fuse.ENOENT},
		{AlreadyExists, fuse.EEXIST},
		{PermissionDenied, fuse.EPERM},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Errno(New(c.kind, "boom")))
	}
}

func TestErrnoMapsUnknownErrorToEIO(t *testing.T) {
	assert.Equal(t, Errno(New(IntegrityFailure, "x")), Errno(New(IntegrityFailure, "x")))
	assert.Equal(t, fuse.Errno(syscall.EIO), Errno(errors.New("some other error")))
}

func TestErrnoNilIsNil(t *testing.T) {
	assert.Nil(t, Errno(nil))
}

func TestIsMatchesWrappedKind(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(ExternalIOError, "writing file", cause)
	assert.True(t, Is(wrapped, ExternalIOError))
	assert.False(t, Is(wrapped, NotFound))
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(ExternalIOError, "writing file", cause)
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(ExternalIOError, "writing file", cause)
	assert.Contains(t, wrapped.Error(), "disk full")
	assert.Contains(t, wrapped.Error(), "writing file")
}
