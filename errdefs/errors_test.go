package errdefs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestInvalidArgument(t *testing.T) {
	err := ErrInvalidArgument("bad port in %q", "host:nope")
	assert.True(t, IsErrInvalidArgument(err))
	assert.False(t, IsErrNotFound(err))
	assert.Equal(t, `invalid argument: bad port in "host:nope"`, err.Error())
}

func TestNotFound(t *testing.T) {
	err := ErrNotFound("no entry for 127.0.0.1:7100")
	assert.True(t, IsErrNotFound(err))
	assert.False(t, IsErrInvalidArgument(err))
}

func TestNetworkCarriesUnderlying(t *testing.T) {
	underlying := errors.New("lookup nosuchhost: no such host")
	err := ErrNetwork(underlying, "unable to resolve address %q", "nosuchhost")
	require.True(t, IsErrNetwork(err))
	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "no such host")

	_, ok := Errno(err)
	assert.False(t, ok, "no errno should be extracted from a plain error")
}

func TestNetworkErrno(t *testing.T) {
	err := ErrNetwork(unix.EINTR, "unable to determine local hostname")
	require.True(t, IsErrNetwork(err))

	errno, ok := Errno(err)
	require.True(t, ok, "errno should be extracted from a syscall error")
	assert.Equal(t, unix.EINTR, errno)
	assert.Contains(t, err.Error(), "errno 4")
}

func TestResourceExhausted(t *testing.T) {
	err := ErrResourceExhausted("port", "no free port between %d and %d", 40000, 65535)
	assert.True(t, IsErrResourceExhausted(err))
	assert.Equal(t, "resource port is exhausted: no free port between 40000 and 65535", err.Error())
}

func TestPredicatesUnwrap(t *testing.T) {
	err := errors.Wrap(ErrNotFound("gone"), "while pruning address list")
	assert.True(t, IsErrNotFound(err), "predicate should see through wrapping")

	err = errors.Wrap(ErrResourceExhausted("port", "range busy"), "allocating test port")
	assert.True(t, IsErrResourceExhausted(err))
}
