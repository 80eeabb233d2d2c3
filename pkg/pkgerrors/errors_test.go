package pkgerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRecoverable_KnownKinds(t *testing.T) {
	for _, kind := range []Kind{BadArgument, NotFound, ShapeError, TransportError, MissingKey} {
		err := New(kind, "op", "boom")
		assert.True(t, IsRecoverable(err), "kind %s should be recoverable", kind)
	}
}

func TestIsRecoverable_NonTaggedErrorIsFatal(t *testing.T) {
	assert.False(t, IsRecoverable(errors.New("unexpected")))
}

func TestIs(t *testing.T) {
	err := New(NotFound, "op", "no cluster")
	assert.True(t, Is(err, NotFound))
	assert.False(t, Is(err, ShapeError))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("network down")
	err := Wrap(TransportError, "op", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}
