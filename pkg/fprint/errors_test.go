package fprint_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fprint-go/libfprint-go/pkg/fprint"
	"github.com/fprint-go/libfprint-go/pkg/fprint/simdev"
)

func TestNativeErrorsCopiedAndReleased(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})
	const n = 5
	for i := 1; i <= n; i++ {
		msg := fmt.Sprintf("boom %d", i)
		r.sdev.FailWith(simdev.OpOpen, "my-domain", i, msg)
		err := r.dev.Open(context.Background())

		var fe *fprint.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "open", fe.Op)
		assert.Equal(t, "my-domain", fe.Domain)
		assert.Equal(t, i, fe.Code)
		assert.Equal(t, msg, fe.Message)
		assert.Equal(t, fprint.KindNative, fe.Kind)
		assert.Equal(t, fmt.Sprintf("fprint: open: %s (my-domain %d)", msg, i), fe.Error())
	}

	c := r.sim.Counters()
	assert.Equal(t, n, c.ErrorsCreated)
	assert.Equal(t, n, c.ErrorsFreed)
}

func TestFailureWithoutNativeError(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})
	r.sdev.FailWithoutError(simdev.OpClose)

	err := r.dev.Close(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fprint.ErrUnknownFailure)
	assert.NotErrorIs(t, err, fprint.ErrCancelled)

	var fe *fprint.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fprint.KindUnknown, fe.Kind)
	assert.Empty(t, fe.Domain)
	assert.Equal(t, "fprint: close: unknown failure", fe.Error())
	assert.Zero(t, r.sim.Counters().ErrorsCreated)
}

func TestDeviceErrorHelpers(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})

	err := r.dev.Open(context.Background())
	var fe *fprint.Error
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.IsDeviceError(fprint.DeviceErrorAlreadyOpen))
	assert.False(t, fe.IsDeviceError(fprint.DeviceErrorNotOpen))
	assert.False(t, fe.IsRetry())
	_, ok := fe.Retry()
	assert.False(t, ok)

	var none *fprint.Error
	assert.False(t, none.IsDeviceError(fprint.DeviceErrorGeneral))
	assert.False(t, none.IsRetry())
}

func TestErrorKindMatching(t *testing.T) {
	cases := []struct {
		kind   fprint.Kind
		target error
		name   string
	}{
		{fprint.KindCancelled, fprint.ErrCancelled, "cancelled"},
		{fprint.KindUnknown, fprint.ErrUnknownFailure, "unknown"},
		{fprint.KindDecode, fprint.ErrDecode, "decode"},
		{fprint.KindNative, nil, "native"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &fprint.Error{Op: "x", Kind: tc.kind})
			assert.Equal(t, tc.name, tc.kind.String())
			for _, other := range []error{fprint.ErrCancelled, fprint.ErrUnknownFailure, fprint.ErrDecode} {
				assert.Equal(t, other == tc.target, errors.Is(err, other), "target %v", other)
			}
		})
	}
	assert.Equal(t, "Kind(42)", fprint.Kind(42).String())
}
