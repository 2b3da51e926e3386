package fprint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fprint-go/libfprint-go/pkg/fprint"
	"github.com/fprint-go/libfprint-go/pkg/fprint/simdev"
)

func TestIdentifyHit(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 1})
	alice := r.enroll(t, "alice", "alice")
	defer alice.Free()
	bob := r.enroll(t, "bob", "bob")
	defer bob.Free()

	r.sdev.Present("bob")
	var matched string
	res, err := r.dev.Identify(context.Background(), &fprint.IdentifyParams{
		Prints:   []*fprint.Print{alice, bob},
		KeepScan: true,
		Match: func(_ *fprint.Device, match, scan *fprint.Print, err error) {
			assert.NoError(t, err)
			assert.NotNil(t, match)
			matched, _ = match.Username()
			match.Free()
			scan.Free()
		},
	})
	require.NoError(t, err)
	defer res.Free()

	assert.Equal(t, "bob", matched)
	assert.Equal(t, 1, res.Index)
	require.NotNil(t, res.Match)
	assert.True(t, res.Match.Equal(bob))
	require.NotNil(t, res.Scan)
	assert.True(t, alice.Valid())
	assert.True(t, bob.Valid())
}

func TestIdentifyMiss(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 1})
	alice := r.enroll(t, "alice", "alice")
	defer alice.Free()
	bob := r.enroll(t, "bob", "bob")
	defer bob.Free()

	r.sdev.Present("carol")
	var calls int
	res, err := r.dev.Identify(context.Background(), &fprint.IdentifyParams{
		Prints: []*fprint.Print{alice, bob},
		Match: func(_ *fprint.Device, match, scan *fprint.Print, _ error) {
			calls++
			assert.Nil(t, match)
			scan.Free()
		},
	})
	require.NoError(t, err)
	defer res.Free()

	assert.Equal(t, 1, calls)
	assert.Nil(t, res.Match)
	assert.Equal(t, -1, res.Index)
	assert.Nil(t, res.Scan)

	c := r.sim.Counters()
	assert.Equal(t, 1, c.GalleriesCreated)
	assert.Equal(t, 1, c.GalleriesFreed)
}

func TestIdentifyFailureFreesGallery(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 1})
	alice := r.enroll(t, "alice", "alice")
	defer alice.Free()
	r.sdev.Fail(simdev.OpIdentify, fprint.DeviceErrorBusy, "Device is busy")

	res, err := r.dev.Identify(context.Background(), &fprint.IdentifyParams{
		Prints: []*fprint.Print{alice},
		Match: func(*fprint.Device, *fprint.Print, *fprint.Print, error) {
			t.Error("match callback on failed identify")
		},
	})
	assert.Nil(t, res)
	var fe *fprint.Error
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.IsDeviceError(fprint.DeviceErrorBusy))

	c := r.sim.Counters()
	assert.Equal(t, c.GalleriesCreated, c.GalleriesFreed)
	assert.Equal(t, c.ErrorsCreated, c.ErrorsFreed)
}

func TestIdentifyRejectsConsumedCandidate(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 1})
	alice := r.enroll(t, "alice", "alice")
	alice.Free()

	_, err := r.dev.Identify(context.Background(), &fprint.IdentifyParams{Prints: []*fprint.Print{alice}})
	assert.ErrorIs(t, err, fprint.ErrPrintConsumed)
	assert.Zero(t, r.sim.Counters().GalleriesCreated)
}

func TestMatchCallbackNeverFired(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 1})
	alice := r.enroll(t, "alice", "alice")
	defer alice.Free()
	r.sdev.MatchCallbacks(0)

	r.sdev.Present("alice")
	res, err := r.dev.Verify(context.Background(), &fprint.VerifyParams{
		Print: alice,
		Match: func(*fprint.Device, *fprint.Print, *fprint.Print, error) {
			t.Error("unexpected match callback")
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Matched)
}

func TestMatchCallbackDeliveredOnce(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 1})
	alice := r.enroll(t, "alice", "alice")
	defer alice.Free()
	r.sdev.MatchCallbacks(2)

	r.sdev.Present("alice")
	var calls int
	res, err := r.dev.Verify(context.Background(), &fprint.VerifyParams{
		Print: alice,
		Match: func(_ *fprint.Device, match, scan *fprint.Print, _ error) {
			calls++
			match.Free()
			scan.Free()
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 1, calls)
}

func TestVerifyMatchPanicPropagates(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 1})
	alice := r.enroll(t, "alice", "alice")
	defer alice.Free()

	r.sdev.Present("alice")
	assert.PanicsWithValue(t, "match boom", func() {
		_, _ = r.dev.Verify(context.Background(), &fprint.VerifyParams{
			Print:    alice,
			KeepScan: true,
			Match: func(_ *fprint.Device, match, scan *fprint.Print, _ error) {
				match.Free()
				scan.Free()
				panic("match boom")
			},
		})
	})
	assert.True(t, alice.Valid())
}

func TestVerifyRequiresFeature(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 1, Features: []fprint.Feature{fprint.FeatureIdentify}})
	alice := r.enroll(t, "alice", "alice")
	defer alice.Free()

	_, err := r.dev.Verify(context.Background(), &fprint.VerifyParams{Print: alice})
	var fe *fprint.Error
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.IsDeviceError(fprint.DeviceErrorNotSupported))

	_, err = r.dev.Verify(context.Background(), nil)
	assert.ErrorIs(t, err, fprint.ErrNilParams)
}
