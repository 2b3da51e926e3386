package fprint_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fprint-go/libfprint-go/pkg/fprint"
	"github.com/fprint-go/libfprint-go/pkg/fprint/simdev"
)

func TestPrintSerializeRoundTrip(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 1})
	alice := r.enroll(t, "alice", "alice")
	defer alice.Free()
	require.NoError(t, alice.SetDescription("front door"))
	require.NoError(t, alice.SetEnrollDate(time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC)))

	data, err := alice.Serialize()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("SIMFP1\n")))

	loaded, err := r.fp.DeserializePrint(data)
	require.NoError(t, err)
	defer loaded.Free()

	assert.True(t, loaded.Equal(alice))
	assert.True(t, loaded.Compatible(r.dev))
	assert.Equal(t, fprint.FingerRightIndex, loaded.Finger())
	username, ok := loaded.Username()
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
	description, _ := loaded.Description()
	assert.Equal(t, "front door", description)
	date, ok := loaded.EnrollDate()
	assert.True(t, ok)
	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), date)

	c := r.sim.Counters()
	assert.Equal(t, 1, c.BuffersCreated)
	assert.Equal(t, 1, c.BuffersFreed)
}

func TestSerializePlaceholderFails(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})
	tmpl, err := fprint.NewPrint(r.dev)
	require.NoError(t, err)
	defer tmpl.Free()

	_, err = tmpl.Serialize()
	var fe *fprint.Error
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.IsDeviceError(fprint.DeviceErrorDataInvalid))
	assert.Zero(t, r.sim.Counters().BuffersCreated)
}

func TestDeserializeGarbage(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})
	for _, data := range [][]byte{nil, []byte("garbage"), []byte("SIMFP1\n{")} {
		p, err := r.fp.DeserializePrint(data)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, fprint.ErrDecode)
		var fe *fprint.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, fprint.KindDecode, fe.Kind)
		assert.Equal(t, "deserialize", fe.Op)
	}
	c := r.sim.Counters()
	assert.Equal(t, c.ErrorsCreated, c.ErrorsFreed)
}

func TestPlaceholderMetadata(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})
	tmpl, err := fprint.NewPrint(r.dev)
	require.NoError(t, err)
	defer tmpl.Free()

	_, ok := tmpl.Username()
	assert.False(t, ok)
	_, ok = tmpl.EnrollDate()
	assert.False(t, ok)
	assert.Equal(t, fprint.FingerUnknown, tmpl.Finger())
	assert.Equal(t, r.dev.Driver(), tmpl.Driver())
	_, ok = tmpl.Image()
	assert.False(t, ok)

	require.NoError(t, tmpl.SetFinger(fprint.FingerLeftThumb))
	require.NoError(t, tmpl.SetUsername(""))
	username, ok := tmpl.Username()
	assert.True(t, ok)
	assert.Empty(t, username)
	assert.Equal(t, fprint.FingerLeftThumb, tmpl.Finger())
	assert.False(t, tmpl.Equal(tmpl), "placeholders carry no template data")
}

func TestFreedPrint(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})
	p, err := fprint.NewPrint(r.dev)
	require.NoError(t, err)
	p.Free()
	p.Free()

	assert.False(t, p.Valid())
	assert.Empty(t, p.Driver())
	assert.Empty(t, p.DeviceID())
	assert.False(t, p.DeviceStored())
	assert.Equal(t, fprint.FingerUnknown, p.Finger())
	assert.False(t, p.Compatible(r.dev))
	assert.ErrorIs(t, p.SetFinger(fprint.FingerLeftIndex), fprint.ErrPrintConsumed)
	assert.ErrorIs(t, p.SetDescription("x"), fprint.ErrPrintConsumed)
	assert.ErrorIs(t, p.SetEnrollDate(time.Now()), fprint.ErrPrintConsumed)
	_, err = p.Serialize()
	assert.ErrorIs(t, err, fprint.ErrPrintConsumed)
	_, err = p.Clone()
	assert.ErrorIs(t, err, fprint.ErrPrintConsumed)

	var nilPrint *fprint.Print
	assert.False(t, nilPrint.Valid())
	nilPrint.Free()
}
