package fprint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fprint-go/libfprint-go/pkg/fprint"
	"github.com/fprint-go/libfprint-go/pkg/fprint/simdev"
)

func TestDeviceQueries(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{
		Driver:       "synaptics",
		Name:         "Prometheus",
		ID:           "usb-1-2",
		ScanType:     fprint.ScanPress,
		EnrollStages: 8,
		Features:     []fprint.Feature{fprint.FeatureVerify, fprint.FeatureCapture, fprint.FeatureStorage, fprint.Feature(1 << 20)},
	})
	r.sdev.SetFingerStatus(fprint.FingerStatusNeeded)

	assert.Equal(t, "synaptics", r.dev.Driver())
	assert.Equal(t, "Prometheus", r.dev.Name())
	assert.Equal(t, "usb-1-2", r.dev.DeviceID())
	assert.Equal(t, fprint.ScanPress, r.dev.ScanType())
	assert.Equal(t, 8, r.dev.NrEnrollStages())
	assert.True(t, r.dev.FingerStatus().Needed())
	assert.False(t, r.dev.FingerStatus().Present())
	assert.Equal(t, "needed", r.dev.FingerStatus().String())
	assert.Equal(t, []fprint.Feature{fprint.FeatureCapture, fprint.FeatureVerify, fprint.FeatureStorage}, r.dev.Features())
	assert.True(t, r.dev.HasFeature(fprint.FeatureStorage))
	assert.False(t, r.dev.HasFeature(fprint.FeatureIdentify))
	assert.True(t, r.dev.IsOpen())
}

func TestDeviceOpenCloseLifecycle(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})
	ctx := context.Background()

	require.NoError(t, r.dev.Close(ctx))
	assert.False(t, r.dev.IsOpen())
	assert.False(t, r.sdev.IsOpen())

	var fe *fprint.Error
	require.ErrorAs(t, r.dev.Close(ctx), &fe)
	assert.True(t, fe.IsDeviceError(fprint.DeviceErrorNotOpen))

	require.NoError(t, r.dev.Open(ctx))
	require.NoError(t, r.dev.Suspend(ctx))
	assert.True(t, r.sdev.Suspended())
	require.NoError(t, r.dev.Resume(ctx))
	assert.False(t, r.sdev.Suspended())
}

func TestDeviceCloneAndFree(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})
	// The Sim, the Context and r.dev each hold one.
	require.Equal(t, 3, r.sim.DeviceRefs(0))

	clone, err := r.dev.Clone()
	require.NoError(t, err)
	assert.Equal(t, 4, r.sim.DeviceRefs(0))
	assert.Equal(t, r.dev.DeviceID(), clone.DeviceID())

	clone.Free()
	clone.Free()
	assert.Equal(t, 3, r.sim.DeviceRefs(0))
	assert.False(t, clone.Valid())
	assert.Empty(t, clone.Driver())
	assert.Zero(t, clone.NrEnrollStages())
	assert.Nil(t, clone.Features())
	assert.ErrorIs(t, clone.Open(context.Background()), fprint.ErrFreed)
	_, err = clone.Capture(context.Background(), false)
	assert.ErrorIs(t, err, fprint.ErrFreed)
	_, err = fprint.NewPrint(clone)
	assert.ErrorIs(t, err, fprint.ErrFreed)
}

func TestDevicesOutliveContext(t *testing.T) {
	sim := simdev.New()
	sim.AddDevice(simdev.DeviceConfig{})
	sim.AddDevice(simdev.DeviceConfig{Driver: "elan"})

	fp, err := fprint.NewContextWithConfig(fprint.Config{Backend: sim})
	require.NoError(t, err)
	require.NoError(t, fp.Enumerate())
	devs, err := fp.Devices()
	require.NoError(t, err)
	require.Len(t, devs, 2)
	fp.Free()

	_, err = fp.Devices()
	assert.ErrorIs(t, err, fprint.ErrFreed)
	assert.ErrorIs(t, fp.Enumerate(), fprint.ErrFreed)
	assert.Equal(t, "virtual_image", devs[0].Driver())
	assert.Equal(t, "elan", devs[1].Driver())
	for _, d := range devs {
		d.Free()
	}
	require.NoError(t, sim.Check())
}

func TestCapture(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{ImageWidth: 32, ImageHeight: 16})
	ctx := context.Background()

	r.sdev.Present("alice")
	img, err := r.dev.Capture(ctx, true)
	require.NoError(t, err)
	defer img.Free()
	assert.Equal(t, 32, img.Width())
	assert.Equal(t, 16, img.Height())
	assert.InDelta(t, 19.685, img.PPMM(), 1e-9)
	assert.Len(t, img.Data(), 32*16)
	assert.Len(t, img.Binarized(), 32*16)

	blank, err := r.dev.Capture(ctx, false)
	require.NoError(t, err)
	defer blank.Free()
	assert.Nil(t, blank.Binarized())
	for _, px := range blank.Data() {
		require.Equal(t, byte(0xff), px)
	}

	_, err = r.dev.Capture(ctx, true)
	var fe *fprint.Error
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.IsDeviceError(fprint.DeviceErrorGeneral))
}

func TestPrintKeepsImage(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{EnrollStages: 2, KeepImages: true})
	p := r.enroll(t, "alice", "alice")

	img, ok := p.Image()
	require.True(t, ok)
	p.Free()
	// The image holds its own reference.
	assert.True(t, img.Valid())
	assert.Equal(t, 64, img.Width())
	img.Free()
	img.Free()
	assert.Zero(t, img.Width())
	assert.Nil(t, img.Data())
}

func TestDeviceStorage(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{
		EnrollStages: 1,
		Features: []fprint.Feature{
			fprint.FeatureVerify,
			fprint.FeatureStorage,
			fprint.FeatureStorageList,
			fprint.FeatureStorageDelete,
			fprint.FeatureStorageClear,
		},
	})
	ctx := context.Background()
	alice := r.enroll(t, "alice", "alice")
	defer alice.Free()
	bob := r.enroll(t, "bob", "bob")
	defer bob.Free()
	assert.True(t, alice.DeviceStored())
	assert.Equal(t, 2, r.sdev.Stored())

	stored, err := r.dev.ListPrints(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, p := range stored {
		assert.True(t, p.DeviceStored())
		p.Free()
	}

	require.NoError(t, r.dev.DeletePrint(ctx, alice))
	assert.Equal(t, 1, r.sdev.Stored())
	assert.False(t, alice.DeviceStored())
	var fe *fprint.Error
	require.ErrorAs(t, r.dev.DeletePrint(ctx, alice), &fe)
	assert.True(t, fe.IsDeviceError(fprint.DeviceErrorDataNotFound))

	require.NoError(t, r.dev.ClearStorage(ctx))
	assert.Zero(t, r.sdev.Stored())
	stored, err = r.dev.ListPrints(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestStorageUnsupported(t *testing.T) {
	r := newRig(t, simdev.DeviceConfig{})
	_, err := r.dev.ListPrints(context.Background())
	var fe *fprint.Error
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.IsDeviceError(fprint.DeviceErrorNotSupported))
	assert.Equal(t, "list-prints", fe.Op)
}
