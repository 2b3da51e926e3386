package fprint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fprint-go/libfprint-go/pkg/fprint"
	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
	"github.com/fprint-go/libfprint-go/pkg/fprint/simdev"
)

type rig struct {
	sim  *simdev.Sim
	sdev *simdev.Device
	fp   *fprint.Context
	dev  *fprint.Device
}

// newRig plugs one simulated reader, opens it and registers a cleanup that
// fails the test on any leak, contract violation or stale callback context.
func newRig(t *testing.T, cfg simdev.DeviceConfig) *rig {
	t.Helper()
	return newRigWithConfig(t, cfg, fprint.Config{})
}

func newRigWithConfig(t *testing.T, cfg simdev.DeviceConfig, fc fprint.Config) *rig {
	t.Helper()
	baseline := backend.Live()
	sim := simdev.New()
	sdev := sim.AddDevice(cfg)

	fc.Backend = sim
	fp, err := fprint.NewContextWithConfig(fc)
	require.NoError(t, err)
	devs, err := fp.Devices()
	require.NoError(t, err)
	require.Len(t, devs, 1)
	dev := devs[0]
	require.NoError(t, dev.Open(context.Background()))

	t.Cleanup(func() {
		dev.Free()
		fp.Free()
		require.NoError(t, sim.Check())
		require.Equal(t, baseline, backend.Live(), "callback contexts left registered")
	})
	return &rig{sim: sim, sdev: sdev, fp: fp, dev: dev}
}

// enroll presents key for every stage and enrolls a print for username.
func (r *rig) enroll(t *testing.T, username, key string) *fprint.Print {
	t.Helper()
	for i := 0; i < r.dev.NrEnrollStages(); i++ {
		r.sdev.Present(key)
	}
	tmpl, err := fprint.NewPrint(r.dev)
	require.NoError(t, err)
	require.NoError(t, tmpl.SetFinger(fprint.FingerRightIndex))
	require.NoError(t, tmpl.SetUsername(username))
	p, err := r.dev.Enroll(context.Background(), &fprint.EnrollParams{Template: tmpl})
	require.NoError(t, err)
	return p
}
