// Package simdev provides a simulated libfprint for tests and examples.
//
// A Sim implements the same native surface as the libfprint-2 bindings and is
// installed through fprint.Config:
//
//	sim := simdev.New()
//	dev := sim.AddDevice(simdev.DeviceConfig{Driver: "virtual_image", EnrollStages: 3})
//	dev.Present("alice-right-index", "alice-right-index", "alice-right-index")
//
//	fp, _ := fprint.NewContextWithConfig(fprint.Config{Backend: sim})
//	defer fp.Free()
//
// # Scans
//
// A scan is a string key standing for one finger. Present queues keys; every
// operation that needs a finger takes the next one. Two prints match when they
// were built from the same key. With WaitForFinger an operation blocks on an
// empty queue until a key is presented or the operation is cancelled.
//
// # Instrumentation
//
// Every object handed out carries a reference count. Releasing a dead object,
// using one after release or freeing an error twice is recorded as a
// violation instead of crashing:
//
//	defer func() {
//	    if err := sim.Check(); err != nil {
//	        t.Fatal(err)
//	    }
//	}()
//
// Check also reports objects still alive, except the devices the Sim itself
// keeps plugged in and the prints held in their storage.
//
// # Scripting
//
// Per-device scripts inject failures (Fail, FailWithoutError), retry
// conditions during enrollment (RetryStage) and the number of match callbacks
// a verify or identify delivers (MatchCallbacks). Failure and retry scripts
// apply once, to the next matching operation; MatchCallbacks stays in effect
// until changed.
//
// Prints serialize to a versioned JSON record that only a Sim can read back.
package simdev
