package rng

import "errors"

// ErrUnknownType is returned by Source.SetType for a name outside the
// recognized set {mt, minstd, ranlux24, ranlux48, device}.
var ErrUnknownType = errors.New("rng: unknown generator type")

// ErrDeviceEntropyUnavailable is returned by Source.SetType(Device) when
// the OS entropy source cannot be used.
var ErrDeviceEntropyUnavailable = errors.New("rng: os entropy source unavailable")
