package usbscan

import "context"

// EnumerateHook lets a simulated bus compute its answer per scan.
type EnumerateHook func(ctx context.Context) ([]Device, error)

// SimEnumerator is an in-memory bus useful for unit tests and for exercising
// the CLI without hardware. It serves a fixed device list, or whatever
// OnEnumerate decides, and counts how often it was scanned.
type SimEnumerator struct {
	Devices []Device
	Err     error

	OnEnumerate EnumerateHook

	scans int
}

// NewSimEnumerator constructs a simulator serving the given devices.
func NewSimEnumerator(devs ...Device) *SimEnumerator {
	return &SimEnumerator{Devices: devs}
}

// Scans reports how many enumerations have been requested.
func (s *SimEnumerator) Scans() int { return s.scans }

// ResetCounts clears the scan counter.
func (s *SimEnumerator) ResetCounts() { s.scans = 0 }

func (s *SimEnumerator) Enumerate(ctx context.Context) ([]Device, error) {
	s.scans++
	if s.OnEnumerate != nil {
		return s.OnEnumerate(ctx)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]Device(nil), s.Devices...), nil
}
