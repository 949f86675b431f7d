// Package usbscan answers one question: is the expected debug probe
// attached right now? Enumeration is repeated on every call so the answer
// tracks hardware being plugged and unplugged between invocations.
package usbscan

import (
	"context"
	"fmt"
	"strings"
)

// Device is one enumerated USB device.
type Device struct {
	VendorID    uint16
	ProductID   uint16
	Description string
}

// ID renders the vendor:product pair the way lsusb prints it.
func (d Device) ID() string {
	return fmt.Sprintf("%04x:%04x", d.VendorID, d.ProductID)
}

// Label returns a user-friendly description for the device.
func (d Device) Label() string {
	if d.Description != "" {
		return fmt.Sprintf("%s %s", d.ID(), d.Description)
	}
	return d.ID()
}

// Match describes the probe we expect to find. A device matches on an
// exact vendor:product pair or on any description keyword, so a probe that
// re-enumerates with a different product ID (bootloader mode) is still
// recognized by name.
type Match struct {
	VendorID  uint16
	ProductID uint16
	Keywords  []string
}

// DefaultMatch recognizes DAPLink probes, which is what the BearPi-Pico
// boards present on their debug port.
func DefaultMatch() Match {
	return Match{
		VendorID:  0x0d28,
		ProductID: 0x0204,
		Keywords:  []string{"CMSIS-DAP", "DAPLink"},
	}
}

// Matches reports whether d satisfies the match criteria.
func (m Match) Matches(d Device) bool {
	if (m.VendorID != 0 || m.ProductID != 0) &&
		d.VendorID == m.VendorID && d.ProductID == m.ProductID {
		return true
	}
	for _, kw := range m.Keywords {
		if kw != "" && strings.Contains(strings.ToLower(d.Description), strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (m Match) String() string {
	var parts []string
	if m.VendorID != 0 || m.ProductID != 0 {
		parts = append(parts, fmt.Sprintf("%04x:%04x", m.VendorID, m.ProductID))
	}
	for _, kw := range m.Keywords {
		parts = append(parts, fmt.Sprintf("%q", kw))
	}
	if len(parts) == 0 {
		return "any device"
	}
	return strings.Join(parts, " or ")
}

// Enumerator lists the USB devices currently attached to the host.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]Device, error)
}

// Present reports whether a device matching m is attached. Absence is a
// normal answer, not an error: (false, nil) means the bus was enumerated
// and nothing matched. An error means the enumeration itself failed and
// nothing can be concluded about the hardware.
func Present(ctx context.Context, e Enumerator, m Match) (bool, error) {
	devs, err := e.Enumerate(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range devs {
		if m.Matches(d) {
			return true, nil
		}
	}
	return false, nil
}

// Find returns every attached device matching m.
func Find(ctx context.Context, e Enumerator, m Match) ([]Device, error) {
	devs, err := e.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	var hits []Device
	for _, d := range devs {
		if m.Matches(d) {
			hits = append(hits, d)
		}
	}
	return hits, nil
}

// EnvError reports that the enumeration subsystem itself was unusable,
// as opposed to a device being absent.
type EnvError struct {
	Backend string
	Err     error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("usb enumeration via %s failed: %v", e.Backend, e.Err)
}

func (e *EnvError) Unwrap() error { return e.Err }
