package usbscan

import (
	"context"

	"github.com/google/gousb"
	"github.com/google/gousb/usbid"
)

// HostEnumerator walks the USB bus through the host's native stack. A fresh
// gousb context is opened per scan so hot-plugged devices are always seen.
type HostEnumerator struct{}

// NewHostEnumerator returns the native backend.
func NewHostEnumerator() *HostEnumerator { return &HostEnumerator{} }

// Enumerate lists attached devices without opening any of them. Descriptions
// come from the bundled USB ID database, matching what lsusb would print.
func (h *HostEnumerator) Enumerate(ctx context.Context) ([]Device, error) {
	usb := gousb.NewContext()
	defer usb.Close()

	var devs []Device
	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		devs = append(devs, Device{
			VendorID:    uint16(desc.Vendor),
			ProductID:   uint16(desc.Product),
			Description: usbid.Describe(desc),
		})
		return false
	})
	// Access errors on individual devices are expected for unprivileged
	// users; the descriptors were still read.
	if err != nil && err != gousb.ErrorAccess {
		return nil, &EnvError{Backend: "usb", Err: err}
	}
	if err := ctx.Err(); err != nil {
		// A scan cut short must not be mistaken for an empty bus.
		return nil, &EnvError{Backend: "usb", Err: err}
	}
	return devs, nil
}
