package usbscan

import "testing"

const sampleListing = `Bus 002 Device 001: ID 1d6b:0003 Linux Foundation 3.0 root hub
Bus 008 Device 002: ID 0d28:0204 ARM DAPLink CMSIS-DAP
Bus 001 Device 003: ID 2e8a:000c Raspberry Pi Picoprobe (CMSIS-DAP)
Bus 001 Device 001: ID 1d6b:0002 Linux Foundation 2.0 root hub
`

func TestParseListing(t *testing.T) {
	devs, err := ParseListing(sampleListing)
	if err != nil {
		t.Fatalf("ParseListing returned error: %v", err)
	}
	if len(devs) != 4 {
		t.Fatalf("parsed %d devices, want 4", len(devs))
	}

	probe := devs[1]
	if probe.VendorID != 0x0d28 || probe.ProductID != 0x0204 {
		t.Errorf("device ID = %s, want 0d28:0204", probe.ID())
	}
	if probe.Description != "ARM DAPLink CMSIS-DAP" {
		t.Errorf("description = %q", probe.Description)
	}

	pico := devs[2]
	if pico.Description != "Raspberry Pi Picoprobe (CMSIS-DAP)" {
		t.Errorf("description with punctuation mangled: %q", pico.Description)
	}
}

func TestParseListingEmpty(t *testing.T) {
	devs, err := ParseListing("")
	if err != nil {
		t.Fatalf("ParseListing(\"\") returned error: %v", err)
	}
	if len(devs) != 0 {
		t.Fatalf("parsed %d devices from empty input", len(devs))
	}
}

func TestParseListingCRLFAndBlankLines(t *testing.T) {
	in := "\r\nBus 001 Device 002: ID 0d28:0204 ARM DAPLink CMSIS-DAP\r\n\r\n"
	devs, err := ParseListing(in)
	if err != nil {
		t.Fatalf("ParseListing returned error: %v", err)
	}
	if len(devs) != 1 || devs[0].ID() != "0d28:0204" {
		t.Fatalf("unexpected devices: %v", devs)
	}
}

func TestParseListingNoTrailingNewline(t *testing.T) {
	devs, err := ParseListing("Bus 001 Device 002: ID 1366:0101 SEGGER J-Link")
	if err != nil {
		t.Fatalf("ParseListing returned error: %v", err)
	}
	if len(devs) != 1 || devs[0].Description != "SEGGER J-Link" {
		t.Fatalf("unexpected devices: %v", devs)
	}
}

func TestParseListingMissingDescription(t *testing.T) {
	devs, err := ParseListing("Bus 001 Device 002: ID abcd:ef01\n")
	if err != nil {
		t.Fatalf("ParseListing returned error: %v", err)
	}
	if len(devs) != 1 || devs[0].Description != "" {
		t.Fatalf("unexpected devices: %v", devs)
	}
	if devs[0].VendorID != 0xabcd || devs[0].ProductID != 0xef01 {
		t.Fatalf("hex ID parsed wrong: %s", devs[0].ID())
	}
}

func TestParseListingRejectsGarbage(t *testing.T) {
	if _, err := ParseListing("not a usb listing\n"); err == nil {
		t.Fatal("expected parse error for malformed input")
	}
}
