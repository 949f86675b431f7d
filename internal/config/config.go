package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aetherlink/aetherprov/pkg/firmware"
	"github.com/aetherlink/aetherprov/pkg/provision"
	"github.com/aetherlink/aetherprov/pkg/usbscan"
)

// Config represents an aetherprov.yaml configuration file. Every value is
// optional; missing keys keep the defaults below. The config can point the
// tool at different binaries, scripts and timeouts, but it cannot define
// new roles: the role set is fixed in the target table.
type Config struct {
	Workspace string        `yaml:"workspace"`
	Triple    string        `yaml:"triple"`
	Profile   string        `yaml:"profile"`
	Cargo     CargoConfig   `yaml:"cargo"`
	OpenOCD   OpenOCDConfig `yaml:"openocd"`
	Probe     ProbeConfig   `yaml:"probe"`
	Timeouts  TimeoutConfig `yaml:"timeouts"`
	Build     BuildConfig   `yaml:"build"`
	Export    ExportConfig  `yaml:"export"`
}

// CargoConfig names the Rust toolchain entry point.
type CargoConfig struct {
	Bin string `yaml:"bin"`
}

// OpenOCDConfig names the programmer binary and its scripts. Interface and
// Target, when set, override the per-role defaults from the target table.
type OpenOCDConfig struct {
	Bin        string `yaml:"bin"`
	SearchPath string `yaml:"search_path"`
	Interface  string `yaml:"interface"`
	Target     string `yaml:"target"`
}

// ProbeConfig describes how to find the debug probe on the USB bus.
type ProbeConfig struct {
	Backend   string   `yaml:"backend"` // usb, lsusb or sim
	VendorID  string   `yaml:"vendor_id"`
	ProductID string   `yaml:"product_id"`
	Keywords  []string `yaml:"keywords"`
	LsusbBin  string   `yaml:"lsusb_bin"`
}

// TimeoutConfig bounds the external steps.
type TimeoutConfig struct {
	Scan  Duration `yaml:"scan"`
	Flash Duration `yaml:"flash"`
	Build Duration `yaml:"build"`
}

// BuildConfig holds build defaults; the --parallel flag overrides.
type BuildConfig struct {
	Parallel bool `yaml:"parallel"`
}

// ExportConfig holds defaults for export bundles.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "5s", "2m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "5s" or "1m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration for a stock BearPi-Pico H2821 setup
// with tools on PATH and the firmware workspace in the current directory.
func Default() *Config {
	return &Config{
		Workspace: ".",
		Triple:    firmware.DefaultTriple,
		Profile:   firmware.DefaultProfile,
		Cargo:     CargoConfig{Bin: "cargo"},
		OpenOCD:   OpenOCDConfig{Bin: "openocd"},
		Probe: ProbeConfig{
			Backend:   "usb",
			VendorID:  "0d28",
			ProductID: "0204",
			Keywords:  []string{"CMSIS-DAP", "DAPLink"},
			LsusbBin:  "lsusb",
		},
		Timeouts: TimeoutConfig{
			Scan:  Duration{provision.DefaultScanTimeout},
			Flash: Duration{provision.DefaultFlashTimeout},
			Build: Duration{provision.DefaultBuildTimeout},
		},
		Export: ExportConfig{Dir: "dist"},
	}
}

// Layout returns the artifact layout this config describes.
func (c *Config) Layout() firmware.Layout {
	return firmware.Layout{WorkspaceDir: c.Workspace, Triple: c.Triple, Profile: c.Profile}
}

// Descriptor resolves a role's target descriptor with the config's script
// overrides applied.
func (c *Config) Descriptor(role firmware.Role) (firmware.TargetDescriptor, error) {
	d, err := firmware.Locate(role)
	if err != nil {
		return d, err
	}
	if c.OpenOCD.Interface != "" {
		d.InterfaceCfg = c.OpenOCD.Interface
	}
	if c.OpenOCD.Target != "" {
		d.TargetCfg = c.OpenOCD.Target
	}
	return d, nil
}

// Match converts the probe section into match criteria.
func (p ProbeConfig) Match() (usbscan.Match, error) {
	m := usbscan.Match{Keywords: p.Keywords}
	if p.VendorID != "" {
		v, err := parseHex16(p.VendorID)
		if err != nil {
			return m, fmt.Errorf("probe.vendor_id: %w", err)
		}
		m.VendorID = v
	}
	if p.ProductID != "" {
		v, err := parseHex16(p.ProductID)
		if err != nil {
			return m, fmt.Errorf("probe.product_id: %w", err)
		}
		m.ProductID = v
	}
	return m, nil
}

func parseHex16(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid hex ID %q", s)
	}
	return uint16(v), nil
}
