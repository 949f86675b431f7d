package firmware

import (
	"fmt"
	"path/filepath"
)

// Defaults for the BearPi-Pico H2821 boards all three roles ship on.
const (
	DefaultTriple  = "thumbv7em-none-eabi"
	DefaultProfile = "release"

	DefaultInterfaceCfg = "interface/cmsis-dap.cfg"
	DefaultTargetCfg    = "target/hi2821.cfg"
)

// TargetDescriptor carries everything needed to build and program one role.
type TargetDescriptor struct {
	Role         Role
	Package      string // cargo package that produces the firmware
	Artifact     string // file name of the linked image
	InterfaceCfg string // programmer interface script
	TargetCfg    string // programmer target script
}

// Label returns a short human-readable form used in log lines.
func (d TargetDescriptor) Label() string {
	return fmt.Sprintf("%s (%s)", d.Role, d.Package)
}

// Each role maps to exactly one descriptor. The table is fixed at compile
// time so a config file cannot invent a fourth role; config may still
// override the programmer scripts on the resolved descriptor.
var targets = map[Role]TargetDescriptor{
	RoleClient: {
		Role:         RoleClient,
		Package:      "aetherlink-client",
		Artifact:     "aetherlink-client",
		InterfaceCfg: DefaultInterfaceCfg,
		TargetCfg:    DefaultTargetCfg,
	},
	RoleForward: {
		Role:         RoleForward,
		Package:      "aetherlink-forward",
		Artifact:     "aetherlink-forward",
		InterfaceCfg: DefaultInterfaceCfg,
		TargetCfg:    DefaultTargetCfg,
	},
	RoleServer: {
		Role:         RoleServer,
		Package:      "aetherlink-server",
		Artifact:     "aetherlink-server",
		InterfaceCfg: DefaultInterfaceCfg,
		TargetCfg:    DefaultTargetCfg,
	},
}

// Locate resolves the descriptor for a role. Resolution is pure: it never
// touches the filesystem, so callers decide when existence matters.
func Locate(role Role) (TargetDescriptor, error) {
	d, ok := targets[role]
	if !ok {
		return TargetDescriptor{}, fmt.Errorf("no target registered for role %q", role)
	}
	return d, nil
}

// Layout describes where a cargo workspace places compiled images.
type Layout struct {
	WorkspaceDir string // cargo workspace root
	Triple       string // cross target triple
	Profile      string // cargo profile directory name
}

// DefaultLayout returns the layout for a checkout rooted at dir.
func DefaultLayout(dir string) Layout {
	return Layout{WorkspaceDir: dir, Triple: DefaultTriple, Profile: DefaultProfile}
}

// ArtifactPath derives the expected image path for a descriptor:
// <workspace>/target/<triple>/<profile>/<artifact>.
func (l Layout) ArtifactPath(d TargetDescriptor) string {
	return filepath.Join(l.WorkspaceDir, "target", l.Triple, l.Profile, d.Artifact)
}
